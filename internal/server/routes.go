package server

import (
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/Nicoding1996/art-society/internal/handler/health"
	"github.com/Nicoding1996/art-society/internal/handler/wsfeed"
)

func addRoutes(r chi.Router, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Art Society API", "/openapi.json", "/docs"))
	r.Get("/healthz", health.Handler(d.Logger, d.Health))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	r.Mount("/ws", wsfeed.NewHandler(d.Logger, d.Broker, d.Metrics).Routes())

	r.Route("/api", func(r chi.Router) {
		r.Get("/history", handleHistory(d.History, d.Logger))
		r.Post("/games", handleRecordGame(d.Recorder, d.Logger))
		r.Post("/scores", handleScores(d.Logger))
		r.Post("/prestige/move", handlePrestigeMove(d.Logger))
		r.Get("/players/search", handlePlayerSearch(d.Identities, d.Logger))
		r.Get("/events", handleEvents(d.Broker, d.Metrics))

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuthMiddleware(d.AdminTokenHash))
			r.Post("/import", handleAdminImport(d.Importer, d.Logger))
			r.Post("/reset", handleAdminReset(d.Importer, d.Logger))
		})
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			d.Logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
