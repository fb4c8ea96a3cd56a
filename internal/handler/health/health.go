package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const timeout = 3 * time.Second

// Checker verifies that a backing service is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

type result struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

// Handler runs every check in parallel and answers 503 if any failed.
// Failure details go to the log, not the response.
func Handler(logger *slog.Logger, checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			results = make(map[string]result, len(checks))
			status  = http.StatusOK
		)
		for name, c := range checks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				err := c.Check(ctx)
				res := result{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logger.Error("health check failed", "name", name, "error", err)
					res.Status = "error"
					status = http.StatusServiceUnavailable
				}
				results[name] = res
			}()
		}
		wg.Wait()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(results)
	}
}
