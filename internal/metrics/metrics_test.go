package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/players/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/players/{id}", "418"))
	if got != 3 {
		t.Errorf("requests = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(m.httpRequests); n != 1 {
		t.Errorf("series = %d, want 1", n)
	}
}

func TestMiddlewareDefaultsStatus(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "fine")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/ok", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestRecorderCounters(t *testing.T) {
	m := New()
	m.GameRecorded()
	m.RecordFailed("aggregates")
	m.RecordFailed("")
	m.SinkFailed("archive")
	m.IdentitiesCreated(2)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"recorded", testutil.ToFloat64(m.gamesRecorded), 1},
		{"aggregates", testutil.ToFloat64(m.recordFailures.WithLabelValues("aggregates")), 1},
		{"validation", testutil.ToFloat64(m.recordFailures.WithLabelValues("validation")), 1},
		{"archive", testutil.ToFloat64(m.sinkFailures.WithLabelValues("archive")), 1},
		{"identities", testutil.ToFloat64(m.identities), 2},
		{"listeners", testutil.ToFloat64(m.streamListeners), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.GameRecorded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"artsociety_games_recorded_total 1", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.GameRecorded()
	m.RecordFailed("snapshot")
	m.SinkFailed("events")
	m.IdentitiesCreated(1)
	m.StreamOpened()
	m.StreamClosed()
}
