package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler returns an http.Handler reporting process health and active
// subscription counts, mirroring the gatherer binary's own debug endpoints
// so an operator can point a load balancer or a curl command at the same
// paths it always has.
func (o *Orchestrator) HealthHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if err := o.pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{"status": "disconnected", "error": err.Error()}
		} else {
			health.Components["database"] = "connected"
		}

		dstats := o.discovery.Stats()
		health.Components["discovery"] = map[string]int{
			"active": dstats.Active, "pending": dstats.Pending, "overflow": dstats.Overflow,
		}
		if health.Status == "healthy" && dstats.Active == 0 && dstats.Pending == 0 {
			health.Status = "degraded"
		}

		health.Components["stream"] = string(o.stream.State())

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"discovery":         o.discovery.Stats(),
			"processor":         o.processor.Stats(),
			"writer":            o.writer.Stats(),
			"enrichment_active": o.enricher.ActiveTasks(),
			"stream_state":      o.stream.State(),
		})
	})

	return mux
}
