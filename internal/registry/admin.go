package registry

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/willibrandon/logary/core"
)

// serviceStatus is the /servicez JSON shape for one supervised service.
type serviceStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Fault string `json:"fault,omitempty"`
}

// AdminRouter builds the registry's optional HTTP admin surface: /healthz
// (503 if any health check is Faulted), /metrics (Prometheus exposition
// format via promhttp), and /servicez (every supervised service's current
// state as JSON).
//
// Grounded on the teacher's chi middleware example
// (adapters/middleware/examples/chi/main.go) for router construction and
// sinks/health.go's CheckHealth for the health-aggregation shape,
// generalized from "router health" to "every supervised service's
// health."
func (r *Registry) AdminRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.Recoverer)

	router.Get("/healthz", r.handleHealthz)
	router.Handle("/metrics", promhttp.HandlerFor(r.conf.promGatherer(), promhttp.HandlerOpts{}))
	router.Get("/servicez", r.handleServicez)

	return router
}

func (r *Registry) handleHealthz(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.healthChecks {
		if state, _ := p.GetState(); state == core.Faulted {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Registry) handleServicez(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	statuses := make([]serviceStatus, 0, len(r.targets)+len(r.metricSinks)+len(r.healthChecks))

	collect := func(name string, getState func() (core.ServiceState, error)) {
		state, err := getState()
		s := serviceStatus{Name: name, State: state.String()}
		if err != nil {
			s.Fault = err.Error()
		}
		statuses = append(statuses, s)
	}

	for name, t := range r.targets {
		t := t
		collect(name, t.GetState)
	}
	for name, m := range r.metricSinks {
		m := m
		collect(name, m.GetState)
	}
	for name, p := range r.healthChecks {
		p := p
		collect(name, p.GetState)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statuses)
}
