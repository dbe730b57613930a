package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Instrumenter wraps matched routes with request metrics keyed by route template.
type Instrumenter interface {
	Instrument(next http.Handler, pathLabel func(*http.Request) string) http.Handler
}

type RouterConfig struct {
	Surgeries    *SurgeryHandler
	SurgeryTypes *SurgeryTypeHandler
	Patients     *PatientHandler
	Staff        *StaffHandler
	Sessions     *SessionHandler
	Activities   *ActivityHandler
	Metrics      Instrumenter
	MetricsPath  string
	MetricsPage  http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	if cfg.Metrics != nil {
		router.Use(func(next http.Handler) http.Handler {
			return cfg.Metrics.Instrument(next, routeTemplate)
		})
	}

	if h := cfg.Surgeries; h != nil {
		router.HandleFunc("/surgeries", h.List).Methods(http.MethodGet)
		router.HandleFunc("/surgeries", h.Create).Methods(http.MethodPost)
		router.HandleFunc("/surgeries/{id}", h.Get).Methods(http.MethodGet)
		router.HandleFunc("/surgeries/{id}", h.Update).Methods(http.MethodPut)
		router.HandleFunc("/surgeries/{id}/start", h.Start).Methods(http.MethodPost)
		router.HandleFunc("/surgeries/{id}/complete", h.Complete).Methods(http.MethodPost)
		router.HandleFunc("/surgeries/{id}/cancel", h.Cancel).Methods(http.MethodPost)
	}

	if h := cfg.SurgeryTypes; h != nil {
		router.HandleFunc("/surgery-types", h.List).Methods(http.MethodGet)
		router.HandleFunc("/surgery-types", h.Create).Methods(http.MethodPost)
		router.HandleFunc("/surgery-types/{id}", h.Update).Methods(http.MethodPut)
		router.HandleFunc("/surgery-types/{id}", h.Delete).Methods(http.MethodDelete)
	}

	if h := cfg.Patients; h != nil {
		router.HandleFunc("/patients", h.List).Methods(http.MethodGet)
		router.HandleFunc("/patients", h.Create).Methods(http.MethodPost)
		router.HandleFunc("/patients/{id}", h.Get).Methods(http.MethodGet)
		router.HandleFunc("/patients/{id}", h.Update).Methods(http.MethodPut)
		router.HandleFunc("/patients/{id}", h.Delete).Methods(http.MethodDelete)
	}

	if h := cfg.Staff; h != nil {
		router.HandleFunc("/staff", h.List).Methods(http.MethodGet)
		router.HandleFunc("/staff", h.Create).Methods(http.MethodPost)
		router.HandleFunc("/staff/{id}", h.Update).Methods(http.MethodPut)
		router.HandleFunc("/staff/{id}", h.Delete).Methods(http.MethodDelete)
	}

	if h := cfg.Sessions; h != nil {
		router.HandleFunc("/sessions", h.List).Methods(http.MethodGet)
		router.HandleFunc("/sessions", h.Create).Methods(http.MethodPost)
		router.HandleFunc("/sessions/current", h.Current).Methods(http.MethodGet)
		router.HandleFunc("/sessions/current", h.Clear).Methods(http.MethodDelete)
		router.HandleFunc("/sessions/current/activity", h.Touch).Methods(http.MethodPost)
		router.HandleFunc("/sessions/current/warnings", h.Warnings).Methods(http.MethodGet)
		router.HandleFunc("/sessions/{id}", h.Terminate).Methods(http.MethodDelete)
		router.HandleFunc("/settings/session-timeout", h.GetTimeout).Methods(http.MethodGet)
		router.HandleFunc("/settings/session-timeout", h.UpdateTimeout).Methods(http.MethodPut)
	}

	if h := cfg.Activities; h != nil {
		router.HandleFunc("/activities", h.List).Methods(http.MethodGet)
		router.HandleFunc("/activities", h.Clear).Methods(http.MethodDelete)
	}

	if cfg.MetricsPage != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, cfg.MetricsPage).Methods(http.MethodGet)
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
