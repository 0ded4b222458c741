package rest

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/vibecover/internal/config"
	"github.com/ewilliams-labs/vibecover/internal/core/services"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc        *services.Orchestrator // Dependency on the Core Service
	creds      config.Credentials
	corsOrigin string
	logger     *zap.Logger
	router     *http.ServeMux
	chain      http.Handler
}

// Options carries the non-service settings the handler needs.
type Options struct {
	Credentials config.Credentials
	CORSOrigin  string
	Logger      *zap.Logger
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Orchestrator, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = config.DefaultCORSOrigin
	}
	h := &Handler{
		svc:        svc,
		creds:      opts.Credentials,
		corsOrigin: opts.CORSOrigin,
		logger:     opts.Logger,
		router:     http.NewServeMux(),
	}

	// Register Routes
	h.routes()

	// Outermost first: request id, access log, CORS, then routing.
	h.chain = h.withRequestID(h.withAccessLog(h.withCORS(h.router)))

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("GET /ready", h.ReadyCheck)
	h.router.HandleFunc("POST /api/generate", h.Generate)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Vibe Cover is live"})
}

// ReadyCheck reports whether every upstream credential is configured.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	missing := h.creds.Missing()
	if len(missing) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"missing": missing,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
