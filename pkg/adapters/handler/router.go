package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/certlink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(service ports.CertificateService, logger *slog.Logger) http.Handler {
	h := NewHTTPHandler(service, logger)
	mw := NewMiddleware(logger)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /api/v1/certificate/{fragment...}", h.Open)
	mux.HandleFunc("GET /api/v1/resolve", h.Resolve)

	// Dashboard Routes
	mux.HandleFunc("POST /api/v1/certificates", h.Issue)
	mux.HandleFunc("POST /api/v1/certificates/preview", h.Preview)
	mux.HandleFunc("GET /api/v1/certificates/{id}/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/certificates/{id}/legacy-url", h.LegacyURL)

	return mw.RequestLogger(mux)
}
