package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/certlink/pkg/core/domain"
	"github.com/wadjakorntonsri/certlink/pkg/ports"
)

type HTTPHandler struct {
	service ports.CertificateService
	logger  *slog.Logger
}

func NewHTTPHandler(service ports.CertificateService, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{service: service, logger: logger}
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error      string     `json:"error"`
	Code       string     `json:"code"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
	ExpiredAgo string     `json:"expired_ago,omitempty"`
}

// Issue a certificate
func (h *HTTPHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "invalid_input"})
		return
	}

	issued, err := h.service.Issue(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issued)
}

// Preview builds a DEMO link without storing anything.
func (h *HTTPHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "invalid_input"})
		return
	}

	preview, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Resolve checks a link passed as ?fragment= without counting a view.
func (h *HTTPHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("fragment")
	if fragment == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "fragment missing", Code: "invalid_link"})
		return
	}

	res, err := h.service.Resolve(r.Context(), fragment)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Open is the public certificate page lookup. It records a view.
func (h *HTTPHandler) Open(w http.ResponseWriter, r *http.Request) {
	fragment := r.PathValue("fragment")

	res, err := h.service.Resolve(r.Context(), fragment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Async track view (skipped for previews and when "no_stat" is set)
	if !res.Preview && r.URL.Query().Get("no_stat") == "" {
		id := res.Certificate.ID
		referer := r.Header.Get("Referer")
		userAgent := r.UserAgent()
		ip := r.RemoteAddr
		go func() {
			// Request context is cancelled once the response is written
			if err := h.service.RecordView(context.Background(), id, referer, userAgent, ip); err != nil {
				h.logger.Warn("record view failed", "certificate_id", id, "error", err)
			}
		}()
	}

	writeJSON(w, http.StatusOK, res)
}

// Stats for a certificate
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetViewStats(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// LegacyURL returns the three-segment link of a stored certificate.
func (h *HTTPHandler) LegacyURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.LegacyURL(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	var expired *domain.ExpiredError
	switch {
	case errors.As(err, &expired):
		writeJSON(w, http.StatusGone, errorResponse{
			Error:      domain.ErrExpiredLink.Error(),
			Code:       "expired",
			ExpiredAt:  &expired.ExpiredAt,
			ExpiredAgo: expired.Ago.Round(time.Second).String(),
		})
	case errors.Is(err, domain.ErrExpiredLink):
		writeJSON(w, http.StatusGone, errorResponse{Error: err.Error(), Code: "expired"})
	case errors.Is(err, domain.ErrMalformedToken):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: domain.ErrMalformedToken.Error(), Code: "invalid_link"})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_input"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error(), Code: "not_found"})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
