package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/certlink/pkg/logging"
)

func TestRequestLogger(t *testing.T) {
	existing := uuid.NewString()

	tests := []struct {
		name         string
		requestID    string
		status       int
		keepID       bool
		expectedText string
	}{
		{
			name:         "No ID - generated",
			status:       http.StatusOK,
			expectedText: "status=200",
		},
		{
			name:         "Valid ID - kept",
			requestID:    existing,
			status:       http.StatusNotFound,
			keepID:       true,
			expectedText: "status=404",
		},
		{
			name:         "Garbage ID - replaced",
			requestID:    "not-a-uuid",
			status:       http.StatusInternalServerError,
			expectedText: "level=ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mw := NewMiddleware(logging.NewWithWriter(&buf, "debug", "text"))

			req := httptest.NewRequest("GET", "/api/v1/resolve", nil)
			if tt.requestID != "" {
				req.Header.Set(requestIDHeader, tt.requestID)
			}

			rr := httptest.NewRecorder()
			handler := mw.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(rr, req)

			got := rr.Header().Get(requestIDHeader)
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("response request id %q is not a UUID", got)
			}
			if tt.keepID && got != existing {
				t.Errorf("request id = %s, want %s", got, existing)
			}
			if !tt.keepID && got == tt.requestID {
				t.Errorf("request id %q should have been replaced", got)
			}
			if !strings.Contains(buf.String(), tt.expectedText) || !strings.Contains(buf.String(), "request_id="+got) {
				t.Errorf("log line missing fields: %s", buf.String())
			}
		})
	}
}
