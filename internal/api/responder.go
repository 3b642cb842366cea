package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/search"
)

type errorResponse struct {
	Detail     string `json:"detail"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("response_encode_failed", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Detail:    message,
		Code:      code,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		loggerFromContext(r.Context(), s.logger).Error("request_failed", slog.String("error", err.Error()))
	}

	resp := errorResponse{
		Detail:    err.Error(),
		Code:      serrors.GetCode(err),
		RequestID: RequestIDFromContext(r.Context()),
	}
	if se, ok := serrors.As(err); ok {
		resp.Detail = se.Message
		resp.Suggestion = se.Suggestion
	}
	if resp.Code == "" {
		resp.Code = serrors.ErrCodeInternal
	}
	writeJSON(w, status, resp)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, search.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrInvalidMode), errors.Is(err, search.ErrInvalidParameter):
		return http.StatusBadRequest
	case serrors.GetCategory(err) == serrors.CategoryValidation:
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
