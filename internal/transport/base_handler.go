package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "message", message)
	} else {
		h.Logger.Debug("http error", "status", status, "message", message)
	}
	h.WriteJSON(w, status, map[string]interface{}{
		"code":    status,
		"message": message,
	})
}

// WriteAppError maps err onto its status code and typed body. Unclassified errors become a bare 500
// so store details never reach the client.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok || appErr.Code == internal.ErrCodeInternal {
		logger.From(r.Context()).ErrorContext(r.Context(), "request failed", "error", err)
		h.WriteJSON(w, http.StatusInternalServerError, internal.Response{
			Error: internal.NewInternalError("internal server error", nil),
		})
		return
	}

	lg := logger.From(r.Context())
	switch {
	case appErr.StatusCode >= http.StatusInternalServerError:
		lg.ErrorContext(r.Context(), "request failed", "code", appErr.Code, "error", err)
	case errors.Is(appErr, internal.ErrNotPermitted), errors.Is(appErr, internal.ErrInvalidCredentials):
		lg.WarnContext(r.Context(), "request denied", "code", appErr.Code)
	default:
		lg.DebugContext(r.Context(), "request rejected", "code", appErr.Code, "error", err)
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON reads the request body into dst, answering 400 itself on failure.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.WriteAppError(w, r, internal.ErrInvalidInput.WithMessage("invalid request body"))
		return false
	}
	return true
}
