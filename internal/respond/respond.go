// Package respond writes the JSON envelope shared by handlers and middleware.
package respond

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/logging"
	"github.com/petjoyful/profile-service/internal/models"
)

type Responder struct {
	// DevMode adds internal error detail to responses.
	DevMode bool
	Logger  *logging.Logger
}

func New(devMode bool, logger *logging.Logger) *Responder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{DevMode: devMode, Logger: logger}
}

func (rs *Responder) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger().Warn("encode response", "status", status, "error", err)
	}
}

// Error maps err to its status code and envelope. Errors without a kind are
// reported as internal errors.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(err)
	}
	status := appErr.HTTPStatus()

	resp := models.NewErrorResponse(appErr.Message)
	if len(appErr.Fields) > 0 {
		resp = models.NewValidationErrorResponse(appErr.Message, appErr.Fields)
	}
	if rs.DevMode && (appErr.Err != nil || !ok) {
		resp.Error = err.Error()
	}

	kv := []any{
		"kind", string(appErr.Kind),
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimw.GetReqID(r.Context()),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		rs.logger().Error("request failed", kv...)
	} else {
		rs.logger().Debug("request rejected", kv...)
	}

	rs.JSON(w, status, resp)
}

func (rs *Responder) logger() *logging.Logger {
	if rs == nil || rs.Logger == nil {
		return logging.Default()
	}
	return rs.Logger
}
