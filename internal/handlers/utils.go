package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/services"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextUserIDKey contextKey = "uid"

// ErrorResponse is the payload of every non-2xx response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func withUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, contextUserIDKey, userID)
}

// UserIDFromContext returns the caller resolved by RequireAuth.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(contextUserIDKey).(int)
	if !ok || userID < 1 {
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError maps service errors to status codes. Anything
// unrecognized is logged and reported as internalMessage.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error, internalMessage string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: verr.Error(),
			Details: map[string]string{verr.Field: verr.Message},
		})
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, services.ErrUnauthorized.Error())
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusUnauthorized, services.ErrForbidden.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Error(internalMessage)
		writeError(w, http.StatusInternalServerError, internalMessage)
	}
}

// normalizer is implemented by request bodies that clean up fields before
// validation.
type normalizer interface {
	normalize()
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
// It writes the 400 response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, "invalid request")
		}
		return false
	}

	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: "validation failed",
			Details: validationDetails(err),
		})
		return false
	}
	return true
}

func parseTaskID(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "taskID"))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid task id")
	}
	return id, nil
}
