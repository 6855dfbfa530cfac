package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catalog-api/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Kind      string                 `json:"kind,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeError(w, statusCode, ErrorDetail{Message: message})
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	writeError(w, statusCode, ErrorDetail{Message: message, Details: details})
}

func writeError(w http.ResponseWriter, statusCode int, detail ErrorDetail) {
	detail.Code = http.StatusText(statusCode)
	detail.Timestamp = time.Now().UTC().Format(time.RFC3339)
	RespondWithJSON(w, statusCode, ErrorResponse{Error: detail})
}

// RespondWithValidationErrors sends the field errors of a rejected request body
func RespondWithValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", map[string]interface{}{
		"validation_errors": errs,
	})
}

// StatusForKind maps a domain error kind to its HTTP status
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindFormat, domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindOwnership:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError writes err with the status of its kind. Errors outside the
// domain taxonomy are logged and hidden behind a generic 500.
func RespondWithDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		logger.Error("Unhandled error", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeError(w, StatusForKind(domainErr.Kind), ErrorDetail{
		Message: domainErr.Error(),
		Kind:    string(domainErr.Kind),
	})
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Panic recovered",
						zap.Any("error", rec),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Stack("stack"),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
