package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every error envelope carries code, message and RFC3339 timestamp", prop.ForAll(
		func(message string, statusCode int) bool {
			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			if response.Error.Code != http.StatusText(statusCode) || response.Error.Message != message {
				return false
			}
			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.OneConstOf(
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
		),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_DomainErrorsMapToStatus(t *testing.T) {
	expected := map[domain.ErrorKind]int{
		domain.KindFormat:     http.StatusBadRequest,
		domain.KindValidation: http.StatusBadRequest,
		domain.KindNotFound:   http.StatusNotFound,
		domain.KindOwnership:  http.StatusForbidden,
		domain.KindConflict:   http.StatusConflict,
	}

	properties := gopter.NewProperties(nil)

	properties.Property("domain errors keep their message and map to the status of their kind", prop.ForAll(
		func(kind domain.ErrorKind, message string, wrapped bool) bool {
			var err error = &domain.Error{Kind: kind, Message: message}
			if wrapped {
				err = fmt.Errorf("update product: %w", err)
			}

			w := httptest.NewRecorder()
			RespondWithDomainError(w, zap.NewNop(), err)

			var response ErrorResponse
			if json.Unmarshal(w.Body.Bytes(), &response) != nil {
				return false
			}
			return w.Code == expected[kind] &&
				response.Error.Message == message &&
				response.Error.Kind == string(kind)
		},
		gen.OneConstOf(domain.KindFormat, domain.KindValidation, domain.KindNotFound, domain.KindOwnership, domain.KindConflict),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithDomainError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithDomainError(w, zap.NewNop(), errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := decodeError(t, w)
	assert.Equal(t, "internal server error", response.Error.Message)
	assert.Empty(t, response.Error.Kind)
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{{Field: "Title", Message: "This field is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeError(t, w)
	assert.Equal(t, "validation failed", response.Error.Message)
	assert.Contains(t, response.Error.Details, "validation_errors")
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Error.Message)
}
