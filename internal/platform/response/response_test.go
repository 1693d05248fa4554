package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("bad"), http.StatusBadRequest, domain.CodeValidation},
		{"not found", domain.NewNotFoundError("Tour", "x"), http.StatusNotFound, "TOUR_NOT_FOUND"},
		{"business conflict", domain.NewConflictErrorWithCode("ALREADY_CANCELLED", "x"), http.StatusBadRequest, "ALREADY_CANCELLED"},
		{"optimistic lock", domain.NewConflictErrorWithCode(domain.CodeConcurrentModification, "x"), http.StatusConflict, domain.CodeConcurrentModification},
		{"forbidden", domain.NewForbiddenError("no"), http.StatusForbidden, domain.CodeForbidden},
		{"unauthorized", domain.NewUnauthorizedError("no"), http.StatusUnauthorized, domain.CodeUnauthorized},
		{"transient", domain.NewTransientError(domain.CodeBusy, "busy", nil), http.StatusServiceUnavailable, domain.CodeBusy},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, domain.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestError_HidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
	assert.Len(t, c.Errors, 1)
}

func TestError_RendersDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, domain.NewConflictErrorWithCode("INSUFFICIENT_CAPACITY", "full").WithDetail("available", 2))

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body.Error.Details["available"])
}

func TestPaginated_Meta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paginated(c, []int{1, 2}, 21, 2, 10)

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Meta)
	assert.Equal(t, 3, body.Meta.TotalPages)
}
