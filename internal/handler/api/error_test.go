package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaciel/voltrack/internal/domain"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EGATEWAY, http.StatusBadGateway},
		{domain.ENOTIMPL, http.StatusNotImplemented},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"bogus", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func recordError(t *testing.T, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ErrorResponse(c, err))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorResponse_DomainError(t *testing.T) {
	err := domain.NotFound("invoice.get", "invoice", "2b1c9a3e")

	rec, body := recordError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.ENOTFOUND, body.Error.Code)
	assert.Equal(t, "invoice not found: 2b1c9a3e", body.Error.Message)
}

func TestErrorResponse_HidesInternalDetails(t *testing.T) {
	err := errors.New("pq: connection refused on 10.0.0.4:5432")

	rec, body := recordError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.EINTERNAL, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "10.0.0.4")
	assert.Equal(t, "An internal error has occurred.", body.Error.Message)
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	err := &domain.ValidationError{
		Op: "request.validate",
		Fields: map[string]string{
			"Name":   "failed validation: required",
			"Amount": "failed validation: gt",
		},
	}

	rec, body := recordError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "failed validation: required", body.Error.Fields["Name"])
	assert.Equal(t, "failed validation: gt", body.Error.Fields["Amount"])
}

func TestValidator_CollectsFieldErrors(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Email string `validate:"omitempty,email"`
	}

	v := NewValidator()
	err := v.Validate(payload{Email: "not-an-email"})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "Name")
	assert.Contains(t, verr.Fields, "Email")

	assert.NoError(t, v.Validate(payload{Name: "ok", Email: "ok@example.com"}))
}
