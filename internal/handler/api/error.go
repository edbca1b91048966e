package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rmaciel/voltrack/internal/domain"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EGATEWAY:
		return http.StatusBadGateway
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// ErrorResponse writes a domain error as a JSON error payload. Internal
// error details are never exposed to the client.
func ErrorResponse(c echo.Context, err error) error {
	if verr, ok := err.(*domain.ValidationError); ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    domain.EINVALID,
			Message: verr.Error(),
			Fields:  verr.Fields,
		}})
	}

	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	if code == domain.EINTERNAL {
		message = "An internal error has occurred."
	}

	return c.JSON(ErrorCodeToHTTPStatus(code), errorResponse{Error: errorBody{
		Code:    code,
		Message: message,
	}})
}
