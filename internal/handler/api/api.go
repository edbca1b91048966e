// Package api exposes the billing core over a JSON HTTP API.
package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rmaciel/voltrack/internal/domain"
)

// Validator adapts go-playground/validator to Echo's request validation
// hook. Validation failures surface as domain validation errors so they map
// to 400 responses with per-field messages.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the request validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.Invalid("request.validate", err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = "failed validation: " + fe.Tag()
	}
	return &domain.ValidationError{Fields: fields, Op: "request.validate"}
}

// bindAndValidate binds the request body and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Invalid("request.bind", "malformed request body")
	}
	return c.Validate(req)
}

// pathUUID parses a UUID path parameter.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.EINVALID, "request.parse", "invalid %s", name)
	}
	return id, nil
}
