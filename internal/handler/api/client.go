package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/service"
)

// ClientHandler serves the client registry endpoints.
type ClientHandler struct {
	clients *service.ClientService
}

// NewClientHandler creates the client handler.
func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

type createClientRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	TaxID      string `json:"tax_id" validate:"required"`
	Address    string `json:"address"`
	AddressNum string `json:"address_num"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

type updateClientRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	AddressNum *string `json:"address_num"`
	Complement *string `json:"complement"`
	District   *string `json:"district"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
}

type clientResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	TaxID      string    `json:"tax_id"`
	Address    string    `json:"address,omitempty"`
	AddressNum string    `json:"address_num,omitempty"`
	Complement string    `json:"complement,omitempty"`
	District   string    `json:"district,omitempty"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toClientResponse(client *domain.Client) clientResponse {
	return clientResponse{
		ID:         client.ID.String(),
		Name:       client.Name,
		Email:      client.Email,
		Phone:      client.Phone,
		TaxID:      client.TaxID,
		Address:    client.Address,
		AddressNum: client.AddressNum,
		Complement: client.Complement,
		District:   client.District,
		City:       client.City,
		State:      client.State,
		PostalCode: client.PostalCode,
		CreatedAt:  client.CreatedAt,
		UpdatedAt:  client.UpdatedAt,
	}
}

// Create handles POST /api/v1/clients.
func (h *ClientHandler) Create(c echo.Context) error {
	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	client, err := h.clients.Create(c.Request().Context(), domain.CreateClientParams{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		TaxID:      req.TaxID,
		Address:    req.Address,
		AddressNum: req.AddressNum,
		Complement: req.Complement,
		District:   req.District,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// Get handles GET /api/v1/clients/:id.
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	client, err := h.clients.Get(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toClientResponse(client))
}

// List handles GET /api/v1/clients. A tax_id query parameter narrows the
// result to a single client.
func (h *ClientHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if taxID := c.QueryParam("tax_id"); taxID != "" {
		client, err := h.clients.GetByTaxID(ctx, taxID)
		if err != nil {
			return ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, []clientResponse{toClientResponse(client)})
	}

	clients, err := h.clients.List(ctx)
	if err != nil {
		return ErrorResponse(c, err)
	}

	out := make([]clientResponse, 0, len(clients))
	for i := range clients {
		out = append(out, toClientResponse(&clients[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PATCH /api/v1/clients/:id.
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	var req updateClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	client, err := h.clients.Update(c.Request().Context(), id, domain.UpdateClientParams{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		AddressNum: req.AddressNum,
		Complement: req.Complement,
		District:   req.District,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toClientResponse(client))
}

// Delete handles DELETE /api/v1/clients/:id.
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.clients.Delete(c.Request().Context(), id); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
