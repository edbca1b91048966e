package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/service"
)

// InvoiceHandler serves the invoice endpoints.
type InvoiceHandler struct {
	invoices *service.InvoiceService
}

// NewInvoiceHandler creates the invoice handler.
func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type createInvoiceRequest struct {
	ClientID    string `json:"client_id" validate:"required,uuid"`
	Description string `json:"description"`
	Amount      string `json:"amount" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
	Method      string `json:"method"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
}

type invoiceResponse struct {
	ID               string     `json:"id"`
	ClientID         string     `json:"client_id"`
	Number           string     `json:"number"`
	Description      string     `json:"description,omitempty"`
	Amount           string     `json:"amount"`
	Status           string     `json:"status"`
	DueDate          time.Time  `json:"due_date"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	GatewayPaymentID string     `json:"gateway_payment_id,omitempty"`
	BlockedAt        *time.Time `json:"blocked_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:               inv.ID.String(),
		ClientID:         inv.ClientID.String(),
		Number:           inv.Number,
		Description:      inv.Description,
		Amount:           inv.Amount.StringFixed(2),
		Status:           string(inv.Status),
		DueDate:          inv.DueDate,
		PaidAt:           inv.PaidAt,
		GatewayPaymentID: inv.GatewayPaymentID,
		BlockedAt:        inv.BlockedAt,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}

// Create handles POST /api/v1/invoices.
func (h *InvoiceHandler) Create(c echo.Context) error {
	var req createInvoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return ErrorResponse(c, domain.Invalid("request.parse", "invalid client_id"))
	}

	amount, err := parseMoney(req.Amount, "amount")
	if err != nil {
		return ErrorResponse(c, err)
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return ErrorResponse(c, domain.Invalid("request.parse", "invalid due_date, expected YYYY-MM-DD"))
	}

	invoice, err := h.invoices.Create(c.Request().Context(), service.CreateInvoiceInput{
		ClientID:      clientID,
		Description:   req.Description,
		Amount:        amount,
		DueDate:       dueDate,
		Method:        req.Method,
		FallbackEmail: req.Email,
		FallbackPhone: req.Phone,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, toInvoiceResponse(invoice))
}

// Get handles GET /api/v1/invoices/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	invoice, err := h.invoices.Get(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// List handles GET /api/v1/invoices with optional client_id and status
// query filters.
func (h *InvoiceHandler) List(c echo.Context) error {
	var filter domain.InvoiceFilter

	if raw := c.QueryParam("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			return ErrorResponse(c, domain.Invalid("request.parse", "invalid client_id"))
		}
		filter.ClientID = &clientID
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := domain.InvoiceStatus(raw)
		if !status.Valid() {
			return ErrorResponse(c, domain.Errorf(domain.EINVALID, "request.parse", "unknown status: %s", raw))
		}
		filter.Status = &status
	}

	invoices, err := h.invoices.List(c.Request().Context(), filter)
	if err != nil {
		return ErrorResponse(c, err)
	}

	out := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, toInvoiceResponse(&invoices[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// MarkPaid handles POST /api/v1/invoices/:id/pay.
func (h *InvoiceHandler) MarkPaid(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	invoice, err := h.invoices.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// Cancel handles POST /api/v1/invoices/:id/cancel.
func (h *InvoiceHandler) Cancel(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	invoice, err := h.invoices.Cancel(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// PixQRCode handles GET /api/v1/invoices/:id/pix.
func (h *InvoiceHandler) PixQRCode(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	qr, err := h.invoices.PixQRCode(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, qr)
}

// ResendNotification handles POST /api/v1/invoices/:id/resend-notification.
func (h *InvoiceHandler) ResendNotification(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.invoices.ResendNotification(c.Request().Context(), id); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/invoices/:id.
func (h *InvoiceHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.invoices.Delete(c.Request().Context(), id); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
