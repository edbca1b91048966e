package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/service"
)

// ChecklistHandler serves checklist endpoints, including the public
// signature routes.
type ChecklistHandler struct {
	checklists *service.ChecklistService
}

// NewChecklistHandler creates the checklist handler.
func NewChecklistHandler(checklists *service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklists: checklists}
}

type createChecklistRequest struct {
	ClientID     string `json:"client_id" validate:"required,uuid"`
	Model        string `json:"model"`
	Plate        string `json:"plate" validate:"required"`
	TrackerModel string `json:"tracker_model"`
	TrackerIMEI  string `json:"tracker_imei"`
	Notes        string `json:"notes"`
}

type signChecklistRequest struct {
	SignerName string `json:"signer_name" validate:"required"`
}

type completeChecklistRequest struct {
	MonthlyFee string `json:"monthly_fee" validate:"required"`
}

type checklistResponse struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	VehicleID    string     `json:"vehicle_id,omitempty"`
	Model        string     `json:"model,omitempty"`
	Plate        string     `json:"plate,omitempty"`
	TrackerModel string     `json:"tracker_model,omitempty"`
	TrackerIMEI  string     `json:"tracker_imei,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	SignerName   string     `json:"signer_name,omitempty"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toChecklistResponse(cl *domain.Checklist) checklistResponse {
	resp := checklistResponse{
		ID:           cl.ID.String(),
		ClientID:     cl.ClientID.String(),
		Model:        cl.Model,
		Plate:        cl.Plate,
		TrackerModel: cl.TrackerModel,
		TrackerIMEI:  cl.TrackerIMEI,
		Notes:        cl.Notes,
		Status:       string(cl.Status),
		SignerName:   cl.SignerName,
		SignedAt:     cl.SignedAt,
		CreatedAt:    cl.CreatedAt,
		UpdatedAt:    cl.UpdatedAt,
	}
	if cl.VehicleID != nil {
		resp.VehicleID = cl.VehicleID.String()
	}
	return resp
}

// Create handles POST /api/v1/checklists.
func (h *ChecklistHandler) Create(c echo.Context) error {
	var req createChecklistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return ErrorResponse(c, domain.Invalid("request.parse", "invalid client_id"))
	}

	checklist, err := h.checklists.Create(c.Request().Context(), domain.CreateChecklistParams{
		ClientID:     clientID,
		Model:        req.Model,
		Plate:        req.Plate,
		TrackerModel: req.TrackerModel,
		TrackerIMEI:  req.TrackerIMEI,
		Notes:        req.Notes,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, toChecklistResponse(checklist))
}

// Get handles GET /api/v1/checklists/:id.
func (h *ChecklistHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	checklist, err := h.checklists.Get(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toChecklistResponse(checklist))
}

// List handles GET /api/v1/checklists.
func (h *ChecklistHandler) List(c echo.Context) error {
	checklists, err := h.checklists.List(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, err)
	}

	out := make([]checklistResponse, 0, len(checklists))
	for i := range checklists {
		out = append(out, toChecklistResponse(&checklists[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// ListByClient handles GET /api/v1/clients/:id/checklists.
func (h *ChecklistHandler) ListByClient(c echo.Context) error {
	clientID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	checklists, err := h.checklists.ListByClient(c.Request().Context(), clientID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	out := make([]checklistResponse, 0, len(checklists))
	for i := range checklists {
		out = append(out, toChecklistResponse(&checklists[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// SendSignatureLink handles POST /api/v1/checklists/:id/send-link.
func (h *ChecklistHandler) SendSignatureLink(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.checklists.SendSignatureLink(c.Request().Context(), id); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetByToken handles GET /assinar/:token, the public signature page lookup.
func (h *ChecklistHandler) GetByToken(c echo.Context) error {
	checklist, err := h.checklists.GetBySignToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toChecklistResponse(checklist))
}

// Sign handles POST /assinar/:token, the public signature submission.
func (h *ChecklistHandler) Sign(c echo.Context) error {
	var req signChecklistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	checklist, err := h.checklists.Sign(c.Request().Context(), c.Param("token"), req.SignerName)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toChecklistResponse(checklist))
}

// Complete handles POST /api/v1/checklists/:id/complete.
func (h *ChecklistHandler) Complete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	var req completeChecklistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	fee, err := parseMoney(req.MonthlyFee, "monthly_fee")
	if err != nil {
		return ErrorResponse(c, err)
	}

	checklist, err := h.checklists.Complete(c.Request().Context(), id, service.CompleteChecklistInput{MonthlyFee: fee})
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toChecklistResponse(checklist))
}

// Delete handles DELETE /api/v1/checklists/:id.
func (h *ChecklistHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.checklists.Delete(c.Request().Context(), id); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
