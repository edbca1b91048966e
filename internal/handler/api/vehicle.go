package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/service"
)

// VehicleHandler serves the vehicle registry endpoints.
type VehicleHandler struct {
	vehicles *service.VehicleService
}

// NewVehicleHandler creates the vehicle handler.
func NewVehicleHandler(vehicles *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type createVehicleRequest struct {
	ClientID     string `json:"client_id" validate:"required,uuid"`
	ChecklistID  string `json:"checklist_id" validate:"omitempty,uuid"`
	Model        string `json:"model"`
	Plate        string `json:"plate" validate:"required"`
	Year         int32  `json:"year"`
	Color        string `json:"color"`
	TrackerModel string `json:"tracker_model"`
	TrackerIMEI  string `json:"tracker_imei"`
	MonthlyFee   string `json:"monthly_fee" validate:"required"`
	InstalledAt  string `json:"installed_at"`
}

type updateVehicleRequest struct {
	Model        *string `json:"model"`
	Plate        *string `json:"plate"`
	Year         *int32  `json:"year"`
	Color        *string `json:"color"`
	TrackerModel *string `json:"tracker_model"`
	TrackerIMEI  *string `json:"tracker_imei"`
	MonthlyFee   *string `json:"monthly_fee"`
}

type setVehicleStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type vehicleResponse struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	ChecklistID  string     `json:"checklist_id,omitempty"`
	Model        string     `json:"model,omitempty"`
	Plate        string     `json:"plate"`
	Year         int32      `json:"year,omitempty"`
	Color        string     `json:"color,omitempty"`
	TrackerModel string     `json:"tracker_model,omitempty"`
	TrackerIMEI  string     `json:"tracker_imei,omitempty"`
	MonthlyFee   string     `json:"monthly_fee"`
	InstalledAt  *time.Time `json:"installed_at,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toVehicleResponse(v *domain.Vehicle) vehicleResponse {
	resp := vehicleResponse{
		ID:           v.ID.String(),
		ClientID:     v.ClientID.String(),
		Model:        v.Model,
		Plate:        v.Plate,
		Year:         v.Year,
		Color:        v.Color,
		TrackerModel: v.TrackerModel,
		TrackerIMEI:  v.TrackerIMEI,
		MonthlyFee:   v.MonthlyFee.StringFixed(2),
		InstalledAt:  v.InstalledAt,
		Status:       string(v.Status),
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.ChecklistID != nil {
		resp.ChecklistID = v.ChecklistID.String()
	}
	return resp
}

// parseMoney parses a decimal amount from its string form.
func parseMoney(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.Errorf(domain.EINVALID, "request.parse", "invalid %s", field)
	}
	return value, nil
}

// Create handles POST /api/v1/vehicles.
func (h *VehicleHandler) Create(c echo.Context) error {
	var req createVehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return ErrorResponse(c, domain.Invalid("request.parse", "invalid client_id"))
	}

	fee, err := parseMoney(req.MonthlyFee, "monthly_fee")
	if err != nil {
		return ErrorResponse(c, err)
	}

	params := domain.CreateVehicleParams{
		ClientID:     clientID,
		Model:        req.Model,
		Plate:        req.Plate,
		Year:         req.Year,
		Color:        req.Color,
		TrackerModel: req.TrackerModel,
		TrackerIMEI:  req.TrackerIMEI,
		MonthlyFee:   fee,
	}

	if req.ChecklistID != "" {
		checklistID, err := uuid.Parse(req.ChecklistID)
		if err != nil {
			return ErrorResponse(c, domain.Invalid("request.parse", "invalid checklist_id"))
		}
		params.ChecklistID = &checklistID
	}
	if req.InstalledAt != "" {
		installedAt, err := time.Parse(time.RFC3339, req.InstalledAt)
		if err != nil {
			return ErrorResponse(c, domain.Invalid("request.parse", "invalid installed_at"))
		}
		params.InstalledAt = &installedAt
	}

	vehicle, err := h.vehicles.Create(c.Request().Context(), params)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, toVehicleResponse(vehicle))
}

// Get handles GET /api/v1/vehicles/:id.
func (h *VehicleHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	vehicle, err := h.vehicles.Get(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toVehicleResponse(vehicle))
}

// List handles GET /api/v1/vehicles.
func (h *VehicleHandler) List(c echo.Context) error {
	vehicles, err := h.vehicles.List(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, err)
	}

	out := make([]vehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		out = append(out, toVehicleResponse(&vehicles[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// ListByClient handles GET /api/v1/clients/:id/vehicles.
func (h *VehicleHandler) ListByClient(c echo.Context) error {
	clientID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	vehicles, err := h.vehicles.ListByClient(c.Request().Context(), clientID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	out := make([]vehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		out = append(out, toVehicleResponse(&vehicles[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PATCH /api/v1/vehicles/:id.
func (h *VehicleHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	var req updateVehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	params := domain.UpdateVehicleParams{
		Model:        req.Model,
		Plate:        req.Plate,
		Year:         req.Year,
		Color:        req.Color,
		TrackerModel: req.TrackerModel,
		TrackerIMEI:  req.TrackerIMEI,
	}
	if req.MonthlyFee != nil {
		fee, err := parseMoney(*req.MonthlyFee, "monthly_fee")
		if err != nil {
			return ErrorResponse(c, err)
		}
		params.MonthlyFee = &fee
	}

	vehicle, err := h.vehicles.Update(c.Request().Context(), id, params)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toVehicleResponse(vehicle))
}

// SetStatus handles PUT /api/v1/vehicles/:id/status.
func (h *VehicleHandler) SetStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	var req setVehicleStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.vehicles.SetStatus(c.Request().Context(), id, domain.VehicleStatus(req.Status)); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// UnblockFleet handles POST /api/v1/clients/:id/unblock.
func (h *VehicleHandler) UnblockFleet(c echo.Context) error {
	clientID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	unblocked, err := h.vehicles.UnblockFleet(c.Request().Context(), clientID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]int{"unblocked": unblocked})
}

// Delete handles DELETE /api/v1/vehicles/:id.
func (h *VehicleHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.vehicles.Delete(c.Request().Context(), id); err != nil {
		return ErrorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
