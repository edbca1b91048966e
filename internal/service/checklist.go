package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/messaging"
)

// CompleteChecklistInput carries the billing details needed when completing
// a checklist creates the vehicle record.
type CompleteChecklistInput struct {
	MonthlyFee decimal.Decimal
}

// ChecklistService manages installation checklists and their electronic
// signature workflow. The signature link is delivered to the client over
// WhatsApp.
type ChecklistService struct {
	checklists domain.ChecklistStore
	clients    domain.ClientStore
	vehicles   domain.VehicleStore
	dispatcher *messaging.Dispatcher
	logger     zerolog.Logger

	// signBaseURL is the public URL prefix the sign token is appended to.
	signBaseURL string

	now func() time.Time
}

// NewChecklistService creates the checklist service. signBaseURL is the
// public prefix for signature links, e.g. "https://app.example.com/assinar".
func NewChecklistService(
	checklists domain.ChecklistStore,
	clients domain.ClientStore,
	vehicles domain.VehicleStore,
	dispatcher *messaging.Dispatcher,
	signBaseURL string,
	logger zerolog.Logger,
) *ChecklistService {
	return &ChecklistService{
		checklists:  checklists,
		clients:     clients,
		vehicles:    vehicles,
		dispatcher:  dispatcher,
		signBaseURL: strings.TrimRight(signBaseURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

// Create opens a checklist for an installation and generates its signature
// token.
func (s *ChecklistService) Create(ctx context.Context, params domain.CreateChecklistParams) (*domain.Checklist, error) {
	if params.ClientID == uuid.Nil {
		return nil, domain.Invalid("checklist.create", "client is required")
	}
	if params.Plate == "" {
		return nil, domain.Invalid("checklist.create", "plate is required")
	}

	if _, err := s.clients.GetByID(ctx, params.ClientID); err != nil {
		return nil, err
	}

	params.SignToken = strings.ReplaceAll(uuid.New().String(), "-", "")

	checklist, err := s.checklists.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("checklist_id", checklist.ID.String()).
		Str("client_id", checklist.ClientID.String()).
		Str("plate", checklist.Plate).
		Msg("checklist opened")

	return checklist, nil
}

// Get retrieves a checklist by ID.
func (s *ChecklistService) Get(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	return s.checklists.GetByID(ctx, id)
}

// GetBySignToken retrieves a checklist by its signature token. Used by the
// public signature page.
func (s *ChecklistService) GetBySignToken(ctx context.Context, token string) (*domain.Checklist, error) {
	if token == "" {
		return nil, domain.Invalid("checklist.get_by_token", "token is required")
	}
	return s.checklists.GetBySignToken(ctx, token)
}

// List returns all checklists.
func (s *ChecklistService) List(ctx context.Context) ([]domain.Checklist, error) {
	return s.checklists.List(ctx)
}

// ListByClient returns a client's checklists.
func (s *ChecklistService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Checklist, error) {
	return s.checklists.ListByClient(ctx, clientID)
}

// SendSignatureLink delivers the signature link to the client over WhatsApp.
func (s *ChecklistService) SendSignatureLink(ctx context.Context, id uuid.UUID) error {
	checklist, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if checklist.Status != domain.ChecklistStatusPending {
		return domain.Errorf(domain.ECONFLICT, "checklist.send_link", "checklist is already %s", checklist.Status)
	}

	client, err := s.clients.GetByID(ctx, checklist.ClientID)
	if err != nil {
		return err
	}
	if client.Phone == "" {
		return domain.Invalid("checklist.send_link", "client has no phone number")
	}

	link := fmt.Sprintf("%s/%s", s.signBaseURL, checklist.SignToken)
	text := fmt.Sprintf(
		"Olá %s! O checklist de instalação do veículo %s (%s) está pronto para assinatura: %s",
		client.Name, checklist.Model, checklist.Plate, link,
	)

	if _, err := s.dispatcher.Dispatch(ctx, client.Phone, text); err != nil {
		return err
	}

	s.logger.Info().
		Str("checklist_id", checklist.ID.String()).
		Str("client_id", client.ID.String()).
		Msg("signature link sent")

	return nil
}

// Sign records the client's electronic signature. Only pending checklists
// can be signed.
func (s *ChecklistService) Sign(ctx context.Context, token, signerName string) (*domain.Checklist, error) {
	if signerName == "" {
		return nil, domain.Invalid("checklist.sign", "signer name is required")
	}

	checklist, err := s.checklists.GetBySignToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if checklist.Status != domain.ChecklistStatusPending {
		return nil, domain.Errorf(domain.ECONFLICT, "checklist.sign", "checklist is already %s", checklist.Status)
	}

	signedAt := s.now()
	if err := s.checklists.MarkSigned(ctx, checklist.ID, signerName, signedAt); err != nil {
		return nil, err
	}

	checklist.Status = domain.ChecklistStatusSigned
	checklist.SignerName = signerName
	checklist.SignedAt = &signedAt

	s.logger.Info().
		Str("checklist_id", checklist.ID.String()).
		Str("signer", signerName).
		Msg("checklist signed")

	return checklist, nil
}

// Complete closes a signed checklist, creating the vehicle record from the
// intake details when the checklist is not yet linked to one.
func (s *ChecklistService) Complete(ctx context.Context, id uuid.UUID, input CompleteChecklistInput) (*domain.Checklist, error) {
	checklist, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if checklist.Status != domain.ChecklistStatusSigned {
		return nil, domain.Errorf(domain.ECONFLICT, "checklist.complete", "cannot complete %s checklist", checklist.Status)
	}

	if checklist.VehicleID == nil {
		if !input.MonthlyFee.IsPositive() {
			return nil, domain.Invalid("checklist.complete", "monthly fee must be positive")
		}
		installedAt := s.now()
		vehicle, err := s.vehicles.Create(ctx, domain.CreateVehicleParams{
			ClientID:     checklist.ClientID,
			ChecklistID:  &checklist.ID,
			Model:        checklist.Model,
			Plate:        checklist.Plate,
			TrackerModel: checklist.TrackerModel,
			TrackerIMEI:  checklist.TrackerIMEI,
			MonthlyFee:   input.MonthlyFee,
			InstalledAt:  &installedAt,
		})
		if err != nil {
			return nil, err
		}
		checklist.VehicleID = &vehicle.ID
	}

	if err := s.checklists.MarkCompleted(ctx, checklist.ID, checklist.VehicleID); err != nil {
		return nil, err
	}
	checklist.Status = domain.ChecklistStatusCompleted

	s.logger.Info().
		Str("checklist_id", checklist.ID.String()).
		Msg("checklist completed")

	return checklist, nil
}

// Delete removes a checklist.
func (s *ChecklistService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.checklists.Delete(ctx, id)
}
