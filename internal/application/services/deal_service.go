package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// DealService tracks opportunities through the stage pipeline. Closing a
// deal as won produces a contract and its installment schedule in one
// transaction.
type DealService struct {
	deals     *persistence.DealRepository
	billing   *persistence.BillingRepository
	txManager *persistence.TransactionManager
	audit     *AuditService
}

func NewDealService(deals *persistence.DealRepository, billing *persistence.BillingRepository,
	txManager *persistence.TransactionManager, audit *AuditService) *DealService {
	return &DealService{deals: deals, billing: billing, txManager: txManager, audit: audit}
}

func (s *DealService) CreateDeal(ctx context.Context, tenantID, ownerID string, d *models.Deal) (*models.Deal, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, errors.NewValidationError("name", "deal name is required")
	}
	if d.Amount < 0 {
		return nil, errors.NewValidationError("amount", "amount must not be negative")
	}
	if d.Stage == "" {
		d.Stage = constants.DealStageQualification
	}
	if !constants.ValidDealStage(d.Stage) || constants.DealStageTerminal(d.Stage) {
		return nil, errors.NewValidationError("stage", "new deals must start in an open stage")
	}

	d.ID = utils.GenerateID()
	d.TenantID = tenantID
	d.OwnerID = ownerID
	d.ClosedAt = nil
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	if err := s.deals.Create(ctx, nil, d); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}
	return d, nil
}

func (s *DealService) GetDeal(ctx context.Context, tenantID, id string) (*models.Deal, error) {
	d, err := s.deals.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if d == nil {
		return nil, errors.NewNotFoundError("deal", id)
	}
	return d, nil
}

func (s *DealService) ListDeals(ctx context.Context, tenantID, stage, companyID, search string) ([]*models.Deal, error) {
	if stage != "" && !constants.ValidDealStage(stage) {
		return nil, errors.NewValidationError("stage", "unknown stage "+stage)
	}
	return s.deals.List(ctx, tenantID, stage, companyID, search)
}

func (s *DealService) UpdateDeal(ctx context.Context, tenantID, id string, in *models.Deal) (*models.Deal, error) {
	d, err := s.GetDeal(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if constants.DealStageTerminal(d.Stage) {
		return nil, errors.NewValidationError("deal", "closed deals are read-only")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.NewValidationError("name", "deal name is required")
	}
	if in.Amount < 0 {
		return nil, errors.NewValidationError("amount", "amount must not be negative")
	}

	d.CompanyID = in.CompanyID
	d.ContactID = in.ContactID
	d.Name = in.Name
	d.Amount = in.Amount
	d.CurrencyCode = in.CurrencyCode
	d.Source = in.Source
	if in.OwnerID != "" {
		d.OwnerID = in.OwnerID
	}
	d.UpdatedAt = time.Now()
	if err := s.deals.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}
	return d, nil
}

func (s *DealService) DeleteDeal(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetDeal(ctx, tenantID, id); err != nil {
		return err
	}
	return s.deals.Delete(ctx, tenantID, id)
}

// ValidateStageTransition enforces the pipeline order: open stages only
// move forward, won/lost are reachable from any open stage, and terminal
// stages never move again.
func ValidateStageTransition(from, to string) error {
	if !constants.ValidDealStage(to) {
		return errors.NewValidationError("stage", "unknown stage "+to)
	}
	if constants.DealStageTerminal(from) {
		return errors.NewValidationError("stage", "deal is already closed")
	}
	if constants.DealStageTerminal(to) {
		return nil
	}

	fromIdx, toIdx := -1, -1
	for i, stage := range constants.DealPipeline {
		if stage == from {
			fromIdx = i
		}
		if stage == to {
			toIdx = i
		}
	}
	if toIdx <= fromIdx {
		return errors.NewValidationError("stage", fmt.Sprintf("cannot move from %s back to %s", from, to))
	}
	return nil
}

// MoveStage advances a deal to a later open stage, or to lost. Won goes
// through CloseWon so the contract is always created.
func (s *DealService) MoveStage(ctx context.Context, tenantID, actorID, id, stage string) (*models.Deal, error) {
	if stage == constants.DealStageWon {
		return nil, errors.NewValidationError("stage", "use the close endpoint to win a deal")
	}

	d, err := s.GetDeal(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateStageTransition(d.Stage, stage); err != nil {
		return nil, err
	}

	var closedAt *time.Time
	if stage == constants.DealStageLost {
		now := time.Now()
		closedAt = &now
	}
	if err := s.deals.UpdateStage(ctx, nil, tenantID, id, stage, closedAt); err != nil {
		return nil, fmt.Errorf("failed to move stage: %w", err)
	}

	if stage == constants.DealStageLost {
		s.audit.Record(ctx, tenantID, actorID, "deal", id, constants.AuditDealLost, "deal closed as lost")
	}
	d.Stage = stage
	d.ClosedAt = closedAt
	return d, nil
}

// CloseWonRequest configures the contract generated by a win.
type CloseWonRequest struct {
	ContractName string `json:"contract_name"`
	Installments int    `json:"installments"`
}

// CloseWonResult is the deal, contract, and installment schedule produced
// by a win.
type CloseWonResult struct {
	Deal     *models.Deal          `json:"deal"`
	Contract *models.Contract      `json:"contract"`
	Payments []*models.PaymentTerm `json:"payments"`
}

// SplitInstallments divides total into n amounts rounded to cents, with
// the rounding remainder folded into the last installment so the parts
// always sum to the total.
func SplitInstallments(total float64, n int) []float64 {
	amounts := make([]float64, n)
	each := math.Floor(total/float64(n)*100) / 100
	var allocated float64
	for i := 0; i < n-1; i++ {
		amounts[i] = each
		allocated += each
	}
	amounts[n-1] = math.Round((total-allocated)*100) / 100
	return amounts
}

// CloseWon marks the deal won and creates its contract plus N monthly
// payment-term rows in a single transaction.
func (s *DealService) CloseWon(ctx context.Context, tenantID, actorID, id string, req CloseWonRequest) (*CloseWonResult, error) {
	d, err := s.GetDeal(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateStageTransition(d.Stage, constants.DealStageWon); err != nil {
		return nil, err
	}
	if req.Installments <= 0 {
		req.Installments = 1
	}
	if req.Installments > 60 {
		return nil, errors.NewValidationError("installments", "at most 60 installments")
	}
	if d.Amount <= 0 {
		return nil, errors.NewValidationError("amount", "deal amount must be positive to close as won")
	}

	now := time.Now()
	name := req.ContractName
	if name == "" {
		name = d.Name
	}

	contract := &models.Contract{
		ID:           utils.GenerateID(),
		TenantID:     tenantID,
		DealID:       d.ID,
		CompanyID:    d.CompanyID,
		Name:         name,
		TotalValue:   d.Amount,
		CurrencyCode: d.CurrencyCode,
		SignedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	amounts := SplitInstallments(d.Amount, req.Installments)
	payments := make([]*models.PaymentTerm, req.Installments)
	for i := range payments {
		payments[i] = &models.PaymentTerm{
			ID:         utils.GenerateID(),
			TenantID:   tenantID,
			ContractID: contract.ID,
			Seq:        i + 1,
			Amount:     amounts[i],
			DueDate:    now.AddDate(0, i+1, 0),
			Stage:      constants.PaymentStageScheduled,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	err = s.txManager.WithRetry(func(tx *sql.Tx) error {
		if err := s.deals.UpdateStage(ctx, tx, tenantID, id, constants.DealStageWon, &now); err != nil {
			return err
		}
		if err := s.billing.CreateContract(ctx, tx, contract); err != nil {
			return err
		}
		for _, p := range payments {
			if err := s.billing.CreatePaymentTerm(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("deal close-out failed: %w", err)
	}

	s.audit.Record(ctx, tenantID, actorID, "deal", id, constants.AuditDealWon,
		fmt.Sprintf("won; contract %s with %d installments", contract.ID, req.Installments))

	d.Stage = constants.DealStageWon
	d.ClosedAt = &now
	return &CloseWonResult{Deal: d, Contract: contract, Payments: payments}, nil
}
