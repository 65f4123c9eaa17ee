package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// PaymentService manages contracts, payment terms, and their to-dos, and
// runs the stage recommendation cascade. Stage writes are best-effort and
// last-write-wins; a change appends an audit entry.
type PaymentService struct {
	billing *persistence.BillingRepository
	audit   *AuditService
}

func NewPaymentService(billing *persistence.BillingRepository, audit *AuditService) *PaymentService {
	return &PaymentService{billing: billing, audit: audit}
}

// RecommendStage evaluates the cascade for one installment:
//  1. a paid date always wins,
//  2. past due with every to-do complete means the installment is fully
//     deliverable and the payment is late: overdue,
//  3. due within the due-soon window (or past due but still blocked on
//     open to-dos): due_soon,
//  4. otherwise scheduled.
func RecommendStage(paidDate *time.Time, dueDate time.Time, todosDone bool, now time.Time) string {
	if paidDate != nil {
		return constants.PaymentStagePaid
	}
	if now.After(dueDate) && todosDone {
		return constants.PaymentStageOverdue
	}
	if dueDate.Sub(now) <= constants.DueSoonWindowDays*24*time.Hour {
		return constants.PaymentStageDueSoon
	}
	return constants.PaymentStageScheduled
}

// --- Contracts ---

func (s *PaymentService) GetContract(ctx context.Context, tenantID, id string) (*models.Contract, error) {
	c, err := s.billing.GetContract(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if c == nil {
		return nil, errors.NewNotFoundError("contract", id)
	}
	return c, nil
}

func (s *PaymentService) ListContracts(ctx context.Context, tenantID, companyID string) ([]*models.Contract, error) {
	return s.billing.ListContracts(ctx, tenantID, companyID)
}

func (s *PaymentService) UpdateContract(ctx context.Context, tenantID, id string, in *models.Contract) (*models.Contract, error) {
	c, err := s.GetContract(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.NewValidationError("name", "contract name is required")
	}
	if in.TotalValue < 0 {
		return nil, errors.NewValidationError("total_value", "total value must not be negative")
	}

	c.Name = in.Name
	c.TotalValue = in.TotalValue
	c.CurrencyCode = in.CurrencyCode
	if !in.SignedAt.IsZero() {
		c.SignedAt = in.SignedAt
	}
	c.UpdatedAt = time.Now()
	if err := s.billing.UpdateContract(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}
	return c, nil
}

func (s *PaymentService) DeleteContract(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetContract(ctx, tenantID, id); err != nil {
		return err
	}

	terms, err := s.billing.ListPaymentTerms(ctx, tenantID, id, "")
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	for _, t := range terms {
		if t.Stage == constants.PaymentStagePaid {
			return errors.NewValidationError("contract", "contract has paid installments and cannot be deleted")
		}
	}
	for _, t := range terms {
		if err := s.billing.DeletePaymentTerm(ctx, tenantID, t.ID); err != nil {
			return fmt.Errorf("failed to delete payment term: %w", err)
		}
	}
	return s.billing.DeleteContract(ctx, tenantID, id)
}

// --- Payment terms ---

// GetPaymentTerm loads an installment with its to-dos and opportunistically
// applies the stage recommendation, mirroring the stage refresh that runs
// when a payment record is opened.
func (s *PaymentService) GetPaymentTerm(ctx context.Context, tenantID, actorID, id string) (*models.PaymentTerm, error) {
	p, err := s.billing.GetPaymentTerm(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("payment term", id)
	}

	todos, err := s.billing.ListTodos(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	p.Todos = todos

	done := true
	for _, t := range todos {
		if !t.Done {
			done = false
			break
		}
	}
	s.applyRecommendation(ctx, actorID, p, done, time.Now())
	return p, nil
}

// applyRecommendation writes the recommended stage if it differs from the
// stored one. Best effort: a failed write keeps the stored stage and only
// logs.
func (s *PaymentService) applyRecommendation(ctx context.Context, actorID string, p *models.PaymentTerm, todosDone bool, now time.Time) {
	recommended := RecommendStage(p.PaidDate, p.DueDate, todosDone, now)
	if recommended == p.Stage {
		return
	}

	if err := s.billing.UpdatePaymentStage(ctx, p.TenantID, p.ID, recommended); err != nil {
		log.Printf("Failed to update payment stage for %s: %v", p.ID, err)
		return
	}
	s.audit.Record(ctx, p.TenantID, actorID, "payment_term", p.ID, constants.AuditStageChange,
		fmt.Sprintf("stage %s -> %s", p.Stage, recommended))
	p.Stage = recommended
}

func (s *PaymentService) ListPaymentTerms(ctx context.Context, tenantID, contractID, stage string) ([]*models.PaymentTerm, error) {
	return s.billing.ListPaymentTerms(ctx, tenantID, contractID, stage)
}

// AddPaymentTerm appends an extra installment to a contract.
func (s *PaymentService) AddPaymentTerm(ctx context.Context, tenantID string, p *models.PaymentTerm) (*models.PaymentTerm, error) {
	if _, err := s.GetContract(ctx, tenantID, p.ContractID); err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, errors.NewValidationError("amount", "amount must be positive")
	}
	if p.DueDate.IsZero() {
		return nil, errors.NewValidationError("due_date", "due date is required")
	}

	existing, err := s.billing.ListPaymentTerms(ctx, tenantID, p.ContractID, "")
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	p.ID = utils.GenerateID()
	p.TenantID = tenantID
	p.Seq = len(existing) + 1
	p.PaidDate = nil
	p.Stage = RecommendStage(nil, p.DueDate, true, time.Now())
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	if err := s.billing.CreatePaymentTerm(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("failed to create payment term: %w", err)
	}
	return p, nil
}

// UpdatePaymentTerm edits an installment's amount, due date, and paid
// date, then re-runs the cascade against the new values.
func (s *PaymentService) UpdatePaymentTerm(ctx context.Context, tenantID, actorID, id string, in *models.PaymentTerm) (*models.PaymentTerm, error) {
	p, err := s.billing.GetPaymentTerm(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("payment term", id)
	}
	if in.Amount <= 0 {
		return nil, errors.NewValidationError("amount", "amount must be positive")
	}
	if in.DueDate.IsZero() {
		return nil, errors.NewValidationError("due_date", "due date is required")
	}

	done, err := s.billing.AllTodosDone(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	oldStage := p.Stage
	p.Amount = in.Amount
	p.DueDate = in.DueDate
	p.PaidDate = in.PaidDate
	p.Stage = RecommendStage(p.PaidDate, p.DueDate, done, time.Now())
	p.UpdatedAt = time.Now()
	if err := s.billing.UpdatePaymentTerm(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update payment term: %w", err)
	}
	if p.Stage != oldStage {
		s.audit.Record(ctx, tenantID, actorID, "payment_term", p.ID, constants.AuditStageChange,
			fmt.Sprintf("stage %s -> %s", oldStage, p.Stage))
	}
	return p, nil
}

func (s *PaymentService) DeletePaymentTerm(ctx context.Context, tenantID, id string) error {
	p, err := s.billing.GetPaymentTerm(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if p == nil {
		return errors.NewNotFoundError("payment term", id)
	}
	if p.Stage == constants.PaymentStagePaid {
		return errors.NewValidationError("payment term", "paid installments cannot be deleted")
	}
	return s.billing.DeletePaymentTerm(ctx, tenantID, id)
}

// SweepStages re-evaluates the cascade for every unpaid installment.
// Called by the nightly scheduler job.
func (s *PaymentService) SweepStages(ctx context.Context) (int, error) {
	terms, err := s.billing.ListUnpaidPaymentTerms(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpaid payment terms: %w", err)
	}

	now := time.Now()
	changed := 0
	for _, p := range terms {
		done, err := s.billing.AllTodosDone(ctx, p.TenantID, p.ID)
		if err != nil {
			log.Printf("Stage sweep: todo lookup failed for %s: %v", p.ID, err)
			continue
		}
		before := p.Stage
		s.applyRecommendation(ctx, "scheduler", p, done, now)
		if p.Stage != before {
			changed++
		}
	}
	return changed, nil
}

// --- To-dos ---

func (s *PaymentService) AddTodo(ctx context.Context, tenantID, paymentTermID, title string) (*models.Todo, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.NewValidationError("title", "title is required")
	}
	p, err := s.billing.GetPaymentTerm(ctx, tenantID, paymentTermID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("payment term", paymentTermID)
	}

	t := &models.Todo{
		ID:            utils.GenerateID(),
		TenantID:      tenantID,
		PaymentTermID: paymentTermID,
		Title:         title,
		CreatedAt:     time.Now(),
	}
	if err := s.billing.CreateTodo(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return t, nil
}

func (s *PaymentService) ListTodos(ctx context.Context, tenantID, paymentTermID string) ([]models.Todo, error) {
	return s.billing.ListTodos(ctx, tenantID, paymentTermID)
}

// SetTodoDone toggles completion and stamps done_at.
func (s *PaymentService) SetTodoDone(ctx context.Context, tenantID, id string, done bool) error {
	var doneAt *time.Time
	if done {
		now := time.Now()
		doneAt = &now
	}
	return s.billing.SetTodoDone(ctx, tenantID, id, done, doneAt)
}

func (s *PaymentService) DeleteTodo(ctx context.Context, tenantID, id string) error {
	return s.billing.DeleteTodo(ctx, tenantID, id)
}
