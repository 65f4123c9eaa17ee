package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/errors"
)

// CurrencyService manages the global currency reference table. Reads are
// open to any authenticated user; writes are super-user only (enforced at
// the route level).
type CurrencyService struct {
	currencies *persistence.CurrencyRepository
}

func NewCurrencyService(currencies *persistence.CurrencyRepository) *CurrencyService {
	return &CurrencyService{currencies: currencies}
}

func (s *CurrencyService) List(ctx context.Context) ([]*models.Currency, error) {
	return s.currencies.List(ctx)
}

func (s *CurrencyService) Get(ctx context.Context, code string) (*models.Currency, error) {
	c, err := s.currencies.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if c == nil {
		return nil, errors.NewNotFoundError("currency", code)
	}
	return c, nil
}

// Upsert creates or refreshes a currency. Codes are ISO-4217 style:
// three upper-case letters.
func (s *CurrencyService) Upsert(ctx context.Context, c *models.Currency) (*models.Currency, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if len(c.Code) != 3 {
		return nil, errors.NewValidationError("code", "currency code must be 3 letters")
	}
	if c.Rate <= 0 {
		return nil, errors.NewValidationError("rate", "rate must be positive")
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, errors.NewValidationError("name", "currency name is required")
	}

	c.IsBase = false
	c.UpdatedAt = time.Now()
	if err := s.currencies.Upsert(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to upsert currency: %w", err)
	}
	return c, nil
}

// Delete removes a non-base currency.
func (s *CurrencyService) Delete(ctx context.Context, code string) error {
	c, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if c.IsBase {
		return errors.NewValidationError("code", "the base currency cannot be deleted")
	}
	return s.currencies.Delete(ctx, code)
}
