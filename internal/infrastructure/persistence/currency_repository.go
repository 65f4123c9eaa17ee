package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// CurrencyRepository owns the global currencies reference table.
type CurrencyRepository struct {
	db *database.Connection
}

func NewCurrencyRepository(db *database.Connection) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

func (r *CurrencyRepository) List(ctx context.Context) ([]*models.Currency, error) {
	query := fmt.Sprintf("SELECT code, name, symbol, rate, is_base, updated_at FROM %s ORDER BY code", constants.TableCurrency)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	currencies := make([]*models.Currency, 0)
	for rows.Next() {
		var c models.Currency
		if err := rows.Scan(&c.Code, &c.Name, &c.Symbol, &c.Rate, &c.IsBase, &c.UpdatedAt); err != nil {
			return nil, err
		}
		currencies = append(currencies, &c)
	}
	return currencies, rows.Err()
}

func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	query := fmt.Sprintf("SELECT code, name, symbol, rate, is_base, updated_at FROM %s WHERE code = ? LIMIT 1", constants.TableCurrency)

	var c models.Currency
	err := r.db.QueryRowContext(ctx, query, code).Scan(&c.Code, &c.Name, &c.Symbol, &c.Rate, &c.IsBase, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert inserts or refreshes a currency row. The base flag is only set
// during seeding; rate updates keep it untouched.
func (r *CurrencyRepository) Upsert(ctx context.Context, c *models.Currency) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (code, name, symbol, rate, is_base, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), symbol = VALUES(symbol), rate = VALUES(rate), updated_at = VALUES(updated_at)`,
		constants.TableCurrency)
	_, err := r.db.ExecContext(ctx, query, c.Code, c.Name, c.Symbol, c.Rate, c.IsBase, c.UpdatedAt)
	return err
}

func (r *CurrencyRepository) Delete(ctx context.Context, code string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE code = ? AND is_base = 0", constants.TableCurrency)
	_, err := r.db.ExecContext(ctx, query, code)
	return err
}
