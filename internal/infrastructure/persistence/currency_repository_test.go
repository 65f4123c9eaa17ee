package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

func newMockCurrencyRepo(t *testing.T) (*CurrencyRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCurrencyRepository(database.FromDB(db)), mock
}

func TestGetCurrencyByCode(t *testing.T) {
	repo, mock := newMockCurrencyRepo(t)
	now := time.Now()

	query := fmt.Sprintf("SELECT code, name, symbol, rate, is_base, updated_at FROM %s WHERE code = ? LIMIT 1", constants.TableCurrency)
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("EUR").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "symbol", "rate", "is_base", "updated_at"}).
			AddRow("EUR", "Euro", "€", 1.0, true, now))

	c, err := repo.GetByCode(context.Background(), "EUR")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, c.IsBase)
	assert.Equal(t, 1.0, c.Rate)

	// Unknown code returns nil without error
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("XXX").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "symbol", "rate", "is_base", "updated_at"}))

	c, err = repo.GetByCode(context.Background(), "XXX")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestDeleteCurrencySkipsBase(t *testing.T) {
	repo, mock := newMockCurrencyRepo(t)

	query := fmt.Sprintf("DELETE FROM %s WHERE code = ? AND is_base = 0", constants.TableCurrency)
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("USD").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "USD"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
