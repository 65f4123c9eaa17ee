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

func newMockBillingRepo(t *testing.T) (*BillingRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBillingRepository(database.FromDB(db)), mock
}

func TestGetPaymentTerm(t *testing.T) {
	repo, mock := newMockBillingRepo(t)
	now := time.Now()
	due := now.AddDate(0, 1, 0)

	columns := []string{"id", "tenant_id", "contract_id", "seq", "amount", "due_date", "paid_date", "stage", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM payment_terms WHERE tenant_id = \\? AND id = \\?").
		WithArgs("tenant-1", "term-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("term-1", "tenant-1", "contract-1", 1, 500.0, due, nil, constants.PaymentStageScheduled, now, now))

	p, err := repo.GetPaymentTerm(context.Background(), "tenant-1", "term-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "contract-1", p.ContractID)
	assert.Equal(t, 500.0, p.Amount)
	assert.Nil(t, p.PaidDate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentTermScansPaidDate(t *testing.T) {
	repo, mock := newMockBillingRepo(t)
	now := time.Now()
	paid := now.AddDate(0, 0, -2)

	columns := []string{"id", "tenant_id", "contract_id", "seq", "amount", "due_date", "paid_date", "stage", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM payment_terms WHERE tenant_id = \\? AND id = \\?").
		WithArgs("tenant-1", "term-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("term-1", "tenant-1", "contract-1", 1, 500.0, now, paid, constants.PaymentStagePaid, now, now))

	p, err := repo.GetPaymentTerm(context.Background(), "tenant-1", "term-1")
	require.NoError(t, err)
	require.NotNil(t, p.PaidDate)
	assert.WithinDuration(t, paid, *p.PaidDate, time.Second)
}

func TestUpdatePaymentStage(t *testing.T) {
	repo, mock := newMockBillingRepo(t)

	query := fmt.Sprintf("UPDATE %s SET stage = ?, updated_at = NOW() WHERE tenant_id = ? AND id = ?", constants.TablePaymentTerm)
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(constants.PaymentStageOverdue, "tenant-1", "term-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePaymentStage(context.Background(), "tenant-1", "term-1", constants.PaymentStageOverdue)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllTodosDone(t *testing.T) {
	repo, mock := newMockBillingRepo(t)

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tenant_id = ? AND payment_term_id = ? AND done = 0", constants.TableTodo)

	// Open todos remain
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("tenant-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	done, err := repo.AllTodosDone(context.Background(), "tenant-1", "term-1")
	require.NoError(t, err)
	assert.False(t, done)

	// No todos at all counts as done
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("tenant-1", "term-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	done, err = repo.AllTodosDone(context.Background(), "tenant-1", "term-2")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestListPaymentTermsFilters(t *testing.T) {
	repo, mock := newMockBillingRepo(t)
	now := time.Now()

	columns := []string{"id", "tenant_id", "contract_id", "seq", "amount", "due_date", "paid_date", "stage", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM payment_terms WHERE tenant_id = \\? AND contract_id = \\? AND stage = \\? ORDER BY due_date, seq").
		WithArgs("tenant-1", "contract-1", constants.PaymentStageDueSoon).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("term-1", "tenant-1", "contract-1", 1, 250.0, now, nil, constants.PaymentStageDueSoon, now, now).
			AddRow("term-2", "tenant-1", "contract-1", 2, 250.0, now.AddDate(0, 1, 0), nil, constants.PaymentStageDueSoon, now, now))

	terms, err := repo.ListPaymentTerms(context.Background(), "tenant-1", "contract-1", constants.PaymentStageDueSoon)
	require.NoError(t, err)
	assert.Len(t, terms, 2)
}
