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

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

func newMockCompanyRepo(t *testing.T) (*CompanyRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCompanyRepository(database.FromDB(db)), mock
}

func TestGetCompany(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)
	now := time.Now()

	columns := []string{"id", "tenant_id", "name", "vat_number", "website", "phone", "notes", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM companies WHERE tenant_id = \\? AND id = \\?").
		WithArgs("tenant-1", "company-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("company-1", "tenant-1", "Acme", "DE123", "acme.example", "+49 30 1234", "", now, now))

	c, err := repo.GetCompany(context.Background(), "tenant-1", "company-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "DE123", c.VATNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCompanyNotFound(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)

	columns := []string{"id", "tenant_id", "name", "vat_number", "website", "phone", "notes", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM companies WHERE tenant_id = \\? AND id = \\?").
		WithArgs("tenant-1", "missing").
		WillReturnRows(sqlmock.NewRows(columns))

	c, err := repo.GetCompany(context.Background(), "tenant-1", "missing")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestListCompaniesWithSearch(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)
	now := time.Now()

	columns := []string{"id", "tenant_id", "name", "vat_number", "website", "phone", "notes", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM companies WHERE tenant_id = \\? AND name LIKE \\? ORDER BY name").
		WithArgs("tenant-1", "%acme%").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("company-1", "tenant-1", "Acme", "", "", "", "", now, now))

	companies, err := repo.ListCompanies(context.Background(), "tenant-1", "acme")
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
}

func TestCreateCompany(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)
	now := time.Now()

	c := &models.Company{
		ID: "company-1", TenantID: "tenant-1", Name: "Acme",
		CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO companies").
		WithArgs(c.ID, c.TenantID, c.Name, "", "", "", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.CreateCompany(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCompany(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)

	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableCompany)
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("tenant-1", "company-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteCompany(context.Background(), "tenant-1", "company-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContactWithoutCompany(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)
	now := time.Now()

	c := &models.Contact{
		ID: "contact-1", TenantID: "tenant-1",
		FirstName: "Jo", LastName: "Doe",
		CreatedAt: now, UpdatedAt: now,
	}

	// An unattached contact stores NULL in company_id, not "".
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(c.ID, c.TenantID, nil, "Jo", "Doe", "", "", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.CreateContact(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetContactNullCompany(t *testing.T) {
	repo, mock := newMockCompanyRepo(t)
	now := time.Now()

	columns := []string{"id", "tenant_id", "company_id", "first_name", "last_name", "email", "phone", "role", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE tenant_id = \\? AND id = \\?").
		WithArgs("tenant-1", "contact-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("contact-1", "tenant-1", nil, "Jo", "Doe", "", "", "", now, now))

	c, err := repo.GetContact(context.Background(), "tenant-1", "contact-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Nil(t, c.CompanyID)
	assert.Equal(t, "Jo", c.FirstName)
}
