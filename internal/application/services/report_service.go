package services

import (
	"context"
	"fmt"

	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/query"
)

// ReportService serves the canned reports and the guarded admin SQL
// endpoint. Admin SQL is parsed and rejected unless it is a single
// read-only SELECT; every execution is audit-logged.
type ReportService struct {
	reports *persistence.ReportRepository
	audit   *AuditService
}

func NewReportService(reports *persistence.ReportRepository, audit *AuditService) *ReportService {
	return &ReportService{reports: reports, audit: audit}
}

func (s *ReportService) DealPipeline(ctx context.Context, tenantID string) ([]persistence.PipelineRow, error) {
	return s.reports.DealPipeline(ctx, tenantID)
}

func (s *ReportService) RevenueByMonth(ctx context.Context, tenantID string, months int) ([]persistence.RevenueRow, error) {
	return s.reports.RevenueByMonth(ctx, tenantID, months)
}

func (s *ReportService) OverduePayments(ctx context.Context, tenantID string) ([]persistence.OverdueRow, error) {
	return s.reports.OverduePayments(ctx, tenantID)
}

// MaxAdminQueryParams caps the positional parameters of an admin query.
const MaxAdminQueryParams = 32

// RunAdminQuery validates and executes a raw SELECT on behalf of a server
// super user.
func (s *ReportService) RunAdminQuery(ctx context.Context, tenantID, actorID, sql string, params []interface{}) ([]map[string]interface{}, error) {
	if sql == "" {
		return nil, errors.NewValidationError("sql", "query is required")
	}
	if len(params) > MaxAdminQueryParams {
		return nil, errors.NewValidationError("params", "too many parameters")
	}
	if err := query.EnsureReadOnly(sql); err != nil {
		return nil, errors.NewValidationError("sql", err.Error())
	}

	results, err := s.reports.RunSelect(ctx, sql, params)
	if err != nil {
		return nil, errors.NewValidationError("sql", fmt.Sprintf("query execution failed: %v", err))
	}

	s.audit.Record(ctx, tenantID, actorID, "report", "admin_query", constants.AuditAdminQuery, sql)
	return results, nil
}
