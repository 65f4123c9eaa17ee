package persistence

import (
	"context"
	"fmt"

	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// ReportRepository runs the canned report queries and the guarded admin
// SQL. Read-only validation of admin SQL happens before it reaches here.
type ReportRepository struct {
	db *database.Connection
}

func NewReportRepository(db *database.Connection) *ReportRepository {
	return &ReportRepository{db: db}
}

// PipelineRow is one stage bucket of the deal pipeline report.
type PipelineRow struct {
	Stage  string  `json:"stage"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

func (r *ReportRepository) DealPipeline(ctx context.Context, tenantID string) ([]PipelineRow, error) {
	query := fmt.Sprintf(`
		SELECT stage, COUNT(*), COALESCE(SUM(amount), 0)
		FROM %s WHERE tenant_id = ? GROUP BY stage`, constants.TableDeal)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]PipelineRow, 0)
	for rows.Next() {
		var row PipelineRow
		if err := rows.Scan(&row.Stage, &row.Count, &row.Amount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// RevenueRow is one month bucket of paid payment-term amounts.
type RevenueRow struct {
	Month  string  `json:"month"` // YYYY-MM
	Amount float64 `json:"amount"`
}

func (r *ReportRepository) RevenueByMonth(ctx context.Context, tenantID string, months int) ([]RevenueRow, error) {
	if months <= 0 || months > 60 {
		months = 12
	}
	query := fmt.Sprintf(`
		SELECT DATE_FORMAT(paid_date, '%%Y-%%m') AS month, COALESCE(SUM(amount), 0)
		FROM %s
		WHERE tenant_id = ? AND stage = ? AND paid_date >= DATE_SUB(CURDATE(), INTERVAL %d MONTH)
		GROUP BY month ORDER BY month`, constants.TablePaymentTerm, months)

	rows, err := r.db.QueryContext(ctx, query, tenantID, constants.PaymentStagePaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]RevenueRow, 0)
	for rows.Next() {
		var row RevenueRow
		if err := rows.Scan(&row.Month, &row.Amount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// OverdueRow is one overdue installment with its contract joined in.
type OverdueRow struct {
	PaymentTermID string  `json:"payment_term_id"`
	ContractID    string  `json:"contract_id"`
	ContractName  string  `json:"contract_name"`
	Amount        float64 `json:"amount"`
	DueDate       string  `json:"due_date"`
	DaysOverdue   int     `json:"days_overdue"`
}

func (r *ReportRepository) OverduePayments(ctx context.Context, tenantID string) ([]OverdueRow, error) {
	query := fmt.Sprintf(`
		SELECT p.id, c.id, c.name, p.amount, DATE_FORMAT(p.due_date, '%%Y-%%m-%%d'), DATEDIFF(CURDATE(), p.due_date)
		FROM %s p JOIN %s c ON c.id = p.contract_id
		WHERE p.tenant_id = ? AND p.stage = ?
		ORDER BY p.due_date`, constants.TablePaymentTerm, constants.TableContract)

	rows, err := r.db.QueryContext(ctx, query, tenantID, constants.PaymentStageOverdue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]OverdueRow, 0)
	for rows.Next() {
		var row OverdueRow
		if err := rows.Scan(&row.PaymentTermID, &row.ContractID, &row.ContractName, &row.Amount, &row.DueDate, &row.DaysOverdue); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// RunSelect executes an already-validated SELECT and returns generic rows.
// NULL column values come back as nil, []byte columns as strings.
func (r *ReportRepository) RunSelect(ctx context.Context, query string, params []interface{}) ([]map[string]interface{}, error) {
	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
