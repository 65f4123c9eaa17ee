package persistence

import (
	"context"
	"fmt"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// AuditRepository owns the append-only audit_log table.
type AuditRepository struct {
	db *database.Connection
}

func NewAuditRepository(db *database.Connection) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e *models.AuditEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, actor_id, entity_type, entity_id, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableAuditLog)
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.TenantID, e.ActorID, e.EntityType, e.EntityID, e.Action, e.Detail, e.CreatedAt)
	return err
}

// ListForEntity returns the newest entries for one entity, capped at limit.
func (r *AuditRepository) ListForEntity(ctx context.Context, tenantID, entityType, entityID string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT id, tenant_id, actor_id, entity_type, entity_id, action, detail, created_at
		FROM %s WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at DESC LIMIT %d`, constants.TableAuditLog, limit)

	rows, err := r.db.QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.AuditEntry, 0)
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.EntityType, &e.EntityID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
