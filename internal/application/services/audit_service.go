package services

import (
	"context"
	"log"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// AuditService appends entries to the audit log. Writes are best effort:
// an audit failure is logged but never fails the operation that caused it.
type AuditService struct {
	audit *persistence.AuditRepository
}

func NewAuditService(audit *persistence.AuditRepository) *AuditService {
	return &AuditService{audit: audit}
}

// Record appends one audit entry.
func (s *AuditService) Record(ctx context.Context, tenantID, actorID, entityType, entityID, action, detail string) {
	entry := &models.AuditEntry{
		ID:         utils.GenerateID(),
		TenantID:   tenantID,
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		log.Printf("Failed to write audit entry (%s %s/%s): %v", action, entityType, entityID, err)
	}
}

// ListForEntity returns recent audit entries for one entity.
func (s *AuditService) ListForEntity(ctx context.Context, tenantID, entityType, entityID string, limit int) ([]*models.AuditEntry, error) {
	return s.audit.ListForEntity(ctx, tenantID, entityType, entityID, limit)
}
