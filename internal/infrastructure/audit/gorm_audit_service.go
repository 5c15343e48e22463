package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/service"
)

// GormAuditService stores audit events in the audit_events table.
type GormAuditService struct {
	db *gorm.DB
}

// NewGormAuditService creates a GormAuditService.
func NewGormAuditService(db *gorm.DB) service.AuditService {
	return &GormAuditService{db: db}
}

// LogEvent saves an AuditEvent to the database.
func (s *GormAuditService) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}
