package services

import (
	"context"
	"fmt"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// AuditService persists and queries the audit trail.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record appends an entry to the audit trail.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditTrail) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// AuditFilter narrows List. Zero values match everything.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Limit      int
}

// List returns audit entries newest first.
func (s *AuditService) List(ctx context.Context, f AuditFilter) ([]models.AuditTrail, error) {
	query := s.db.WithContext(ctx).Order("created_at desc")
	if f.EntityType != "" {
		query = query.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		query = query.Where("entity_id = ?", f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []models.AuditTrail
	if err := query.Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
