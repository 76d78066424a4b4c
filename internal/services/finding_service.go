package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// severityOrder sorts findings CRITICAL first.
const severityOrder = `CASE severity
	WHEN 'CRITICAL' THEN 0
	WHEN 'HIGH' THEN 1
	WHEN 'MEDIUM' THEN 2
	WHEN 'LOW' THEN 3
	ELSE 4 END`

// FindingFilter narrows List. An empty Status lists every finding that is
// not CLOSED.
type FindingFilter struct {
	VendorID string
	Severity models.Severity
	Status   models.FindingStatus
	Page     int
	Limit    int
}

// FindingUpdate carries the mutable fields of a finding.
type FindingUpdate struct {
	Status  *models.FindingStatus `json:"status" binding:"omitempty,oneof=OPEN IN_REMEDIATION PENDING_VERIFICATION RESOLVED ACCEPTED CLOSED"`
	DueDate *time.Time            `json:"due_date"`
}

type FindingService struct {
	db *gorm.DB
}

func NewFindingService(db *gorm.DB) *FindingService {
	return &FindingService{db: db}
}

// List returns a page of findings, most severe first.
func (s *FindingService) List(ctx context.Context, f FindingFilter) ([]models.RiskFinding, Pagination, error) {
	page, limit := normalizePage(f.Page, f.Limit, 50, 200)

	query := s.db.WithContext(ctx).Model(&models.RiskFinding{})
	if f.VendorID != "" {
		query = query.Where("vendor_id = ?", f.VendorID)
	}
	if f.Severity != "" {
		query = query.Where("severity = ?", f.Severity)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	} else {
		query = query.Where("status <> ?", models.FindingStatusClosed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count findings: %w", err)
	}

	var findings []models.RiskFinding
	err := query.
		Preload("Vendor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("Document", func(db *gorm.DB) *gorm.DB { return db.Select("id", "document_type", "document_name") }).
		Preload("RemediationActions", func(db *gorm.DB) *gorm.DB {
			return db.Where("status <> ?", models.RemediationStatusClosed)
		}).
		Order(severityOrder + ", created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&findings).Error
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list findings: %w", err)
	}
	return findings, newPagination(page, limit, total), nil
}

// Get returns one finding with its remediation actions.
func (s *FindingService) Get(ctx context.Context, id string) (*models.RiskFinding, error) {
	var f models.RiskFinding
	err := s.db.WithContext(ctx).Preload("RemediationActions").First(&f, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFindingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Update changes the status and due date of a finding.
func (s *FindingService) Update(ctx context.Context, actor, id string, in FindingUpdate) (*models.RiskFinding, error) {
	changes := map[string]any{}
	if in.Status != nil {
		changes["status"] = string(*in.Status)
	}
	if in.DueDate != nil {
		changes["due_date"] = *in.DueDate
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.RiskFinding
		if err := tx.First(&f, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFindingNotFound
			}
			return err
		}
		old := map[string]any{}
		if _, ok := changes["status"]; ok {
			old["status"] = string(f.Status)
		}
		if _, ok := changes["due_date"]; ok {
			old["due_date"] = f.DueDate
		}
		if err := tx.Model(&f).Updates(changes).Error; err != nil {
			return fmt.Errorf("update finding: %w", err)
		}
		return NewAuditService(tx).Record(ctx, &models.AuditTrail{
			Actor:      actor,
			Action:     models.AuditActionUpdate,
			EntityType: "RiskFinding",
			EntityID:   id,
			OldValues:  old,
			NewValues:  changes,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Stats counts findings that are not CLOSED by severity.
func (s *FindingService) Stats(ctx context.Context) (map[models.Severity]int64, error) {
	var rows []struct {
		Severity models.Severity
		Count    int64
	}
	err := s.db.WithContext(ctx).Model(&models.RiskFinding{}).
		Select("severity, COUNT(*) AS count").
		Where("status <> ?", models.FindingStatusClosed).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding stats: %w", err)
	}
	stats := make(map[models.Severity]int64, len(rows))
	for _, r := range rows {
		stats[r.Severity] = r.Count
	}
	return stats, nil
}
