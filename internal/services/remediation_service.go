package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// RemediationFilter narrows List. Zero values match everything.
type RemediationFilter struct {
	VendorID  string
	FindingID string
	Status    models.RemediationStatus
	Overdue   bool
}

// TransitionInput moves an action to a new status.
type TransitionInput struct {
	Status models.RemediationStatus `json:"status" binding:"required,oneof=OPEN IN_PROGRESS OVERDUE PENDING_VERIFICATION RESOLVED ACCEPTED CLOSED"`
	Notes  string                   `json:"notes"`
}

type RemediationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRemediationService(db *gorm.DB) *RemediationService {
	return &RemediationService{db: db, now: time.Now}
}

// List returns remediation actions by due date, earliest first.
func (s *RemediationService) List(ctx context.Context, f RemediationFilter) ([]models.RemediationAction, error) {
	query := s.db.WithContext(ctx).
		Preload("Vendor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("Finding", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "severity") }).
		Order("due_date asc")
	if f.VendorID != "" {
		query = query.Where("vendor_id = ?", f.VendorID)
	}
	if f.FindingID != "" {
		query = query.Where("finding_id = ?", f.FindingID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Overdue {
		query = query.Where("due_date < ? AND status IN ?", s.now(), overdueCandidates)
	}

	var actions []models.RemediationAction
	if err := query.Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("list remediation actions: %w", err)
	}
	return actions, nil
}

// overdueCandidates are the statuses whose past due date makes an action overdue.
var overdueCandidates = []models.RemediationStatus{
	models.RemediationStatusOpen,
	models.RemediationStatusInProgress,
	models.RemediationStatusOverdue,
}

// Transition moves an action along the remediation lifecycle. Moving to
// RESOLVED, ACCEPTED or CLOSED records the completion date.
func (s *RemediationService) Transition(ctx context.Context, actor, id string, in TransitionInput) (*models.RemediationAction, error) {
	var action models.RemediationAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&action, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActionNotFound
			}
			return err
		}
		from := action.Status
		if !from.CanTransitionTo(in.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, in.Status)
		}

		changes := map[string]any{"status": string(in.Status)}
		switch in.Status {
		case models.RemediationStatusResolved, models.RemediationStatusAccepted, models.RemediationStatusClosed:
			if action.CompletionDate == nil {
				changes["completion_date"] = s.now()
			}
		}
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			changes["verification_notes"] = notes
		}
		if err := tx.Model(&action).Updates(changes).Error; err != nil {
			return fmt.Errorf("update remediation action: %w", err)
		}
		return NewAuditService(tx).Record(ctx, &models.AuditTrail{
			Actor:      actor,
			Action:     models.AuditActionTransition,
			EntityType: "RemediationAction",
			EntityID:   id,
			OldValues:  map[string]any{"status": string(from)},
			NewValues:  changes,
		})
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(&action, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &action, nil
}
