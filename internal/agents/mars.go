package agents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/risk"
	"github.com/Wikid82/warden/backend/internal/services"
	"gorm.io/gorm"
)

// MinJustificationLength is the shortest accepted risk-acceptance
// justification, in characters.
const MinJustificationLength = 50

// acceptanceYears is how long a risk acceptance holds before review.
const acceptanceYears = 1

// FindingSummary is the part of a finding a remediation plan is built from.
type FindingSummary struct {
	Title       string          `json:"title"`
	Severity    models.Severity `json:"severity"`
	Description string          `json:"description"`
}

// Contact is a vendor point of contact.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RemediationInput identifies the finding to plan remediation for.
type RemediationInput struct {
	FindingID     string         `json:"finding_id"`
	VendorID      string         `json:"vendor_id"`
	Finding       FindingSummary `json:"finding"`
	VendorContact Contact        `json:"vendor_contact"`
}

// RemediationPlan is the set of actions stored for a finding.
type RemediationPlan struct {
	FindingID      string                     `json:"finding_id"`
	Actions        []models.RemediationAction `json:"actions"`
	Timeline       string                     `json:"timeline"`
	EscalationPath []string                   `json:"escalation_path"`
}

// Escalation reports one overdue action that was escalated.
type Escalation struct {
	ActionID          string   `json:"action_id"`
	FindingID         string   `json:"finding_id"`
	VendorID          string   `json:"vendor_id"`
	Escalated         bool     `json:"escalated"`
	EscalationLevel   int      `json:"escalation_level"`
	DaysOverdue       int      `json:"days_overdue"`
	NotificationsSent []string `json:"notifications_sent"`
	NextAction        string   `json:"next_action"`
}

// RemediationStatus summarizes a vendor's remediation performance.
type RemediationStatus struct {
	VendorID               string `json:"vendor_id"`
	TotalActions           int    `json:"total_actions"`
	OpenActions            int    `json:"open_actions"`
	OverdueActions         int    `json:"overdue_actions"`
	CompletedThisMonth     int    `json:"completed_this_month"`
	AverageRemediationDays int    `json:"average_remediation_days"`
	SLACompliance          int    `json:"sla_compliance"`
}

// AcceptanceInput is a request to accept the risk of a finding.
type AcceptanceInput struct {
	FindingID     string `json:"finding_id"`
	Justification string `json:"justification"`
	Approver      string `json:"approver"`
}

// Acceptance is the recorded outcome of a risk acceptance.
type Acceptance struct {
	FindingID      string    `json:"finding_id"`
	Accepted       bool      `json:"accepted"`
	ExpirationDate time.Time `json:"expiration_date"`
	ActionsClosed  int64     `json:"actions_closed"`
}

type marsAction struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	ActionType  string `json:"actionType" validate:"required,oneof=REMEDIATE MITIGATE ACCEPT TRANSFER"`
	Priority    string `json:"priority" validate:"required,oneof=CRITICAL HIGH MEDIUM LOW"`
	DueDate     string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	AssignedTo  string `json:"assignedTo" validate:"required"`
	OwnerType   string `json:"ownerType" validate:"required,oneof=VENDOR INTERNAL"`
}

type marsResponse struct {
	Actions        []marsAction `json:"actions" validate:"required,min=1,dive"`
	Timeline       string       `json:"timeline"`
	EscalationPath []string     `json:"escalationPath"`
}

// MARS plans remediation, escalates overdue actions and records risk
// acceptances.
type MARS struct {
	base
}

func NewMARS(deps Deps) *MARS {
	return &MARS{base: newBase(NameMARS, 0.3, 3000, marsSystemPrompt, deps)}
}

// InputForFinding loads a finding and its vendor contact.
func (a *MARS) InputForFinding(ctx context.Context, findingID string) (RemediationInput, error) {
	var finding models.RiskFinding
	if err := a.db.WithContext(ctx).Preload("Vendor").First(&finding, "id = ?", findingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RemediationInput{}, services.ErrFindingNotFound
		}
		return RemediationInput{}, err
	}
	return remediationInput(finding), nil
}

func remediationInput(f models.RiskFinding) RemediationInput {
	in := RemediationInput{
		FindingID: f.ID,
		VendorID:  f.VendorID,
		Finding: FindingSummary{
			Title:       f.Title,
			Severity:    f.Severity,
			Description: f.Description,
		},
		VendorContact: Contact{Name: "Vendor Contact"},
	}
	if f.Vendor != nil {
		in.VendorContact.Name = orDefault(f.Vendor.PrimaryContactName, "Vendor Contact")
		in.VendorContact.Email = f.Vendor.PrimaryContactEmail
	}
	return in
}

func (a *MARS) Execute(ctx context.Context, in RemediationInput) Result[RemediationPlan] {
	start := time.Now()
	out, err := a.plan(ctx, in)

	entry := models.AgentActivityLog{
		ActivityType: "REMEDIATION_PLAN",
		EntityType:   "RiskFinding",
		EntityID:     in.FindingID,
		InputSummary: "Finding: " + in.Finding.Title,
	}
	if err == nil {
		types := make([]string, 0, len(out.Actions))
		for _, act := range out.Actions {
			types = append(types, string(act.ActionType))
		}
		entry.ActionTaken = fmt.Sprintf("Created remediation plan with %d actions", len(out.Actions))
		entry.OutputSummary = "Actions: " + strings.Join(types, ", ")
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *MARS) plan(ctx context.Context, in RemediationInput) (*RemediationPlan, error) {
	var finding models.RiskFinding
	if err := a.db.WithContext(ctx).First(&finding, "id = ?", in.FindingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrFindingNotFound
		}
		return nil, err
	}
	if in.VendorID == "" {
		in.VendorID = finding.VendorID
	}

	var resp marsResponse
	if err := a.invokeJSON(ctx, marsPrompt(in), &resp); err != nil {
		return nil, err
	}

	actions := make([]models.RemediationAction, 0, len(resp.Actions))
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, act := range resp.Actions {
			due, err := time.Parse("2006-01-02", act.DueDate)
			if err != nil {
				return fmt.Errorf("parse due date %q: %w", act.DueDate, err)
			}
			action := models.RemediationAction{
				FindingID:   in.FindingID,
				VendorID:    in.VendorID,
				ActionType:  models.ActionType(act.ActionType),
				Title:       act.Title,
				Description: act.Description,
				AssignedTo:  act.AssignedTo,
				OwnerType:   models.OwnerType(act.OwnerType),
				Priority:    models.Severity(act.Priority),
				Status:      models.RemediationStatusOpen,
				DueDate:     &due,
				ManagedBy:   string(NameMARS),
			}
			if err := tx.Create(&action).Error; err != nil {
				return fmt.Errorf("save remediation action: %w", err)
			}
			actions = append(actions, action)
		}
		return tx.Model(&models.RiskFinding{}).Where("id = ?", in.FindingID).
			Update("status", models.FindingStatusInRemediation).Error
	})
	if err != nil {
		return nil, err
	}

	a.notify(ctx, &models.Notification{
		Type:              models.NotificationTypeRemediationRequired,
		RecipientType:     models.RecipientVendor,
		RecipientID:       in.VendorID,
		Title:             "Remediation Required: " + in.Finding.Title,
		Message:           fmt.Sprintf("A %s severity finding requires your attention. Please review and address within the specified timeline.", in.Finding.Severity),
		RelatedEntityType: "RiskFinding",
		RelatedEntityID:   in.FindingID,
	})

	return &RemediationPlan{
		FindingID:      in.FindingID,
		Actions:        actions,
		Timeline:       resp.Timeline,
		EscalationPath: nonNil(resp.EscalationPath),
	}, nil
}

// CheckOverdueActions marks every OPEN or IN_PROGRESS action past its due
// date as OVERDUE and raises an ESCALATION notification for it.
func (a *MARS) CheckOverdueActions(ctx context.Context) Result[[]Escalation] {
	start := time.Now()
	out, found, err := a.escalate(ctx)

	entry := models.AgentActivityLog{ActivityType: "OVERDUE_CHECK"}
	if out != nil {
		entry.ActionTaken = fmt.Sprintf("Checked overdue actions, escalated %d", len(*out))
		entry.OutputSummary = fmt.Sprintf("Found %d overdue actions", found)
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *MARS) escalate(ctx context.Context) (*[]Escalation, int, error) {
	now := a.now()
	var overdue []models.RemediationAction
	if err := a.db.WithContext(ctx).Preload("Vendor").
		Where("status IN ? AND due_date < ?", []models.RemediationStatus{
			models.RemediationStatusOpen, models.RemediationStatusInProgress,
		}, now).
		Order("due_date asc").Find(&overdue).Error; err != nil {
		return nil, 0, fmt.Errorf("load overdue actions: %w", err)
	}

	escalations := make([]Escalation, 0, len(overdue))
	for _, action := range overdue {
		if err := ctx.Err(); err != nil {
			return nil, len(overdue), err
		}
		days := risk.DaysOverdue(*action.DueDate, now)
		level := risk.EscalationLevel(action.Priority, days)

		if err := a.db.WithContext(ctx).Model(&models.RemediationAction{}).Where("id = ?", action.ID).
			Updates(map[string]any{
				"status":           models.RemediationStatusOverdue,
				"escalation_level": level,
			}).Error; err != nil {
			return nil, len(overdue), fmt.Errorf("mark action %s overdue: %w", action.ID, err)
		}

		vendorName := action.VendorID
		if action.Vendor != nil {
			vendorName = action.Vendor.Name
		}
		a.notify(ctx, &models.Notification{
			Type:              models.NotificationTypeEscalation,
			RecipientType:     models.RecipientInternal,
			Title:             fmt.Sprintf("[ESCALATION L%d] Overdue Action: %s", level, action.Title),
			Message:           fmt.Sprintf("Remediation action for %s is %d days overdue. Priority: %s", vendorName, days, action.Priority),
			RelatedEntityType: "RemediationAction",
			RelatedEntityID:   action.ID,
		})
		metrics.IncEscalation(level)

		escalations = append(escalations, Escalation{
			ActionID:          action.ID,
			FindingID:         action.FindingID,
			VendorID:          action.VendorID,
			Escalated:         true,
			EscalationLevel:   level,
			DaysOverdue:       days,
			NotificationsSent: []string{fmt.Sprintf("Level %d escalation", level)},
			NextAction:        fmt.Sprintf("Review and follow up within %d hours", risk.FollowUpHours(level)),
		})
	}
	return &escalations, len(overdue), nil
}

// VendorRemediationStatus computes remediation counters and SLA compliance
// for a vendor.
func (a *MARS) VendorRemediationStatus(ctx context.Context, vendorID string) Result[RemediationStatus] {
	start := time.Now()
	out, err := a.remediationStatus(ctx, vendorID)
	return finish(&a.base, start, out, err)
}

func (a *MARS) remediationStatus(ctx context.Context, vendorID string) (*RemediationStatus, error) {
	db := a.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Vendor{}).Where("id = ?", vendorID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, services.ErrVendorNotFound
	}

	var actions []models.RemediationAction
	if err := db.Where("vendor_id = ?", vendorID).Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("load remediation actions: %w", err)
	}

	now := a.now()
	monthAgo := now.Add(-30 * 24 * time.Hour)
	status := &RemediationStatus{VendorID: vendorID, TotalActions: len(actions), SLACompliance: 100}

	closed, onTime, totalDays := 0, 0, 0
	for _, act := range actions {
		if act.Status.IsOpen() {
			status.OpenActions++
		}
		if act.DueDate != nil && act.DueDate.Before(now) && act.Status != models.RemediationStatusClosed {
			status.OverdueActions++
		}
		if act.Status != models.RemediationStatusClosed || act.CompletionDate == nil {
			continue
		}
		if !act.CompletionDate.Before(monthAgo) {
			status.CompletedThisMonth++
		}
		closed++
		totalDays += int(math.Floor(act.CompletionDate.Sub(act.CreatedAt).Hours() / 24))
		if act.DueDate == nil || !act.CompletionDate.After(*act.DueDate) {
			onTime++
		}
	}
	if closed > 0 {
		status.AverageRemediationDays = int(math.Round(float64(totalDays) / float64(closed)))
		status.SLACompliance = int(math.Round(float64(onTime) / float64(closed) * 100))
	}
	return status, nil
}

// AcceptRisk records a formal acceptance of a finding's risk: the finding
// becomes ACCEPTED for one year and all of its actions are closed.
func (a *MARS) AcceptRisk(ctx context.Context, in AcceptanceInput) Result[Acceptance] {
	start := time.Now()
	out, err := a.accept(ctx, in)

	entry := models.AgentActivityLog{
		ActivityType: "RISK_ACCEPTANCE",
		EntityType:   "RiskFinding",
		EntityID:     in.FindingID,
	}
	if err == nil {
		entry.ActionTaken = "Processed risk acceptance, approved by " + in.Approver
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *MARS) accept(ctx context.Context, in AcceptanceInput) (*Acceptance, error) {
	justification := strings.TrimSpace(in.Justification)
	if utf8.RuneCountInString(justification) < MinJustificationLength {
		return nil, services.ErrJustificationTooShort
	}
	if strings.TrimSpace(in.Approver) == "" {
		return nil, fmt.Errorf("%w: approver is required", services.ErrInvalidInput)
	}

	now := a.now()
	expiry := now.AddDate(acceptanceYears, 0, 0)
	out := &Acceptance{FindingID: in.FindingID, Accepted: true, ExpirationDate: expiry}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var finding models.RiskFinding
		if err := tx.First(&finding, "id = ?", in.FindingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.ErrFindingNotFound
			}
			return err
		}

		if err := tx.Model(&finding).Updates(map[string]any{
			"status":            models.FindingStatusAccepted,
			"acceptance_expiry": expiry,
		}).Error; err != nil {
			return fmt.Errorf("accept finding: %w", err)
		}

		res := tx.Model(&models.RemediationAction{}).Where("finding_id = ?", in.FindingID).Updates(map[string]any{
			"status":             models.RemediationStatusClosed,
			"action_type":        models.ActionTypeAccept,
			"completion_date":    now,
			"verification_notes": fmt.Sprintf("Risk accepted by %s. Justification: %s", in.Approver, justification),
		})
		if res.Error != nil {
			return fmt.Errorf("close remediation actions: %w", res.Error)
		}
		out.ActionsClosed = res.RowsAffected

		return tx.Create(&models.AuditTrail{
			Actor:      in.Approver,
			AgentName:  string(NameMARS),
			Action:     models.AuditActionRiskAcceptance,
			EntityType: "RiskFinding",
			EntityID:   in.FindingID,
			OldValues:  map[string]any{"status": string(finding.Status)},
			NewValues: map[string]any{
				"status":         string(models.FindingStatusAccepted),
				"approver":       in.Approver,
				"justification":  justification,
				"expirationDate": expiry.Format(time.RFC3339),
			},
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func marsPrompt(in RemediationInput) string {
	var b strings.Builder
	b.WriteString("Create a remediation plan for the following finding:\n\n")
	b.WriteString("Finding Information:\n")
	fmt.Fprintf(&b, "- Finding ID: %s\n", in.FindingID)
	fmt.Fprintf(&b, "- Title: %s\n", in.Finding.Title)
	fmt.Fprintf(&b, "- Severity: %s\n", in.Finding.Severity)
	fmt.Fprintf(&b, "- Description: %s\n", in.Finding.Description)
	b.WriteString("\nVendor Information:\n")
	fmt.Fprintf(&b, "- Vendor ID: %s\n", in.VendorID)
	fmt.Fprintf(&b, "- Contact Name: %s\n", in.VendorContact.Name)
	fmt.Fprintf(&b, "- Contact Email: %s\n", orDefault(in.VendorContact.Email, "Not specified"))
	b.WriteString(`
Respond with the following JSON:
{
  "actions": [
    {
      "title": "action title",
      "description": "what must be done",
      "actionType": "REMEDIATE|MITIGATE|ACCEPT|TRANSFER",
      "priority": "CRITICAL|HIGH|MEDIUM|LOW",
      "dueDate": "YYYY-MM-DD",
      "assignedTo": "name or role of the assignee",
      "ownerType": "VENDOR|INTERNAL"
    }
  ],
  "timeline": "overall timeline",
  "escalationPath": ["level 1 contact", "level 2 contact", "level 3 contact"]
}`)
	return b.String()
}
