package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionTypeRemediate ActionType = "REMEDIATE"
	ActionTypeMitigate  ActionType = "MITIGATE"
	ActionTypeAccept    ActionType = "ACCEPT"
	ActionTypeTransfer  ActionType = "TRANSFER"
)

type OwnerType string

const (
	OwnerTypeVendor   OwnerType = "VENDOR"
	OwnerTypeInternal OwnerType = "INTERNAL"
)

type RemediationStatus string

const (
	RemediationStatusOpen                RemediationStatus = "OPEN"
	RemediationStatusInProgress          RemediationStatus = "IN_PROGRESS"
	RemediationStatusOverdue             RemediationStatus = "OVERDUE"
	RemediationStatusPendingVerification RemediationStatus = "PENDING_VERIFICATION"
	RemediationStatusResolved            RemediationStatus = "RESOLVED"
	RemediationStatusAccepted            RemediationStatus = "ACCEPTED"
	RemediationStatusClosed              RemediationStatus = "CLOSED"
)

// remediationTransitions are the manual moves. OVERDUE is never a target:
// only the overdue sweep sets it, once the due date has passed.
var remediationTransitions = map[RemediationStatus][]RemediationStatus{
	RemediationStatusOpen:                {RemediationStatusInProgress},
	RemediationStatusInProgress:          {RemediationStatusPendingVerification},
	RemediationStatusOverdue:             {RemediationStatusInProgress, RemediationStatusPendingVerification},
	RemediationStatusPendingVerification: {RemediationStatusResolved, RemediationStatusAccepted, RemediationStatusInProgress},
	RemediationStatusResolved:            {RemediationStatusClosed},
	RemediationStatusAccepted:            {RemediationStatusClosed},
}

// CanTransitionTo reports whether an action may move from s to next.
func (s RemediationStatus) CanTransitionTo(next RemediationStatus) bool {
	for _, allowed := range remediationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOpen reports whether the action still counts as outstanding work.
func (s RemediationStatus) IsOpen() bool {
	switch s {
	case RemediationStatusOpen, RemediationStatusInProgress, RemediationStatusPendingVerification:
		return true
	}
	return false
}

// RemediationAction is a tracked task resolving a finding.
type RemediationAction struct {
	ID                string            `json:"id" gorm:"primaryKey"`
	FindingID         string            `json:"finding_id" gorm:"index;not null"`
	VendorID          string            `json:"vendor_id" gorm:"index;not null"`
	ActionType        ActionType        `json:"action_type"`
	Title             string            `json:"title"`
	Description       string            `json:"description" gorm:"type:text"`
	AssignedTo        string            `json:"assigned_to"`
	OwnerType         OwnerType         `json:"owner_type"`
	Priority          Severity          `json:"priority"`
	Status            RemediationStatus `json:"status" gorm:"index"`
	DueDate           *time.Time        `json:"due_date,omitempty" gorm:"index"`
	CompletionDate    *time.Time        `json:"completion_date,omitempty"`
	VerificationNotes string            `json:"verification_notes,omitempty" gorm:"type:text"`
	EscalationLevel   int               `json:"escalation_level"`
	ManagedBy         string            `json:"managed_by"`

	Finding *RiskFinding `json:"finding,omitempty" gorm:"foreignKey:FindingID"`
	Vendor  *Vendor      `json:"vendor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *RemediationAction) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = RemediationStatusOpen
	}
	return
}
