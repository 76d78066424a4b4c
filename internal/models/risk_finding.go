package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Severity string

const (
	SeverityCritical      Severity = "CRITICAL"
	SeverityHigh          Severity = "HIGH"
	SeverityMedium        Severity = "MEDIUM"
	SeverityLow           Severity = "LOW"
	SeverityInformational Severity = "INFORMATIONAL"
)

// IsCriticalOrHigh reports whether a finding at this severity needs a
// remediation plan.
func (s Severity) IsCriticalOrHigh() bool {
	return s == SeverityCritical || s == SeverityHigh
}

type FindingStatus string

const (
	FindingStatusOpen                FindingStatus = "OPEN"
	FindingStatusInRemediation       FindingStatus = "IN_REMEDIATION"
	FindingStatusPendingVerification FindingStatus = "PENDING_VERIFICATION"
	FindingStatusResolved            FindingStatus = "RESOLVED"
	FindingStatusAccepted            FindingStatus = "ACCEPTED"
	FindingStatusClosed              FindingStatus = "CLOSED"
)

// RiskFinding is a discrete security or compliance issue, usually identified
// in a vendor document.
type RiskFinding struct {
	ID                string        `json:"id" gorm:"primaryKey"`
	VendorID          string        `json:"vendor_id" gorm:"index;not null"`
	DocumentID        *string       `json:"document_id,omitempty" gorm:"index"`
	FindingType       string        `json:"finding_type"`
	FindingCategory   string        `json:"finding_category"`
	Severity          Severity      `json:"severity" gorm:"index"`
	Title             string        `json:"title"`
	Description       string        `json:"description" gorm:"type:text"`
	RiskMapping       string        `json:"risk_mapping,omitempty"`
	AffectedControls  []string      `json:"affected_controls" gorm:"serializer:json"`
	SourceReference   string        `json:"source_reference,omitempty"`
	RecommendedAction string        `json:"recommended_action,omitempty" gorm:"type:text"`
	IdentifiedBy      string        `json:"identified_by"`
	IdentifiedDate    time.Time     `json:"identified_date"`
	Status            FindingStatus `json:"status" gorm:"index"`
	DueDate           *time.Time    `json:"due_date,omitempty"`
	AcceptanceExpiry  *time.Time    `json:"acceptance_expiry,omitempty"`

	Vendor             *Vendor             `json:"vendor,omitempty"`
	Document           *Document           `json:"document,omitempty"`
	RemediationActions []RemediationAction `json:"remediation_actions,omitempty" gorm:"foreignKey:FindingID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *RiskFinding) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Status == "" {
		f.Status = FindingStatusOpen
	}
	return
}
