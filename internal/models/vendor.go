package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorStatus string

const (
	VendorStatusActive     VendorStatus = "ACTIVE"
	VendorStatusInactive   VendorStatus = "INACTIVE"
	VendorStatusPending    VendorStatus = "PENDING"
	VendorStatusTerminated VendorStatus = "TERMINATED"
)

type BusinessCriticality string

const (
	CriticalityMissionCritical  BusinessCriticality = "MISSION_CRITICAL"
	CriticalityBusinessCritical BusinessCriticality = "BUSINESS_CRITICAL"
	CriticalityImportant        BusinessCriticality = "IMPORTANT"
	CriticalityStandard         BusinessCriticality = "STANDARD"
)

// Vendor is a third party whose risk is tracked.
type Vendor struct {
	ID                  string       `json:"id" gorm:"primaryKey"`
	Name                string       `json:"name" gorm:"index;not null"`
	LegalName           string       `json:"legal_name,omitempty"`
	DUNSNumber          string       `json:"duns_number,omitempty"`
	Website             string       `json:"website,omitempty"`
	Industry            string       `json:"industry,omitempty"`
	Country             string       `json:"country,omitempty"`
	StateProvince       string       `json:"state_province,omitempty"`
	PrimaryContactName  string       `json:"primary_contact_name,omitempty"`
	PrimaryContactEmail string       `json:"primary_contact_email,omitempty"`
	PrimaryContactPhone string       `json:"primary_contact_phone,omitempty"`
	BusinessOwner       string       `json:"business_owner,omitempty"`
	ITOwner             string       `json:"it_owner,omitempty"`
	ContractStartDate   *time.Time   `json:"contract_start_date,omitempty"`
	ContractEndDate     *time.Time   `json:"contract_end_date,omitempty"`
	AnnualSpend         *float64     `json:"annual_spend,omitempty"`
	Status              VendorStatus `json:"status" gorm:"index"`

	RiskProfiles       []RiskProfile       `json:"risk_profiles,omitempty"`
	RiskAssessments    []RiskAssessment    `json:"risk_assessments,omitempty"`
	Documents          []Document          `json:"documents,omitempty"`
	RiskFindings       []RiskFinding       `json:"risk_findings,omitempty"`
	RemediationActions []RemediationAction `json:"remediation_actions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Status == "" {
		v.Status = VendorStatusPending
	}
	return
}

// Spend returns the annual spend or zero when unknown.
func (v *Vendor) Spend() float64 {
	if v.AnnualSpend == nil {
		return 0
	}
	return *v.AnnualSpend
}
