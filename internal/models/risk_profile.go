package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RiskTier string

const (
	RiskTierCritical RiskTier = "CRITICAL"
	RiskTierHigh     RiskTier = "HIGH"
	RiskTierMedium   RiskTier = "MEDIUM"
	RiskTierLow      RiskTier = "LOW"
)

// RiskProfile is the inherent-risk classification produced when a vendor is
// profiled. The latest profile by created_at is the current one.
type RiskProfile struct {
	ID                   string              `json:"id" gorm:"primaryKey"`
	VendorID             string              `json:"vendor_id" gorm:"index;not null"`
	RiskTier             RiskTier            `json:"risk_tier" gorm:"index"`
	OverallRiskScore     int                 `json:"overall_risk_score"`
	DataSensitivityLevel string              `json:"data_sensitivity_level"`
	DataTypesAccessed    []string            `json:"data_types_accessed" gorm:"serializer:json"`
	SystemIntegrations   []string            `json:"system_integrations" gorm:"serializer:json"`
	HasPIIAccess         bool                `json:"has_pii_access"`
	HasPHIAccess         bool                `json:"has_phi_access"`
	HasPCIAccess         bool                `json:"has_pci_access"`
	BusinessCriticality  BusinessCriticality `json:"business_criticality"`
	AssessmentFrequency  string              `json:"assessment_frequency"`
	NextAssessmentDate   time.Time           `json:"next_assessment_date" gorm:"index"`
	RiskFactors          []string            `json:"risk_factors" gorm:"serializer:json"`
	Recommendations      []string            `json:"recommendations" gorm:"serializer:json"`
	CalculatedBy         string              `json:"calculated_by"`
	CreatedAt            time.Time           `json:"created_at"`
}

func (p *RiskProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
