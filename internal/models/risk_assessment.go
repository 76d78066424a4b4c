package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssessmentType string

const (
	AssessmentTypeInitial   AssessmentType = "INITIAL"
	AssessmentTypeAnnual    AssessmentType = "ANNUAL"
	AssessmentTypeTriggered AssessmentType = "TRIGGERED"
	AssessmentTypeRenewal   AssessmentType = "RENEWAL"
)

const (
	AssessmentStatusInProgress = "IN_PROGRESS"
	AssessmentStatusComplete   = "COMPLETE"
)

// RiskAssessment stores a six-dimension residual-risk assessment. Dimension
// scores are on a 1-5 scale; OverallAssessmentScore is a percentage.
type RiskAssessment struct {
	ID                     string         `json:"id" gorm:"primaryKey"`
	VendorID               string         `json:"vendor_id" gorm:"index;not null"`
	RiskProfileID          string         `json:"risk_profile_id" gorm:"index"`
	AssessmentType         AssessmentType `json:"assessment_type"`
	AssessmentStatus       string         `json:"assessment_status"`
	AssessedBy             string         `json:"assessed_by"`
	AssessmentDate         time.Time      `json:"assessment_date"`
	SecurityRiskScore      float64        `json:"security_risk_score"`
	OperationalRiskScore   float64        `json:"operational_risk_score"`
	ComplianceRiskScore    float64        `json:"compliance_risk_score"`
	FinancialRiskScore     float64        `json:"financial_risk_score"`
	ReputationalRiskScore  float64        `json:"reputational_risk_score"`
	StrategicRiskScore     float64        `json:"strategic_risk_score"`
	OverallAssessmentScore int            `json:"overall_assessment_score"`
	RiskRating             RiskTier       `json:"risk_rating"`
	Summary                string         `json:"summary" gorm:"type:text"`
	Recommendations        string         `json:"recommendations" gorm:"type:text"`
	CreatedAt              time.Time      `json:"created_at"`
}

func (a *RiskAssessment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}
