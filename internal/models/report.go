package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportType string

const (
	ReportExecutiveSummary   ReportType = "EXECUTIVE_SUMMARY"
	ReportDetailedAssessment ReportType = "DETAILED_ASSESSMENT"
	ReportComplianceStatus   ReportType = "COMPLIANCE_STATUS"
	ReportTrendAnalysis      ReportType = "TREND_ANALYSIS"
	ReportPortfolioOverview  ReportType = "PORTFOLIO_OVERVIEW"
)

// Report is a generated narrative report, vendor scoped when VendorID is set
// and portfolio scoped otherwise.
type Report struct {
	ID               string             `json:"id" gorm:"primaryKey"`
	VendorID         *string            `json:"vendor_id,omitempty" gorm:"index"`
	AssessmentID     *string            `json:"assessment_id,omitempty"`
	ReportType       ReportType         `json:"report_type"`
	ReportName       string             `json:"report_name"`
	GeneratedBy      string             `json:"generated_by"`
	Content          string             `json:"content" gorm:"type:text"`
	ExecutiveSummary string             `json:"executive_summary" gorm:"type:text"`
	KeyMetrics       map[string]float64 `json:"key_metrics" gorm:"serializer:json"`
	Recommendations  []string           `json:"recommendations" gorm:"serializer:json"`
	Status           string             `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = "GENERATED"
	}
	return
}
