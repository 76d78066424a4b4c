package agents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"gorm.io/gorm"
)

// VendorInfo is the vendor context handed to an assessment.
type VendorInfo struct {
	Name        string  `json:"name"`
	Industry    string  `json:"industry"`
	Country     string  `json:"country"`
	AnnualSpend float64 `json:"annual_spend"`
}

// AssessmentInput describes a detailed assessment to run.
type AssessmentInput struct {
	VendorID         string                `json:"vendor_id"`
	RiskProfileID    string                `json:"risk_profile_id"`
	AssessmentType   models.AssessmentType `json:"assessment_type"`
	VendorInfo       VendorInfo            `json:"vendor_info"`
	ExistingFindings []string              `json:"existing_findings,omitempty"`
}

// AssessmentOutput is the persisted assessment. Dimension scores are on a
// 1-5 scale.
type AssessmentOutput struct {
	VendorID              string          `json:"vendor_id"`
	AssessmentID          string          `json:"assessment_id"`
	SecurityRiskScore     float64         `json:"security_risk_score"`
	OperationalRiskScore  float64         `json:"operational_risk_score"`
	ComplianceRiskScore   float64         `json:"compliance_risk_score"`
	FinancialRiskScore    float64         `json:"financial_risk_score"`
	ReputationalRiskScore float64         `json:"reputational_risk_score"`
	StrategicRiskScore    float64         `json:"strategic_risk_score"`
	OverallScore          float64         `json:"overall_score"`
	OverallPercentage     int             `json:"overall_percentage"`
	RiskRating            models.RiskTier `json:"risk_rating"`
	Summary               string          `json:"summary"`
	Recommendations       []string        `json:"recommendations"`
	RequiredDocuments     []string        `json:"required_documents"`
}

type caraResponse struct {
	SecurityRiskScore     float64  `json:"securityRiskScore" validate:"gte=1,lte=5"`
	OperationalRiskScore  float64  `json:"operationalRiskScore" validate:"gte=1,lte=5"`
	ComplianceRiskScore   float64  `json:"complianceRiskScore" validate:"gte=1,lte=5"`
	FinancialRiskScore    float64  `json:"financialRiskScore" validate:"gte=1,lte=5"`
	ReputationalRiskScore float64  `json:"reputationalRiskScore" validate:"gte=1,lte=5"`
	StrategicRiskScore    float64  `json:"strategicRiskScore" validate:"gte=1,lte=5"`
	OverallScore          float64  `json:"overallScore" validate:"gte=1,lte=5"`
	RiskRating            string   `json:"riskRating" validate:"required,oneof=CRITICAL HIGH MEDIUM LOW"`
	Summary               string   `json:"summary" validate:"required"`
	Recommendations       []string `json:"recommendations" validate:"required,dive,required"`
	RequiredDocuments     []string `json:"requiredDocuments" validate:"dive,required"`
}

// CARA runs six-dimension assessments for high-risk vendors.
type CARA struct {
	base
}

func NewCARA(deps Deps) *CARA {
	return &CARA{base: newBase(NameCARA, 0.3, 3000, caraSystemPrompt, deps)}
}

// BuildInput loads the vendor, its latest risk profile and the titles of its
// unresolved findings.
func (a *CARA) BuildInput(ctx context.Context, vendorID string, assessmentType models.AssessmentType) (AssessmentInput, error) {
	db := a.db.WithContext(ctx)

	var vendor models.Vendor
	if err := db.First(&vendor, "id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AssessmentInput{}, services.ErrVendorNotFound
		}
		return AssessmentInput{}, err
	}

	var profile models.RiskProfile
	if err := db.Where("vendor_id = ?", vendorID).Order("created_at desc").First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AssessmentInput{}, services.ErrNoRiskProfile
		}
		return AssessmentInput{}, err
	}

	var findings []models.RiskFinding
	if err := db.Where("vendor_id = ? AND status NOT IN ?", vendorID,
		[]models.FindingStatus{models.FindingStatusClosed, models.FindingStatusResolved}).
		Order("created_at desc").Limit(20).Find(&findings).Error; err != nil {
		return AssessmentInput{}, err
	}
	existing := make([]string, 0, len(findings))
	for _, f := range findings {
		existing = append(existing, fmt.Sprintf("[%s] %s", f.Severity, f.Title))
	}

	if assessmentType == "" {
		assessmentType = models.AssessmentTypeInitial
	}
	return AssessmentInput{
		VendorID:       vendorID,
		RiskProfileID:  profile.ID,
		AssessmentType: assessmentType,
		VendorInfo: VendorInfo{
			Name:        vendor.Name,
			Industry:    orDefault(vendor.Industry, "Unknown"),
			Country:     orDefault(vendor.Country, "Unknown"),
			AnnualSpend: vendor.Spend(),
		},
		ExistingFindings: existing,
	}, nil
}

func (a *CARA) Execute(ctx context.Context, in AssessmentInput) Result[AssessmentOutput] {
	start := time.Now()
	out, err := a.assess(ctx, in)

	entry := models.AgentActivityLog{
		ActivityType: "RISK_ASSESSMENT",
		EntityType:   "Vendor",
		EntityID:     in.VendorID,
		InputSummary: fmt.Sprintf("Vendor: %s, Type: %s", in.VendorInfo.Name, in.AssessmentType),
		ActionTaken:  "Failed to complete assessment",
	}
	if err == nil {
		entry.ActionTaken = fmt.Sprintf("Completed %s assessment", in.AssessmentType)
		entry.OutputSummary = fmt.Sprintf("Rating: %s, Overall Score: %s/5", out.RiskRating, formatScore(out.OverallScore))
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *CARA) assess(ctx context.Context, in AssessmentInput) (*AssessmentOutput, error) {
	if in.AssessmentType == "" {
		in.AssessmentType = models.AssessmentTypeInitial
	}

	var resp caraResponse
	if err := a.invokeJSON(ctx, caraPrompt(in), &resp); err != nil {
		return nil, err
	}

	now := a.now()
	percentage := int(math.Round(resp.OverallScore / 5 * 100))
	assessment := models.RiskAssessment{
		VendorID:               in.VendorID,
		RiskProfileID:          in.RiskProfileID,
		AssessmentType:         in.AssessmentType,
		AssessmentStatus:       models.AssessmentStatusComplete,
		AssessedBy:             string(NameCARA),
		AssessmentDate:         now,
		SecurityRiskScore:      resp.SecurityRiskScore,
		OperationalRiskScore:   resp.OperationalRiskScore,
		ComplianceRiskScore:    resp.ComplianceRiskScore,
		FinancialRiskScore:     resp.FinancialRiskScore,
		ReputationalRiskScore:  resp.ReputationalRiskScore,
		StrategicRiskScore:     resp.StrategicRiskScore,
		OverallAssessmentScore: percentage,
		RiskRating:             models.RiskTier(resp.RiskRating),
		Summary:                resp.Summary,
		Recommendations:        strings.Join(resp.Recommendations, "\n\n"),
		CreatedAt:              now,
	}
	if err := a.db.WithContext(ctx).Create(&assessment).Error; err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	return &AssessmentOutput{
		VendorID:              in.VendorID,
		AssessmentID:          assessment.ID,
		SecurityRiskScore:     resp.SecurityRiskScore,
		OperationalRiskScore:  resp.OperationalRiskScore,
		ComplianceRiskScore:   resp.ComplianceRiskScore,
		FinancialRiskScore:    resp.FinancialRiskScore,
		ReputationalRiskScore: resp.ReputationalRiskScore,
		StrategicRiskScore:    resp.StrategicRiskScore,
		OverallScore:          resp.OverallScore,
		OverallPercentage:     percentage,
		RiskRating:            assessment.RiskRating,
		Summary:               resp.Summary,
		Recommendations:       resp.Recommendations,
		RequiredDocuments:     nonNil(resp.RequiredDocuments),
	}, nil
}

func caraPrompt(in AssessmentInput) string {
	spend := in.VendorInfo.AnnualSpend
	var b strings.Builder
	b.WriteString("Conduct a comprehensive risk assessment for the following vendor:\n\n")
	b.WriteString("Vendor Information:\n")
	fmt.Fprintf(&b, "- Vendor ID: %s\n", in.VendorID)
	fmt.Fprintf(&b, "- Name: %s\n", in.VendorInfo.Name)
	fmt.Fprintf(&b, "- Industry: %s\n", in.VendorInfo.Industry)
	fmt.Fprintf(&b, "- Country: %s\n", in.VendorInfo.Country)
	fmt.Fprintf(&b, "- Annual Spend: %s\n", formatSpend(&spend))
	fmt.Fprintf(&b, "\nAssessment Type: %s\n", in.AssessmentType)
	fmt.Fprintf(&b, "Risk Profile ID: %s\n", in.RiskProfileID)
	if len(in.ExistingFindings) > 0 {
		b.WriteString("\nExisting Findings from Previous Assessments:\n")
		b.WriteString(strings.Join(in.ExistingFindings, "\n"))
		b.WriteString("\n")
	}
	b.WriteString(`
Respond with the following JSON:
{
  "securityRiskScore": number (1-5),
  "operationalRiskScore": number (1-5),
  "complianceRiskScore": number (1-5),
  "financialRiskScore": number (1-5),
  "reputationalRiskScore": number (1-5),
  "strategicRiskScore": number (1-5),
  "overallScore": number (1-5),
  "riskRating": "CRITICAL|HIGH|MEDIUM|LOW",
  "summary": "executive summary of the assessment",
  "recommendations": ["specific recommendations"],
  "requiredDocuments": ["documents needed for a full assessment"]
}`)
	return b.String()
}
