package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/risk"
	"github.com/Wikid82/warden/backend/internal/services"
	"gorm.io/gorm"
)

// ProfileInput describes a vendor to be profiled.
type ProfileInput struct {
	VendorID            string                     `json:"vendor_id"`
	VendorName          string                     `json:"vendor_name"`
	Industry            string                     `json:"industry,omitempty"`
	DataTypesAccessed   []string                   `json:"data_types_accessed"`
	SystemIntegrations  []string                   `json:"system_integrations"`
	HasPIIAccess        bool                       `json:"has_pii_access"`
	HasPHIAccess        bool                       `json:"has_phi_access"`
	HasPCIAccess        bool                       `json:"has_pci_access"`
	BusinessCriticality models.BusinessCriticality `json:"business_criticality"`
	AnnualSpend         *float64                   `json:"annual_spend,omitempty"`
	AdditionalContext   string                     `json:"additional_context,omitempty"`
}

// ProfileOutput is the persisted risk profile summary.
type ProfileOutput struct {
	VendorID             string          `json:"vendor_id"`
	ProfileID            string          `json:"profile_id"`
	RiskTier             models.RiskTier `json:"risk_tier"`
	OverallRiskScore     int             `json:"overall_risk_score"`
	DataSensitivityLevel string          `json:"data_sensitivity_level"`
	AssessmentFrequency  string          `json:"assessment_frequency"`
	NextAssessmentDate   time.Time       `json:"next_assessment_date"`
	RiskFactors          []string        `json:"risk_factors"`
	Recommendations      []string        `json:"recommendations"`
}

type veraResponse struct {
	DataSensitivityLevel string   `json:"dataSensitivityLevel" validate:"required"`
	RiskFactors          []string `json:"riskFactors" validate:"required,min=1,dive,required"`
	Recommendations      []string `json:"recommendations" validate:"required,min=1,dive,required"`
}

// VERA profiles vendors. Tier and score are computed by the risk package;
// the model only supplies the narrative.
type VERA struct {
	base
}

func NewVERA(deps Deps) *VERA {
	return &VERA{base: newBase(NameVERA, 0.3, 2000, veraSystemPrompt, deps)}
}

func (a *VERA) Execute(ctx context.Context, in ProfileInput) Result[ProfileOutput] {
	start := time.Now()
	out, err := a.profile(ctx, in)

	entry := models.AgentActivityLog{
		ActivityType: "RISK_PROFILING",
		EntityType:   "Vendor",
		EntityID:     in.VendorID,
		InputSummary: "Vendor: " + in.VendorName,
		ActionTaken:  "Failed to create risk profile",
	}
	if err == nil {
		entry.ActionTaken = fmt.Sprintf("Created risk profile with tier: %s", out.RiskTier)
		entry.OutputSummary = fmt.Sprintf("Risk Score: %d, Tier: %s", out.OverallRiskScore, out.RiskTier)
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *VERA) profile(ctx context.Context, in ProfileInput) (*ProfileOutput, error) {
	var vendor models.Vendor
	if err := a.db.WithContext(ctx).First(&vendor, "id = ?", in.VendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrVendorNotFound
		}
		return nil, fmt.Errorf("load vendor: %w", err)
	}
	if in.VendorName == "" {
		in.VendorName = vendor.Name
	}

	spend := 0.0
	if in.AnnualSpend != nil {
		spend = *in.AnnualSpend
	}
	score, tier := risk.CalculateScore(risk.Factors{
		HasPHIAccess:        in.HasPHIAccess,
		HasPIIAccess:        in.HasPIIAccess,
		HasPCIAccess:        in.HasPCIAccess,
		BusinessCriticality: in.BusinessCriticality,
		AnnualSpend:         spend,
	})
	frequency := risk.AssessmentFrequency(tier)

	var resp veraResponse
	if err := a.invokeJSON(ctx, veraPrompt(in, score, tier, frequency), &resp); err != nil {
		return nil, err
	}

	now := a.now()
	profile := models.RiskProfile{
		VendorID:             in.VendorID,
		RiskTier:             tier,
		OverallRiskScore:     score,
		DataSensitivityLevel: resp.DataSensitivityLevel,
		DataTypesAccessed:    nonNil(in.DataTypesAccessed),
		SystemIntegrations:   nonNil(in.SystemIntegrations),
		HasPIIAccess:         in.HasPIIAccess,
		HasPHIAccess:         in.HasPHIAccess,
		HasPCIAccess:         in.HasPCIAccess,
		BusinessCriticality:  in.BusinessCriticality,
		AssessmentFrequency:  frequency,
		NextAssessmentDate:   risk.NextAssessmentDate(tier, now),
		RiskFactors:          resp.RiskFactors,
		Recommendations:      resp.Recommendations,
		CalculatedBy:         string(NameVERA),
		CreatedAt:            now,
	}
	if err := a.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("save risk profile: %w", err)
	}

	return &ProfileOutput{
		VendorID:             in.VendorID,
		ProfileID:            profile.ID,
		RiskTier:             tier,
		OverallRiskScore:     score,
		DataSensitivityLevel: profile.DataSensitivityLevel,
		AssessmentFrequency:  frequency,
		NextAssessmentDate:   profile.NextAssessmentDate,
		RiskFactors:          profile.RiskFactors,
		Recommendations:      profile.Recommendations,
	}, nil
}

func veraPrompt(in ProfileInput, score int, tier models.RiskTier, frequency string) string {
	var b strings.Builder
	b.WriteString("Analyze the following vendor and explain its risk profile:\n\n")
	b.WriteString("Vendor Information:\n")
	fmt.Fprintf(&b, "- Vendor ID: %s\n", in.VendorID)
	fmt.Fprintf(&b, "- Name: %s\n", in.VendorName)
	fmt.Fprintf(&b, "- Industry: %s\n", orDefault(in.Industry, "Not specified"))
	fmt.Fprintf(&b, "- Annual Spend: %s\n", formatSpend(in.AnnualSpend))
	b.WriteString("\nData Access:\n")
	fmt.Fprintf(&b, "- Data Types Accessed: %s\n", joinOr(in.DataTypesAccessed, "None specified"))
	fmt.Fprintf(&b, "- System Integrations: %s\n", joinOr(in.SystemIntegrations, "None specified"))
	fmt.Fprintf(&b, "- Has PII Access: %t\n", in.HasPIIAccess)
	fmt.Fprintf(&b, "- Has PHI Access: %t\n", in.HasPHIAccess)
	fmt.Fprintf(&b, "- Has PCI Access: %t\n", in.HasPCIAccess)
	b.WriteString("\nBusiness Context:\n")
	fmt.Fprintf(&b, "- Business Criticality: %s\n", in.BusinessCriticality)
	if in.AdditionalContext != "" {
		fmt.Fprintf(&b, "- Additional Context: %s\n", in.AdditionalContext)
	}
	b.WriteString("\nComputed Classification:\n")
	fmt.Fprintf(&b, "- Risk Tier: %s\n", tier)
	fmt.Fprintf(&b, "- Risk Score: %d/100\n", score)
	fmt.Fprintf(&b, "- Review Frequency: %s\n", frequency)
	b.WriteString(`
Respond with the following JSON:
{
  "dataSensitivityLevel": "string",
  "riskFactors": ["identified risk factors"],
  "recommendations": ["specific recommendations"]
}`)
	return b.String()
}
