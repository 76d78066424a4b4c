package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/risk"
)

// documentDueDays is how long a vendor has to supply requested documents.
const documentDueDays = 14

// Onboard profiles a vendor, assesses it when its tier calls for it,
// requests its documents and writes the initial report. A profiling failure
// ends the workflow.
func (o *Orchestrator) Onboard(ctx context.Context, in agents.ProfileInput) WorkflowResult {
	start := time.Now()
	res := newResult(in.VendorID)

	profile := o.vera.Execute(ctx, in)
	if !profile.Success || profile.Data == nil {
		res.add("Risk Profiling", agents.NameVERA, false, failureSummary(profile.Error), o.now())
		res.NextActions = []string{"Review and retry vendor profiling"}
		return o.done(WorkflowOnboarding, res, start)
	}
	p := profile.Data
	res.add("Risk Profiling", agents.NameVERA, true,
		fmt.Sprintf("Risk Tier: %s, Score: %d", p.RiskTier, p.OverallRiskScore), o.now())

	vendor, err := o.loadVendor(ctx, in.VendorID)
	if err != nil {
		o.log().WithError(err).Warn("onboarding could not load vendor")
	}

	if risk.RequiresAssessment(p.RiskTier) && vendor != nil {
		o.assess(ctx, res, in.VendorID)
	}

	if vendor != nil && vendor.PrimaryContactEmail != "" {
		o.requestDocuments(ctx, res, vendor, p.RiskTier)
	}

	report := o.rita.Execute(ctx, agents.ReportInput{
		VendorID:        in.VendorID,
		ReportType:      models.ReportDetailedAssessment,
		IncludeFindings: true,
	})
	summary := failureSummary(report.Error)
	if report.Success && report.Data != nil {
		summary = fmt.Sprintf("Generated %s report", report.Data.ReportType)
	}
	res.add("Initial Report", agents.NameRITA, report.Success, summary, o.now())

	res.OverallSuccess = res.succeeded(o.policy.OnboardingSuccessRatio)
	if res.OverallSuccess {
		res.NextActions = append(res.NextActions, fmt.Sprintf("Schedule %s review", p.AssessmentFrequency))
	}
	return o.done(WorkflowOnboarding, res, start)
}

func (o *Orchestrator) assess(ctx context.Context, res *WorkflowResult, vendorID string) {
	in, err := o.cara.BuildInput(ctx, vendorID, models.AssessmentTypeInitial)
	if err != nil {
		res.add("Detailed Assessment", agents.NameCARA, false, err.Error(), o.now())
		return
	}
	r := o.cara.Execute(ctx, in)
	if !r.Success || r.Data == nil {
		res.add("Detailed Assessment", agents.NameCARA, false, failureSummary(r.Error), o.now())
		return
	}
	res.add("Detailed Assessment", agents.NameCARA, true,
		fmt.Sprintf("Overall Score: %s/5, Rating: %s", formatScore(r.Data.OverallScore), r.Data.RiskRating), o.now())
	for _, doc := range r.Data.RequiredDocuments {
		res.NextActions = append(res.NextActions, "Collect document: "+doc)
	}
}

func (o *Orchestrator) requestDocuments(ctx context.Context, res *WorkflowResult, vendor *models.Vendor, tier models.RiskTier) {
	required := risk.RequiredDocuments(tier)
	r := o.dora.CreateDocumentRequest(ctx, agents.DocumentRequestInput{
		VendorID:          vendor.ID,
		VendorName:        vendor.Name,
		VendorEmail:       vendor.PrimaryContactEmail,
		RequiredDocuments: required,
		DueDate:           o.now().AddDate(0, 0, documentDueDays),
	})
	if !r.Success {
		res.add("Document Request", agents.NameDORA, false, failureSummary(r.Error), o.now())
		return
	}
	res.add("Document Request", agents.NameDORA, true, fmt.Sprintf("Requested %d documents", len(required)), o.now())
	res.NextActions = append(res.NextActions,
		"Monitor document collection status",
		"Follow up with vendor if documents not received",
	)
}

// formatScore prints a score without trailing zeros: 4, 3.5.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
