package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/util"
)

// stageTitleLength caps the finding title shown in a remediation stage name.
const stageTitleLength = 30

// ProcessDocument analyzes a stored document, plans remediation for every
// CRITICAL or HIGH finding the analysis produced and refreshes the vendor
// report. Empty content is replaced by a placeholder built from the
// document metadata.
func (o *Orchestrator) ProcessDocument(ctx context.Context, req DocumentRequest) WorkflowResult {
	start := time.Now()
	res := newResult(req.VendorID)

	vendor, err := o.loadVendor(ctx, req.VendorID)
	if err != nil {
		o.log().WithError(err).Warn("document processing could not load vendor")
	}
	if vendor == nil {
		res.add("Initialization", agents.NameSystem, false, "Vendor not found", o.now())
		res.NextActions = []string{"Verify vendor ID and retry"}
		return o.done(WorkflowDocument, res, start)
	}

	analysis := agents.Result[agents.AnalysisOutput]{}
	in, err := o.sara.BuildInput(ctx, req.VendorID, req.DocumentID, req.Content)
	if err != nil {
		analysis.Error = err.Error()
	} else {
		analysis = o.sara.Execute(ctx, in)
	}
	if !analysis.Success || analysis.Data == nil {
		res.add("Security Analysis", agents.NameSARA, false, failureSummary(analysis.Error), o.now())
		res.NextActions = []string{"Review document format and retry analysis"}
		return o.done(WorkflowDocument, res, start)
	}
	out := analysis.Data
	res.add("Security Analysis", agents.NameSARA, true, fmt.Sprintf("Found %d findings", len(out.Findings)), o.now())

	severe := 0
	for _, f := range out.Findings {
		if !f.Severity.IsCriticalOrHigh() {
			continue
		}
		severe++
		o.planRemediation(ctx, res, vendor, f)
	}
	if severe > 0 {
		res.NextActions = append(res.NextActions, fmt.Sprintf("Follow up on %d critical/high findings", severe))
	}

	report := o.rita.Execute(ctx, agents.ReportInput{
		VendorID:        req.VendorID,
		ReportType:      models.ReportDetailedAssessment,
		IncludeFindings: true,
	})
	summary := failureSummary(report.Error)
	if report.Success {
		summary = "Assessment report updated"
	}
	res.add("Report Update", agents.NameRITA, report.Success, summary, o.now())

	res.OverallSuccess = res.succeeded(o.policy.DocumentSuccessRatio)
	if n := len(out.ComplianceGaps); n > 0 {
		res.NextActions = append(res.NextActions, fmt.Sprintf("Address %d compliance gaps", n))
	}
	return o.done(WorkflowDocument, res, start)
}

func (o *Orchestrator) planRemediation(ctx context.Context, res *WorkflowResult, vendor *models.Vendor, f models.RiskFinding) {
	contact := agents.Contact{Name: "Vendor Contact", Email: vendor.PrimaryContactEmail}
	if strings.TrimSpace(vendor.PrimaryContactName) != "" {
		contact.Name = vendor.PrimaryContactName
	}
	r := o.mars.Execute(ctx, agents.RemediationInput{
		FindingID: f.ID,
		VendorID:  vendor.ID,
		Finding: agents.FindingSummary{
			Title:       f.Title,
			Severity:    f.Severity,
			Description: f.Description,
		},
		VendorContact: contact,
	})
	summary := failureSummary(r.Error)
	if r.Success && r.Data != nil {
		summary = fmt.Sprintf("Created %d actions", len(r.Data.Actions))
	}
	res.add("Remediation Plan: "+util.Truncate(f.Title, stageTitleLength), agents.NameMARS, r.Success, summary, o.now())
}
