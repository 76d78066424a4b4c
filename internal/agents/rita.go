package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"gorm.io/gorm"
)

// ReportInput selects the report to generate. An empty VendorID produces a
// portfolio-wide report.
type ReportInput struct {
	VendorID        string            `json:"vendor_id,omitempty"`
	AssessmentID    string            `json:"assessment_id,omitempty"`
	ReportType      models.ReportType `json:"report_type"`
	IncludeFindings bool              `json:"include_findings"`
	IncludeTrends   bool              `json:"include_trends"`
}

// ReportOutput is the generated and stored report.
type ReportOutput struct {
	ReportID         string             `json:"report_id"`
	ReportName       string             `json:"report_name"`
	ReportType       models.ReportType  `json:"report_type"`
	Content          string             `json:"content"`
	ExecutiveSummary string             `json:"executive_summary"`
	KeyMetrics       map[string]float64 `json:"key_metrics"`
	Recommendations  []string           `json:"recommendations"`
}

// ExecutiveDashboard is the headline portfolio view.
type ExecutiveDashboard struct {
	Metrics map[string]int64  `json:"metrics"`
	Alerts  []string          `json:"alerts"`
	Trends  map[string]string `json:"trends"`
}

type ritaResponse struct {
	ReportName       string             `json:"reportName" validate:"required"`
	Content          string             `json:"content" validate:"required"`
	ExecutiveSummary string             `json:"executiveSummary" validate:"required"`
	KeyMetrics       map[string]float64 `json:"keyMetrics"`
	Recommendations  []string           `json:"recommendations" validate:"dive,required"`
}

// RITA writes vendor and portfolio reports.
type RITA struct {
	base
}

func NewRITA(deps Deps) *RITA {
	return &RITA{base: newBase(NameRITA, 0.3, 4000, ritaSystemPrompt, deps)}
}

func (a *RITA) Execute(ctx context.Context, in ReportInput) Result[ReportOutput] {
	start := time.Now()
	if in.ReportType == "" {
		in.ReportType = models.ReportDetailedAssessment
	}
	out, err := a.report(ctx, in)

	entry := models.AgentActivityLog{
		ActivityType: "REPORT_GENERATION",
		EntityType:   "Report",
		ActionTaken:  fmt.Sprintf("Failed to generate %s report", in.ReportType),
	}
	if err == nil {
		entry.EntityID = out.ReportID
		entry.ActionTaken = fmt.Sprintf("Generated %s report", in.ReportType)
		entry.OutputSummary = "Report: " + out.ReportName
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *RITA) report(ctx context.Context, in ReportInput) (*ReportOutput, error) {
	var (
		data string
		err  error
	)
	if in.VendorID != "" {
		data, err = a.vendorData(ctx, in.VendorID)
	} else {
		data, err = a.portfolioData(ctx)
	}
	if err != nil {
		return nil, err
	}

	var resp ritaResponse
	if err := a.invokeJSON(ctx, ritaPrompt(in.ReportType, data), &resp); err != nil {
		return nil, err
	}

	report := models.Report{
		ReportType:       in.ReportType,
		ReportName:       resp.ReportName,
		GeneratedBy:      string(NameRITA),
		Content:          resp.Content,
		ExecutiveSummary: resp.ExecutiveSummary,
		KeyMetrics:       resp.KeyMetrics,
		Recommendations:  nonNil(resp.Recommendations),
		CreatedAt:        a.now(),
	}
	if in.VendorID != "" {
		vendorID := in.VendorID
		report.VendorID = &vendorID
	}
	if in.AssessmentID != "" {
		assessmentID := in.AssessmentID
		report.AssessmentID = &assessmentID
	}
	if report.KeyMetrics == nil {
		report.KeyMetrics = map[string]float64{}
	}
	if err := a.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	return &ReportOutput{
		ReportID:         report.ID,
		ReportName:       report.ReportName,
		ReportType:       report.ReportType,
		Content:          report.Content,
		ExecutiveSummary: report.ExecutiveSummary,
		KeyMetrics:       report.KeyMetrics,
		Recommendations:  report.Recommendations,
	}, nil
}

func (a *RITA) vendorData(ctx context.Context, vendorID string) (string, error) {
	var vendor models.Vendor
	err := a.db.WithContext(ctx).
		Preload("RiskProfiles", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc").Limit(1) }).
		Preload("RiskAssessments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc").Limit(5) }).
		Preload("RiskFindings", "status <> ?", models.FindingStatusClosed).
		Preload("Documents", "is_current = ?", true).
		First(&vendor, "id = ?", vendorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", services.ErrVendorNotFound
		}
		return "", err
	}

	var b strings.Builder
	b.WriteString("VENDOR INFORMATION:\n")
	fmt.Fprintf(&b, "- Name: %s\n", vendor.Name)
	fmt.Fprintf(&b, "- Industry: %s\n", orDefault(vendor.Industry, "N/A"))
	fmt.Fprintf(&b, "- Status: %s\n", vendor.Status)
	if vendor.AnnualSpend != nil {
		fmt.Fprintf(&b, "- Annual Spend: %s\n", formatSpend(vendor.AnnualSpend))
	} else {
		b.WriteString("- Annual Spend: N/A\n")
	}

	b.WriteString("\nRISK PROFILE:\n")
	if len(vendor.RiskProfiles) > 0 {
		p := vendor.RiskProfiles[0]
		fmt.Fprintf(&b, "- Risk Tier: %s\n", p.RiskTier)
		fmt.Fprintf(&b, "- Risk Score: %d\n", p.OverallRiskScore)
		fmt.Fprintf(&b, "- Data Access: PII: %t, PHI: %t, PCI: %t\n", p.HasPIIAccess, p.HasPHIAccess, p.HasPCIAccess)
	} else {
		b.WriteString("- Risk Tier: Not Assessed\n")
	}

	b.WriteString("\nRECENT ASSESSMENTS:\n")
	for _, as := range vendor.RiskAssessments {
		fmt.Fprintf(&b, "- %s (%s): %s - %s\n", as.AssessmentType, as.AssessmentDate.Format("2006-01-02"),
			as.RiskRating, truncateRunes(as.Summary, 200))
	}

	fmt.Fprintf(&b, "\nOPEN FINDINGS (%d):\n", len(vendor.RiskFindings))
	for _, f := range vendor.RiskFindings {
		fmt.Fprintf(&b, "- [%s] %s\n", f.Severity, f.Title)
	}

	fmt.Fprintf(&b, "\nDOCUMENTS ON FILE (%d):\n", len(vendor.Documents))
	for _, d := range vendor.Documents {
		fmt.Fprintf(&b, "- %s: %s\n", d.DocumentType, d.Status)
	}
	return b.String(), nil
}

func (a *RITA) portfolioData(ctx context.Context) (string, error) {
	db := a.db.WithContext(ctx)

	var vendors []models.Vendor
	if err := db.Order("name asc").Find(&vendors).Error; err != nil {
		return "", fmt.Errorf("load vendors: %w", err)
	}
	latest, err := latestProfiles(ctx, db)
	if err != nil {
		return "", err
	}

	type severityCount struct {
		Severity models.Severity
		Count    int64
	}
	var bySeverity []severityCount
	if err := db.Model(&models.RiskFinding{}).Select("severity, count(*) as count").
		Where("status <> ?", models.FindingStatusClosed).Group("severity").Scan(&bySeverity).Error; err != nil {
		return "", fmt.Errorf("count findings: %w", err)
	}
	findings := make(map[models.Severity]int64, len(bySeverity))
	for _, sc := range bySeverity {
		findings[sc.Severity] = sc.Count
	}

	var recentAssessments int64
	if err := db.Model(&models.RiskAssessment{}).
		Where("created_at >= ?", a.now().Add(-90*24*time.Hour)).Count(&recentAssessments).Error; err != nil {
		return "", fmt.Errorf("count assessments: %w", err)
	}

	tiers := map[models.RiskTier]int{}
	active := 0
	var critical []string
	for _, v := range vendors {
		if v.Status == models.VendorStatusActive {
			active++
		}
		p, ok := latest[v.ID]
		if !ok {
			continue
		}
		tiers[p.RiskTier]++
		if p.RiskTier == models.RiskTierCritical && len(critical) < 5 {
			critical = append(critical, fmt.Sprintf("- %s (Score: %d)", v.Name, p.OverallRiskScore))
		}
	}

	var b strings.Builder
	b.WriteString("PORTFOLIO OVERVIEW:\n")
	fmt.Fprintf(&b, "- Total Vendors: %d\n", len(vendors))
	fmt.Fprintf(&b, "- Active Vendors: %d\n", active)
	b.WriteString("\nRISK DISTRIBUTION:\n")
	fmt.Fprintf(&b, "- Critical: %d\n- High: %d\n- Medium: %d\n- Low: %d\n",
		tiers[models.RiskTierCritical], tiers[models.RiskTierHigh], tiers[models.RiskTierMedium], tiers[models.RiskTierLow])
	b.WriteString("\nOPEN FINDINGS BY SEVERITY:\n")
	fmt.Fprintf(&b, "- Critical: %d\n- High: %d\n- Medium: %d\n- Low: %d\n",
		findings[models.SeverityCritical], findings[models.SeverityHigh], findings[models.SeverityMedium], findings[models.SeverityLow])
	b.WriteString("\nASSESSMENT ACTIVITY (Last 90 Days):\n")
	fmt.Fprintf(&b, "- Assessments Completed: %d\n", recentAssessments)
	b.WriteString("\nTOP CRITICAL VENDORS:\n")
	b.WriteString(strings.Join(critical, "\n"))
	b.WriteString("\n")
	return b.String(), nil
}

// latestProfiles returns the newest risk profile of every profiled vendor.
func latestProfiles(ctx context.Context, db *gorm.DB) (map[string]models.RiskProfile, error) {
	var profiles []models.RiskProfile
	if err := db.WithContext(ctx).Order("created_at desc").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("load risk profiles: %w", err)
	}
	latest := make(map[string]models.RiskProfile)
	for _, p := range profiles {
		if _, seen := latest[p.VendorID]; !seen {
			latest[p.VendorID] = p
		}
	}
	return latest, nil
}

// ExecutiveDashboard computes headline metrics and alerts without a model
// call.
func (a *RITA) ExecutiveDashboard(ctx context.Context) Result[ExecutiveDashboard] {
	start := time.Now()
	out, err := a.dashboard(ctx)
	return finish(&a.base, start, out, err)
}

func (a *RITA) dashboard(ctx context.Context) (*ExecutiveDashboard, error) {
	db := a.db.WithContext(ctx)
	var totalVendors, criticalVendors, openFindings, pendingAssessments, expiringDocs int64

	if err := db.Model(&models.Vendor{}).Where("status = ?", models.VendorStatusActive).Count(&totalVendors).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.RiskProfile{}).Where("risk_tier = ?", models.RiskTierCritical).Count(&criticalVendors).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.RiskFinding{}).Where("status = ?", models.FindingStatusOpen).Count(&openFindings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.RiskAssessment{}).Where("assessment_status = ?", models.AssessmentStatusInProgress).Count(&pendingAssessments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Document{}).
		Where("expiration_date IS NOT NULL AND expiration_date <= ? AND status <> ?", a.now().Add(ExpiryWindow), models.DocumentStatusExpired).
		Count(&expiringDocs).Error; err != nil {
		return nil, err
	}

	alerts := []string{}
	if criticalVendors > 0 {
		alerts = append(alerts, fmt.Sprintf("%d critical-tier vendors require attention", criticalVendors))
	}
	if openFindings > 10 {
		alerts = append(alerts, fmt.Sprintf("%d open findings pending remediation", openFindings))
	}
	if expiringDocs > 0 {
		alerts = append(alerts, fmt.Sprintf("%d documents expiring within 30 days", expiringDocs))
	}

	return &ExecutiveDashboard{
		Metrics: map[string]int64{
			"total_vendors":       totalVendors,
			"critical_vendors":    criticalVendors,
			"open_findings":       openFindings,
			"pending_assessments": pendingAssessments,
			"expiring_documents":  expiringDocs,
		},
		Alerts: alerts,
		Trends: map[string]string{},
	}, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func ritaPrompt(reportType models.ReportType, data string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s report based on the following data:\n\n", reportType)
	b.WriteString(data)
	fmt.Fprintf(&b, `
Respond with the following JSON:
{
  "reportName": "report title",
  "reportType": "%s",
  "content": "full markdown report",
  "executiveSummary": "2-3 paragraph executive summary",
  "keyMetrics": {
    "totalVendors": number,
    "criticalVendors": number,
    "highRiskVendors": number,
    "openFindings": number,
    "criticalFindings": number,
    "averageRiskScore": number,
    "complianceRate": number
  },
  "recommendations": ["prioritized recommendations"]
}`, reportType)
	return b.String()
}
