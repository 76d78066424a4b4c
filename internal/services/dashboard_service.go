package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

const (
	recentWindow   = 30 * 24 * time.Hour
	expiringWindow = 30 * 24 * time.Hour
	recentActivity = 10
)

// DashboardSummary is the portfolio overview shown on the landing page.
type DashboardSummary struct {
	TotalVendors         int64                     `json:"total_vendors"`
	ActiveVendors        int64                     `json:"active_vendors"`
	VendorsByStatus      map[string]int64          `json:"vendors_by_status"`
	RiskDistribution     map[string]int64          `json:"risk_distribution"`
	OpenFindings         int64                     `json:"open_findings"`
	CriticalFindings     int64                     `json:"critical_findings"`
	FindingsDistribution map[string]int64          `json:"findings_distribution"`
	RecentAssessments    int64                     `json:"recent_assessments"`
	OverdueActions       int64                     `json:"overdue_actions"`
	ExpiringDocuments    int64                     `json:"expiring_documents"`
	ComplianceScore      int                       `json:"compliance_score"`
	RecentActivity       []models.AgentActivityLog `json:"recent_activity"`
}

// Alert is a dashboard call to action.
type Alert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// Summary aggregates vendor, finding, action and document counts.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	sum := &DashboardSummary{
		VendorsByStatus:  map[string]int64{},
		RiskDistribution: map[string]int64{"CRITICAL": 0, "HIGH": 0, "MEDIUM": 0, "LOW": 0},
		FindingsDistribution: map[string]int64{
			"CRITICAL": 0, "HIGH": 0, "MEDIUM": 0, "LOW": 0, "INFORMATIONAL": 0,
		},
	}

	if err := groupCount(db.Model(&models.Vendor{}), "status", sum.VendorsByStatus); err != nil {
		return nil, fmt.Errorf("vendors by status: %w", err)
	}
	sum.TotalVendors = sum.VendorsByStatus[string(models.VendorStatusActive)]
	sum.ActiveVendors = sum.TotalVendors

	latest := db.Model(&models.RiskProfile{}).
		Joins("JOIN vendors ON vendors.id = risk_profiles.vendor_id").
		Where("vendors.status = ?", models.VendorStatusActive).
		Where("risk_profiles.created_at = (SELECT MAX(p2.created_at) FROM risk_profiles p2 WHERE p2.vendor_id = risk_profiles.vendor_id)")
	if err := groupCount(latest, "risk_profiles.risk_tier", sum.RiskDistribution); err != nil {
		return nil, fmt.Errorf("risk distribution: %w", err)
	}

	open := db.Model(&models.RiskFinding{}).Where("status <> ?", models.FindingStatusClosed)
	if err := groupCount(open, "severity", sum.FindingsDistribution); err != nil {
		return nil, fmt.Errorf("findings distribution: %w", err)
	}
	for _, n := range sum.FindingsDistribution {
		sum.OpenFindings += n
	}
	sum.CriticalFindings = sum.FindingsDistribution["CRITICAL"] + sum.FindingsDistribution["HIGH"]

	if err := db.Model(&models.RiskAssessment{}).
		Where("created_at >= ?", now.Add(-recentWindow)).
		Count(&sum.RecentAssessments).Error; err != nil {
		return nil, fmt.Errorf("recent assessments: %w", err)
	}
	if err := db.Model(&models.RemediationAction{}).
		Where("status IN ? AND due_date < ?", overdueCandidates, now).
		Count(&sum.OverdueActions).Error; err != nil {
		return nil, fmt.Errorf("overdue actions: %w", err)
	}
	if err := db.Model(&models.Document{}).
		Where("expiration_date > ? AND expiration_date <= ? AND status <> ?", now, now.Add(expiringWindow), models.DocumentStatusExpired).
		Count(&sum.ExpiringDocuments).Error; err != nil {
		return nil, fmt.Errorf("expiring documents: %w", err)
	}
	if err := db.Order("created_at desc").Limit(recentActivity).Find(&sum.RecentActivity).Error; err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	sum.ComplianceScore = complianceScore(sum.TotalVendors, sum.RiskDistribution["CRITICAL"])
	return sum, nil
}

// Alerts derives the calls to action from a summary.
func (s *DashboardService) Alerts(sum *DashboardSummary) []Alert {
	alerts := []Alert{}
	if n := sum.RiskDistribution["CRITICAL"]; n > 0 {
		alerts = append(alerts, Alert{
			Type:     "CRITICAL_VENDORS",
			Message:  fmt.Sprintf("%d vendor(s) classified as critical risk", n),
			Severity: "critical",
		})
	}
	if sum.CriticalFindings > 0 {
		alerts = append(alerts, Alert{
			Type:     "CRITICAL_FINDINGS",
			Message:  fmt.Sprintf("%d critical/high findings require attention", sum.CriticalFindings),
			Severity: "high",
		})
	}
	if sum.OverdueActions > 0 {
		alerts = append(alerts, Alert{
			Type:     "OVERDUE_ACTIONS",
			Message:  fmt.Sprintf("%d remediation action(s) are overdue", sum.OverdueActions),
			Severity: "high",
		})
	}
	if sum.ExpiringDocuments > 0 {
		alerts = append(alerts, Alert{
			Type:     "EXPIRING_DOCS",
			Message:  fmt.Sprintf("%d document(s) expiring within 30 days", sum.ExpiringDocuments),
			Severity: "medium",
		})
	}
	return alerts
}

// complianceScore is the share of active vendors not rated CRITICAL.
func complianceScore(total, critical int64) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(total-critical) / float64(total) * 100))
}

func groupCount(query *gorm.DB, column string, into map[string]int64) error {
	var rows []struct {
		Bucket string
		Count  int64
	}
	if err := query.Select(column + " AS bucket, COUNT(*) AS count").Group(column).Scan(&rows).Error; err != nil {
		return err
	}
	for _, r := range rows {
		into[r.Bucket] = r.Count
	}
	return nil
}
