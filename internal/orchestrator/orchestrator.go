// Package orchestrator sequences the agents into the onboarding,
// document-processing and maintenance workflows.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/util"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	WorkflowOnboarding  = "onboarding"
	WorkflowDocument    = "document"
	WorkflowMaintenance = "maintenance"
)

// Profiler is the VERA capability used by onboarding.
type Profiler interface {
	Execute(ctx context.Context, in agents.ProfileInput) agents.Result[agents.ProfileOutput]
}

// Assessor is the CARA capability used by onboarding.
type Assessor interface {
	BuildInput(ctx context.Context, vendorID string, assessmentType models.AssessmentType) (agents.AssessmentInput, error)
	Execute(ctx context.Context, in agents.AssessmentInput) agents.Result[agents.AssessmentOutput]
}

// DocumentCollector is the DORA capability used by onboarding and
// maintenance.
type DocumentCollector interface {
	CreateDocumentRequest(ctx context.Context, in agents.DocumentRequestInput) agents.Result[agents.DocumentRequestOutput]
	CheckDocumentInventory(ctx context.Context, vendorID string) agents.Result[agents.Inventory]
}

// Analyzer is the SARA capability used by document processing.
type Analyzer interface {
	BuildInput(ctx context.Context, vendorID, documentID, content string) (agents.AnalysisInput, error)
	Execute(ctx context.Context, in agents.AnalysisInput) agents.Result[agents.AnalysisOutput]
}

// Reporter is the RITA capability used by both workflows.
type Reporter interface {
	Execute(ctx context.Context, in agents.ReportInput) agents.Result[agents.ReportOutput]
}

// RemediationManager is the MARS capability used by document processing and
// maintenance.
type RemediationManager interface {
	Execute(ctx context.Context, in agents.RemediationInput) agents.Result[agents.RemediationPlan]
	CheckOverdueActions(ctx context.Context) agents.Result[[]agents.Escalation]
}

// Stage is one entry of a workflow log.
type Stage struct {
	Stage     string      `json:"stage"`
	Agent     agents.Name `json:"agent"`
	Success   bool        `json:"success"`
	Summary   string      `json:"summary"`
	Timestamp time.Time   `json:"timestamp"`
}

// WorkflowResult is the ordered stage log of one workflow run.
type WorkflowResult struct {
	VendorID       string   `json:"vendor_id"`
	Stages         []Stage  `json:"stages"`
	OverallSuccess bool     `json:"overall_success"`
	NextActions    []string `json:"next_actions"`
}

// MaintenanceResult holds the counters of one maintenance sweep.
type MaintenanceResult struct {
	OverdueEscalations  int       `json:"overdue_escalations"`
	ExpiringDocuments   int       `json:"expiring_documents"`
	UpcomingAssessments int64     `json:"upcoming_assessments"`
	StartedAt           time.Time `json:"started_at"`
	DurationMs          int64     `json:"duration_ms"`
	Errors              []string  `json:"errors,omitempty"`
}

// DocumentRequest identifies a stored document to run through analysis.
type DocumentRequest struct {
	VendorID   string `json:"vendor_id" binding:"required"`
	DocumentID string `json:"document_id" binding:"required"`
	Content    string `json:"document_content"`
}

// Orchestrator runs the workflows. Stages execute sequentially and are never
// retried.
type Orchestrator struct {
	db     *gorm.DB
	policy config.PolicyConfig
	now    func() time.Time

	vera Profiler
	cara Assessor
	dora DocumentCollector
	sara Analyzer
	rita Reporter
	mars RemediationManager

	mu              sync.RWMutex
	lastMaintenance *MaintenanceResult
}

// Agents bundles the capabilities an Orchestrator drives.
type Agents struct {
	VERA Profiler
	CARA Assessor
	DORA DocumentCollector
	SARA Analyzer
	RITA Reporter
	MARS RemediationManager
}

// FromSet adapts a concrete agent set.
func FromSet(s *agents.Set) Agents {
	return Agents{VERA: s.VERA, CARA: s.CARA, DORA: s.DORA, SARA: s.SARA, RITA: s.RITA, MARS: s.MARS}
}

// New creates an Orchestrator. Zero policy ratios fall back to 0.75 for
// onboarding and 0.80 for document processing.
func New(db *gorm.DB, policy config.PolicyConfig, a Agents) *Orchestrator {
	if policy.OnboardingSuccessRatio == 0 {
		policy.OnboardingSuccessRatio = 0.75
	}
	if policy.DocumentSuccessRatio == 0 {
		policy.DocumentSuccessRatio = 0.80
	}
	return &Orchestrator{
		db:     db,
		policy: policy,
		now:    time.Now,
		vera:   a.VERA,
		cara:   a.CARA,
		dora:   a.DORA,
		sara:   a.SARA,
		rita:   a.RITA,
		mars:   a.MARS,
	}
}

func (o *Orchestrator) log() *logrus.Entry {
	return logger.Component("orchestrator")
}

func (r *WorkflowResult) add(stage string, agent agents.Name, success bool, summary string, at time.Time) {
	r.Stages = append(r.Stages, Stage{
		Stage:     stage,
		Agent:     agent,
		Success:   success,
		Summary:   summary,
		Timestamp: at,
	})
}

// succeeded reports whether at least ratio of the stages succeeded.
func (r *WorkflowResult) succeeded(ratio float64) bool {
	ok := 0
	for _, s := range r.Stages {
		if s.Success {
			ok++
		}
	}
	return float64(ok) >= float64(len(r.Stages))*ratio
}

func (o *Orchestrator) done(workflow string, r *WorkflowResult, start time.Time) WorkflowResult {
	metrics.IncWorkflow(workflow, r.OverallSuccess)
	o.log().WithFields(logrus.Fields{
		"workflow":        workflow,
		"vendor_id":       util.SanitizeForLog(r.VendorID),
		"stages":          len(r.Stages),
		"overall_success": r.OverallSuccess,
		"duration_ms":     time.Since(start).Milliseconds(),
	}).Info("workflow finished")
	return *r
}

// failureSummary is the stage summary of a failed agent call.
func failureSummary(msg string) string {
	if msg == "" {
		return "Failed"
	}
	return msg
}

func newResult(vendorID string) *WorkflowResult {
	return &WorkflowResult{VendorID: vendorID, Stages: []Stage{}, NextActions: []string{}}
}

// loadVendor returns the vendor or nil when it does not exist.
func (o *Orchestrator) loadVendor(ctx context.Context, id string) (*models.Vendor, error) {
	var v models.Vendor
	if err := o.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load vendor: %w", err)
	}
	return &v, nil
}

// LastMaintenance returns the summary of the most recent sweep, or nil.
func (o *Orchestrator) LastMaintenance() *MaintenanceResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.lastMaintenance == nil {
		return nil
	}
	cp := *o.lastMaintenance
	return &cp
}
