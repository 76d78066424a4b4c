package handlers

import (
	"net/http"
	"time"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/risk"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

const documentRequestDays = 14

// ProfileRequest is the body of a vendor profiling or onboarding call. Name,
// industry and annual spend are read from the stored vendor.
type ProfileRequest struct {
	VendorID            string                     `json:"vendor_id" binding:"required"`
	DataTypesAccessed   []string                   `json:"data_types_accessed"`
	SystemIntegrations  []string                   `json:"system_integrations"`
	HasPIIAccess        bool                       `json:"has_pii_access"`
	HasPHIAccess        bool                       `json:"has_phi_access"`
	HasPCIAccess        bool                       `json:"has_pci_access"`
	BusinessCriticality models.BusinessCriticality `json:"business_criticality" binding:"required,oneof=MISSION_CRITICAL BUSINESS_CRITICAL IMPORTANT STANDARD"`
	AdditionalContext   string                     `json:"additional_context"`
}

func (r ProfileRequest) input(v *models.Vendor) agents.ProfileInput {
	in := agents.ProfileInput{
		VendorID:            v.ID,
		VendorName:          v.Name,
		Industry:            v.Industry,
		DataTypesAccessed:   r.DataTypesAccessed,
		SystemIntegrations:  r.SystemIntegrations,
		HasPIIAccess:        r.HasPIIAccess,
		HasPHIAccess:        r.HasPHIAccess,
		HasPCIAccess:        r.HasPCIAccess,
		BusinessCriticality: r.BusinessCriticality,
		AdditionalContext:   r.AdditionalContext,
	}
	if v.AnnualSpend != nil {
		spend := v.Spend()
		in.AnnualSpend = &spend
	}
	return in
}

type assessmentRequest struct {
	VendorID       string                `json:"vendor_id" binding:"required"`
	AssessmentType models.AssessmentType `json:"assessment_type" binding:"omitempty,oneof=INITIAL ANNUAL TRIGGERED RENEWAL"`
}

type analysisRequest struct {
	VendorID        string `json:"vendor_id" binding:"required"`
	DocumentID      string `json:"document_id" binding:"required"`
	DocumentContent string `json:"document_content"`
}

type remediationRequest struct {
	FindingID string `json:"finding_id" binding:"required"`
}

type acceptanceRequest struct {
	FindingID     string `json:"finding_id" binding:"required"`
	Justification string `json:"justification" binding:"required"`
	Approver      string `json:"approver"`
}

type documentRequest struct {
	VendorID          string                `json:"vendor_id" binding:"required"`
	RequiredDocuments []models.DocumentType `json:"required_documents"`
	DueDate           *time.Time            `json:"due_date"`
}

type reportRequest struct {
	VendorID        string            `json:"vendor_id"`
	AssessmentID    string            `json:"assessment_id"`
	ReportType      models.ReportType `json:"report_type" binding:"omitempty,oneof=EXECUTIVE_SUMMARY DETAILED_ASSESSMENT COMPLIANCE_STATUS TREND_ANALYSIS PORTFOLIO_OVERVIEW"`
	IncludeFindings bool              `json:"include_findings"`
	IncludeTrends   bool              `json:"include_trends"`
}

// AgentHandler exposes each agent directly.
type AgentHandler struct {
	agents   *agents.Set
	vendors  *services.VendorService
	activity *services.ActivityService
	now      func() time.Time
}

func NewAgentHandler(set *agents.Set, vendors *services.VendorService, activity *services.ActivityService) *AgentHandler {
	return &AgentHandler{agents: set, vendors: vendors, activity: activity, now: time.Now}
}

// agentResponse answers with the result payload under key, or maps the
// failure to an error response.
func agentResponse[T any](c *gin.Context, key string, res agents.Result[T], fallback string) {
	if !res.Success {
		respondError(c, res.Err(), fallback)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		key:                  res.Data,
		"processing_time_ms": res.ProcessingTimeMs,
	})
}

// Profile runs VERA and activates the vendor on success.
func (h *AgentHandler) Profile(c *gin.Context) {
	var req ProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	vendor, err := h.vendors.Get(ctx, req.VendorID)
	if err != nil {
		respondError(c, err, "Failed to fetch vendor")
		return
	}

	res := h.agents.VERA.Execute(ctx, req.input(vendor))
	if res.Success {
		if err := h.vendors.SetStatus(ctx, vendor.ID, models.VendorStatusActive); err != nil {
			respondError(c, err, "Failed to activate vendor")
			return
		}
	}
	agentResponse(c, "profile", res, "Risk profiling failed")
}

func (h *AgentHandler) Assess(c *gin.Context) {
	var req assessmentRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.AssessmentType == "" {
		req.AssessmentType = models.AssessmentTypeInitial
	}
	ctx := c.Request.Context()

	in, err := h.agents.CARA.BuildInput(ctx, req.VendorID, req.AssessmentType)
	if err != nil {
		respondError(c, err, "Failed to prepare assessment")
		return
	}
	agentResponse(c, "assessment", h.agents.CARA.Execute(ctx, in), "Risk assessment failed")
}

func (h *AgentHandler) Analyze(c *gin.Context) {
	var req analysisRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	in, err := h.agents.SARA.BuildInput(ctx, req.VendorID, req.DocumentID, req.DocumentContent)
	if err != nil {
		respondError(c, err, "Failed to prepare document analysis")
		return
	}
	agentResponse(c, "analysis", h.agents.SARA.Execute(ctx, in), "Document analysis failed")
}

func (h *AgentHandler) PlanRemediation(c *gin.Context) {
	var req remediationRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	in, err := h.agents.MARS.InputForFinding(ctx, req.FindingID)
	if err != nil {
		respondError(c, err, "Failed to prepare remediation plan")
		return
	}
	agentResponse(c, "remediation_plan", h.agents.MARS.Execute(ctx, in), "Remediation planning failed")
}

func (h *AgentHandler) AcceptRisk(c *gin.Context) {
	var req acceptanceRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Approver == "" {
		req.Approver = actor(c)
	}
	res := h.agents.MARS.AcceptRisk(c.Request.Context(), agents.AcceptanceInput{
		FindingID:     req.FindingID,
		Justification: req.Justification,
		Approver:      req.Approver,
	})
	agentResponse(c, "acceptance", res, "Risk acceptance failed")
}

func (h *AgentHandler) CheckOverdue(c *gin.Context) {
	agentResponse(c, "escalations", h.agents.MARS.CheckOverdueActions(c.Request.Context()), "Overdue check failed")
}

// RequestDocuments runs DORA. Without an explicit list the documents
// required for the vendor's current tier are requested.
func (h *AgentHandler) RequestDocuments(c *gin.Context) {
	var req documentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	vendor, err := h.vendors.Get(ctx, req.VendorID)
	if err != nil {
		respondError(c, err, "Failed to fetch vendor")
		return
	}
	docs := req.RequiredDocuments
	if len(docs) == 0 {
		tier := models.RiskTierMedium
		if len(vendor.RiskProfiles) > 0 {
			tier = vendor.RiskProfiles[0].RiskTier
		}
		docs = risk.RequiredDocuments(tier)
	}
	due := h.now().AddDate(0, 0, documentRequestDays)
	if req.DueDate != nil {
		due = *req.DueDate
	}

	res := h.agents.DORA.CreateDocumentRequest(ctx, agents.DocumentRequestInput{
		VendorID:          vendor.ID,
		VendorName:        vendor.Name,
		VendorEmail:       vendor.PrimaryContactEmail,
		RequiredDocuments: docs,
		DueDate:           due,
	})
	agentResponse(c, "document_request", res, "Document request failed")
}

func (h *AgentHandler) Report(c *gin.Context) {
	var req reportRequest
	if !bindJSON(c, &req) {
		return
	}
	res := h.agents.RITA.Execute(c.Request.Context(), agents.ReportInput{
		VendorID:        req.VendorID,
		AssessmentID:    req.AssessmentID,
		ReportType:      req.ReportType,
		IncludeFindings: req.IncludeFindings,
		IncludeTrends:   req.IncludeTrends,
	})
	agentResponse(c, "report", res, "Report generation failed")
}

func (h *AgentHandler) ExecutiveDashboard(c *gin.Context) {
	agentResponse(c, "dashboard", h.agents.RITA.ExecutiveDashboard(c.Request.Context()), "Failed to build executive dashboard")
}

func (h *AgentHandler) Activity(c *gin.Context) {
	logs, err := h.activity.Recent(c.Request.Context(), c.Query("agent"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err, "Failed to fetch agent activity")
		return
	}
	c.JSON(http.StatusOK, logs)
}
