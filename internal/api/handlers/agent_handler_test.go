package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/llm"
	"github.com/Wikid82/warden/backend/internal/llm/llmtest"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
)

const veraReply = `{
  "dataSensitivityLevel": "Highly Sensitive",
  "riskFactors": ["PHI access"],
  "recommendations": ["Require SOC 2 Type II annually"]
}`

const doraReply = `{
  "requestedDocuments": [{"type": "Privacy Policy", "priority": "HIGH"}],
  "emailSubject": "Security documentation request",
  "emailBody": "Please provide the listed documents.",
  "followUpSchedule": ["in 7 days"]
}`

func setupAgentRouter(t *testing.T, client llm.Client) (*gin.Engine, *gorm.DB, *AgentHandler) {
	t.Helper()
	db := openTestDB(t)
	set := agents.NewSet(agents.Deps{LLM: client, DB: db, Notifier: services.NewNotificationService(db)})
	h := NewAgentHandler(set, services.NewVendorService(db), services.NewActivityService(db))

	r := newTestRouter()
	r.POST("/agents/vera", h.Profile)
	r.POST("/agents/cara", h.Assess)
	r.POST("/agents/sara", h.Analyze)
	r.POST("/agents/dora", h.RequestDocuments)
	r.POST("/agents/mars", h.PlanRemediation)
	r.PUT("/agents/mars", h.AcceptRisk)
	r.GET("/agents/mars", h.CheckOverdue)
	r.GET("/agents/rita", h.ExecutiveDashboard)
	r.GET("/agents/activity", h.Activity)
	return r, db, h
}

func profileBody(vendor models.Vendor) map[string]any {
	return map[string]any{
		"vendor_id":            vendor.ID,
		"has_phi_access":       true,
		"has_pii_access":       true,
		"business_criticality": "MISSION_CRITICAL",
	}
}

func TestAgentHandler_Profile(t *testing.T) {
	client := llmtest.New(veraReply)
	r, db, _ := setupAgentRouter(t, client)
	vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusPending)
	require.NoError(t, db.Model(&vendor).Update("annual_spend", 2000000).Error)

	w := performJSON(r, http.MethodPost, "/agents/vera", profileBody(vendor))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Success          bool                 `json:"success"`
		Profile          agents.ProfileOutput `json:"profile"`
		ProcessingTimeMs *int64               `json:"processing_time_ms"`
	}](t, w)
	assert.True(t, body.Success)
	assert.Equal(t, models.RiskTierCritical, body.Profile.RiskTier)
	assert.Equal(t, 100, body.Profile.OverallRiskScore)
	assert.NotNil(t, body.ProcessingTimeMs)
	require.Len(t, client.Requests, 1)
	assert.Contains(t, client.Requests[0].Prompt, "- Industry: Cloud Computing")
	assert.Contains(t, client.Requests[0].Prompt, "- Annual Spend: $2,000,000")

	var stored models.Vendor
	require.NoError(t, db.First(&stored, "id = ?", vendor.ID).Error)
	assert.Equal(t, models.VendorStatusActive, stored.Status, "successful profiling activates the vendor")

	w = performJSON(r, http.MethodGet, "/agents/activity?agent=VERA", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]models.AgentActivityLog](t, w)
	require.Len(t, logs, 1)
	assert.Equal(t, "Created risk profile with tier: CRITICAL", logs[0].ActionTaken)
}

func TestAgentHandler_Profile_Failures(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		r, _, _ := setupAgentRouter(t, llmtest.New())
		w := performJSON(r, http.MethodPost, "/agents/vera", map[string]any{"vendor_id": "v1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"business_criticality"`)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		client := llmtest.New(veraReply)
		r, db, _ := setupAgentRouter(t, client)

		body := profileBody(models.Vendor{ID: "missing"})
		body["vendor_name"] = "Ghost Vendor"
		w := performJSON(r, http.MethodPost, "/agents/vera", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Vendor not found"}`, w.Body.String())
		assert.Zero(t, client.Calls())

		var profiles int64
		require.NoError(t, db.Model(&models.RiskProfile{}).Count(&profiles).Error)
		assert.Zero(t, profiles)
	})

	t.Run("llm disabled", func(t *testing.T) {
		r, db, _ := setupAgentRouter(t, llm.Disabled{})
		vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusPending)

		w := performJSON(r, http.MethodPost, "/agents/vera", profileBody(vendor))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var stored models.Vendor
		require.NoError(t, db.First(&stored, "id = ?", vendor.ID).Error)
		assert.Equal(t, models.VendorStatusPending, stored.Status)
	})

	t.Run("malformed reply", func(t *testing.T) {
		r, db, _ := setupAgentRouter(t, llmtest.New("I cannot help with that."))
		vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusPending)

		w := performJSON(r, http.MethodPost, "/agents/vera", profileBody(vendor))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestAgentHandler_Assess_RequiresProfile(t *testing.T) {
	r, db, _ := setupAgentRouter(t, llmtest.New())
	vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)

	w := performJSON(r, http.MethodPost, "/agents/cara", map[string]any{"vendor_id": vendor.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"vendor must have a risk profile before assessment"}`, w.Body.String())

	w = performJSON(r, http.MethodPost, "/agents/cara", map[string]any{"vendor_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(r, http.MethodPost, "/agents/cara", map[string]any{"vendor_id": vendor.ID, "assessment_type": "WEEKLY"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAgentHandler_Analyze_DocumentMustBelongToVendor(t *testing.T) {
	r, db, _ := setupAgentRouter(t, llmtest.New())
	owner := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)
	other := seedVendor(t, db, "DataTech Solutions", models.VendorStatusActive)
	doc := models.Document{VendorID: owner.ID, DocumentType: models.DocumentSOC2Type2, DocumentName: "SOC 2", Status: models.DocumentStatusReceived}
	require.NoError(t, db.Create(&doc).Error)

	w := performJSON(r, http.MethodPost, "/agents/sara", map[string]any{"vendor_id": other.ID, "document_id": doc.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"document does not belong to this vendor"}`, w.Body.String())

	w = performJSON(r, http.MethodPost, "/agents/sara", map[string]any{"vendor_id": owner.ID, "document_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Document not found"}`, w.Body.String())
}

func TestAgentHandler_RequestDocuments_DefaultsToTierDocuments(t *testing.T) {
	r, db, h := setupAgentRouter(t, llmtest.New(doraReply))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)

	w := performJSON(r, http.MethodPost, "/agents/dora", map[string]any{"vendor_id": vendor.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Success bool                         `json:"success"`
		Request agents.DocumentRequestOutput `json:"document_request"`
	}](t, w)
	assert.True(t, body.Success)
	require.Len(t, body.Request.RequestedDocuments, 3, "vendors without a profile get the MEDIUM set")
	for _, d := range body.Request.RequestedDocuments {
		assert.True(t, d.DueDate.Equal(now.AddDate(0, 0, 14)))
	}
	assert.False(t, body.Request.Emailed)

	var pending int64
	require.NoError(t, db.Model(&models.Document{}).Where("vendor_id = ? AND status = ?", vendor.ID, models.DocumentStatusPending).Count(&pending).Error)
	assert.Equal(t, int64(3), pending)

	w = performJSON(r, http.MethodPost, "/agents/dora", map[string]any{"vendor_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgentHandler_MARS(t *testing.T) {
	r, db, _ := setupAgentRouter(t, llmtest.New())
	vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)
	finding := seedFinding(t, db, vendor.ID, models.SeverityMedium, models.FindingStatusOpen)

	w := performJSON(r, http.MethodPost, "/agents/mars", map[string]any{"finding_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(r, http.MethodPut, "/agents/mars", map[string]any{
		"finding_id":    finding.ID,
		"justification": "too short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least 50 characters")

	w = performJSON(r, http.MethodPut, "/agents/mars", map[string]any{
		"finding_id":    finding.ID,
		"justification": strings.Repeat("Compensating controls cover this gap. ", 3),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"acceptance"`)

	var stored models.RiskFinding
	require.NoError(t, db.First(&stored, "id = ?", finding.ID).Error)
	assert.Equal(t, models.FindingStatusAccepted, stored.Status)

	var audit models.AuditTrail
	require.NoError(t, db.Where("entity_id = ? AND action = ?", finding.ID, models.AuditActionRiskAcceptance).First(&audit).Error)

	w = performJSON(r, http.MethodGet, "/agents/mars", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestAgentHandler_ExecutiveDashboard(t *testing.T) {
	r, db, _ := setupAgentRouter(t, llmtest.New())
	seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)

	w := performJSON(r, http.MethodGet, "/agents/rita", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"dashboard"`)
}
