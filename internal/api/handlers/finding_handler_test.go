package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
)

type findingPage struct {
	Findings   []models.RiskFinding `json:"findings"`
	Pagination services.Pagination  `json:"pagination"`
}

func setupFindingRouter(h *FindingHandler) *gin.Engine {
	r := newTestRouter()
	r.GET("/findings", h.List)
	r.GET("/findings/stats", h.Stats)
	r.GET("/findings/:id", h.Get)
	r.PATCH("/findings/:id", h.Update)
	return r
}

func TestFindingHandler_List(t *testing.T) {
	db := openTestDB(t)
	r := setupFindingRouter(NewFindingHandler(services.NewFindingService(db)))

	vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)
	seedFinding(t, db, vendor.ID, models.SeverityCritical, models.FindingStatusOpen)
	seedFinding(t, db, vendor.ID, models.SeverityLow, models.FindingStatusOpen)
	seedFinding(t, db, vendor.ID, models.SeverityHigh, models.FindingStatusClosed)

	w := performJSON(r, http.MethodGet, "/findings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[findingPage](t, w)
	require.Len(t, body.Findings, 2, "closed findings are hidden by default")
	assert.Equal(t, models.SeverityCritical, body.Findings[0].Severity)
	assert.Equal(t, int64(2), body.Pagination.Total)

	w = performJSON(r, http.MethodGet, "/findings?status=CLOSED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[findingPage](t, w)
	require.Len(t, body.Findings, 1)
	assert.Equal(t, models.SeverityHigh, body.Findings[0].Severity)
}

func TestFindingHandler_GetAndUpdate(t *testing.T) {
	db := openTestDB(t)
	r := setupFindingRouter(NewFindingHandler(services.NewFindingService(db)))

	vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)
	finding := seedFinding(t, db, vendor.ID, models.SeverityHigh, models.FindingStatusOpen)

	w := performJSON(r, http.MethodGet, "/findings/"+finding.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(r, http.MethodGet, "/findings/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Finding not found"}`, w.Body.String())

	w = performJSON(r, http.MethodPatch, "/findings/"+finding.ID, map[string]any{
		"status":   "IN_REMEDIATION",
		"due_date": "2025-09-30T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.RiskFinding](t, w)
	assert.Equal(t, models.FindingStatusInRemediation, updated.Status)
	require.NotNil(t, updated.DueDate)

	var audit models.AuditTrail
	require.NoError(t, db.Where("entity_id = ? AND action = ?", finding.ID, models.AuditActionUpdate).First(&audit).Error)
	assert.Equal(t, "OPEN", audit.OldValues["status"])

	w = performJSON(r, http.MethodPatch, "/findings/"+finding.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"nothing to update"}`, w.Body.String())

	w = performJSON(r, http.MethodPatch, "/findings/"+finding.ID, map[string]any{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(r, http.MethodPatch, "/findings/missing", map[string]any{"status": "CLOSED"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFindingHandler_Stats(t *testing.T) {
	db := openTestDB(t)
	r := setupFindingRouter(NewFindingHandler(services.NewFindingService(db)))

	vendor := seedVendor(t, db, "Acme Cloud Services", models.VendorStatusActive)
	seedFinding(t, db, vendor.ID, models.SeverityCritical, models.FindingStatusOpen)
	seedFinding(t, db, vendor.ID, models.SeverityCritical, models.FindingStatusInRemediation)
	seedFinding(t, db, vendor.ID, models.SeverityLow, models.FindingStatusClosed)

	w := performJSON(r, http.MethodGet, "/findings/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]int64](t, w)
	assert.Equal(t, int64(2), stats["CRITICAL"])
	assert.Zero(t, stats["LOW"])
}
