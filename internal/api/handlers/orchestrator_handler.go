package handlers

import (
	"net/http"

	"github.com/Wikid82/warden/backend/internal/orchestrator"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// OrchestratorHandler triggers the multi-agent workflows.
type OrchestratorHandler struct {
	orchestrator *orchestrator.Orchestrator
	vendors      *services.VendorService
	documents    *services.DocumentService
	schedule     string
}

// NewOrchestratorHandler creates the handler. schedule is the maintenance
// cron expression, empty when the sweep is manual only.
func NewOrchestratorHandler(o *orchestrator.Orchestrator, vendors *services.VendorService, documents *services.DocumentService, schedule string) *OrchestratorHandler {
	return &OrchestratorHandler{orchestrator: o, vendors: vendors, documents: documents, schedule: schedule}
}

// Onboard runs the onboarding workflow for a stored vendor. Stage failures
// are reported in the body, so the status is 200 whenever the workflow ran.
func (h *OrchestratorHandler) Onboard(c *gin.Context) {
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
	res := h.orchestrator.Onboard(ctx, req.input(vendor))
	c.JSON(http.StatusOK, gin.H{"success": res.OverallSuccess, "workflow": res})
}

// ProcessDocument runs the document workflow. The vendor and the document
// must exist and the document must belong to the vendor.
func (h *OrchestratorHandler) ProcessDocument(c *gin.Context) {
	var req orchestrator.DocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.vendors.Get(ctx, req.VendorID); err != nil {
		respondError(c, err, "Failed to fetch vendor")
		return
	}
	doc, err := h.documents.Get(ctx, req.DocumentID)
	if err != nil {
		respondError(c, err, "Failed to fetch document")
		return
	}
	if doc.VendorID != req.VendorID {
		respondError(c, services.ErrDocumentVendorMismatch, "Failed to process document")
		return
	}

	res := h.orchestrator.ProcessDocument(ctx, req)
	c.JSON(http.StatusOK, gin.H{"success": res.OverallSuccess, "workflow": res})
}

func (h *OrchestratorHandler) RunMaintenance(c *gin.Context) {
	res := h.orchestrator.RunMaintenance(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "maintenance": res})
}

func (h *OrchestratorHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"last_maintenance": h.orchestrator.LastMaintenance(),
		"schedule":         h.schedule,
		"scheduled":        h.schedule != "",
	})
}
