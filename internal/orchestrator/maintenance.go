package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// RunMaintenance escalates overdue remediation actions, totals expiring
// documents across active vendors and counts assessments due within a
// month. Individual failures are collected in the result instead of
// aborting the sweep.
func (o *Orchestrator) RunMaintenance(ctx context.Context) MaintenanceResult {
	start := time.Now()
	now := o.now()
	res := MaintenanceResult{StartedAt: now}

	overdue := o.mars.CheckOverdueActions(ctx)
	if overdue.Success && overdue.Data != nil {
		res.OverdueEscalations = len(*overdue.Data)
	} else {
		res.Errors = append(res.Errors, "overdue check: "+failureSummary(overdue.Error))
	}

	var vendorIDs []string
	if err := o.db.WithContext(ctx).Model(&models.Vendor{}).
		Where("status = ?", models.VendorStatusActive).Order("name asc").
		Pluck("id", &vendorIDs).Error; err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list active vendors: %v", err))
	}
	for _, id := range vendorIDs {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ctx.Err().Error())
			break
		}
		inv := o.dora.CheckDocumentInventory(ctx, id)
		if inv.Success && inv.Data != nil {
			res.ExpiringDocuments += len(inv.Data.ExpiringDocuments)
		}
	}

	if err := o.db.WithContext(ctx).Model(&models.RiskProfile{}).
		Where("next_assessment_date <= ?", now.AddDate(0, 1, 0)).
		Count(&res.UpcomingAssessments).Error; err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("count upcoming assessments: %v", err))
	}

	res.DurationMs = time.Since(start).Milliseconds()
	metrics.IncWorkflow(WorkflowMaintenance, len(res.Errors) == 0)
	o.log().WithFields(logrus.Fields{
		"overdue_escalations":  res.OverdueEscalations,
		"expiring_documents":   res.ExpiringDocuments,
		"upcoming_assessments": res.UpcomingAssessments,
		"errors":               len(res.Errors),
	}).Info("maintenance cycle finished")

	o.mu.Lock()
	cp := res
	o.lastMaintenance = &cp
	o.mu.Unlock()
	return res
}
