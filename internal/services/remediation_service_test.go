package services

import (
	"context"
	"testing"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemediationService_Transition(t *testing.T) {
	db := setupServiceTestDB(t)
	service := NewRemediationService(db)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }
	ctx := context.Background()

	v := seedVendor(t, db, "Acme Cloud", "", models.VendorStatusActive)
	f := &models.RiskFinding{VendorID: v.ID, Title: "No MFA", Severity: models.SeverityHigh}
	require.NoError(t, db.Create(f).Error)
	a := &models.RemediationAction{FindingID: f.ID, VendorID: v.ID, Title: "Enable MFA"}
	require.NoError(t, db.Create(a).Error)

	_, err := service.Transition(ctx, "analyst", a.ID, TransitionInput{Status: models.RemediationStatusClosed})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.Transition(ctx, "analyst", a.ID, TransitionInput{Status: models.RemediationStatusOverdue})
	assert.ErrorIs(t, err, ErrInvalidTransition, "only the overdue sweep marks actions OVERDUE")

	_, err = service.Transition(ctx, "analyst", "missing", TransitionInput{Status: models.RemediationStatusInProgress})
	assert.ErrorIs(t, err, ErrActionNotFound)

	for _, next := range []models.RemediationStatus{
		models.RemediationStatusInProgress,
		models.RemediationStatusPendingVerification,
	} {
		a, err = service.Transition(ctx, "analyst", a.ID, TransitionInput{Status: next})
		require.NoError(t, err)
		assert.Equal(t, next, a.Status)
		assert.Nil(t, a.CompletionDate)
	}

	a, err = service.Transition(ctx, "analyst", a.ID, TransitionInput{Status: models.RemediationStatusResolved, Notes: "MFA verified"})
	require.NoError(t, err)
	require.NotNil(t, a.CompletionDate)
	assert.True(t, fixed.Equal(*a.CompletionDate))
	assert.Equal(t, "MFA verified", a.VerificationNotes)

	a, err = service.Transition(ctx, "analyst", a.ID, TransitionInput{Status: models.RemediationStatusClosed})
	require.NoError(t, err)
	assert.Equal(t, models.RemediationStatusClosed, a.Status)

	entries, err := NewAuditService(db).List(ctx, AuditFilter{EntityType: "RemediationAction", EntityID: a.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, models.AuditActionTransition, e.Action)
	}
}

func TestRemediationService_List(t *testing.T) {
	db := setupServiceTestDB(t)
	service := NewRemediationService(db)
	now := time.Now()
	ctx := context.Background()

	v := seedVendor(t, db, "Acme Cloud", "", models.VendorStatusActive)
	f := &models.RiskFinding{VendorID: v.ID, Title: "No MFA", Severity: models.SeverityHigh}
	require.NoError(t, db.Create(f).Error)

	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	late := &models.RemediationAction{FindingID: f.ID, VendorID: v.ID, Title: "late", DueDate: &past}
	onTime := &models.RemediationAction{FindingID: f.ID, VendorID: v.ID, Title: "on time", DueDate: &future}
	closed := &models.RemediationAction{FindingID: f.ID, VendorID: v.ID, Title: "closed", DueDate: &past, Status: models.RemediationStatusClosed}
	for _, a := range []*models.RemediationAction{onTime, late, closed} {
		require.NoError(t, db.Create(a).Error)
	}

	actions, err := service.List(ctx, RemediationFilter{VendorID: v.ID})
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "Acme Cloud", actions[0].Vendor.Name)
	assert.Equal(t, "No MFA", actions[0].Finding.Title)

	actions, err = service.List(ctx, RemediationFilter{Overdue: true})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "late", actions[0].Title)

	actions, err = service.List(ctx, RemediationFilter{Status: models.RemediationStatusClosed, FindingID: f.ID})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "closed", actions[0].Title)
}
