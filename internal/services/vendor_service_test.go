package services

import (
	"context"
	"testing"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func seedVendor(t *testing.T, db *gorm.DB, name, industry string, status models.VendorStatus) *models.Vendor {
	t.Helper()
	v := &models.Vendor{Name: name, Industry: industry, Status: status}
	require.NoError(t, db.Create(v).Error)
	return v
}

func seedProfile(t *testing.T, db *gorm.DB, vendorID string, tier models.RiskTier, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.RiskProfile{VendorID: vendorID, RiskTier: tier, CreatedAt: createdAt}).Error)
}

func TestVendorService_List(t *testing.T) {
	db := setupServiceTestDB(t)
	service := NewVendorService(db)
	ctx := context.Background()

	acme := seedVendor(t, db, "Acme Cloud", "Cloud Hosting", models.VendorStatusActive)
	beta := seedVendor(t, db, "Beta Payments", "Fintech", models.VendorStatusActive)
	seedVendor(t, db, "Gamma Labs", "Cloud Research", models.VendorStatusPending)

	base := time.Now().Add(-48 * time.Hour)
	seedProfile(t, db, acme.ID, models.RiskTierCritical, base)
	seedProfile(t, db, acme.ID, models.RiskTierLow, base.Add(time.Hour))
	seedProfile(t, db, beta.ID, models.RiskTierCritical, base)

	require.NoError(t, db.Create(&models.RiskFinding{VendorID: acme.ID, Title: "open", Severity: models.SeverityHigh}).Error)
	require.NoError(t, db.Create(&models.RiskFinding{VendorID: acme.ID, Title: "closed", Severity: models.SeverityHigh, Status: models.FindingStatusClosed}).Error)
	require.NoError(t, db.Create(&models.Document{VendorID: acme.ID, DocumentType: models.DocumentPentest}).Error)

	vendors, page, err := service.List(ctx, VendorFilter{})
	require.NoError(t, err)
	require.Len(t, vendors, 3)
	assert.Equal(t, "Acme Cloud", vendors[0].Name)
	assert.Equal(t, models.RiskTierLow, vendors[0].LatestProfile.RiskTier)
	assert.EqualValues(t, 1, vendors[0].OpenFindings)
	assert.EqualValues(t, 1, vendors[0].DocumentCount)
	assert.Nil(t, vendors[2].LatestProfile)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 3, TotalPages: 1}, page)

	// Tier filter uses the latest profile only
	vendors, page, err = service.List(ctx, VendorFilter{RiskTier: models.RiskTierCritical})
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, beta.ID, vendors[0].ID)
	assert.EqualValues(t, 1, page.Total)

	vendors, _, err = service.List(ctx, VendorFilter{Search: "cloud"})
	require.NoError(t, err)
	assert.Len(t, vendors, 2)

	vendors, _, err = service.List(ctx, VendorFilter{Status: models.VendorStatusPending})
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Gamma Labs", vendors[0].Name)

	vendors, page, err = service.List(ctx, VendorFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, 2, page.TotalPages)
}

func TestVendorService_CreateUpdateTerminate(t *testing.T) {
	db := setupServiceTestDB(t)
	service := NewVendorService(db)
	ctx := context.Background()

	_, err := service.Create(ctx, "admin@example.com", VendorInput{Name: strPtr("  ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	active := models.VendorStatusActive
	spend := 250000.0
	v, err := service.Create(ctx, "admin@example.com", VendorInput{
		Name:        strPtr("Acme Cloud"),
		Industry:    strPtr("Cloud Hosting"),
		AnnualSpend: &spend,
		Status:      &active,
	})
	require.NoError(t, err)
	assert.Equal(t, models.VendorStatusPending, v.Status)
	assert.Equal(t, 250000.0, v.Spend())

	updated, err := service.Update(ctx, "admin@example.com", v.ID, VendorInput{Industry: strPtr("SaaS"), Status: &active})
	require.NoError(t, err)
	assert.Equal(t, "SaaS", updated.Industry)
	assert.Equal(t, "Acme Cloud", updated.Name)
	assert.Equal(t, models.VendorStatusActive, updated.Status)

	_, err = service.Update(ctx, "admin@example.com", "missing", VendorInput{Industry: strPtr("x")})
	assert.ErrorIs(t, err, ErrVendorNotFound)

	require.NoError(t, service.Terminate(ctx, "admin@example.com", v.ID))
	loaded, err := service.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VendorStatusTerminated, loaded.Status)

	assert.ErrorIs(t, service.Terminate(ctx, "admin@example.com", "missing"), ErrVendorNotFound)

	entries, err := NewAuditService(db).List(ctx, AuditFilter{EntityType: "Vendor", EntityID: v.ID})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	actions := map[string]models.AuditTrail{}
	for _, e := range entries {
		actions[e.Action] = e
	}
	assert.Equal(t, "Acme Cloud", actions[models.AuditActionCreate].NewValues["name"])
	assert.Equal(t, "Cloud Hosting", actions[models.AuditActionUpdate].OldValues["industry"])
	assert.Equal(t, "SaaS", actions[models.AuditActionUpdate].NewValues["industry"])
	assert.Equal(t, "ACTIVE", actions[models.AuditActionDelete].OldValues["status"])
	assert.Equal(t, "TERMINATED", actions[models.AuditActionDelete].NewValues["status"])
}

func TestVendorService_Get(t *testing.T) {
	db := setupServiceTestDB(t)
	service := NewVendorService(db)
	ctx := context.Background()

	_, err := service.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrVendorNotFound)

	v := seedVendor(t, db, "Acme Cloud", "", models.VendorStatusActive)
	for i := 0; i < 7; i++ {
		require.NoError(t, db.Create(&models.RiskAssessment{VendorID: v.ID}).Error)
	}
	require.NoError(t, db.Create(&models.Document{VendorID: v.ID, DocumentType: models.DocumentPentest, IsCurrent: true}).Error)
	require.NoError(t, db.Create(&models.Document{VendorID: v.ID, DocumentType: models.DocumentPentest}).Error)
	require.NoError(t, db.Create(&models.RiskFinding{VendorID: v.ID, Title: "low", Severity: models.SeverityLow}).Error)
	require.NoError(t, db.Create(&models.RiskFinding{VendorID: v.ID, Title: "crit", Severity: models.SeverityCritical}).Error)
	require.NoError(t, db.Create(&models.RiskFinding{VendorID: v.ID, Title: "done", Severity: models.SeverityCritical, Status: models.FindingStatusClosed}).Error)

	loaded, err := service.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.RiskAssessments, 5)
	assert.Len(t, loaded.Documents, 1)
	require.Len(t, loaded.RiskFindings, 2)
	assert.Equal(t, "crit", loaded.RiskFindings[0].Title)

	ok, err := service.Exists(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, service.SetStatus(ctx, v.ID, models.VendorStatusInactive))
	assert.ErrorIs(t, service.SetStatus(ctx, "missing", models.VendorStatusActive), ErrVendorNotFound)
}
