package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/Wikid82/warden/backend/internal/models"
)

// openTestDB creates a migrated SQLite in-memory DB unique per test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidation()
	return gin.New()
}

// performJSON sends body, marshalled unless it is already a string, and
// returns the recorder.
func performJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func seedVendor(t *testing.T, db *gorm.DB, name string, status models.VendorStatus) models.Vendor {
	t.Helper()
	v := models.Vendor{
		Name:                name,
		Industry:            "Cloud Computing",
		PrimaryContactEmail: "security@" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".example.com",
		Status:              status,
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func seedFinding(t *testing.T, db *gorm.DB, vendorID string, severity models.Severity, status models.FindingStatus) models.RiskFinding {
	t.Helper()
	f := models.RiskFinding{
		VendorID:       vendorID,
		Title:          "MFA not enforced",
		Description:    "Administrative access does not require MFA.",
		Severity:       severity,
		Status:         status,
		IdentifiedBy:   "SARA",
		IdentifiedDate: time.Now(),
	}
	require.NoError(t, db.Create(&f).Error)
	return f
}

func seedAction(t *testing.T, db *gorm.DB, f models.RiskFinding, status models.RemediationStatus, due time.Time) models.RemediationAction {
	t.Helper()
	a := models.RemediationAction{
		FindingID: f.ID,
		VendorID:  f.VendorID,
		Title:     "Enforce MFA",
		Priority:  f.Severity,
		Status:    status,
		DueDate:   &due,
		ManagedBy: "MARS",
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}
