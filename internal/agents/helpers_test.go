package agents

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/Wikid82/warden/backend/internal/llm/llmtest"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupAgentTestDB(t *testing.T) *gorm.DB {
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

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *n)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type testEnv struct {
	db       *gorm.DB
	llm      *llmtest.Client
	notifier *fakeNotifier
	mailer   *fakeMailer
	deps     Deps
}

func newTestEnv(t *testing.T, responses ...string) *testEnv {
	t.Helper()
	env := &testEnv{
		db:       setupAgentTestDB(t),
		llm:      llmtest.New(responses...),
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{},
	}
	env.deps = Deps{
		LLM:      env.llm,
		DB:       env.db,
		Notifier: env.notifier,
		Mailer:   env.mailer,
		Now:      func() time.Time { return testNow },
	}
	return env
}

func createVendor(t *testing.T, db *gorm.DB, name string, mutate ...func(*models.Vendor)) models.Vendor {
	t.Helper()
	v := models.Vendor{
		Name:                name,
		Industry:            "Cloud Services",
		Country:             "US",
		PrimaryContactName:  "Jane Doe",
		PrimaryContactEmail: "jane@" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".example",
		Status:              models.VendorStatusActive,
	}
	for _, m := range mutate {
		m(&v)
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func createProfile(t *testing.T, db *gorm.DB, vendorID string, tier models.RiskTier, score int) models.RiskProfile {
	t.Helper()
	p := models.RiskProfile{
		VendorID:           vendorID,
		RiskTier:           tier,
		OverallRiskScore:   score,
		DataTypesAccessed:  []string{"customer PII"},
		NextAssessmentDate: testNow.AddDate(0, 3, 0),
		CalculatedBy:       "VERA",
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func activityLogs(t *testing.T, db *gorm.DB, agent Name) []models.AgentActivityLog {
	t.Helper()
	var logs []models.AgentActivityLog
	require.NoError(t, db.Where("agent_name = ?", string(agent)).Find(&logs).Error)
	return logs
}
