package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSend struct {
	url     string
	message string
}

func newTestNotificationService(t *testing.T) (*NotificationService, *[]recordedSend) {
	t.Helper()
	db := setupServiceTestDB(t)
	svc := NewNotificationService(db)
	sent := &[]recordedSend{}
	svc.send = func(url, message string) error {
		*sent = append(*sent, recordedSend{url: url, message: message})
		return nil
	}
	return svc, sent
}

func TestNotificationService_Create(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()

	n := &models.Notification{Type: models.NotificationTypeInfo, Title: "Test", Message: "Message"}
	require.NoError(t, svc.Create(ctx, n))
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, models.NotificationStatusPending, n.Status)
	assert.False(t, n.Read)
}

func TestNotificationService_List(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &models.Notification{Type: models.NotificationTypeInfo, Title: "N1"}))
	require.NoError(t, svc.Create(ctx, &models.Notification{Type: models.NotificationTypeInfo, Title: "N2"}))

	list, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Mark one as read
	svc.DB.Model(&models.Notification{}).Where("title = ?", "N1").Update("read", true)

	unread, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "N2", unread[0].Title)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()

	n := &models.Notification{Type: models.NotificationTypeInfo, Title: "N1"}
	require.NoError(t, svc.Create(ctx, n))
	require.NoError(t, svc.MarkAsRead(ctx, n.ID))

	var updated models.Notification
	require.NoError(t, svc.DB.First(&updated, "id = ?", n.ID).Error)
	assert.True(t, updated.Read)

	assert.ErrorIs(t, svc.MarkAsRead(ctx, "missing"), ErrNotificationNotFound)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &models.Notification{Title: "N1"}))
	require.NoError(t, svc.Create(ctx, &models.Notification{Title: "N2"}))
	require.NoError(t, svc.MarkAllAsRead(ctx))

	var count int64
	svc.DB.Model(&models.Notification{}).Where("read = ?", false).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestNotificationService_Notify_NoProviders(t *testing.T) {
	svc, sent := newTestNotificationService(t)

	n := &models.Notification{Type: models.NotificationTypeEscalation, Title: "T", Message: "M"}
	require.NoError(t, svc.Notify(context.Background(), n))
	assert.Empty(t, *sent)
	assert.Equal(t, models.NotificationStatusPending, n.Status)
}

func TestNotificationService_Notify_RespectsPreferences(t *testing.T) {
	svc, sent := newTestNotificationService(t)
	ctx := context.Background()

	subscribed := &models.NotificationProvider{Name: "ops", Type: "gotify", URL: "gotify://example.com/token", Enabled: true}
	muted := &models.NotificationProvider{Name: "quiet", Type: "gotify", URL: "gotify://example.com/other", Enabled: true}
	disabled := &models.NotificationProvider{Name: "off", Type: "gotify", URL: "gotify://example.com/off", Enabled: true}
	require.NoError(t, svc.DB.Create(subscribed).Error)
	require.NoError(t, svc.DB.Create(muted).Error)
	require.NoError(t, svc.DB.Create(disabled).Error)
	// gorm skips zero values on create when a default tag exists
	require.NoError(t, svc.DB.Model(muted).Update("notify_escalations", false).Error)
	require.NoError(t, svc.DB.Model(disabled).Update("enabled", false).Error)

	n := &models.Notification{Type: models.NotificationTypeEscalation, Title: "Overdue", Message: "Late"}
	require.NoError(t, svc.Notify(ctx, n))

	require.Len(t, *sent, 1)
	assert.Equal(t, "gotify://example.com/token", (*sent)[0].url)
	assert.Equal(t, "Overdue\n\nLate", (*sent)[0].message)
	assert.Equal(t, models.NotificationStatusSent, n.Status)

	var stored models.Notification
	require.NoError(t, svc.DB.First(&stored, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationStatusSent, stored.Status)
}

func TestNotificationService_Notify_AllFailed(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	svc.send = func(string, string) error { return errors.New("boom") }
	require.NoError(t, svc.DB.Create(&models.NotificationProvider{Name: "p", Type: "slack", URL: "slack://token", Enabled: true}).Error)

	n := &models.Notification{Type: models.NotificationTypeFinding, Title: "T", Message: "M"}
	require.NoError(t, svc.Notify(context.Background(), n))
	assert.Equal(t, models.NotificationStatusFailed, n.Status)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "discord://abc_DEF-1@123456",
		normalizeURL("discord", "https://discord.com/api/webhooks/123456/abc_DEF-1"))
	assert.Equal(t, "https://hooks.slack.com/x", normalizeURL("slack", "https://hooks.slack.com/x"))
}

func TestNotificationService_CustomWebhook(t *testing.T) {
	var received map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	svc, _ := newTestNotificationService(t)
	ctx := context.Background()
	require.NoError(t, svc.DB.Create(&models.NotificationProvider{
		Name: "hook", Type: "webhook", URL: ts.URL, Enabled: true,
	}).Error)

	delivered, failed := svc.SendExternal(ctx, models.NotificationTypeRemediationRequired, "Remediation Required: TLS", "Fix it", nil)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 0, failed)
	assert.Equal(t, "Remediation Required: TLS", received["title"])
	assert.Equal(t, "REMEDIATION_REQUIRED", received["event"])
}

func TestNotificationService_CustomWebhook_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc, _ := newTestNotificationService(t)
	err := svc.TestProvider(context.Background(), models.NotificationProvider{Name: "hook", Type: "webhook", URL: ts.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestValidateWebhookURL(t *testing.T) {
	_, err := validateWebhookURL("ftp://example.com")
	assert.Error(t, err)

	_, err = validateWebhookURL("http://")
	assert.Error(t, err)

	_, err = validateWebhookURL("http://10.0.0.1/hook")
	assert.Error(t, err)

	u, err := validateWebhookURL("http://127.0.0.1:9000/hook")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", u.Hostname())
}

func TestNotificationService_RenderTemplate(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	data := map[string]interface{}{"Title": "A \"quoted\" title", "Message": "m", "Time": "now", "EventType": "INFO"}

	rendered, parsed, err := svc.RenderTemplate(models.NotificationProvider{Template: "minimal"}, data)
	require.NoError(t, err)
	assert.Contains(t, rendered, `\"quoted\"`)
	obj := parsed.(map[string]interface{})
	assert.Equal(t, "A \"quoted\" title", obj["title"])

	_, _, err = svc.RenderTemplate(models.NotificationProvider{Template: "custom", Config: `{"broken": {{.Title}}`}, data)
	assert.Error(t, err)
}

func TestNotificationService_ProviderCRUD(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()

	p := &models.NotificationProvider{Name: "Slack", Type: "slack", URL: "slack://token", Enabled: true}
	require.NoError(t, svc.CreateProvider(ctx, p))
	assert.Equal(t, "minimal", p.Template)

	list, err := svc.ListProviders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	p.Name = "Slack Ops"
	require.NoError(t, svc.UpdateProvider(ctx, p))
	got, err := svc.GetProvider(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Slack Ops", got.Name)

	bad := &models.NotificationProvider{Name: "bad", URL: "x", Template: "custom", Config: "{{ .Nope"}
	assert.ErrorIs(t, svc.CreateProvider(ctx, bad), ErrInvalidInput)

	require.NoError(t, svc.DeleteProvider(ctx, p.ID))
	_, err = svc.GetProvider(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.ErrorIs(t, svc.DeleteProvider(ctx, p.ID), ErrProviderNotFound)
	assert.ErrorIs(t, svc.UpdateProvider(ctx, p), ErrProviderNotFound)
}
