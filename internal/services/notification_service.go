package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/util"
	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB   *gorm.DB
	send func(url, message string) error
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db, send: shoutrrr.Send}
}

var discordWebhookRegex = regexp.MustCompile(`^https://discord(?:app)?\.com/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)`)

func normalizeURL(serviceType, rawURL string) string {
	if serviceType == "discord" {
		matches := discordWebhookRegex.FindStringSubmatch(rawURL)
		if len(matches) == 3 {
			id := matches[1]
			token := matches[2]
			return fmt.Sprintf("discord://%s@%s", token, id)
		}
	}
	return rawURL
}

// Internal Notifications (DB)

// Create stores a notification without dispatching it.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	return s.DB.WithContext(ctx).Create(n).Error
}

// Notify stores n and relays it to every enabled provider subscribed to its
// type. Delivery failures are logged and reflected in n.Status; only the
// database write can fail the call.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	delivered, failed := s.SendExternal(ctx, n.Type, n.Title, n.Message, map[string]interface{}{
		"RecipientType":     n.RecipientType,
		"RelatedEntityType": n.RelatedEntityType,
		"RelatedEntityID":   n.RelatedEntityID,
		"SentBy":            n.SentBy,
	})

	status := n.Status
	switch {
	case delivered > 0:
		status = models.NotificationStatusSent
	case failed > 0:
		status = models.NotificationStatusFailed
	}
	if status != n.Status {
		n.Status = status
		if err := s.DB.WithContext(ctx).Model(n).Update("status", status).Error; err != nil {
			logger.Log().WithError(err).WithField("notification_id", n.ID).Warn("failed to update notification status")
		}
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.WithContext(ctx).Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	return s.DB.WithContext(ctx).Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
}

// External Notifications (Shoutrrr & Custom Webhooks)

// SendExternal delivers a message to every enabled provider that wants
// nType, one provider at a time. It returns how many deliveries succeeded
// and failed.
func (s *NotificationService) SendExternal(ctx context.Context, nType models.NotificationType, title, message string, data map[string]interface{}) (delivered, failed int) {
	var providers []models.NotificationProvider
	if err := s.DB.WithContext(ctx).Where("enabled = ?", true).Find(&providers).Error; err != nil {
		logger.Log().WithError(err).Error("Failed to fetch notification providers")
		return 0, 0
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	data["Title"] = title
	data["Message"] = message
	data["Time"] = time.Now().Format(time.RFC3339)
	data["EventType"] = string(nType)

	for _, p := range providers {
		if !p.Wants(nType) {
			continue
		}
		if ctx.Err() != nil {
			return delivered, failed
		}
		if err := s.deliver(ctx, p, title, message, data); err != nil {
			failed++
			logger.Log().WithFields(logrus.Fields{
				"provider": util.SanitizeForLog(p.Name),
				"type":     nType,
			}).WithError(err).Warn("Failed to send notification")
			continue
		}
		delivered++
	}
	return delivered, failed
}

func (s *NotificationService) deliver(ctx context.Context, p models.NotificationProvider, title, message string, data map[string]interface{}) error {
	if p.Type == "webhook" {
		return s.sendCustomWebhook(ctx, p, data)
	}
	url := normalizeURL(p.Type, p.URL)
	// Validate HTTP/HTTPS destinations used by shoutrrr to reduce SSRF risk
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if _, err := validateWebhookURL(url); err != nil {
			return fmt.Errorf("invalid destination: %w", err)
		}
	}
	// Use newline for better formatting in chat apps
	return s.send(url, fmt.Sprintf("%s\n\n%s", title, message))
}

const (
	minimalTemplate  = `{"message": {{toJSON .Message}}, "title": {{toJSON .Title}}, "time": {{toJSON .Time}}, "event": {{toJSON .EventType}}}`
	detailedTemplate = `{"title": {{toJSON .Title}}, "message": {{toJSON .Message}}, "time": {{toJSON .Time}}, "event": {{toJSON .EventType}}, "recipient": {{toJSON .RecipientType}}, "entity_type": {{toJSON .RelatedEntityType}}, "entity_id": {{toJSON .RelatedEntityID}}, "sent_by": {{toJSON .SentBy}}, "data": {{toJSON .}}}`
)

func templateFor(p models.NotificationProvider) string {
	tmplStr := p.Config
	switch strings.ToLower(strings.TrimSpace(p.Template)) {
	case "detailed":
		tmplStr = detailedTemplate
	case "minimal":
		tmplStr = minimalTemplate
	default:
		if tmplStr == "" {
			tmplStr = minimalTemplate
		}
	}
	return tmplStr
}

func renderPayload(tmplStr string, data map[string]interface{}) (*bytes.Buffer, error) {
	tmpl, err := template.New("webhook").Funcs(template.FuncMap{
		"toJSON": func(v interface{}) string {
			b, _ := json.Marshal(v)
			return string(b)
		},
	}).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to execute webhook template: %w", err)
	}
	return &body, nil
}

func (s *NotificationService) sendCustomWebhook(ctx context.Context, p models.NotificationProvider, data map[string]interface{}) error {
	// Validate webhook URL to reduce SSRF risk (returns parsed URL)
	u, err := validateWebhookURL(p.URL)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}

	body, err := renderPayload(templateFor(p), data)
	if err != nil {
		return err
	}

	// Send Request with a safe client (timeout, no auto-redirect)
	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	// The socket connects to an IP we resolved and vetted; the Host header
	// keeps the original name for virtual hosting.
	ips, err := net.LookupIP(u.Hostname())
	if err != nil || len(ips) == 0 {
		return fmt.Errorf("failed to resolve webhook host: %w", err)
	}
	var selectedIP net.IP
	for _, ip := range ips {
		if isLoopbackHost(u.Hostname()) {
			selectedIP = ip
			break
		}
		if !isPrivateIP(ip) {
			selectedIP = ip
			break
		}
	}
	if selectedIP == nil {
		return fmt.Errorf("failed to find non-private IP for webhook host: %s", u.Hostname())
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	safeURL := &neturl.URL{
		Scheme:   u.Scheme,
		Host:     net.JoinHostPort(selectedIP.String(), port),
		Path:     u.Path,
		RawQuery: u.RawQuery,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, safeURL.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Host = u.Host

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

func isLoopbackHost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// isPrivateIP returns true for RFC1918, loopback and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsPrivate() {
		return true
	}
	return false
}

// validateWebhookURL parses and validates webhook URLs and ensures
// the resolved addresses are not private/local.
func validateWebhookURL(raw string) (*neturl.URL, error) {
	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, errors.New("missing host")
	}

	// Allow explicit loopback/localhost addresses for local tests.
	if isLoopbackHost(host) {
		return u, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("disallowed host IP: %s", ip.String())
		}
	}
	return u, nil
}

// TestProvider sends a canned message through provider.
func (s *NotificationService) TestProvider(ctx context.Context, provider models.NotificationProvider) error {
	data := map[string]interface{}{
		"Title":     "Test Notification",
		"Message":   "This is a test notification from Warden",
		"Time":      time.Now().Format(time.RFC3339),
		"EventType": "TEST",
	}
	return s.deliver(ctx, provider, "Test Notification", "This is a test notification from Warden", data)
}

// RenderTemplate renders a provider template with provided data and returns
// the rendered JSON string and the parsed object for previewing/validation.
func (s *NotificationService) RenderTemplate(p models.NotificationProvider, data map[string]interface{}) (string, interface{}, error) {
	body, err := renderPayload(templateFor(p), data)
	if err != nil {
		return "", nil, err
	}

	var parsed interface{}
	if err := json.Unmarshal(body.Bytes(), &parsed); err != nil {
		return body.String(), nil, fmt.Errorf("failed to parse rendered template: %w", err)
	}
	return body.String(), parsed, nil
}

// Provider Management

func (s *NotificationService) ListProviders(ctx context.Context) ([]models.NotificationProvider, error) {
	var providers []models.NotificationProvider
	result := s.DB.WithContext(ctx).Order("name asc").Find(&providers)
	return providers, result.Error
}

func (s *NotificationService) GetProvider(ctx context.Context, id string) (*models.NotificationProvider, error) {
	var p models.NotificationProvider
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *NotificationService) validateTemplate(provider *models.NotificationProvider) error {
	if strings.ToLower(strings.TrimSpace(provider.Template)) == "custom" && strings.TrimSpace(provider.Config) != "" {
		payload := map[string]interface{}{"Title": "Preview", "Message": "Preview", "Time": time.Now().Format(time.RFC3339), "EventType": "preview"}
		if _, _, err := s.RenderTemplate(*provider, payload); err != nil {
			return fmt.Errorf("%w: invalid custom template: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

func (s *NotificationService) CreateProvider(ctx context.Context, provider *models.NotificationProvider) error {
	if err := s.validateTemplate(provider); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Create(provider).Error
}

func (s *NotificationService) UpdateProvider(ctx context.Context, provider *models.NotificationProvider) error {
	if _, err := s.GetProvider(ctx, provider.ID); err != nil {
		return err
	}
	if err := s.validateTemplate(provider); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Save(provider).Error
}

func (s *NotificationService) DeleteProvider(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.NotificationProvider{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProviderNotFound
	}
	return nil
}
