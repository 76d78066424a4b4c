package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationProvider struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type"`                            // discord, slack, gotify, telegram, smtp, generic, webhook
	URL      string `json:"url" binding:"required"`          // The shoutrrr URL or webhook URL
	Config   string `json:"config"`                          // JSON payload template for custom webhooks
	Template string `json:"template" gorm:"default:minimal"` // minimal|detailed|custom
	Enabled  bool   `json:"enabled"`

	// Notification Preferences
	NotifyEscalations  bool `json:"notify_escalations" gorm:"default:true"`
	NotifyRemediations bool `json:"notify_remediations" gorm:"default:true"`
	NotifyDocuments    bool `json:"notify_documents" gorm:"default:true"`
	NotifyFindings     bool `json:"notify_findings" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *NotificationProvider) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if strings.TrimSpace(n.Template) == "" {
		if strings.TrimSpace(n.Config) != "" {
			n.Template = "custom"
		} else {
			n.Template = "minimal"
		}
	}
	return
}

// Wants reports whether the provider subscribes to notifications of type t.
func (n *NotificationProvider) Wants(t NotificationType) bool {
	switch t {
	case NotificationTypeEscalation:
		return n.NotifyEscalations
	case NotificationTypeRemediationRequired:
		return n.NotifyRemediations
	case NotificationTypeDocumentRequest:
		return n.NotifyDocuments
	case NotificationTypeFinding:
		return n.NotifyFindings
	default:
		return true
	}
}
