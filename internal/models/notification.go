package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeDocumentRequest     NotificationType = "DOCUMENT_REQUEST"
	NotificationTypeRemediationRequired NotificationType = "REMEDIATION_REQUIRED"
	NotificationTypeEscalation          NotificationType = "ESCALATION"
	NotificationTypeFinding             NotificationType = "FINDING"
	NotificationTypeInfo                NotificationType = "INFO"
)

const (
	RecipientVendor   = "VENDOR"
	RecipientInternal = "INTERNAL"
)

const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

type Notification struct {
	ID                string           `gorm:"primaryKey" json:"id"`
	Type              NotificationType `json:"type" gorm:"index"`
	RecipientType     string           `json:"recipient_type"`
	RecipientID       string           `json:"recipient_id,omitempty"`
	Title             string           `json:"title"`
	Message           string           `json:"message" gorm:"type:text"`
	RelatedEntityType string           `json:"related_entity_type,omitempty"`
	RelatedEntityID   string           `json:"related_entity_id,omitempty"`
	SentBy            string           `json:"sent_by"`
	Status            string           `json:"status"`
	Read              bool             `json:"read"`
	CreatedAt         time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Status == "" {
		n.Status = NotificationStatusPending
	}
	return
}
