package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditActionCreate         = "CREATE"
	AuditActionUpdate         = "UPDATE"
	AuditActionDelete         = "DELETE"
	AuditActionRiskAcceptance = "RISK_ACCEPTANCE"
	AuditActionTransition     = "TRANSITION"
)

// AuditTrail records who changed which entity, with before/after snapshots.
type AuditTrail struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	Actor      string         `json:"actor,omitempty"`
	AgentName  string         `json:"agent_name,omitempty"`
	Action     string         `json:"action" gorm:"index"`
	EntityType string         `json:"entity_type" gorm:"index"`
	EntityID   string         `json:"entity_id" gorm:"index"`
	OldValues  map[string]any `json:"old_values,omitempty" gorm:"serializer:json"`
	NewValues  map[string]any `json:"new_values,omitempty" gorm:"serializer:json"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (a *AuditTrail) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}
