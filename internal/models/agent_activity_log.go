package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "SUCCESS"
	ActivityFailed  ActivityStatus = "FAILED"
	ActivityPartial ActivityStatus = "PARTIAL"
)

// AgentActivityLog is one recorded agent execution.
type AgentActivityLog struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	AgentName        string         `json:"agent_name" gorm:"index"`
	ActivityType     string         `json:"activity_type"`
	EntityType       string         `json:"entity_type,omitempty"`
	EntityID         string         `json:"entity_id,omitempty" gorm:"index"`
	ActionTaken      string         `json:"action_taken,omitempty"`
	InputSummary     string         `json:"input_summary,omitempty"`
	OutputSummary    string         `json:"output_summary,omitempty"`
	Status           ActivityStatus `json:"status"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at" gorm:"index"`
}

func (l *AgentActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return
}
