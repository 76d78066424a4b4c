package services

import (
	"context"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// ActivityService reads the agent activity log.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Recent returns the latest agent executions, optionally for one agent.
func (s *ActivityService) Recent(ctx context.Context, agent string, limit int) ([]models.AgentActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := s.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if agent != "" {
		query = query.Where("agent_name = ?", agent)
	}
	var logs []models.AgentActivityLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
