package models_test

import (
	"testing"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNotificationProvider_BeforeCreate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.NotificationProvider{}))

	provider := models.NotificationProvider{
		Name: "Test",
	}
	err = db.Create(&provider).Error
	require.NoError(t, err)

	assert.NotEmpty(t, provider.ID)
	assert.Equal(t, "minimal", provider.Template)

	provider2 := models.NotificationProvider{
		Name:   "Test2",
		Config: `{"custom":"ok"}`,
	}
	err = db.Create(&provider2).Error
	require.NoError(t, err)
	assert.Equal(t, "custom", provider2.Template)
}

func TestNotificationProvider_Wants(t *testing.T) {
	p := models.NotificationProvider{NotifyEscalations: true, NotifyDocuments: false}

	assert.True(t, p.Wants(models.NotificationTypeEscalation))
	assert.False(t, p.Wants(models.NotificationTypeDocumentRequest))
	assert.False(t, p.Wants(models.NotificationTypeRemediationRequired))
	assert.True(t, p.Wants(models.NotificationTypeInfo))
}
