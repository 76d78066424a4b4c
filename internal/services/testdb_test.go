package services

import (
	"strings"
	"testing"

	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupServiceTestDB returns a migrated in-memory database private to t.
func setupServiceTestDB(t *testing.T) *gorm.DB {
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
