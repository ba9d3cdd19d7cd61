package services

import (
	"io"
	"log/slog"
	"testing"

	"qrlinkr/internal/config"
	"qrlinkr/internal/models"
	"qrlinkr/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testOwner = models.Owner{ID: "test_user_id", Email: "test@example.com"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.InitDB(config.Config{DatabaseURL: "sqlite://:memory:"})
	require.NoError(t, err, "failed to connect database")
	require.NoError(t, repository.AutoMigrate(db), "failed to migrate database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// setupRegistry returns a registry without cache or audit.
func setupRegistry(t *testing.T) (*LinkRegistry, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewLinkRegistry(db, nil, nil, testLogger()), db
}
