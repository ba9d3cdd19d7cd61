package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"qrlinkr/internal/config"
	"qrlinkr/internal/models"
	"qrlinkr/internal/repository"
	"qrlinkr/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCfg = config.Config{
	BaseURL:    "http://localhost:3001",
	OwnerID:    "test_user_id",
	OwnerEmail: "test@example.com",
}

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()

	db, err := repository.InitDB(config.Config{DatabaseURL: "sqlite://:memory:"})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Use a dummy redis client (not connected) with no retries
	rdb := redis.NewClient(&redis.Options{
		Addr:       "localhost:1",
		MaxRetries: -1,
	})

	cache := services.NewLinkCache(rdb, 0, logger)
	audit := services.NewAuditService(db, logger)
	registry := services.NewLinkRegistry(db, cache, audit, logger)
	recorder := services.NewAnalyticsRecorder(db, logger, nil, services.RecorderOptions{})
	resolver := services.NewRedirectResolver(registry, recorder, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go audit.Start(ctx)
	go recorder.Start(ctx)

	t.Cleanup(func() {
		cancel()
		rdb.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	h := NewHandler(testCfg, logger, registry, recorder, resolver, services.NewQRService())
	return h, db
}

func setupTestRouter(h *Handler) *gin.Engine {
	return h.SetupRouter()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createLink(t *testing.T, r http.Handler, destination, slug string) models.Link {
	t.Helper()
	w := doJSON(t, r, "POST", "/api/qr/new", CreateLinkRequest{Destination: destination, CustomSlug: slug})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var link models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	return link
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["message"]
}

func doRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
