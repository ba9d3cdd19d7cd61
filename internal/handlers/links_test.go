package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"qrlinkr/internal/models"
	"qrlinkr/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLink(t *testing.T) {
	h, db := setupTestHandler(t)
	r := setupTestRouter(h)

	t.Run("Custom Slug", func(t *testing.T) {
		link := createLink(t, r, "example.com", "test-1")

		assert.Equal(t, "test-1", link.Slug)
		assert.Equal(t, "https://example.com", link.OriginalURL)
		assert.Equal(t, testCfg.OwnerID, link.OwnerID)
		assert.NotEmpty(t, link.ID)
		assert.False(t, link.CreatedAt.IsZero())
	})

	t.Run("Generated Slug", func(t *testing.T) {
		link := createLink(t, r, "http://example.org/path", "")

		assert.Len(t, link.Slug, 7)
		assert.Equal(t, "http://example.org/path", link.OriginalURL)
	})

	t.Run("Response Shape", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/qr/new", CreateLinkRequest{Destination: "example.net"})
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		for _, key := range []string{"id", "slug", "originalUrl", "ownerId", "createdAt", "updatedAt"} {
			assert.Contains(t, body, key)
		}
	})

	t.Run("Duplicate Slug", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/qr/new", CreateLinkRequest{Destination: "other.com", CustomSlug: "test-1"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Custom slug already exists.", decodeMessage(t, w))

		var link models.Link
		require.NoError(t, db.Where("slug = ?", "test-1").First(&link).Error)
		assert.Equal(t, "https://example.com", link.OriginalURL)
	})

	t.Run("Invalid Destination", func(t *testing.T) {
		for _, dest := range []string{"", "   ", "https://", "http://exa mple.com"} {
			w := doJSON(t, r, "POST", "/api/qr/new", CreateLinkRequest{Destination: dest})
			assert.Equal(t, http.StatusBadRequest, w.Code, dest)
			assert.True(t, strings.HasPrefix(decodeMessage(t, w), "destination"), dest)
		}
	})

	t.Run("Invalid Custom Slug", func(t *testing.T) {
		for _, slug := range []string{"ab", "has space", "slash/slug", strings.Repeat("a", 51)} {
			w := doJSON(t, r, "POST", "/api/qr/new", CreateLinkRequest{Destination: "example.com", CustomSlug: slug})
			assert.Equal(t, http.StatusBadRequest, w.Code, slug)
			assert.True(t, strings.HasPrefix(decodeMessage(t, w), "custom_slug"), slug)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/qr/new", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := doRequest(r, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgInvalidBody, decodeMessage(t, w))
	})

	t.Run("Audit Logged", func(t *testing.T) {
		link := createLink(t, r, "audited.example.com", "audited")

		assert.Eventually(t, func() bool {
			var count int64
			db.Model(&models.AuditLog{}).
				Where("action = ? AND entity_id = ?", services.ActionCreateLink, link.ID).
				Count(&count)
			return count == 1
		}, 2*time.Second, 20*time.Millisecond)
	})
}

func TestCreateLink_ConcurrentSameSlug(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupTestRouter(h)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := doJSON(t, r, "POST", "/api/qr/new", CreateLinkRequest{Destination: "example.com", CustomSlug: "race"})
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			created++
		default:
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created)
}

func TestListLinks(t *testing.T) {
	h, db := setupTestHandler(t)
	r := setupTestRouter(h)

	t.Run("Empty", func(t *testing.T) {
		w := doJSON(t, r, "GET", "/api/qr/links", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	first := createLink(t, r, "first.example.com", "first")
	time.Sleep(10 * time.Millisecond)
	second := createLink(t, r, "second.example.com", "second")

	visit := doJSON(t, r, "GET", "/r/first", nil)
	require.Equal(t, http.StatusFound, visit.Code)
	require.Eventually(t, func() bool {
		var count int64
		db.Model(&models.VisitEvent{}).Where("link_id = ?", first.ID).Count(&count)
		return count == 1
	}, 2*time.Second, 20*time.Millisecond)

	w := doJSON(t, r, "GET", "/api/qr/links", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var links []struct {
		ID    string `json:"id"`
		Slug  string `json:"slug"`
		Count struct {
			AnalyticsEvents int64 `json:"analyticsEvents"`
		} `json:"_count"`
		AnalyticsEvents []models.VisitEvent `json:"analyticsEvents"`
		LastScanAt      *time.Time          `json:"lastScanAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &links))
	require.Len(t, links, 2)

	assert.Equal(t, second.ID, links[0].ID)
	assert.Zero(t, links[0].Count.AnalyticsEvents)
	assert.Empty(t, links[0].AnalyticsEvents)
	assert.Nil(t, links[0].LastScanAt)

	assert.Equal(t, first.ID, links[1].ID)
	assert.Equal(t, int64(1), links[1].Count.AnalyticsEvents)
	assert.Len(t, links[1].AnalyticsEvents, 1)
	assert.NotNil(t, links[1].LastScanAt)
}

func TestUpdateLink(t *testing.T) {
	h, _ := setupTestHandler(t)
	r := setupTestRouter(h)

	link := createLink(t, r, "example.com", "update-me")

	t.Run("Success", func(t *testing.T) {
		w := doJSON(t, r, "PUT", "/api/qr/"+link.ID, UpdateLinkRequest{Destination: "changed.example.com"})
		require.Equal(t, http.StatusOK, w.Code)

		var updated models.Link
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "https://changed.example.com", updated.OriginalURL)
		assert.Equal(t, "update-me", updated.Slug)
		assert.False(t, updated.UpdatedAt.Before(link.UpdatedAt))
	})

	t.Run("Invalid Destination", func(t *testing.T) {
		w := doJSON(t, r, "PUT", "/api/qr/"+link.ID, UpdateLinkRequest{Destination: ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Bad ID", func(t *testing.T) {
		w := doJSON(t, r, "PUT", "/api/qr/not-a-uuid", UpdateLinkRequest{Destination: "example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgInvalidID, decodeMessage(t, w))
	})

	t.Run("Unknown ID", func(t *testing.T) {
		w := doJSON(t, r, "PUT", "/api/qr/"+uuid.NewString(), UpdateLinkRequest{Destination: "example.com"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, msgLinkNotFound, decodeMessage(t, w))
	})
}

func TestDeleteLink(t *testing.T) {
	h, db := setupTestHandler(t)
	r := setupTestRouter(h)

	link := createLink(t, r, "example.com", "doomed")
	require.Equal(t, http.StatusFound, doJSON(t, r, "GET", "/r/doomed", nil).Code)
	require.Eventually(t, func() bool {
		var count int64
		db.Model(&models.VisitEvent{}).Where("link_id = ?", link.ID).Count(&count)
		return count == 1
	}, 2*time.Second, 20*time.Millisecond)

	t.Run("Success", func(t *testing.T) {
		w := doJSON(t, r, "DELETE", "/api/qr/"+link.ID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())

		var count int64
		db.Model(&models.VisitEvent{}).Where("link_id = ?", link.ID).Count(&count)
		assert.Zero(t, count)

		assert.Equal(t, http.StatusNotFound, doJSON(t, r, "GET", "/r/doomed", nil).Code)
	})

	t.Run("Already Deleted", func(t *testing.T) {
		w := doJSON(t, r, "DELETE", "/api/qr/"+link.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Bad ID", func(t *testing.T) {
		w := doJSON(t, r, "DELETE", "/api/qr/123", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Slug Reusable", func(t *testing.T) {
		recreated := createLink(t, r, "example.com", "doomed")
		assert.NotEqual(t, link.ID, recreated.ID)
	})
}
