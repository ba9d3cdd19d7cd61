package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"qrlinkr/internal/models"
	"qrlinkr/pkg/utils"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

type CreateLinkInput struct {
	Destination string
	CustomSlug  string
	Owner       models.Owner
}

// LinkCount mirrors the `_count` block the dashboard reads.
type LinkCount struct {
	AnalyticsEvents int64 `json:"analyticsEvents"`
}

// LinkWithStats is a Link annotated for the dashboard listing.
type LinkWithStats struct {
	models.Link
	Count           LinkCount           `json:"_count"`
	AnalyticsEvents []models.VisitEvent `json:"analyticsEvents"` // latest event only
	LastScanAt      *time.Time          `json:"lastScanAt"`
}

// LinkRegistry owns every write to qr_links. Slug uniqueness comes from the
// unique index on qr_links.slug; there is no check-then-insert.
type LinkRegistry struct {
	db            *gorm.DB
	cache         *LinkCache
	audit         *AuditService
	logger        *slog.Logger
	slugGenerator func() string
	lookups       singleflight.Group
}

func NewLinkRegistry(db *gorm.DB, cache *LinkCache, audit *AuditService, logger *slog.Logger) *LinkRegistry {
	return &LinkRegistry{
		db:            db,
		cache:         cache,
		audit:         audit,
		logger:        logger,
		slugGenerator: utils.GenerateSlug,
	}
}

func (r *LinkRegistry) CreateLink(ctx context.Context, in CreateLinkInput) (*models.Link, error) {
	destination, err := validateDestination(in.Destination)
	if err != nil {
		return nil, err
	}

	slug := in.CustomSlug
	if slug != "" {
		if !slugPattern.MatchString(slug) {
			return nil, invalid("custom_slug", "must be 3-50 letters, digits, '-' or '_'")
		}
	} else {
		slug = r.slugGenerator()
	}

	if in.Owner.ID == "" {
		return nil, invalid("owner", "owner is required")
	}

	link := models.Link{
		Slug:        slug,
		OriginalURL: destination,
		OwnerID:     in.Owner.ID,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwner(tx, in.Owner); err != nil {
			return err
		}
		return tx.Create(&link).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return nil, err
		case isUniqueViolation(err):
			return nil, ErrSlugConflict
		}
		return nil, storeErr("create link", err)
	}

	r.audit.LogAction(in.Owner.ID, ActionCreateLink, link.ID, map[string]string{
		"slug":        link.Slug,
		"originalUrl": link.OriginalURL,
	})

	return &link, nil
}

// EnsureOwner creates the owner if it does not exist yet. Calling it for an
// existing owner is a no-op.
func (r *LinkRegistry) EnsureOwner(ctx context.Context, owner models.Owner) error {
	if owner.ID == "" {
		return invalid("owner", "owner is required")
	}
	if err := ensureOwner(r.db.WithContext(ctx), owner); err != nil {
		if errors.Is(err, ErrValidation) {
			return err
		}
		return storeErr("ensure owner", err)
	}
	return nil
}

// ensureOwner treats only an id conflict as "already exists". An email held by
// another owner is a validation error.
func ensureOwner(tx *gorm.DB, owner models.Owner) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&owner).Error
	if err != nil && isUniqueViolation(err) {
		return invalid("owner", "email already belongs to another owner")
	}
	return err
}

// GetBySlug is an exact, case-sensitive lookup.
func (r *LinkRegistry) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	if link, ok := r.cache.Get(ctx, slug); ok {
		return link, nil
	}

	v, err, _ := r.lookups.Do(slug, func() (interface{}, error) {
		// Waiters share this flight; one caller going away must not fail them all.
		ctx := context.WithoutCancel(ctx)
		var link models.Link
		if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, storeErr("get link by slug", err)
		}
		r.cache.Set(ctx, &link)
		return &link, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share the struct
	link := *v.(*models.Link)
	return &link, nil
}

func (r *LinkRegistry) GetByID(ctx context.Context, id string) (*models.Link, error) {
	var link models.Link
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get link by id", err)
	}
	return &link, nil
}

// ListByOwner returns the owner's links newest first, each with its scan count
// and latest scan.
func (r *LinkRegistry) ListByOwner(ctx context.Context, ownerID string) ([]LinkWithStats, error) {
	db := r.db.WithContext(ctx)

	var links []models.Link
	if err := db.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&links).Error; err != nil {
		return nil, storeErr("list links", err)
	}

	result := make([]LinkWithStats, len(links))
	if len(links) == 0 {
		return result, nil
	}

	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}

	var counts []struct {
		LinkID string
		Count  int64
	}
	if err := db.Model(&models.VisitEvent{}).
		Select("link_id, COUNT(*) AS count").
		Where("link_id IN ?", ids).
		Group("link_id").
		Scan(&counts).Error; err != nil {
		return nil, storeErr("count events", err)
	}
	countByLink := make(map[string]int64, len(counts))
	for _, c := range counts {
		countByLink[c.LinkID] = c.Count
	}

	for i, l := range links {
		entry := LinkWithStats{
			Link:            l,
			Count:           LinkCount{AnalyticsEvents: countByLink[l.ID]},
			AnalyticsEvents: []models.VisitEvent{},
		}
		if entry.Count.AnalyticsEvents > 0 {
			var latest []models.VisitEvent
			if err := db.Where("link_id = ?", l.ID).Order("timestamp desc").Limit(1).Find(&latest).Error; err != nil {
				return nil, storeErr("latest event", err)
			}
			if len(latest) == 1 {
				entry.AnalyticsEvents = latest
				ts := latest[0].Timestamp
				entry.LastScanAt = &ts
			}
		}
		result[i] = entry
	}

	return result, nil
}

// UpdateDestination replaces a link's destination. The slug never changes.
func (r *LinkRegistry) UpdateDestination(ctx context.Context, id, destination string) (*models.Link, error) {
	normalized, err := validateDestination(destination)
	if err != nil {
		return nil, err
	}

	link, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", id).Updates(map[string]interface{}{
		"original_url": normalized,
		"updated_at":   now,
	})
	if res.Error != nil {
		return nil, storeErr("update link", res.Error)
	}
	if res.RowsAffected == 0 {
		// deleted between the read and the write
		return nil, ErrNotFound
	}
	link.OriginalURL = normalized
	link.UpdatedAt = now

	r.cache.Invalidate(ctx, link.Slug)
	r.audit.LogAction(link.OwnerID, ActionUpdateLink, link.ID, map[string]string{
		"originalUrl": normalized,
	})

	return link, nil
}

// DeleteLink removes the link and all of its visit events in one transaction.
func (r *LinkRegistry) DeleteLink(ctx context.Context, id string) error {
	var link models.Link
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&link, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", id).Delete(&models.VisitEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Link{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storeErr("delete link", err)
	}

	r.cache.Invalidate(ctx, link.Slug)
	r.audit.LogAction(link.OwnerID, ActionDeleteLink, link.ID, map[string]string{
		"slug": link.Slug,
	})

	return nil
}

func validateDestination(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", invalid("destination", "destination is required")
	}
	normalized := utils.NormalizeURL(raw)
	u, err := url.ParseRequestURI(normalized)
	if err != nil || u.Hostname() == "" {
		return "", invalid("destination", "must be a valid URL")
	}
	return normalized, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
