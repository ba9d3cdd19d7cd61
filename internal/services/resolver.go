package services

import (
	"context"
	"log/slog"
	"net/http"

	"qrlinkr/internal/models"
)

type LinkLookup interface {
	GetBySlug(ctx context.Context, slug string) (*models.Link, error)
}

type VisitRecorder interface {
	RecordVisit(visit VisitInput)
}

// RequestContext carries what is known about the visitor.
type RequestContext struct {
	IP        string
	UserAgent string
}

type RedirectInstruction struct {
	Location   string
	StatusCode int
	LinkID     string
}

type RedirectResolver struct {
	links  LinkLookup
	visits VisitRecorder
	logger *slog.Logger
}

func NewRedirectResolver(links LinkLookup, visits VisitRecorder, logger *slog.Logger) *RedirectResolver {
	return &RedirectResolver{links: links, visits: visits, logger: logger}
}

// Resolve looks the slug up once and records the visit against that link's id.
// Destinations are mutable, so the redirect is always temporary.
func (r *RedirectResolver) Resolve(ctx context.Context, slug string, req RequestContext) (*RedirectInstruction, error) {
	link, err := r.links.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	linkID := link.ID
	r.visits.RecordVisit(VisitInput{
		LinkID:    linkID,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	})

	r.logger.Debug("Resolved slug", "slug", slug, "link_id", linkID)
	return &RedirectInstruction{
		Location:   link.OriginalURL,
		StatusCode: http.StatusFound,
		LinkID:     linkID,
	}, nil
}
