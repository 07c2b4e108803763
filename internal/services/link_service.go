// Package services – LinkService
//
// LinkService issues tracking links and serves them back for inspection.
// Link ids are random NanoIDs; a collision with an existing id is retried a
// bounded number of times before ErrIDExhausted is returned.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-link-tracker/internal/domain"
	"github.com/tbourn/go-link-tracker/internal/observability"
	"github.com/tbourn/go-link-tracker/internal/repo"
)

// TrackPath is the path prefix under which tracking pages are served.
const TrackPath = "/track/"

// LinkService provides link creation and lookup.
type LinkService struct {
	Store LinkStore

	// NewID generates candidate link ids.
	NewID func() (string, error)
	// Now supplies creation timestamps.
	Now func() time.Time
}

// NewLinkService constructs a LinkService using NanoID ids and the wall clock.
func NewLinkService(store LinkStore) *LinkService {
	return &LinkService{
		Store: store,
		NewID: NewLinkID,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// TrackURL joins baseURL (scheme://host, no trailing slash) and a link id.
func TrackURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + TrackPath + id
}

// Create issues a new link whose URL is rooted at baseURL.
func (s *LinkService) Create(ctx context.Context, baseURL string) (*domain.Link, error) {
	tr := otel.Tracer("services/LinkService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate link id: %w", err)
		}
		l := domain.Link{
			ID:      id,
			URL:     TrackURL(baseURL, id),
			Created: s.Now(),
			Clicks:  []domain.Click{},
		}
		err = s.Store.CreateLink(ctx, l)
		if errors.Is(err, repo.ErrDuplicate) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(attribute.String("link.id", id))
		observability.LinksCreated.Inc()
		return &l, nil
	}
	span.RecordError(ErrIDExhausted)
	return nil, ErrIDExhausted
}

// List returns links newest first. A positive limit caps the result.
func (s *LinkService) List(ctx context.Context, limit int) ([]domain.Link, error) {
	tr := otel.Tracer("services/LinkService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	links, err := s.Store.ListLinks(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

// Get returns one link with its clicks, or ErrLinkNotFound.
func (s *LinkService) Get(ctx context.Context, id string) (*domain.Link, error) {
	tr := otel.Tracer("services/LinkService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("link.id", id)),
	)
	defer span.End()

	l, err := s.Store.GetLink(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Click returns one click of a link. It returns ErrLinkNotFound when the
// link is missing and ErrClickNotFound when only the click is.
func (s *LinkService) Click(ctx context.Context, linkID, clickID string) (*domain.Click, error) {
	tr := otel.Tracer("services/LinkService")
	ctx, span := tr.Start(ctx, "Click",
		trace.WithAttributes(
			attribute.String("link.id", linkID),
			attribute.String("click.id", clickID),
		),
	)
	defer span.End()

	c, err := s.Store.FindClick(ctx, linkID, clickID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if _, lerr := s.Store.GetLink(ctx, linkID); errors.Is(lerr, repo.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	return nil, ErrClickNotFound
}
