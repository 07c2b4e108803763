package services

import (
	"context"

	"github.com/tbourn/go-link-tracker/internal/domain"
)

// LinkStore defines the persistence contract used by LinkService and
// TrackerService. Implementations return repo.ErrNotFound for missing links
// or clicks and repo.ErrDuplicate for id collisions. Values returned are
// snapshots the caller may freely modify.
type LinkStore interface {
	// CreateLink inserts a link with no clicks.
	CreateLink(ctx context.Context, l domain.Link) error

	// ListLinks returns every link, newest first.
	ListLinks(ctx context.Context) ([]domain.Link, error)

	// GetLink fetches a link and its clicks in visit order.
	GetLink(ctx context.Context, id string) (*domain.Link, error)

	// AppendClick appends c to the link's clicks, leaving the store
	// untouched when the link does not exist.
	AppendClick(ctx context.Context, linkID string, c domain.Click) error

	// FindClick fetches one click of a link.
	FindClick(ctx context.Context, linkID, clickID string) (*domain.Click, error)

	// UpdateClick applies fn to one click atomically with respect to other
	// updates of the same click.
	UpdateClick(ctx context.Context, linkID, clickID string, fn func(*domain.Click)) error
}
