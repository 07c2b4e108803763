package repo

import (
	"context"
	"slices"
	"sync"

	"github.com/tbourn/go-link-tracker/internal/domain"
)

// linkEntry holds one link and serializes every mutation to it and its
// clicks. byID maps click id to its position in link.Clicks.
type linkEntry struct {
	mu   sync.Mutex
	link domain.Link
	byID map[string]int
}

// MemoryStore is a process-local link store. The store lock guards only the
// index of entries; each entry has its own lock, so traffic on different
// links never contends.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]*linkEntry
	order []*linkEntry // insertion order
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{links: make(map[string]*linkEntry)}
}

func (s *MemoryStore) entry(id string) (*linkEntry, bool) {
	s.mu.RLock()
	e, ok := s.links[id]
	s.mu.RUnlock()
	return e, ok
}

// CreateLink inserts l. Any clicks on l are ignored.
func (s *MemoryStore) CreateLink(_ context.Context, l domain.Link) error {
	l.Clicks = []domain.Click{}
	e := &linkEntry{link: l, byID: make(map[string]int)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[l.ID]; ok {
		return ErrDuplicate
	}
	s.links[l.ID] = e
	s.order = append(s.order, e)
	return nil
}

// ListLinks returns snapshots of all links ordered by creation time
// descending, ties broken newest-insert first.
func (s *MemoryStore) ListLinks(_ context.Context) ([]domain.Link, error) {
	s.mu.RLock()
	entries := slices.Clone(s.order)
	s.mu.RUnlock()

	out := make([]domain.Link, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		e.mu.Lock()
		out = append(out, e.link.Clone())
		e.mu.Unlock()
	}
	slices.SortStableFunc(out, func(a, b domain.Link) int {
		return b.Created.Compare(a.Created)
	})
	return out, nil
}

// GetLink returns a snapshot of the link, or ErrNotFound.
func (s *MemoryStore) GetLink(_ context.Context, id string) (*domain.Link, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	l := e.link.Clone()
	e.mu.Unlock()
	return &l, nil
}

// AppendClick appends c to the link's clicks. Returns ErrNotFound when the
// link does not exist and ErrDuplicate when the click id is taken.
func (s *MemoryStore) AppendClick(_ context.Context, linkID string, c domain.Click) error {
	e, ok := s.entry(linkID)
	if !ok {
		return ErrNotFound
	}
	c = c.Clone()
	c.LinkID = linkID

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.byID[c.ID]; dup {
		return ErrDuplicate
	}
	e.byID[c.ID] = len(e.link.Clicks)
	e.link.Clicks = append(e.link.Clicks, c)
	return nil
}

// FindClick returns a snapshot of one click, or ErrNotFound.
func (s *MemoryStore) FindClick(_ context.Context, linkID, clickID string) (*domain.Click, error) {
	e, ok := s.entry(linkID)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[clickID]
	if !ok {
		return nil, ErrNotFound
	}
	c := e.link.Clicks[i].Clone()
	return &c, nil
}

// UpdateClick applies fn to the stored click while holding the link's lock.
// fn must not touch ID, LinkID or Timestamp.
func (s *MemoryStore) UpdateClick(_ context.Context, linkID, clickID string, fn func(*domain.Click)) error {
	e, ok := s.entry(linkID)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[clickID]
	if !ok {
		return ErrNotFound
	}
	fn(&e.link.Clicks[i])
	return nil
}
