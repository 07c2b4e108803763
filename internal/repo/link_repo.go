// Package repo implements the link store, backed either by process memory or
// by GORM over pure-Go SQLite. This file provides the SQL-backed store.
//
// Overview
//
//   - CreateLink
//     Inserts a link row. Returns ErrDuplicate when the id is already taken.
//
//   - ListLinks
//     Returns every link with its clicks preloaded in visit order, newest
//     link first.
//
//   - GetLink / FindClick
//     Fetch a single link (with clicks) or click, or ErrNotFound.
//
//   - AppendClick
//     Inserts a click for an existing link inside a transaction.
//
//   - UpdateClick
//     Read-modify-write of one click inside a transaction, so concurrent
//     merges to the same click are serialized by the database.
//
// Ordering relies on SQLite's implicit rowid, which grows with insertion.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-link-tracker/internal/domain"
)

// SQLStore is a link store persisted through GORM.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore wraps an opened and migrated database.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func clicksInVisitOrder(db *gorm.DB) *gorm.DB {
	return db.Order("rowid asc")
}

// CreateLink inserts l. Any clicks on l are ignored.
func (s *SQLStore) CreateLink(ctx context.Context, l domain.Link) error {
	l.Clicks = nil
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&l).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListLinks returns all links ordered by creation time descending, ties
// broken newest-insert first.
func (s *SQLStore) ListLinks(ctx context.Context) ([]domain.Link, error) {
	var rows []domain.Link
	err := s.db.WithContext(ctx).
		Preload("Clicks", clicksInVisitOrder).
		Order("created desc, rowid desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Link, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
	}
	return out, nil
}

// GetLink fetches a link and its clicks by id, or ErrNotFound.
func (s *SQLStore) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	var l domain.Link
	err := s.db.WithContext(ctx).
		Preload("Clicks", clicksInVisitOrder).
		Where("id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	out := l.Clone()
	return &out, nil
}

// AppendClick inserts c under linkID. Returns ErrNotFound when the link does
// not exist, leaving the database untouched.
func (s *SQLStore) AppendClick(ctx context.Context, linkID string, c domain.Click) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Link{}).Where("id = ?", linkID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		c.LinkID = linkID
		if err := tx.Create(&c).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
}

// FindClick fetches one click of a link, or ErrNotFound.
func (s *SQLStore) FindClick(ctx context.Context, linkID, clickID string) (*domain.Click, error) {
	var c domain.Click
	err := s.db.WithContext(ctx).
		Where("link_id = ? AND id = ?", linkID, clickID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateClick loads the click, applies fn and writes the result back in one
// transaction. fn must not touch ID, LinkID or Timestamp.
func (s *SQLStore) UpdateClick(ctx context.Context, linkID, clickID string, fn func(*domain.Click)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Click
		err := tx.Where("link_id = ? AND id = ?", linkID, clickID).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		fn(&c)
		return tx.Model(&c).
			Where("link_id = ?", linkID).
			Select("geo", "client", "country").
			Updates(&c).Error
	})
}
