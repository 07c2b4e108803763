package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested link or click does not exist.
// It aliases gorm.ErrRecordNotFound so both store implementations report
// misses the same way.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a link or click id is already taken.
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation reports whether err is a primary key or unique index
// collision. glebarez/sqlite often returns plain-text errors for these.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "primary key must be unique")
}
