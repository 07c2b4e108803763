// Package utils provides small helpers shared by the HTTP layer and the
// correlation engine: client address extraction and query parsing. They hold
// no domain state.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNegativeLimit is returned by ParseLimit for values below zero.
var ErrNegativeLimit = errors.New("limit must be >= 0")

// ParseLimit reads the limit query parameter of listing endpoints. Zero
// means no limit. Empty or non-numeric input is treated as no limit rather
// than an error, so a stray ?limit=all still lists everything.
//
//	utils.ParseLimit("20")  // 20, nil
//	utils.ParseLimit("")    // 0, nil
//	utils.ParseLimit("all") // 0, nil
//	utils.ParseLimit("-1")  // 0, ErrNegativeLimit
func ParseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	if n < 0 {
		return 0, ErrNegativeLimit
	}
	return n, nil
}
