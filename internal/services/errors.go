// Package services implements the tracking-link logic: issuing links and
// correlating each visit with the client telemetry and geolocation that
// arrive after it. This file centralizes service-level error values so that
// handlers can map them to HTTP results consistently.
package services

import "errors"

var (
	// ErrLinkNotFound indicates that no link exists with the requested id.
	ErrLinkNotFound = errors.New("link not found")

	// ErrClickNotFound indicates that the link has no click with the
	// requested id.
	ErrClickNotFound = errors.New("click not found")

	// ErrIDExhausted is returned when every generated link id collided with
	// an existing one.
	ErrIDExhausted = errors.New("could not allocate a unique link id")
)
