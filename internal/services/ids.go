package services

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Lowercase alphanumerics keep link ids unambiguous in a URL path.
	linkIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	linkIDLength   = 10
	clickIDLength  = 16

	// maxIDAttempts bounds retries when a generated link id is taken.
	maxIDAttempts = 5
)

// NewLinkID returns a random 10-character lowercase alphanumeric id.
func NewLinkID() (string, error) {
	return gonanoid.Generate(linkIDAlphabet, linkIDLength)
}

// NewClickID returns a random 16-character URL-safe id.
func NewClickID() (string, error) {
	return gonanoid.New(clickIDLength)
}
