package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the link shortener service.
// Sentinel errors are matched with errors.Is by callers (handlers, CLI)
// to pick the right user-facing status.

// ErrLinkNotFound is returned when a slug doesn't exist in the database
var ErrLinkNotFound = errors.New("link not found")

// ErrLinkExpired is returned when a link exists but its expiry date has
// passed. Distinct from ErrLinkNotFound: expired links stay resolvable
// for error reporting, they just never redirect.
var ErrLinkExpired = errors.New("link expired")

// ErrInvalidURL is returned when the provided URL is invalid
var ErrInvalidURL = errors.New("invalid URL format")

// ErrInvalidSlug is returned when a custom slug is malformed
// (outside the 3-20 character bounds or containing invalid characters)
var ErrInvalidSlug = errors.New("invalid slug format")

// ErrSlugTaken is returned when a caller-supplied slug already exists
var ErrSlugTaken = errors.New("slug already taken")

// ErrSlugConflict is returned by the store when an insert violates the
// short_slug uniqueness constraint. Recoverable for generated slugs
// (regenerate and retry); surfaces as ErrSlugTaken for custom slugs.
var ErrSlugConflict = errors.New("slug conflict on insert")

// ErrPasswordRequired is returned when a protected link is resolved
// without a secret
var ErrPasswordRequired = errors.New("password required")

// ErrPasswordMismatch is returned when the supplied secret doesn't
// match the stored hash
var ErrPasswordMismatch = errors.New("password mismatch")

// ErrSlugGenerationFailed is returned when we can't generate a unique slug
// within the bounded retry budget. This signals a deeper problem
// (alphabet exhaustion, storage fault) and is not retried internally.
var ErrSlugGenerationFailed = errors.New("failed to generate unique slug")

// ErrVisitRecordingFailed is returned when visit recording fails
type ErrVisitRecordingFailed struct {
	LinkID uint
	Reason string
}

func (e ErrVisitRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record visit for link %d: %s", e.LinkID, e.Reason)
}

// ErrURLCheckFailed is returned when URL health check fails
type ErrURLCheckFailed struct {
	URL    string
	Reason string
}

func (e ErrURLCheckFailed) Error() string {
	return fmt.Sprintf("failed to check URL %s: %s", e.URL, e.Reason)
}

// ErrConfigLoad is returned when configuration loading fails
type ErrConfigLoad struct {
	Path   string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config from %s: %s", e.Path, e.Reason)
}
