package models

import "time"

// Visit represents one successful resolution of a shortened URL.
// Visits are append-only: a row is written once and never mutated.
type Visit struct {
	// ID is the primary key with auto-increment functionality
	ID uint `gorm:"primaryKey"`

	// LinkID is the foreign key referencing the Link that was resolved
	// - index: creates a database index for efficient per-link queries
	LinkID uint `gorm:"index"`

	// Link establishes the GORM relationship to the Link model
	Link Link `gorm:"foreignKey:LinkID"`

	// IPAddress stores the IP address of the visitor
	// - size:50: sufficient for both IPv4 and IPv6 addresses
	IPAddress string `gorm:"size:50"`

	// UserAgent stores the browser/client information from the HTTP request
	UserAgent string `gorm:"size:255"`

	// Referrer is the Referer header of the request, empty when absent
	Referrer string `gorm:"size:255"`

	// Country is the ISO country code derived from the IP by the
	// geolocation collaborator. Empty when the lookup has no answer.
	Country string `gorm:"size:8"`

	// ClickedAt records the exact moment of the resolution
	ClickedAt time.Time
}

// VisitEvent represents a raw visit event intended to be passed through channels.
// This lightweight struct is used for asynchronous processing between goroutines.
// Country is resolved later, by the worker, so the redirect path never
// waits on the geolocation lookup.
type VisitEvent struct {
	LinkID    uint      // The ID of the link that was resolved
	IPAddress string    // Visitor's IP address
	UserAgent string    // Browser/client information
	Referrer  string    // Referer header, may be empty
	ClickedAt time.Time // When the resolution occurred
}
