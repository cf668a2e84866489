// Package geoip resolves visitor IP addresses to country codes for
// visit analytics.
package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Resolver maps an IP address to an ISO country code.
// An unknown or unparseable IP yields the empty string, never an error:
// a failed lookup must not fail the visit recording it feeds.
type Resolver interface {
	Lookup(ip string) string
}

// MaxMindResolver resolves countries from a local MaxMind GeoLite2 /
// GeoIP2 database file.
type MaxMindResolver struct {
	reader *geoip2.Reader
}

// NewMaxMindResolver opens the database at the given path.
func NewMaxMindResolver(path string) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database %s: %w", path, err)
	}
	return &MaxMindResolver{reader: reader}, nil
}

// Lookup returns the ISO country code for the IP, or "" when unknown.
func (r *MaxMindResolver) Lookup(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close releases the underlying database reader.
func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}

// NoopResolver is used when no GeoIP database is configured. Every
// lookup is unknown.
type NoopResolver struct{}

// Lookup always returns the empty string.
func (NoopResolver) Lookup(string) string {
	return ""
}
