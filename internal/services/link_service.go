// Package services contains the business logic layer for the link shortener:
// slug allocation, link creation, and the resolution engine.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	apperrors "github.com/mbriand/linknest/internal/errors"
	"github.com/mbriand/linknest/internal/models"
	"github.com/mbriand/linknest/internal/repository"
)

// maxCreateAttempts bounds how many times a creation retries after the
// insert itself reports a slug conflict (a generated slug lost the race
// to a concurrent creation). Distinct from the allocator's own
// generation retry budget.
const maxCreateAttempts = 5

// CreateLinkParams carries everything needed to create a link.
// CreatedBy is an opaque reference supplied by the identity
// collaborator; this service never validates it.
type CreateLinkParams struct {
	OriginalURL   string
	CandidateSlug string     // empty means generate
	Password      string     // empty means unprotected
	ExpiresAt     *time.Time // nil means never expires
	CreatedBy     uint
}

// VisitContext carries the request context captured by the transport
// layer at resolution time. Any field may be empty.
type VisitContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// LinkService provides business logic methods for managing shortened links.
// It acts as an intermediary between the HTTP handlers and the data repository.
type LinkService struct {
	linkRepo  repository.LinkRepository
	visitRepo repository.VisitRepository
	allocator *SlugAllocator
	hasher    PasswordHasher

	// visitEvents receives one event per successful resolution. May be
	// nil (CLI usage), in which case resolutions skip analytics.
	visitEvents chan<- models.VisitEvent
}

// NewLinkService creates and returns a new instance of LinkService.
func NewLinkService(
	linkRepo repository.LinkRepository,
	visitRepo repository.VisitRepository,
	hasher PasswordHasher,
	visitEvents chan<- models.VisitEvent,
) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		visitRepo:   visitRepo,
		allocator:   NewSlugAllocator(linkRepo),
		hasher:      hasher,
		visitEvents: visitEvents,
	}
}

// CreateLink creates a new shortened link.
// The allocator pre-checks slug availability, but the uniqueness
// guarantee comes from the insert: on ErrSlugConflict a generated slug
// is re-allocated and the insert retried, while a custom slug surfaces
// ErrSlugTaken immediately.
func (s *LinkService) CreateLink(ctx context.Context, params CreateLinkParams) (*models.Link, error) {
	if err := validateURL(params.OriginalURL); err != nil {
		return nil, err
	}

	var passwordHash string
	if params.Password != "" {
		hash, err := s.hasher.Hash(params.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash link password: %w", err)
		}
		passwordHash = hash
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		slug, err := s.allocator.Allocate(ctx, params.CandidateSlug)
		if err != nil {
			return nil, err
		}

		link := &models.Link{
			ShortSlug:    slug,
			OriginalURL:  params.OriginalURL,
			CreatedBy:    params.CreatedBy,
			ExpiresAt:    params.ExpiresAt,
			PasswordHash: passwordHash,
		}

		err = s.linkRepo.CreateLink(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, apperrors.ErrSlugConflict) {
			return nil, err
		}
		if params.CandidateSlug != "" {
			// A concurrent creation won the race for this custom slug.
			return nil, apperrors.ErrSlugTaken
		}
		log.Printf("Slug %q lost insert race, regenerating (%d/%d)...", slug, attempt+1, maxCreateAttempts)
	}

	return nil, apperrors.ErrSlugGenerationFailed
}

// ResolveLink resolves a slug to its target URL, applying expiration
// and password rules, and queues a visit event on success.
// The decision sequence is fixed: lookup, expiry, password, record,
// redirect. Expiry is checked before the password so an expired
// protected link reports expired instead of leaking that a password
// exists.
func (s *LinkService) ResolveLink(ctx context.Context, slug, suppliedSecret string, visitCtx VisitContext) (string, error) {
	link, err := s.linkRepo.GetLinkBySlug(ctx, slug)
	if err != nil {
		return "", err
	}

	if link.IsExpired() {
		return "", apperrors.ErrLinkExpired
	}

	if link.PasswordHash != "" {
		if suppliedSecret == "" {
			return "", apperrors.ErrPasswordRequired
		}
		if !s.hasher.Compare(suppliedSecret, link.PasswordHash) {
			return "", apperrors.ErrPasswordMismatch
		}
	}

	// Analytics is best-effort: the event is queued without blocking and
	// its fate never gates the redirect.
	s.dispatchVisit(link, visitCtx)

	return link.OriginalURL, nil
}

// GetLinkBySlug retrieves a link using its slug.
func (s *LinkService) GetLinkBySlug(ctx context.Context, slug string) (*models.Link, error) {
	return s.linkRepo.GetLinkBySlug(ctx, slug)
}

// GetLinkStats retrieves a link together with its recorded visit count.
// click_count and the visit-row count match at rest; both are returned
// so callers can display either.
func (s *LinkService) GetLinkStats(ctx context.Context, slug string) (*models.Link, int64, error) {
	link, err := s.linkRepo.GetLinkBySlug(ctx, slug)
	if err != nil {
		return nil, 0, err
	}

	totalVisits, err := s.visitRepo.CountVisitsByLinkID(ctx, link.ID)
	if err != nil {
		return nil, 0, err
	}

	return link, totalVisits, nil
}

// dispatchVisit queues a visit event for asynchronous recording.
// A full buffer drops the event; the counter and the visit row drop
// together, so the count-equals-rows invariant survives the drop.
func (s *LinkService) dispatchVisit(link *models.Link, visitCtx VisitContext) {
	if s.visitEvents == nil {
		return
	}

	// A resolution in flight during shutdown can race the channel
	// close; the send then panics. Recording is best-effort, so the
	// event is dropped and the redirect still goes through.
	defer func() {
		if recover() != nil {
			log.Printf("WARNING: visit event channel closed, dropping event for link %d", link.ID)
		}
	}()

	event := models.VisitEvent{
		LinkID:    link.ID,
		IPAddress: visitCtx.IPAddress,
		UserAgent: visitCtx.UserAgent,
		Referrer:  visitCtx.Referrer,
		ClickedAt: time.Now(),
	}

	select {
	case s.visitEvents <- event:
	default:
		log.Printf("WARNING: visit event buffer full, dropping event for link %d", link.ID)
	}
}

// validateURL rejects targets that are not absolute http(s) URLs.
func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return apperrors.ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.ErrInvalidURL
	}
	return nil
}
