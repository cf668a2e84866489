package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	apperrors "github.com/mbriand/linknest/internal/errors"
	"github.com/mbriand/linknest/internal/repository"
)

// charset defines the character set used for generating slugs.
// Uses alphanumeric characters (both cases) for a total of 62 possible characters.
// This gives us 62^6 = ~56 billion possible combinations for 6-character slugs.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// GeneratedSlugLength is the fixed length of generated slugs.
	GeneratedSlugLength = 6

	// MinCustomSlugLength and MaxCustomSlugLength bound caller-supplied slugs.
	MinCustomSlugLength = 3
	MaxCustomSlugLength = 20

	// maxGenerateAttempts bounds the collision retry loop. At 6
	// characters collisions are rare; exhausting the budget signals a
	// corrupted random source or a storage fault, not bad luck.
	maxGenerateAttempts = 10
)

// SlugAllocator produces unique short slugs, either from a caller
// candidate or by random generation with collision retry.
// The existence pre-check here is only an optimization: the unique
// index on short_slug is what actually closes the check-then-act race,
// and callers must handle ErrSlugConflict from the insert.
type SlugAllocator struct {
	linkRepo repository.LinkRepository
}

// NewSlugAllocator creates and returns a new instance of SlugAllocator.
func NewSlugAllocator(linkRepo repository.LinkRepository) *SlugAllocator {
	return &SlugAllocator{linkRepo: linkRepo}
}

// Allocate returns a slug for a new link.
// A non-empty candidate is validated (ErrInvalidSlug) and checked for
// existence (ErrSlugTaken). An empty candidate triggers random
// generation with a bounded retry loop (ErrSlugGenerationFailed when
// exhausted).
func (a *SlugAllocator) Allocate(ctx context.Context, candidate string) (string, error) {
	if candidate != "" {
		if err := ValidateCustomSlug(candidate); err != nil {
			return "", err
		}
		_, err := a.linkRepo.GetLinkBySlug(ctx, candidate)
		if err == nil {
			return "", apperrors.ErrSlugTaken
		}
		if !errors.Is(err, apperrors.ErrLinkNotFound) {
			return "", fmt.Errorf("database error checking slug availability: %w", err)
		}
		return candidate, nil
	}

	// Retry loop to handle generated slug collisions
	for i := 0; i < maxGenerateAttempts; i++ {
		slug, err := GenerateSlug(GeneratedSlugLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}

		_, err = a.linkRepo.GetLinkBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, apperrors.ErrLinkNotFound) {
				// The slug is free as far as this check can tell.
				return slug, nil
			}
			return "", fmt.Errorf("database error checking slug uniqueness: %w", err)
		}
		// Collision detected, regenerate.
	}

	return "", apperrors.ErrSlugGenerationFailed
}

// GenerateSlug generates a cryptographically secure random slug of the
// given length from the URL-safe alphabet.
func GenerateSlug(length int) (string, error) {
	slug := make([]byte, length)
	for i := range slug {
		// Use crypto/rand for cryptographically secure random numbers
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		slug[i] = charset[num.Int64()]
	}
	return string(slug), nil
}

// ValidateCustomSlug checks a caller-supplied slug against the length
// bounds and the slug alphabet. Runs before any storage access.
func ValidateCustomSlug(slug string) error {
	if len(slug) < MinCustomSlugLength || len(slug) > MaxCustomSlugLength {
		return apperrors.ErrInvalidSlug
	}
	for i := 0; i < len(slug); i++ {
		if !isSlugChar(slug[i]) {
			return apperrors.ErrInvalidSlug
		}
	}
	return nil
}

func isSlugChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}
