package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/mbriand/linknest/internal/errors"
	"github.com/mbriand/linknest/internal/services"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all Gin API routes and injects necessary dependencies.
// Parameters:
//   - router: Gin engine instance to configure routes on
//   - linkService: business logic service for link operations
//   - baseURL: public base URL used to build full short URLs in responses
func SetupRoutes(router *gin.Engine, linkService *services.LinkService, baseURL string) {
	// Health Check Route - used for monitoring service availability
	router.GET("/health", HealthCheckHandler)

	// API Routes Group - all business logic endpoints under /api/v1 prefix
	api := router.Group("/api/v1")
	{
		// POST endpoint for creating new shortened links
		api.POST("/links", CreateShortLinkHandler(linkService, baseURL))
		// GET endpoint for retrieving visit statistics for a specific slug
		api.GET("/links/:slug/stats", GetLinkStatsHandler(linkService))
	}

	// Redirection Route - handles the actual URL redirection at root level
	// This is where users access their short URLs (e.g., localhost:8080/abc123)
	router.GET("/:slug", RedirectHandler(linkService))
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateLinkRequest represents the JSON request body for creating a link.
// Only long_url is required; custom_slug, password and expires_at are
// optional features of the link.
type CreateLinkRequest struct {
	LongURL    string `json:"long_url" binding:"required,url"`
	CustomSlug string `json:"custom_slug" binding:"omitempty"`
	Password   string `json:"password" binding:"omitempty,min=4,max=32"`
	ExpiresAt  string `json:"expires_at" binding:"omitempty"` // RFC 3339
}

// CreateShortLinkHandler handles the creation of a shortened URL.
func CreateShortLinkHandler(linkService *services.LinkService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		var expiresAt *time.Time
		if req.ExpiresAt != "" {
			t, err := time.Parse(time.RFC3339, req.ExpiresAt)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expires_at, expected RFC 3339 timestamp"})
				return
			}
			expiresAt = &t
		}

		link, err := linkService.CreateLink(c.Request.Context(), services.CreateLinkParams{
			OriginalURL:   req.LongURL,
			CandidateSlug: req.CustomSlug,
			Password:      req.Password,
			ExpiresAt:     expiresAt,
			CreatedBy:     userIDFromRequest(c),
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidURL):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL"})
			case errors.Is(err, apperrors.ErrInvalidSlug):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Custom slug must be 3-20 characters (letters, digits, - or _)"})
			case errors.Is(err, apperrors.ErrSlugTaken):
				c.JSON(http.StatusConflict, gin.H{"error": "Slug already taken"})
			case errors.Is(err, apperrors.ErrSlugGenerationFailed):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to generate unique slug. Please try again later."})
			default:
				log.Printf("Error creating link: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create short link"})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"short_slug":     link.ShortSlug,
			"long_url":       link.OriginalURL,
			"full_short_url": baseURL + "/" + link.ShortSlug,
		})
	}
}

// RedirectHandler handles the redirection from a short URL to the original
// long URL. Visit tracking is queued by the service and never delays the
// redirect. The password for protected links is read from the "password"
// query parameter.
func RedirectHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		targetURL, err := linkService.ResolveLink(c.Request.Context(), slug, c.Query("password"), services.VisitContext{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			Referrer:  c.GetHeader("Referer"),
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrLinkNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
			case errors.Is(err, apperrors.ErrLinkExpired):
				// Expired is distinct from not-found: the slug existed but
				// its time has passed.
				c.JSON(http.StatusGone, gin.H{"error": "Link expired"})
			case errors.Is(err, apperrors.ErrPasswordRequired), errors.Is(err, apperrors.ErrPasswordMismatch):
				// Both password failures collapse to a single user-facing
				// status; the service keeps them distinct for tests.
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Password required or incorrect"})
			default:
				log.Printf("Error resolving link %s: %v", slug, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		c.Redirect(http.StatusFound, targetURL)
	}
}

// GetLinkStatsHandler handles the retrieval of statistics for a specific link.
func GetLinkStatsHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		link, totalVisits, err := linkService.GetLinkStats(c.Request.Context(), slug)
		if err != nil {
			if errors.Is(err, apperrors.ErrLinkNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
				return
			}
			log.Printf("Error retrieving stats for %s: %v", slug, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		resp := gin.H{
			"short_slug":   link.ShortSlug,
			"long_url":     link.OriginalURL,
			"click_count":  link.ClickCount,
			"total_visits": totalVisits,
			"created_at":   link.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if link.ExpiresAt != nil {
			resp["expires_at"] = link.ExpiresAt.Format(time.RFC3339)
			resp["expired"] = link.IsExpired()
		}
		c.JSON(http.StatusOK, resp)
	}
}

// userIDFromRequest extracts the opaque user identifier supplied by the
// identity collaborator. Zero when absent; this service does not
// validate identities.
func userIDFromRequest(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
