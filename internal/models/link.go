package models

import "time"

// Link représente un lien raccourci dans la base de données.
// Un Link est immuable après sa création, à l'exception de ClickCount
// qui est incrémenté à chaque résolution réussie.
type Link struct {
	ID          uint   `gorm:"primaryKey"`
	ShortSlug   string `gorm:"uniqueIndex;size:20;not null"`
	OriginalURL string `gorm:"not null"`

	// CreatedBy references an external user identity. It is opaque to
	// this service: no validation, no foreign key.
	CreatedBy uint

	CreatedAt time.Time `gorm:"autoCreateTime"`

	// ExpiresAt is optional. An expired link is never deleted; expiry is
	// derived at read time so there is no stored status to drift.
	ExpiresAt *time.Time `gorm:"index"`

	// ClickCount equals the number of Visit rows for this link. Only
	// mutated through the atomic increment in the repository.
	ClickCount int64 `gorm:"not null;default:0"`

	// PasswordHash is empty for unprotected links.
	PasswordHash string
}

// IsExpired vérifie si le lien a expiré.
// Retourne true si le lien a une date d'expiration et que cette date est dépassée.
func (l *Link) IsExpired() bool {
	// Si ExpiresAt est nil, le lien n'expire jamais
	if l.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*l.ExpiresAt)
}
