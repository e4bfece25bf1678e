package models

import (
	"time"
)

// RefreshToken is a stored long-lived credential a patient or staff client
// exchanges for fresh access tokens. Tokens rotate on every refresh; the
// replaced token is revoked rather than deleted so the trail survives.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"size:36;index" json:"userId"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Revoke marks the token as no longer exchangeable.
func (t *RefreshToken) Revoke() {
	t.IsRevoked = true
}
