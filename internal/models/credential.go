package models

import (
	"time"
)

// Credential holds one Strava OAuth token pair per authorized user.
// Replaced wholesale on every refresh, deleted when the refresh token
// stops working or the user unauthorizes.
type Credential struct {
	UserID       string `gorm:"primaryKey"`
	AthleteID    int64
	AccessToken  string `gorm:"not null"`
	RefreshToken string `gorm:"not null"`
	ExpiresAt    int64  `gorm:"not null;index"` // epoch seconds, as returned by the provider
	FailCount    int    `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt < now.Unix()
}
