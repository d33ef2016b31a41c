package models

// UserGroupStat is the current-month rollup for one user in one guild.
// Fully recomputed per aggregation pass (delete then insert), never
// patched incrementally.
type UserGroupStat struct {
	UserID     string  `gorm:"primaryKey"`
	GuildID    string  `gorm:"primaryKey"`
	Distance   float64 `gorm:"not null;default:0"` // meters
	MovingTime int     `gorm:"not null;default:0"` // seconds
	Elevation  float64 `gorm:"not null;default:0"` // meters
	ActiveDays int     `gorm:"not null;default:0"`
}

// Membership maps an authorized user into a guild with a display name,
// so leaderboards never have to round-trip the chat platform.
type Membership struct {
	GuildID     string `gorm:"primaryKey"`
	UserID      string `gorm:"primaryKey"`
	DisplayName string
}

// RoleAssignment records which tier role a user currently holds per
// metric, so a tier change can remove the old role before adding the
// new one.
type RoleAssignment struct {
	UserID   string `gorm:"primaryKey"`
	GuildID  string `gorm:"primaryKey"`
	DistRole string
	TimeRole string
	ElevRole string
	DaysRole string
}
