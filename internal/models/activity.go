package models

// Activity is one synced Strava activity. Immutable once stored; the
// provider-assigned id is the identity key, so re-ingesting the same
// activity is a no-op.
type Activity struct {
	ActivityID     int64  `gorm:"primaryKey"`
	UserID         string `gorm:"not null;index"`
	Name           string
	Distance       float64 // meters
	MovingTime     int     // seconds
	ElevationGain  float64 // meters
	Type           string  `gorm:"index"`
	StartDateLocal string
	Polyline       string
	Day            int `gorm:"index"`
	Month          int `gorm:"index"`
	Year           int `gorm:"index"`
}

// DailyActivity is a same-day projection of an Activity scoped to one
// guild, kept only until it has been showcased or the day rolls over.
type DailyActivity struct {
	ActivityID    int64  `gorm:"primaryKey"`
	GuildID       string `gorm:"primaryKey"`
	UserID        string `gorm:"not null;index"`
	Name          string
	Distance      float64
	MovingTime    int
	ElevationGain float64
	Type          string
}
