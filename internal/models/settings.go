package models

import "strings"

// ValidActivityTypes is the closed set of Strava activity types a guild
// may count toward its stats.
var ValidActivityTypes = []string{
	"Run", "Ride", "Walk", "Hike", "Canoe", "E-Bike Ride", "Handcycle",
	"Ice Skate", "Kayak", "Row", "Snowboard", "Alpine Ski", "Nordic Ski",
	"Snowshoe", "Surf", "Wheelchair",
}

func IsValidActivityType(t string) bool {
	for _, v := range ValidActivityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// GroupSettings is the per-guild configuration record. Frequencies are
// hours in [1,24]; zero means the action is not scheduled. Channel ids
// are empty when unset.
type GroupSettings struct {
	GuildID               string `gorm:"primaryKey"`
	AllowedTypes          string // comma-joined, insertion order preserved
	LeaderboardChannel    string
	ShowcaseChannel       string
	RecommendationChannel string
	LatLonCenter          string
	LeaderboardFreq       int `gorm:"not null;default:0"`
	ShowcaseFreq          int `gorm:"not null;default:0"`
	RecommendationFreq    int `gorm:"not null;default:0"`
	IngestionFreq         int `gorm:"not null;default:0"`
}

// Types returns the allowed activity types in declaration order.
func (g *GroupSettings) Types() []string {
	if g.AllowedTypes == "" {
		return nil
	}
	return strings.Split(g.AllowedTypes, ",")
}

// AddType appends an activity type if not already present. Returns
// false when it was already allowed.
func (g *GroupSettings) AddType(t string) bool {
	for _, existing := range g.Types() {
		if existing == t {
			return false
		}
	}
	if g.AllowedTypes == "" {
		g.AllowedTypes = t
	} else {
		g.AllowedTypes += "," + t
	}
	return true
}
