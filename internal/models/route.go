package models

// Route distance buckets, meters. A route shorter than ShortRouteMax is
// "short", longer than MediumRouteMax is "long", anything between is
// "medium".
const (
	ShortRouteMax  = 4887.0
	MediumRouteMax = 8045.0
)

// Route is a saved course promoted from a stored activity. Read-only
// after creation; bucketed by distance at read time.
type Route struct {
	RouteID       int64 `gorm:"primaryKey"` // id of the activity it was created from
	Name          string
	Type          string
	Distance      float64 // meters
	AverageTime   int     // seconds
	ElevationGain float64 // meters
	Polyline      string
	Comments      string
	GuildID       string `gorm:"index"`
	Public        bool   `gorm:"not null;default:false"`
}

// Bucket returns the distance category of the route.
func (r *Route) Bucket() string {
	switch {
	case r.Distance < ShortRouteMax:
		return "short"
	case r.Distance > MediumRouteMax:
		return "long"
	default:
		return "medium"
	}
}
