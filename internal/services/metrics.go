package services

import "strava-club/internal/models"

// Metric identifies one of the four aggregated statistics a guild
// ranks and tiers its members by.
type Metric int

const (
	MetricDistance Metric = iota
	MetricTime
	MetricElevation
	MetricDays
)

func (m Metric) String() string {
	switch m {
	case MetricDistance:
		return "dist"
	case MetricTime:
		return "time"
	case MetricElevation:
		return "elev"
	case MetricDays:
		return "days"
	}
	return "unknown"
}

func statValue(st models.UserGroupStat, m Metric) float64 {
	switch m {
	case MetricDistance:
		return st.Distance
	case MetricTime:
		return float64(st.MovingTime)
	case MetricElevation:
		return st.Elevation
	case MetricDays:
		return float64(st.ActiveDays)
	}
	return 0
}
