package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"strava-club/internal/models"
)

// SettingsService owns the GroupSettings table. Every write validates
// its input, so no out-of-range frequency or unknown activity type
// ever reaches the store.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) Get(guildID string) (*models.GroupSettings, error) {
	var settings models.GroupSettings
	err := s.db.First(&settings, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.GroupSettings{GuildID: guildID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *SettingsService) save(settings *models.GroupSettings) error {
	return s.db.Save(settings).Error
}

// AddType allows an activity type for the guild. The type must come
// from the closed valid set; re-adding an allowed type is a no-op.
func (s *SettingsService) AddType(guildID, activityType string) error {
	if !models.IsValidActivityType(activityType) {
		return fmt.Errorf("invalid activity type %q", activityType)
	}
	settings, err := s.Get(guildID)
	if err != nil {
		return err
	}
	if !settings.AddType(activityType) {
		return nil
	}
	return s.save(settings)
}

func (s *SettingsService) SetLeaderboardChannel(guildID, channelID string) error {
	return s.update(guildID, func(g *models.GroupSettings) { g.LeaderboardChannel = channelID })
}

func (s *SettingsService) SetShowcaseChannel(guildID, channelID string) error {
	return s.update(guildID, func(g *models.GroupSettings) { g.ShowcaseChannel = channelID })
}

func (s *SettingsService) SetRecommendationChannel(guildID, channelID string) error {
	return s.update(guildID, func(g *models.GroupSettings) { g.RecommendationChannel = channelID })
}

func (s *SettingsService) update(guildID string, mutate func(*models.GroupSettings)) error {
	settings, err := s.Get(guildID)
	if err != nil {
		return err
	}
	mutate(settings)
	return s.save(settings)
}

// SetCenter stores the guild's "lat,lon" center after range checks.
func (s *SettingsService) SetCenter(guildID, latLon string) error {
	parts := strings.Split(latLon, ",")
	if len(parts) != 2 {
		return fmt.Errorf("expected \"lat,lon\", got %q", latLon)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("lat/lon out of range: %s", latLon)
	}
	return s.update(guildID, func(g *models.GroupSettings) { g.LatLonCenter = strings.TrimSpace(latLon) })
}

// SetFrequencies stores the four posting/update frequencies. Each must
// be an hour count in [1,24].
func (s *SettingsService) SetFrequencies(guildID string, leaderboard, showcase, recommendation, ingestion int) error {
	for _, f := range []int{leaderboard, showcase, recommendation, ingestion} {
		if f < 1 || f > 24 {
			return fmt.Errorf("frequency %d not in range [1,24]", f)
		}
	}
	return s.update(guildID, func(g *models.GroupSettings) {
		g.LeaderboardFreq = leaderboard
		g.ShowcaseFreq = showcase
		g.RecommendationFreq = recommendation
		g.IngestionFreq = ingestion
	})
}
