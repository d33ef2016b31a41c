package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"strava-club/internal/models"
)

// ErrNoAllowedTypes is returned when a guild has no allowed activity
// types configured; aggregation is skipped rather than producing
// misleading zero stats.
var ErrNoAllowedTypes = errors.New("no allowed activity types configured")

// StatsService recomputes the per-(user, guild) monthly rollups from
// stored activities.
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

// Recompute deletes every stat row for the guild and rebuilds them from
// the current month's activities of the allowed types. The delete and
// the inserts share one transaction so readers never observe a mix of
// old and new rows.
func (s *StatsService) Recompute(guildID string) error {
	var settings models.GroupSettings
	if err := s.db.First(&settings, "guild_id = ?", guildID).Error; err != nil {
		return fmt.Errorf("failed to load settings for guild %s: %w", guildID, err)
	}
	allowed := settings.Types()
	if len(allowed) == 0 {
		return ErrNoAllowedTypes
	}

	var members []models.Membership
	if err := s.db.Where("guild_id = ?", guildID).Find(&members).Error; err != nil {
		return fmt.Errorf("failed to load members for guild %s: %w", guildID, err)
	}

	now := s.now()
	month, year := int(now.Month()), now.Year()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guild_id = ?", guildID).Delete(&models.UserGroupStat{}).Error; err != nil {
			return err
		}
		for _, m := range members {
			var activities []models.Activity
			if err := tx.Where("user_id = ? AND month = ? AND year = ? AND type IN ?",
				m.UserID, month, year, allowed).Find(&activities).Error; err != nil {
				return err
			}

			stat := models.UserGroupStat{UserID: m.UserID, GuildID: guildID}
			days := make(map[int]struct{})
			for _, a := range activities {
				stat.Distance += a.Distance
				stat.MovingTime += a.MovingTime
				stat.Elevation += a.ElevationGain
				days[a.Day] = struct{}{}
			}
			stat.ActiveDays = len(days)

			if err := tx.Create(&stat).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
