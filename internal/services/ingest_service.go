package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"strava-club/internal/models"
	"strava-club/internal/strava"
)

// IngestService pulls recent activities from the provider and persists
// new ones, deriving the local-date fields and same-day projections.
type IngestService struct {
	db     *gorm.DB
	strava *strava.Client
	now    func() time.Time
}

func NewIngestService(db *gorm.DB, client *strava.Client) *IngestService {
	return &IngestService{db: db, strava: client, now: time.Now}
}

func parseStartDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05Z", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err
}

// Ingest fetches up to maxCount recent activities for the user and
// stores the ones not seen before. Activities already stored are
// skipped, so calling this twice is a no-op the second time.
func (s *IngestService) Ingest(ctx context.Context, userID string, maxCount int) (int, error) {
	var cred models.Credential
	if err := s.db.First(&cred, "user_id = ?", userID).Error; err != nil {
		return 0, fmt.Errorf("no credential for user %s: %w", userID, err)
	}

	activities, err := s.strava.Activities(ctx, cred.AccessToken, maxCount, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch activities for user %s: %w", userID, err)
	}

	today := s.now()
	added := 0
	for _, a := range activities {
		start, err := parseStartDate(a.StartDateLocal)
		if err != nil {
			log.Printf("skipping activity %d with unparseable start date %q: %v", a.ID, a.StartDateLocal, err)
			continue
		}

		var existing int64
		if err := s.db.Model(&models.Activity{}).Where("activity_id = ?", a.ID).Count(&existing).Error; err != nil {
			log.Printf("failed to check activity %d: %v", a.ID, err)
			continue
		}
		if existing > 0 {
			continue
		}

		record := models.Activity{
			ActivityID:     a.ID,
			UserID:         userID,
			Name:           a.Name,
			Distance:       a.Distance,
			MovingTime:     a.MovingTime,
			ElevationGain:  a.TotalElevationGain,
			Type:           a.Type,
			StartDateLocal: a.StartDateLocal,
			Polyline:       a.Map.SummaryPolyline,
			Day:            start.Day(),
			Month:          int(start.Month()),
			Year:           start.Year(),
		}
		if err := s.db.Create(&record).Error; err != nil {
			log.Printf("failed to store activity %d: %v", a.ID, err)
			continue
		}
		added++

		if start.Day() == today.Day() && start.Month() == today.Month() && start.Year() == today.Year() {
			s.projectDaily(&record)
		}
	}
	return added, nil
}

// projectDaily creates a DailyActivity row for every guild the user
// belongs to.
func (s *IngestService) projectDaily(act *models.Activity) {
	var memberships []models.Membership
	if err := s.db.Where("user_id = ?", act.UserID).Find(&memberships).Error; err != nil {
		log.Printf("failed to load memberships for user %s: %v", act.UserID, err)
		return
	}
	for _, m := range memberships {
		daily := models.DailyActivity{
			ActivityID:    act.ActivityID,
			GuildID:       m.GuildID,
			UserID:        act.UserID,
			Name:          act.Name,
			Distance:      act.Distance,
			MovingTime:    act.MovingTime,
			ElevationGain: act.ElevationGain,
			Type:          act.Type,
		}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&daily).Error; err != nil {
			log.Printf("failed to store daily activity %d for guild %s: %v", act.ActivityID, m.GuildID, err)
		}
	}
}

// RecentActivities returns the user's most recently started stored
// activities, newest first.
func (s *IngestService) RecentActivities(userID string, limit int) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.Where("user_id = ?", userID).
		Order("activity_id DESC").Limit(limit).Find(&activities).Error
	return activities, err
}

// IngestGroup runs Ingest for every authorized member of the guild. A
// provider failure for one user is logged and never stops the rest of
// the batch.
func (s *IngestService) IngestGroup(ctx context.Context, guildID string, maxCount int) {
	var members []models.Membership
	if err := s.db.Where("guild_id = ?", guildID).Find(&members).Error; err != nil {
		log.Printf("failed to load members for guild %s: %v", guildID, err)
		return
	}
	for _, m := range members {
		if _, err := s.Ingest(ctx, m.UserID, maxCount); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			log.Printf("ingestion failed for user %s in guild %s: %v", m.UserID, guildID, err)
		}
	}
}
