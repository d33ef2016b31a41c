package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math/rand"

	"gorm.io/gorm"

	"strava-club/internal/maps"
	"strava-club/internal/models"
	"strava-club/internal/platform"
)

// ShowcaseService posts activity embeds with rendered maps: the random
// same-day showcase and the on-demand show-activity command.
type ShowcaseService struct {
	db       *gorm.DB
	chat     platform.Chat
	renderer *maps.Renderer
}

func NewShowcaseService(db *gorm.DB, chat platform.Chat, renderer *maps.Renderer) *ShowcaseService {
	return &ShowcaseService{db: db, chat: chat, renderer: renderer}
}

// PostRandom picks a random DailyActivity for the guild, posts it, and
// deletes the projection row so each activity is showcased at most once.
func (s *ShowcaseService) PostRandom(ctx context.Context, guildID, channelID string) error {
	var dailies []models.DailyActivity
	if err := s.db.Where("guild_id = ?", guildID).Find(&dailies).Error; err != nil {
		return fmt.Errorf("failed to load daily activities for guild %s: %w", guildID, err)
	}
	if len(dailies) == 0 {
		if _, err := s.chat.SendText(channelID, "No daily activities."); err != nil {
			return err
		}
		return nil
	}

	pick := dailies[rand.Intn(len(dailies))]
	if err := s.PostActivity(ctx, channelID, pick.ActivityID); err != nil {
		return err
	}

	return s.db.Where("activity_id = ? AND guild_id = ?", pick.ActivityID, guildID).
		Delete(&models.DailyActivity{}).Error
}

// PostActivity posts the embed for one stored activity, with its map
// attached when the activity has a recorded path. A map-rendering
// failure degrades to an embed without the image.
func (s *ShowcaseService) PostActivity(ctx context.Context, channelID string, activityID int64) error {
	var act models.Activity
	if err := s.db.First(&act, "activity_id = ?", activityID).Error; err != nil {
		return fmt.Errorf("activity %d is not stored: %w", activityID, err)
	}

	name, avatar, err := s.chat.UserProfile(act.UserID)
	if err != nil {
		log.Printf("failed to resolve profile for user %s: %v", act.UserID, err)
		name, avatar = act.UserID, ""
	}

	var image []byte
	filename := ""
	if act.Polyline != "" {
		image, err = s.renderer.Render(ctx, []maps.Path{{Polyline: act.Polyline}}, maps.DefaultSize)
		if err != nil {
			log.Printf("failed to render map for activity %d: %v", act.ActivityID, err)
			image = nil
		} else {
			filename = fmt.Sprintf("activity_%d.png", act.ActivityID)
		}
	}

	embed := activityEmbed(&act, name, avatar, filename)
	if image != nil {
		_, err = s.chat.SendEmbedWithFile(channelID, embed, filename, bytes.NewReader(image))
	} else {
		_, err = s.chat.SendEmbed(channelID, embed)
	}
	if err != nil {
		return fmt.Errorf("failed to post activity %d: %w", act.ActivityID, err)
	}
	return nil
}
