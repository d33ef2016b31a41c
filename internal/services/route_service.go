package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"strava-club/internal/maps"
	"strava-club/internal/models"
	"strava-club/internal/platform"
)

// RouteService stores user-promoted routes and posts bucketed route
// recommendations with a composite map.
type RouteService struct {
	db       *gorm.DB
	chat     platform.Chat
	renderer *maps.Renderer
	now      func() time.Time
}

func NewRouteService(db *gorm.DB, chat platform.Chat, renderer *maps.Renderer) *RouteService {
	return &RouteService{db: db, chat: chat, renderer: renderer, now: time.Now}
}

// AddRoute promotes a stored activity into the guild's route catalog.
func (s *RouteService) AddRoute(guildID string, activityID int64, name, comments string, public bool) error {
	var act models.Activity
	if err := s.db.First(&act, "activity_id = ?", activityID).Error; err != nil {
		return fmt.Errorf("activity %d is not stored: %w", activityID, err)
	}

	route := models.Route{
		RouteID:       activityID,
		Name:          name,
		Type:          act.Type,
		Distance:      act.Distance,
		AverageTime:   act.MovingTime,
		ElevationGain: act.ElevationGain,
		Polyline:      act.Polyline,
		Comments:      comments,
		GuildID:       guildID,
		Public:        public,
	}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&route).Error
}

// pickRoute returns one random route of the guild within the distance
// range, or nil when the bucket is empty. max <= 0 means unbounded.
func (s *RouteService) pickRoute(guildID string, min, max float64) (*models.Route, error) {
	q := s.db.Where("guild_id = ? AND distance >= ?", guildID, min)
	if max > 0 {
		q = q.Where("distance <= ?", max)
	}
	var routes []models.Route
	if err := q.Find(&routes).Error; err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, nil
	}
	return &routes[rand.Intn(len(routes))], nil
}

// RecommendAndPost selects one route per distance bucket, renders all
// of them on a single colored composite map, and posts the embed.
func (s *RouteService) RecommendAndPost(ctx context.Context, guildID, channelID string) error {
	buckets := []struct {
		min, max float64
	}{
		{0, models.ShortRouteMax},
		{models.ShortRouteMax, models.MediumRouteMax},
		{models.MediumRouteMax, 0},
	}

	var picks []models.Route
	for _, b := range buckets {
		route, err := s.pickRoute(guildID, b.min, b.max)
		if err != nil {
			return fmt.Errorf("failed to load routes for guild %s: %w", guildID, err)
		}
		if route != nil {
			picks = append(picks, *route)
		}
	}

	if len(picks) == 0 {
		if _, err := s.chat.SendText(channelID, "No saved routes."); err != nil {
			return err
		}
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Recommended Routes",
		Description: s.now().Format("1/2"),
		Color:       embedColor,
	}
	var paths []maps.Path
	for i, route := range picks {
		paths = append(paths, maps.Path{
			Polyline: route.Polyline,
			Color:    maps.PathColors[i%len(maps.PathColors)],
		})
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   route.Name,
			Value:  fmt.Sprintf("%.2f mi", metersToMiles(route.Distance)),
			Inline: true,
		})
	}

	image, err := s.renderer.Render(ctx, paths, maps.DefaultSize)
	if err != nil {
		log.Printf("failed to render route map for guild %s: %v", guildID, err)
		_, err = s.chat.SendEmbed(channelID, embed)
		return err
	}

	filename := fmt.Sprintf("routes_%s.png", uuid.NewString())
	embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + filename}
	_, err = s.chat.SendEmbedWithFile(channelID, embed, filename, bytes.NewReader(image))
	return err
}
