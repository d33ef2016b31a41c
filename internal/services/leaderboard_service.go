package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"strava-club/internal/models"
	"strava-club/internal/platform"
)

// ErrNoStats is returned when a guild has nothing to rank.
var ErrNoStats = errors.New("no stats for guild")

// Reaction emojis that re-sort a posted leaderboard.
const (
	emojiDistance = "🏃"
	emojiTime     = "⏱️"
	emojiElev     = "⛰️"
	emojiDays     = "📅"
)

var sortEmojis = []string{emojiDistance, emojiTime, emojiElev, emojiDays}

func metricForEmoji(emoji string) (Metric, bool) {
	switch emoji {
	case emojiDistance:
		return MetricDistance, true
	case emojiTime:
		return MetricTime, true
	case emojiElev:
		return MetricElevation, true
	case emojiDays:
		return MetricDays, true
	}
	return 0, false
}

// LeaderboardRow is one ranked entry. All four metric values are
// carried so a posted board can be re-sorted without re-querying.
type LeaderboardRow struct {
	Rank       int
	UserID     string
	Name       string
	Distance   float64
	MovingTime int
	Elevation  float64
	ActiveDays int
}

// postedBoard is the state of one leaderboard message: which guild it
// ranks and which metric it currently shows. The only transition is a
// qualifying reaction, which rebuilds and edits the message in place.
type postedBoard struct {
	guildID   string
	channelID string
	metric    Metric
}

// LeaderboardService builds ranked monthly tables and drives the
// reaction-based re-sort of posted boards.
type LeaderboardService struct {
	db   *gorm.DB
	chat platform.Chat
	now  func() time.Time

	mu     sync.Mutex
	posted map[string]*postedBoard // message id -> state
}

func NewLeaderboardService(db *gorm.DB, chat platform.Chat) *LeaderboardService {
	return &LeaderboardService{
		db:     db,
		chat:   chat,
		now:    time.Now,
		posted: make(map[string]*postedBoard),
	}
}

// Build returns the guild's stats ranked descending by the metric.
// The sort is stable: equal values keep the store's enumeration order.
func (s *LeaderboardService) Build(guildID string, metric Metric) ([]LeaderboardRow, error) {
	var stats []models.UserGroupStat
	if err := s.db.Where("guild_id = ?", guildID).Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to load stats for guild %s: %w", guildID, err)
	}
	if len(stats) == 0 {
		return nil, ErrNoStats
	}

	var members []models.Membership
	if err := s.db.Where("guild_id = ?", guildID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to load members for guild %s: %w", guildID, err)
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.DisplayName
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return statValue(stats[i], metric) > statValue(stats[j], metric)
	})

	rows := make([]LeaderboardRow, 0, len(stats))
	for i, st := range stats {
		name := names[st.UserID]
		if name == "" {
			name = st.UserID
		}
		rows = append(rows, LeaderboardRow{
			Rank:       i + 1,
			UserID:     st.UserID,
			Name:       name,
			Distance:   st.Distance,
			MovingTime: st.MovingTime,
			Elevation:  st.Elevation,
			ActiveDays: st.ActiveDays,
		})
	}
	return rows, nil
}

// Post builds a distance-sorted leaderboard, sends it to the channel,
// seeds the sort reactions, and registers the message for re-sorting.
func (s *LeaderboardService) Post(guildID, channelID string) error {
	rows, err := s.Build(guildID, MetricDistance)
	if err != nil {
		return err
	}

	msgID, err := s.chat.SendEmbed(channelID, leaderboardEmbed(rows, MetricDistance, s.now()))
	if err != nil {
		return fmt.Errorf("failed to post leaderboard for guild %s: %w", guildID, err)
	}
	for _, emoji := range sortEmojis {
		if err := s.chat.AddReaction(channelID, msgID, emoji); err != nil {
			log.Printf("failed to seed reaction %s on leaderboard %s: %v", emoji, msgID, err)
		}
	}

	s.mu.Lock()
	s.posted[msgID] = &postedBoard{guildID: guildID, channelID: channelID, metric: MetricDistance}
	s.mu.Unlock()
	return nil
}

// HandleReaction processes one reaction-add event. Reactions from the
// bot itself, on unknown messages, or with non-qualifying emojis do
// nothing (the user's reaction is still cleared on known messages so
// the board stays usable).
func (s *LeaderboardService) HandleReaction(channelID, messageID, userID, emoji string) {
	if userID == s.chat.BotUserID() {
		return
	}

	s.mu.Lock()
	board, ok := s.posted[messageID]
	s.mu.Unlock()
	if !ok {
		return
	}

	if err := s.chat.RemoveReaction(channelID, messageID, emoji, userID); err != nil {
		log.Printf("failed to clear reaction on leaderboard %s: %v", messageID, err)
	}

	metric, ok := metricForEmoji(emoji)
	if !ok {
		return
	}

	rows, err := s.Build(board.guildID, metric)
	if err != nil {
		log.Printf("failed to rebuild leaderboard for guild %s: %v", board.guildID, err)
		return
	}
	if err := s.chat.EditEmbed(channelID, messageID, leaderboardEmbed(rows, metric, s.now())); err != nil {
		log.Printf("failed to edit leaderboard %s: %v", messageID, err)
		return
	}

	s.mu.Lock()
	board.metric = metric
	s.mu.Unlock()
}

// PostActivityList posts one user's recent activities as an embed.
func (s *LeaderboardService) PostActivityList(channelID, displayName string, acts []models.Activity) error {
	_, err := s.chat.SendEmbed(channelID, activityListEmbed(displayName, acts))
	return err
}

// PostedMetric reports the metric a posted board currently shows.
func (s *LeaderboardService) PostedMetric(messageID string) (Metric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.posted[messageID]
	if !ok {
		return 0, false
	}
	return board.metric, true
}
