package handlers

import (
	"github.com/bwmarrin/discordgo"

	"strava-club/internal/services"
)

// ReactionHandler forwards reaction-add events to the leaderboard
// re-sort machinery.
type ReactionHandler struct {
	leaderboard *services.LeaderboardService
}

func NewReactionHandler(leaderboard *services.LeaderboardService) *ReactionHandler {
	return &ReactionHandler{leaderboard: leaderboard}
}

func (h *ReactionHandler) HandleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" {
		return
	}
	h.leaderboard.HandleReaction(r.ChannelID, r.MessageID, r.UserID, r.Emoji.Name)
}
