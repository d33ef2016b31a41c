package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"strava-club/internal/platform"
	"strava-club/internal/services"
)

const (
	reactionOK   = "✅"
	reactionFail = "❌"
)

// CommandHandler dispatches prefixed guild commands to the services.
type CommandHandler struct {
	chat   platform.Chat
	prefix string

	auth        *services.AuthService
	tokens      *services.TokenService
	ingest      *services.IngestService
	stats       *services.StatsService
	roles       *services.RoleService
	leaderboard *services.LeaderboardService
	showcase    *services.ShowcaseService
	routes      *services.RouteService
	settings    *services.SettingsService

	maxActivities int
}

func NewCommandHandler(
	chat platform.Chat,
	prefix string,
	auth *services.AuthService,
	tokens *services.TokenService,
	ingest *services.IngestService,
	stats *services.StatsService,
	roles *services.RoleService,
	leaderboard *services.LeaderboardService,
	showcase *services.ShowcaseService,
	routes *services.RouteService,
	settings *services.SettingsService,
	maxActivities int,
) *CommandHandler {
	return &CommandHandler{
		chat:          chat,
		prefix:        prefix,
		auth:          auth,
		tokens:        tokens,
		ingest:        ingest,
		stats:         stats,
		roles:         roles,
		leaderboard:   leaderboard,
		showcase:      showcase,
		routes:        routes,
		settings:      settings,
		maxActivities: maxActivities,
	}
}

func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

func isAdmin(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if s == nil {
		return true
	}
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		log.Printf("failed to resolve permissions for user %s: %v", m.Author.ID, err)
		return false
	}
	return perms&discordgo.PermissionManageChannels != 0
}

// HandleMessageCreate is registered on the gateway for message-create
// events.
func (h *CommandHandler) HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == h.chat.BotUserID() {
		return
	}

	// A pending authorization flow may be waiting for this message.
	if h.auth.Resume(m.ChannelID, m.Author.ID, m.Content) {
		return
	}

	if m.GuildID == "" || !strings.HasPrefix(m.Content, h.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(m.Content, h.prefix))
	if len(fields) == 0 {
		return
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help":
		h.handleHelp(m)
	case "authorize":
		h.auth.Start(m.GuildID, m.ChannelID, m.Author.ID, displayName(m))
	case "unauthorize":
		h.handleUnauthorize(m)
	case "leaderboard":
		if err := h.leaderboard.Post(m.GuildID, m.ChannelID); err != nil {
			log.Printf("leaderboard command failed in guild %s: %v", m.GuildID, err)
			h.chat.SendText(m.ChannelID, "Could not build the leaderboard.")
		}
	case "myactivities", "ma":
		h.handleMyActivities(m)
	case "showactivity", "sa":
		h.handleShowActivity(m, args)
	case "updateactivities", "ua":
		if isAdmin(s, m) {
			h.handleUpdate(m)
		}
	case "dailyrunningshowcase", "drs":
		if isAdmin(s, m) {
			if err := h.showcase.PostRandom(context.Background(), m.GuildID, m.ChannelID); err != nil {
				log.Printf("showcase command failed in guild %s: %v", m.GuildID, err)
			}
		}
	case "dailyrecommendedroutes", "rec":
		if isAdmin(s, m) {
			if err := h.routes.RecommendAndPost(context.Background(), m.GuildID, m.ChannelID); err != nil {
				log.Printf("recommendation command failed in guild %s: %v", m.GuildID, err)
			}
		}
	case "addroute":
		if isAdmin(s, m) {
			h.handleAddRoute(m, args)
		}
	case "addtype":
		if isAdmin(s, m) {
			h.acknowledge(m, h.settings.AddType(m.GuildID, strings.Join(args, " ")))
		}
	case "setleaderboard", "set-l":
		if isAdmin(s, m) {
			h.acknowledge(m, h.settings.SetLeaderboardChannel(m.GuildID, m.ChannelID))
		}
	case "setshowcase", "set-s":
		if isAdmin(s, m) {
			h.acknowledge(m, h.settings.SetShowcaseChannel(m.GuildID, m.ChannelID))
		}
	case "setrecommended", "set-r":
		if isAdmin(s, m) {
			h.acknowledge(m, h.settings.SetRecommendationChannel(m.GuildID, m.ChannelID))
		}
	case "center":
		if isAdmin(s, m) {
			h.acknowledge(m, h.settings.SetCenter(m.GuildID, strings.Join(args, "")))
		}
	case "frequency", "freq":
		if isAdmin(s, m) {
			h.handleFrequency(m, args)
		}
	}
}

// acknowledge reacts to the command message, ✅ on success and ❌ with
// the reason on failure.
func (h *CommandHandler) acknowledge(m *discordgo.MessageCreate, err error) {
	if err != nil {
		h.chat.AddReaction(m.ChannelID, m.ID, reactionFail)
		h.chat.SendText(m.ChannelID, err.Error())
		return
	}
	h.chat.AddReaction(m.ChannelID, m.ID, reactionOK)
}

func (h *CommandHandler) handleUnauthorize(m *discordgo.MessageCreate) {
	if err := h.tokens.Unauthorize(m.Author.ID); err != nil {
		log.Printf("unauthorize failed for user %s: %v", m.Author.ID, err)
		h.chat.SendText(m.ChannelID, "Could not unauthorize, please try again.")
		return
	}
	h.auth.Unauthorized(m.GuildID, m.Author.ID)
	h.chat.SendText(m.ChannelID, "Unauthorized user: "+displayName(m))
}

func (h *CommandHandler) handleMyActivities(m *discordgo.MessageCreate) {
	activities, err := h.ingest.RecentActivities(m.Author.ID, 8)
	if err != nil || len(activities) == 0 {
		h.chat.SendText(m.ChannelID, "No stored activities for "+displayName(m))
		return
	}
	if err := h.leaderboard.PostActivityList(m.ChannelID, displayName(m), activities); err != nil {
		log.Printf("myactivities failed for user %s: %v", m.Author.ID, err)
	}
}

func (h *CommandHandler) handleShowActivity(m *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		h.chat.SendText(m.ChannelID, "Usage: showActivity <activity id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.chat.SendText(m.ChannelID, "Not a valid activity id, please try again.")
		return
	}
	if err := h.showcase.PostActivity(context.Background(), m.ChannelID, id); err != nil {
		log.Printf("showactivity %d failed: %v", id, err)
		h.chat.SendText(m.ChannelID, "Not a valid activity id, please try again.")
	}
}

func (h *CommandHandler) handleUpdate(m *discordgo.MessageCreate) {
	h.ingest.IngestGroup(context.Background(), m.GuildID, h.maxActivities)
	if err := h.stats.Recompute(m.GuildID); err != nil {
		log.Printf("recompute failed for guild %s: %v", m.GuildID, err)
		h.acknowledge(m, err)
		return
	}
	if err := h.roles.Reconcile(m.GuildID); err != nil {
		log.Printf("role reconciliation failed for guild %s: %v", m.GuildID, err)
	}
	h.acknowledge(m, nil)
}

// handleAddRoute expects "<activity id>//<route name>//<comments>".
func (h *CommandHandler) handleAddRoute(m *discordgo.MessageCreate, args []string) {
	parts := strings.SplitN(strings.Join(args, " "), "//", 3)
	if len(parts) != 3 {
		h.chat.SendText(m.ChannelID, "Expected 3 inputs separated by \"//\"")
		h.chat.AddReaction(m.ChannelID, m.ID, reactionFail)
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		h.chat.SendText(m.ChannelID, "activity id must be a number")
		h.chat.AddReaction(m.ChannelID, m.ID, reactionFail)
		return
	}
	h.acknowledge(m, h.routes.AddRoute(m.GuildID, id, strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), false))
}

func (h *CommandHandler) handleFrequency(m *discordgo.MessageCreate, args []string) {
	parts := strings.Split(strings.Join(args, ""), ",")
	if len(parts) != 4 {
		h.chat.SendText(m.ChannelID, "Expected 4 frequencies: <leaderboard>,<showcase>,<recommended>,<update>")
		return
	}
	values := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			h.chat.SendText(m.ChannelID, "Frequencies must be whole hours.")
			return
		}
		values[i] = v
	}
	h.acknowledge(m, h.settings.SetFrequencies(m.GuildID, values[0], values[1], values[2], values[3]))
}

func (h *CommandHandler) handleHelp(m *discordgo.MessageCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       "Help",
		Description: fmt.Sprintf("A few commands to get you started\nPrefix is %q", strings.TrimSpace(h.prefix)),
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "authorize", Value: "authorizes the bot to access your Strava activities"},
			{Name: "unauthorize", Value: "removes bot access to your Strava activities"},
			{Name: "myActivities", Value: "shows your most recent activities (alias \"ma\")"},
			{Name: "showActivity", Value: "shows a map and stats for one activity (alias \"sa\")"},
			{Name: "leaderboard", Value: "posts the monthly leaderboard"},
			{Name: "updateActivities", Value: "(Admin) syncs activities for all authorized users (alias \"ua\")"},
			{Name: "dailyRunningShowcase", Value: "(Admin) showcases one of today's activities (alias \"drs\")"},
			{Name: "dailyRecommendedRoutes", Value: "(Admin) posts recommended routes (alias \"rec\")"},
			{Name: "addRoute", Value: "(Admin) saves an activity as a route: <id>//<name>//<comments>"},
			{Name: "addType", Value: "(Admin) adds an activity type counted for stats"},
			{Name: "setLeaderboard / setShowcase / setRecommended", Value: "(Admin) makes this channel the recurring post target"},
			{Name: "center", Value: "(Admin) sets the club center as <lat,lon>"},
			{Name: "frequency", Value: "(Admin) sets posting/update frequencies in hours (alias \"freq\")"},
		},
	}
	if _, err := h.chat.SendEmbed(m.ChannelID, embed); err != nil {
		log.Printf("help command failed: %v", err)
	}
}
