package handlers

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"strava-club/internal/maps"
	"strava-club/internal/models"
	"strava-club/internal/platform/platformtest"
	"strava-club/internal/services"
	"strava-club/internal/strava"
)

func newHandlerFixture(t *testing.T) (*CommandHandler, *gorm.DB, *platformtest.FakeChat) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	chat := platformtest.NewFakeChat()
	client := strava.NewClient("id", "secret")
	renderer := maps.NewRenderer("key")

	tokens := services.NewTokenService(db, client)
	ingest := services.NewIngestService(db, client)
	stats := services.NewStatsService(db)
	roles := services.NewRoleService(db, chat)
	leaderboard := services.NewLeaderboardService(db, chat)
	showcase := services.NewShowcaseService(db, chat, renderer)
	routes := services.NewRouteService(db, chat, renderer)
	settings := services.NewSettingsService(db)
	auth := services.NewAuthService(db, client, chat, "https://localhost/exchange_token")

	h := NewCommandHandler(chat, "$strava ",
		auth, tokens, ingest, stats, roles, leaderboard, showcase, routes, settings, 30)
	return h, db, chat
}

func guildMsg(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "cmd-msg",
		Content:   content,
		ChannelID: "chan-1",
		GuildID:   "g1",
		Author:    &discordgo.User{ID: "u1", Username: "alice"},
	}}
}

func lastReaction(t *testing.T, chat *platformtest.FakeChat) string {
	t.Helper()
	require.NotEmpty(t, chat.Reactions)
	return chat.Reactions[len(chat.Reactions)-1].Emoji
}

func TestIgnoresNonPrefixedMessages(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("hello everyone"))
	assert.Empty(t, chat.Messages)
	assert.Empty(t, chat.Reactions)
}

func TestIgnoresBotMessages(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	m := guildMsg("$strava help")
	m.Author.Bot = true
	h.HandleMessageCreate(nil, m)
	assert.Empty(t, chat.Messages)
}

func TestIgnoresDirectMessageCommands(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	m := guildMsg("$strava help")
	m.GuildID = ""
	h.HandleMessageCreate(nil, m)
	assert.Empty(t, chat.Messages)
}

func TestHelpPostsEmbed(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava help"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Help", msgs[0].Embed.Title)
}

func TestCommandsAreCaseInsensitive(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava HELP"))
	require.Len(t, chat.MessagesTo("chan-1"), 1)
}

func TestAddTypeValid(t *testing.T) {
	h, db, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava addtype Run"))
	h.HandleMessageCreate(nil, guildMsg("$strava addtype E-Bike Ride"))

	var settings models.GroupSettings
	require.NoError(t, db.First(&settings, "guild_id = ?", "g1").Error)
	assert.Equal(t, []string{"Run", "E-Bike Ride"}, settings.Types())
	assert.Equal(t, "✅", lastReaction(t, chat))
}

func TestAddTypeInvalid(t *testing.T) {
	h, db, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava addtype Quidditch"))

	assert.Equal(t, "❌", lastReaction(t, chat))
	var n int64
	require.NoError(t, db.Model(&models.GroupSettings{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFrequencyCommand(t *testing.T) {
	h, db, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava frequency 6,12,24,1"))

	var settings models.GroupSettings
	require.NoError(t, db.First(&settings, "guild_id = ?", "g1").Error)
	assert.Equal(t, 6, settings.LeaderboardFreq)
	assert.Equal(t, 12, settings.ShowcaseFreq)
	assert.Equal(t, 24, settings.RecommendationFreq)
	assert.Equal(t, 1, settings.IngestionFreq)
	assert.Equal(t, "✅", lastReaction(t, chat))
}

func TestFrequencyCommandWrongCount(t *testing.T) {
	h, db, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava freq 6,12"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "Expected 4 frequencies")
	var n int64
	require.NoError(t, db.Model(&models.GroupSettings{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSetChannelCommands(t *testing.T) {
	h, db, _ := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava setleaderboard"))
	h.HandleMessageCreate(nil, guildMsg("$strava set-s"))

	var settings models.GroupSettings
	require.NoError(t, db.First(&settings, "guild_id = ?", "g1").Error)
	assert.Equal(t, "chan-1", settings.LeaderboardChannel)
	assert.Equal(t, "chan-1", settings.ShowcaseChannel)
}

func TestCenterCommand(t *testing.T) {
	h, db, _ := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava center 40.44, -79.94"))

	var settings models.GroupSettings
	require.NoError(t, db.First(&settings, "guild_id = ?", "g1").Error)
	assert.Equal(t, "40.44,-79.94", settings.LatLonCenter)
}

func TestAddRouteParsesSeparator(t *testing.T) {
	h, db, chat := newHandlerFixture(t)
	require.NoError(t, db.Create(&models.Activity{
		ActivityID: 7, UserID: "u1", Type: "Run", Distance: 6000, Polyline: "p",
	}).Error)

	h.HandleMessageCreate(nil, guildMsg("$strava addroute 7 // River Loop // muddy after rain"))

	var route models.Route
	require.NoError(t, db.First(&route, "route_id = ?", 7).Error)
	assert.Equal(t, "River Loop", route.Name)
	assert.Equal(t, "muddy after rain", route.Comments)
	assert.Equal(t, "✅", lastReaction(t, chat))
}

func TestAddRouteBadInput(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava addroute just one part"))
	assert.Equal(t, "❌", lastReaction(t, chat))

	h.HandleMessageCreate(nil, guildMsg("$strava addroute abc // name // comment"))
	assert.Equal(t, "❌", lastReaction(t, chat))
}

func TestShowActivityBadID(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava showactivity abc"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "Not a valid activity id")
}

func TestMyActivitiesEmpty(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava myactivities"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "No stored activities")
}

func TestMyActivitiesListsStored(t *testing.T) {
	h, db, chat := newHandlerFixture(t)
	require.NoError(t, db.Create(&models.Activity{
		ActivityID: 7, UserID: "u1", Name: "Evening Run", Type: "Run", Distance: 5000,
	}).Error)

	h.HandleMessageCreate(nil, guildMsg("$strava ma"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice's Activities", msgs[0].Embed.Title)
}

func TestLeaderboardCommandNoStats(t *testing.T) {
	h, _, chat := newHandlerFixture(t)
	h.HandleMessageCreate(nil, guildMsg("$strava leaderboard"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "Could not build the leaderboard")
}

func TestUnauthorizeRemovesUserData(t *testing.T) {
	h, db, chat := newHandlerFixture(t)
	require.NoError(t, db.Create(&models.Credential{
		UserID: "u1", AccessToken: "at", RefreshToken: "rt", ExpiresAt: 1,
	}).Error)
	require.NoError(t, db.Create(&models.Activity{ActivityID: 7, UserID: "u1", Type: "Run"}).Error)

	h.HandleMessageCreate(nil, guildMsg("$strava unauthorize"))

	var n int64
	require.NoError(t, db.Model(&models.Credential{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Activity{}).Count(&n).Error)
	assert.Zero(t, n)

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "Unauthorized user: alice")
}

func TestDisplayNamePrecedence(t *testing.T) {
	m := guildMsg("x")
	assert.Equal(t, "alice", displayName(m))

	m.Author.GlobalName = "Alice G"
	assert.Equal(t, "Alice G", displayName(m))

	m.Member = &discordgo.Member{Nick: "Speedy"}
	assert.Equal(t, "Speedy", displayName(m))
}
