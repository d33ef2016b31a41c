package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-club/internal/models"
)

func TestAddTypeValidation(t *testing.T) {
	svc := NewSettingsService(newTestDB(t))

	require.NoError(t, svc.AddType("g1", "Run"))
	require.NoError(t, svc.AddType("g1", "E-Bike Ride"))
	require.NoError(t, svc.AddType("g1", "Run"), "duplicates are a no-op")
	assert.Error(t, svc.AddType("g1", "Quidditch"))

	settings, err := svc.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Run", "E-Bike Ride"}, settings.Types())
}

func TestGetUnknownGuildReturnsFreshRecord(t *testing.T) {
	svc := NewSettingsService(newTestDB(t))
	settings, err := svc.Get("new-guild")
	require.NoError(t, err)
	assert.Equal(t, "new-guild", settings.GuildID)
	assert.Empty(t, settings.Types())
}

func TestSetChannels(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db)

	require.NoError(t, svc.SetLeaderboardChannel("g1", "c-lb"))
	require.NoError(t, svc.SetShowcaseChannel("g1", "c-sc"))
	require.NoError(t, svc.SetRecommendationChannel("g1", "c-rec"))

	var settings models.GroupSettings
	require.NoError(t, db.First(&settings, "guild_id = ?", "g1").Error)
	assert.Equal(t, "c-lb", settings.LeaderboardChannel)
	assert.Equal(t, "c-sc", settings.ShowcaseChannel)
	assert.Equal(t, "c-rec", settings.RecommendationChannel)
}

func TestSetCenter(t *testing.T) {
	svc := NewSettingsService(newTestDB(t))

	require.NoError(t, svc.SetCenter("g1", "40.44,-79.94"))
	settings, err := svc.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, "40.44,-79.94", settings.LatLonCenter)

	assert.Error(t, svc.SetCenter("g1", "40.44"))
	assert.Error(t, svc.SetCenter("g1", "abc,def"))
	assert.Error(t, svc.SetCenter("g1", "91,0"))
	assert.Error(t, svc.SetCenter("g1", "0,181"))
}

func TestSetFrequencies(t *testing.T) {
	svc := NewSettingsService(newTestDB(t))

	require.NoError(t, svc.SetFrequencies("g1", 24, 24, 24, 1))
	settings, err := svc.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, 24, settings.LeaderboardFreq)
	assert.Equal(t, 1, settings.IngestionFreq)

	assert.Error(t, svc.SetFrequencies("g1", 0, 1, 1, 1))
	assert.Error(t, svc.SetFrequencies("g1", 1, 25, 1, 1))

	// A rejected update leaves the stored values alone.
	settings, err = svc.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, 24, settings.LeaderboardFreq)
}
