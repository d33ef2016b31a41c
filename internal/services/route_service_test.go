package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"strava-club/internal/maps"
	"strava-club/internal/models"
	"strava-club/internal/platform/platformtest"
)

func newMapServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRouteFixture(t *testing.T) (*RouteService, *gorm.DB, *platformtest.FakeChat) {
	t.Helper()
	db := newTestDB(t)
	chat := platformtest.NewFakeChat()
	renderer := maps.NewRenderer("key")
	renderer.BaseURL = newMapServer(t).URL
	return NewRouteService(db, chat, renderer), db, chat
}

func TestAddRouteFromStoredActivity(t *testing.T) {
	svc, db, _ := newRouteFixture(t)
	require.NoError(t, db.Create(&models.Activity{
		ActivityID: 7, UserID: "u1", Type: "Run",
		Distance: 6000, MovingTime: 2400, ElevationGain: 90, Polyline: "poly-7",
	}).Error)

	require.NoError(t, svc.AddRoute("g1", 7, "River Loop", "muddy after rain", false))

	var route models.Route
	require.NoError(t, db.First(&route, "route_id = ?", 7).Error)
	assert.Equal(t, "River Loop", route.Name)
	assert.Equal(t, 6000.0, route.Distance)
	assert.Equal(t, "poly-7", route.Polyline)
	assert.Equal(t, "medium", route.Bucket())

	// Re-adding overwrites instead of erroring.
	require.NoError(t, svc.AddRoute("g1", 7, "River Loop v2", "", false))
	require.NoError(t, db.First(&route, "route_id = ?", 7).Error)
	assert.Equal(t, "River Loop v2", route.Name)
}

func TestAddRouteUnknownActivity(t *testing.T) {
	svc, _, _ := newRouteFixture(t)
	assert.Error(t, svc.AddRoute("g1", 999, "nope", "", false))
}

func TestRecommendAndPostOnePerBucket(t *testing.T) {
	svc, db, chat := newRouteFixture(t)
	for _, r := range []models.Route{
		{RouteID: 1, GuildID: "g1", Name: "Short A", Distance: 3000, Polyline: "s"},
		{RouteID: 2, GuildID: "g1", Name: "Medium A", Distance: 6000, Polyline: "m"},
		{RouteID: 3, GuildID: "g1", Name: "Long A", Distance: 15000, Polyline: "l"},
		{RouteID: 4, GuildID: "other", Name: "Elsewhere", Distance: 3000, Polyline: "x"},
	} {
		require.NoError(t, db.Create(&r).Error)
	}

	require.NoError(t, svc.RecommendAndPost(context.Background(), "g1", "chan-1"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Embed.Fields, 3, "one recommendation per distance bucket")
	assert.NotEmpty(t, msgs[0].Filename, "composite map attached")
}

func TestRecommendAndPostPartialBuckets(t *testing.T) {
	svc, db, chat := newRouteFixture(t)
	require.NoError(t, db.Create(&models.Route{
		RouteID: 1, GuildID: "g1", Name: "Only Short", Distance: 2000, Polyline: "s",
	}).Error)

	require.NoError(t, svc.RecommendAndPost(context.Background(), "g1", "chan-1"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Embed.Fields, 1)
}

func TestRecommendAndPostNoRoutes(t *testing.T) {
	svc, _, chat := newRouteFixture(t)
	require.NoError(t, svc.RecommendAndPost(context.Background(), "g1", "chan-1"))

	msgs := chat.MessagesTo("chan-1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "No saved routes.", msgs[0].Content)
}
