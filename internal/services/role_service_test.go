package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"strava-club/internal/models"
	"strava-club/internal/platform/platformtest"
)

func TestTierFor(t *testing.T) {
	// First strictly exceeded threshold wins, evaluated top-down.
	name, ok := tierFor(MetricDistance, 130000)
	require.True(t, ok)
	assert.Equal(t, "Basically a Professional", name)

	name, ok = tierFor(MetricDistance, 25000)
	require.True(t, ok)
	assert.Equal(t, "Half-Marathoner", name)

	_, ok = tierFor(MetricDistance, 20917)
	assert.False(t, ok, "threshold must be strictly exceeded")

	_, ok = tierFor(MetricDays, 3)
	assert.False(t, ok)
}

func newRoleFixture(t *testing.T) (*RoleService, *gorm.DB, *platformtest.FakeChat) {
	t.Helper()
	db := newTestDB(t)
	chat := platformtest.NewFakeChat()
	return NewRoleService(db, chat), db, chat
}

func TestReconcileGrantsHighestTierPerMetric(t *testing.T) {
	svc, db, chat := newRoleFixture(t)
	require.NoError(t, db.Create(&models.UserGroupStat{
		UserID: "u1", GuildID: "g1",
		Distance: 45000, MovingTime: 40000, Elevation: 2000, ActiveDays: 6,
	}).Error)

	require.NoError(t, svc.Reconcile("g1"))

	assert.ElementsMatch(t,
		[]string{"Marathoner", "10-Hour Lim", "Mountain Climber", "Hobby Runner"},
		chat.MemberRoleNames("g1", "u1"))

	var assign models.RoleAssignment
	require.NoError(t, db.First(&assign, "user_id = ? AND guild_id = ?", "u1", "g1").Error)
	assert.Equal(t, "Marathoner", assign.DistRole)
	assert.Equal(t, "10-Hour Lim", assign.TimeRole)
}

func TestReconcileSwapsOnTierChange(t *testing.T) {
	svc, db, chat := newRoleFixture(t)
	stat := models.UserGroupStat{UserID: "u1", GuildID: "g1", Distance: 25000}
	require.NoError(t, db.Create(&stat).Error)
	require.NoError(t, svc.Reconcile("g1"))
	assert.ElementsMatch(t, []string{"Half-Marathoner"}, chat.MemberRoleNames("g1", "u1"))

	stat.Distance = 90000
	require.NoError(t, db.Save(&stat).Error)
	require.NoError(t, svc.Reconcile("g1"))

	assert.ElementsMatch(t, []string{"UltraMarathoner"}, chat.MemberRoleNames("g1", "u1"),
		"exactly one distance tier role at a time")
}

func TestReconcileIdempotent(t *testing.T) {
	svc, db, chat := newRoleFixture(t)
	require.NoError(t, db.Create(&models.UserGroupStat{UserID: "u1", GuildID: "g1", Distance: 25000}).Error)

	require.NoError(t, svc.Reconcile("g1"))
	require.NoError(t, svc.Reconcile("g1"))

	assert.ElementsMatch(t, []string{"Half-Marathoner"}, chat.MemberRoleNames("g1", "u1"))
}

func TestReconcileNoTierEarned(t *testing.T) {
	svc, db, chat := newRoleFixture(t)
	require.NoError(t, db.Create(&models.UserGroupStat{UserID: "u1", GuildID: "g1", Distance: 100}).Error)

	require.NoError(t, svc.Reconcile("g1"))
	assert.Empty(t, chat.MemberRoleNames("g1", "u1"))
}

func TestReconcileDropBelowTierRemovesRole(t *testing.T) {
	svc, db, chat := newRoleFixture(t)
	stat := models.UserGroupStat{UserID: "u1", GuildID: "g1", ActiveDays: 6}
	require.NoError(t, db.Create(&stat).Error)
	require.NoError(t, svc.Reconcile("g1"))
	assert.ElementsMatch(t, []string{"Hobby Runner"}, chat.MemberRoleNames("g1", "u1"))

	// Stats were recomputed to nothing (e.g. type removed from scope).
	stat.ActiveDays = 0
	require.NoError(t, db.Save(&stat).Error)
	require.NoError(t, svc.Reconcile("g1"))

	assert.Empty(t, chat.MemberRoleNames("g1", "u1"))
}

func TestMonthlyClear(t *testing.T) {
	svc, db, chat := newRoleFixture(t)
	require.NoError(t, db.Create(&models.UserGroupStat{
		UserID: "u1", GuildID: "g1", Distance: 45000, ActiveDays: 16,
	}).Error)
	require.NoError(t, svc.Reconcile("g1"))
	require.NotEmpty(t, chat.MemberRoleNames("g1", "u1"))

	require.NoError(t, svc.MonthlyClear("g1"))

	assert.Empty(t, chat.MemberRoleNames("g1", "u1"))
	var n int64
	require.NoError(t, db.Model(&models.RoleAssignment{}).Where("guild_id = ?", "g1").Count(&n).Error)
	assert.Zero(t, n)
}
