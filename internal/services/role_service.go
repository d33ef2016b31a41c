package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"strava-club/internal/models"
	"strava-club/internal/platform"
)

// Tier is one achievement level: the role granted once a metric value
// strictly exceeds the threshold.
type Tier struct {
	Threshold float64
	Name      string
}

// Tier tables per metric, in native units (meters, seconds, meters,
// days). Declared descending and evaluated top-down: the highest
// threshold exceeded wins.
var tierTables = map[Metric][]Tier{
	MetricDistance: {
		{128720, "Basically a Professional"},
		{80450, "UltraMarathoner"},
		{41834, "Marathoner"},
		{20917, "Half-Marathoner"},
	},
	MetricTime: {
		{86400, "24-Hour Lim"},
		{36000, "10-Hour Lim"},
		{18000, "5-Hour Lim"},
	},
	MetricElevation: {
		{4176, "Everest Summiter"},
		{1609, "Mountain Climber"},
	},
	MetricDays: {
		{28, "Might as well join the XC team"},
		{15, "Athlete"},
		{5, "Hobby Runner"},
	},
}

var allMetrics = []Metric{MetricDistance, MetricTime, MetricElevation, MetricDays}

// tierFor returns the tier role name earned by the value, or false if
// no threshold is exceeded.
func tierFor(m Metric, value float64) (string, bool) {
	for _, t := range tierTables[m] {
		if value > t.Threshold {
			return t.Name, true
		}
	}
	return "", false
}

// RoleService keeps the guild's tier roles in line with the computed
// stats: at most one tier role per metric per user, swapped when the
// tier changes, cleared at month boundaries.
type RoleService struct {
	db   *gorm.DB
	chat platform.Chat
}

func NewRoleService(db *gorm.DB, chat platform.Chat) *RoleService {
	return &RoleService{db: db, chat: chat}
}

func heldRole(a *models.RoleAssignment, m Metric) string {
	switch m {
	case MetricDistance:
		return a.DistRole
	case MetricTime:
		return a.TimeRole
	case MetricElevation:
		return a.ElevRole
	case MetricDays:
		return a.DaysRole
	}
	return ""
}

func setHeldRole(a *models.RoleAssignment, m Metric, name string) {
	switch m {
	case MetricDistance:
		a.DistRole = name
	case MetricTime:
		a.TimeRole = name
	case MetricElevation:
		a.ElevRole = name
	case MetricDays:
		a.DaysRole = name
	}
}

// Reconcile brings every member's tier roles in line with their current
// stats. Users already holding the correct role are left untouched; a
// tier change removes the old role before adding the new one.
func (s *RoleService) Reconcile(guildID string) error {
	var stats []models.UserGroupStat
	if err := s.db.Where("guild_id = ?", guildID).Find(&stats).Error; err != nil {
		return fmt.Errorf("failed to load stats for guild %s: %w", guildID, err)
	}

	for _, st := range stats {
		var assign models.RoleAssignment
		err := s.db.First(&assign, "guild_id = ? AND user_id = ?", guildID, st.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			assign = models.RoleAssignment{UserID: st.UserID, GuildID: guildID}
		} else if err != nil {
			log.Printf("failed to load role assignment for user %s: %v", st.UserID, err)
			continue
		}

		changed := false
		for _, m := range allMetrics {
			target, earned := tierFor(m, statValue(st, m))
			current := heldRole(&assign, m)
			if target == current {
				continue
			}

			if current != "" {
				if err := s.removeRoleByName(guildID, st.UserID, current); err != nil {
					log.Printf("failed to remove role %q from user %s: %v", current, st.UserID, err)
					continue
				}
			}
			if earned {
				roleID, err := s.chat.EnsureRole(guildID, target)
				if err != nil {
					log.Printf("failed to ensure role %q in guild %s: %v", target, guildID, err)
					continue
				}
				if err := s.chat.AddMemberRole(guildID, st.UserID, roleID); err != nil {
					log.Printf("failed to add role %q to user %s: %v", target, st.UserID, err)
					continue
				}
			}
			setHeldRole(&assign, m, target)
			changed = true
		}

		if changed {
			if err := s.db.Save(&assign).Error; err != nil {
				log.Printf("failed to save role assignment for user %s: %v", st.UserID, err)
			}
		}
	}
	return nil
}

func (s *RoleService) removeRoleByName(guildID, userID, name string) error {
	roleID, err := s.chat.RoleID(guildID, name)
	if err != nil {
		return err
	}
	if roleID == "" {
		return nil
	}
	return s.chat.RemoveMemberRole(guildID, userID, roleID)
}

// MonthlyClear strips every tier role from every tracked member of the
// guild and forgets the assignments, so the new month starts clean.
func (s *RoleService) MonthlyClear(guildID string) error {
	var assignments []models.RoleAssignment
	if err := s.db.Where("guild_id = ?", guildID).Find(&assignments).Error; err != nil {
		return fmt.Errorf("failed to load role assignments for guild %s: %w", guildID, err)
	}

	for _, assign := range assignments {
		for _, m := range allMetrics {
			name := heldRole(&assign, m)
			if name == "" {
				continue
			}
			if err := s.removeRoleByName(guildID, assign.UserID, name); err != nil {
				log.Printf("failed to remove role %q from user %s: %v", name, assign.UserID, err)
			}
		}
	}
	return s.db.Where("guild_id = ?", guildID).Delete(&models.RoleAssignment{}).Error
}
