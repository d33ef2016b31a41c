package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"strava-club/internal/models"
	"strava-club/internal/services"
)

// Orchestrator is the recurring control loop. Every tick it advances
// the persisted hour counter, fires calendar rollovers exactly once,
// and runs each guild's scheduled work independently.
type Orchestrator struct {
	db        *gorm.DB
	scheduler *gocron.Scheduler

	tokens      *services.TokenService
	ingest      *services.IngestService
	stats       *services.StatsService
	roles       *services.RoleService
	leaderboard *services.LeaderboardService
	showcase    *services.ShowcaseService
	routes      *services.RouteService

	maxActivities int
	now           func() time.Time

	// busy holds one mutex per guild; a guild still mid-cycle from an
	// overrunning previous tick is skipped, never queued.
	busy sync.Map
}

func New(
	db *gorm.DB,
	tokens *services.TokenService,
	ingest *services.IngestService,
	stats *services.StatsService,
	roles *services.RoleService,
	leaderboard *services.LeaderboardService,
	showcase *services.ShowcaseService,
	routes *services.RouteService,
	maxActivities int,
) *Orchestrator {
	return &Orchestrator{
		db:            db,
		scheduler:     gocron.NewScheduler(time.Local),
		tokens:        tokens,
		ingest:        ingest,
		stats:         stats,
		roles:         roles,
		leaderboard:   leaderboard,
		showcase:      showcase,
		routes:        routes,
		maxActivities: maxActivities,
		now:           time.Now,
	}
}

// Start schedules the hourly tick.
func (o *Orchestrator) Start() error {
	if _, err := o.scheduler.Every(1).Hours().Do(o.Tick); err != nil {
		return fmt.Errorf("failed to schedule orchestrator tick: %w", err)
	}
	o.scheduler.StartAsync()
	return nil
}

func (o *Orchestrator) Stop() {
	o.scheduler.Stop()
}

// Tick runs one full pass: rollovers, token maintenance, then every
// guild's due actions. A failure inside one guild never affects the
// others or the next tick.
func (o *Orchestrator) Tick() {
	now := o.now()
	marker, err := o.loadMarker(now)
	if err != nil {
		log.Printf("failed to load rollover marker: %v", err)
		return
	}

	// Month rollover fires exactly once per boundary, detected by the
	// stored month rather than by counting ticks.
	if marker.Month != int(now.Month()) || marker.Year != now.Year() {
		o.monthRollover()
		marker.Month = int(now.Month())
		marker.Year = now.Year()
	}

	// Daily purge, likewise keyed to the stored day.
	if marker.Day != now.Day() {
		if err := o.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.DailyActivity{}).Error; err != nil {
			log.Printf("failed to purge daily activities: %v", err)
		}
		marker.Day = now.Day()
	}

	marker.Hour++
	if marker.Hour > 24 {
		marker.Hour = 1
	}
	if err := o.db.Save(marker).Error; err != nil {
		log.Printf("failed to save rollover marker: %v", err)
	}

	ctx := context.Background()
	o.tokens.RefreshAll(ctx)
	o.tokens.PruneExpired()

	var groups []models.GroupSettings
	if err := o.db.Find(&groups).Error; err != nil {
		log.Printf("failed to load guild settings: %v", err)
		return
	}
	for _, g := range groups {
		o.runGroup(ctx, g, marker.Hour)
	}
}

func (o *Orchestrator) loadMarker(now time.Time) (*models.RolloverMarker, error) {
	var marker models.RolloverMarker
	err := o.db.First(&marker, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hour := now.Hour()
		if hour == 0 {
			hour = 24
		}
		marker = models.RolloverMarker{
			ID:    1,
			Hour:  hour,
			Day:   now.Day(),
			Month: int(now.Month()),
			Year:  now.Year(),
		}
		if err := o.db.Create(&marker).Error; err != nil {
			return nil, err
		}
		return &marker, nil
	}
	if err != nil {
		return nil, err
	}
	return &marker, nil
}

// monthRollover zero-reinitializes every stat row and clears all tier
// roles so the new month starts from scratch.
func (o *Orchestrator) monthRollover() {
	log.Println("month rollover: resetting stats and tier roles")

	err := o.db.Transaction(func(tx *gorm.DB) error {
		var stats []models.UserGroupStat
		if err := tx.Find(&stats).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.UserGroupStat{}).Error; err != nil {
			return err
		}
		for _, st := range stats {
			zero := models.UserGroupStat{UserID: st.UserID, GuildID: st.GuildID}
			if err := tx.Create(&zero).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("failed to reset stats at month rollover: %v", err)
	}

	var groups []models.GroupSettings
	if err := o.db.Find(&groups).Error; err != nil {
		log.Printf("failed to load guilds for monthly role clear: %v", err)
		return
	}
	for _, g := range groups {
		if err := o.roles.MonthlyClear(g.GuildID); err != nil {
			log.Printf("monthly role clear failed for guild %s: %v", g.GuildID, err)
		}
	}
}

func due(hour, freq int) bool {
	return freq > 0 && hour%freq == 0
}

func (o *Orchestrator) runGroup(ctx context.Context, g models.GroupSettings, hour int) {
	muIface, _ := o.busy.LoadOrStore(g.GuildID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	if !mu.TryLock() {
		log.Printf("guild %s still mid-cycle, skipping this tick", g.GuildID)
		return
	}
	defer mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tick panicked for guild %s: %v", g.GuildID, r)
		}
	}()

	if due(hour, g.IngestionFreq) {
		o.ingest.IngestGroup(ctx, g.GuildID, o.maxActivities)
		if err := o.stats.Recompute(g.GuildID); err != nil {
			if errors.Is(err, services.ErrNoAllowedTypes) {
				log.Printf("warning: guild %s has no allowed activity types, skipping aggregation", g.GuildID)
			} else {
				log.Printf("aggregation failed for guild %s: %v", g.GuildID, err)
			}
		} else if err := o.roles.Reconcile(g.GuildID); err != nil {
			log.Printf("role reconciliation failed for guild %s: %v", g.GuildID, err)
		}
	}

	if due(hour, g.LeaderboardFreq) && g.LeaderboardChannel != "" {
		if err := o.leaderboard.Post(g.GuildID, g.LeaderboardChannel); err != nil {
			log.Printf("leaderboard post failed for guild %s: %v", g.GuildID, err)
		}
	}

	if due(hour, g.ShowcaseFreq) && g.ShowcaseChannel != "" {
		if err := o.showcase.PostRandom(ctx, g.GuildID, g.ShowcaseChannel); err != nil {
			log.Printf("showcase post failed for guild %s: %v", g.GuildID, err)
		}
	}

	if due(hour, g.RecommendationFreq) && g.RecommendationChannel != "" {
		if err := o.routes.RecommendAndPost(ctx, g.GuildID, g.RecommendationChannel); err != nil {
			log.Printf("route recommendation failed for guild %s: %v", g.GuildID, err)
		}
	}
}
