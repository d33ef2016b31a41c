package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"strava-club/internal/config"
	"strava-club/internal/handlers"
	"strava-club/internal/maps"
	"strava-club/internal/models"
	"strava-club/internal/platform"
	"strava-club/internal/scheduler"
	"strava-club/internal/services"
	"strava-club/internal/strava"
)

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Panic("failed to load config: ", err)
	}

	dg, err := discordgo.New("Bot " + cfg.App.Discord.Token)
	if err != nil {
		log.Panic("failed to create discord session: ", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	var db *gorm.DB
	if cfg.App.Test || cfg.App.Database.Type == "sqlite" {
		db, err = gorm.Open(sqlite.Open(cfg.App.Database.SQLite.Path), &gorm.Config{})
		if err != nil {
			log.Panic("failed to connect to SQLite database: ", err)
		}
		log.Println("Connected to SQLite database")
	} else {
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			cfg.App.Database.Postgres.Host,
			cfg.App.Database.Postgres.User,
			cfg.App.Database.Postgres.Password,
			cfg.App.Database.Postgres.DBName,
			cfg.App.Database.Postgres.Port)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Panic("failed to connect to Postgres database: ", err)
		}
		log.Println("Connected to Postgres database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Panic("failed to migrate database: ", err)
	}

	stravaClient := strava.NewClient(cfg.App.Strava.ClientID, cfg.App.Strava.ClientSecret)
	renderer := maps.NewRenderer(cfg.App.Maps.APIKey)
	chat := platform.NewSession(dg)

	tokenService := services.NewTokenService(db, stravaClient)
	ingestService := services.NewIngestService(db, stravaClient)
	statsService := services.NewStatsService(db)
	roleService := services.NewRoleService(db, chat)
	leaderboardService := services.NewLeaderboardService(db, chat)
	showcaseService := services.NewShowcaseService(db, chat, renderer)
	routeService := services.NewRouteService(db, chat, renderer)
	settingsService := services.NewSettingsService(db)
	authService := services.NewAuthService(db, stravaClient, chat, cfg.App.Strava.RedirectURI)

	commandHandler := handlers.NewCommandHandler(
		chat,
		cfg.App.Discord.CommandPrefix,
		authService,
		tokenService,
		ingestService,
		statsService,
		roleService,
		leaderboardService,
		showcaseService,
		routeService,
		settingsService,
		cfg.App.Sync.MaxActivities,
	)
	reactionHandler := handlers.NewReactionHandler(leaderboardService)

	dg.AddHandler(commandHandler.HandleMessageCreate)
	dg.AddHandler(reactionHandler.HandleReactionAdd)

	if err := dg.Open(); err != nil {
		log.Panic("failed to open discord gateway: ", err)
	}
	log.Printf("Logged in as %s", dg.State.User.Username)

	tokenService.PruneExpired()

	orchestrator := scheduler.New(
		db,
		tokenService,
		ingestService,
		statsService,
		roleService,
		leaderboardService,
		showcaseService,
		routeService,
		cfg.App.Sync.MaxActivities,
	)
	if err := orchestrator.Start(); err != nil {
		log.Panic("failed to start orchestrator: ", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	orchestrator.Stop()
	if err := dg.Close(); err != nil {
		log.Printf("failed to close discord session: %v", err)
	}
}
