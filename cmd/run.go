package cmd

import (
	"context"
	"fmt"
	"time"

	"campuspolls/cache"
	"campuspolls/config"
	"campuspolls/database"
	"campuspolls/events"
	"campuspolls/feedstore"
	"campuspolls/notifier"
	"campuspolls/repository"
	"campuspolls/service"
	log "github.com/sirupsen/logrus"
)

const (
	resolutionSweepInterval = time.Minute

	// Slightly under the cache TTL so readers rarely see a cold scoreboard
	scoreboardWarmInterval = 25 * time.Second
	scoreboardWarmLimit    = 10
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting campuspolls...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Optional external integrations
	var feed service.FeedStore
	if cfg.FeedBaseURL != "" {
		feed = feedstore.NewClient(cfg.FeedBaseURL)
		log.WithField("baseURL", cfg.FeedBaseURL).Info("Feed client initialized")
	}

	var redisCache *cache.ScoreboardCache
	var scoreboardCache service.ScoreboardCache
	if cfg.RedisAddr != "" {
		redisCache = cache.NewScoreboardCache(cfg.RedisAddr, cfg.RedisPassword)
		scoreboardCache = redisCache
		log.WithField("addr", cfg.RedisAddr).Info("Scoreboard cache initialized")
	}

	pollService := service.NewPollService(uowFactory, feed, service.SystemClock())
	statsService := service.NewStatsService(uowFactory, scoreboardCache)

	achievementService := service.NewAchievementService(uowFactory)
	achievementService.RegisterHandlers(eventBus)

	var discordNotifier *notifier.DiscordNotifier
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		discordNotifier, err = notifier.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		discordNotifier.RegisterHandlers(eventBus)
		log.Info("Discord notifier initialized")
	}

	// Periodically surface the admin resolution queue
	go sweepExpiredPolls(ctx, pollService)

	if scoreboardCache != nil {
		go warmScoreboard(ctx, statsService)
	}

	log.WithField("environment", cfg.Environment).Info("campuspolls is running")
	<-ctx.Done()

	log.Info("Shutting down...")

	if discordNotifier != nil {
		if err := discordNotifier.Close(); err != nil {
			log.WithField("error", err).Warn("Error closing Discord notifier")
		}
	}

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.WithField("error", err).Warn("Error closing Redis connection")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}

// warmScoreboard keeps the cached scoreboard fresh so reads rarely hit the
// database
func warmScoreboard(ctx context.Context, statsService service.StatsService) {
	ticker := time.NewTicker(scoreboardWarmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := statsService.GetScoreboard(ctx, scoreboardWarmLimit); err != nil {
				log.WithField("error", err).Warn("Failed to refresh scoreboard")
			}
		}
	}
}

// sweepExpiredPolls logs polls waiting on an admin decision so operators can
// see the backlog without querying the database
func sweepExpiredPolls(ctx context.Context, pollService service.PollService) {
	ticker := time.NewTicker(resolutionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			polls, err := pollService.GetExpiredUnresolved(ctx)
			if err != nil {
				log.WithField("error", err).Error("Failed to sweep expired polls")
				continue
			}
			if len(polls) > 0 {
				log.WithField("count", len(polls)).Info("Polls awaiting resolution")
			}
		}
	}
}
