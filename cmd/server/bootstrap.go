package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/api"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/app"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/database"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/dialogue"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/monitoring"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/notifier"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/realtime"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/scheduler"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Store      *store.GormStore
	AuditSvc   *services.AuditService
	TeamSvc    *services.TeamService
	Reminders  *services.ReminderService
	Sessions   *dialogue.MemorySessionStore
	Engine     *dialogue.Engine
	Hub        *realtime.Hub
	Dispatcher *scheduler.Dispatcher
	Runner     *scheduler.Runner
	Health     *monitoring.Manager
	Router     *gin.Engine
}

// bootstrapRuntime initialises the database, services, dialogue engine, chat gateway,
// scheduler and HTTP router.
func bootstrapRuntime(cfg *app.Config, loc *time.Location, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Store, err = store.NewGormStore(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise store: %w", err)
	}

	stack.AuditSvc, err = services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	stack.TeamSvc, err = services.NewTeamService(stack.Store, stack.AuditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise team service: %w", err)
	}

	stack.Reminders, err = services.NewReminderService(stack.Store, stack.AuditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise reminder service: %w", err)
	}

	stack.Sessions = dialogue.NewMemorySessionStore(cfg.Dialogue.SessionTTL)
	stack.Engine, err = dialogue.NewEngine(stack.TeamSvc, stack.Reminders, stack.Sessions, dialogue.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("initialise dialogue engine: %w", err)
	}

	if cfg.Realtime.Enabled {
		stack.Hub = realtime.NewHub(stack.Engine, realtime.WithRateLimit(cfg.Realtime.RatePerSecond, cfg.Realtime.Burst))
	}

	if cfg.Scheduler.Enabled {
		stack.Dispatcher, stack.Runner, err = buildRunner(cfg, stack)
		if err != nil {
			return nil, err
		}
		if err := stack.Runner.Start(); err != nil {
			return nil, fmt.Errorf("start scheduler: %w", err)
		}
	}

	stack.Health = buildHealth(stack)

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:        stack.DB,
		Config:    cfg,
		Teams:     stack.TeamSvc,
		Reminders: stack.Reminders,
		Audit:     stack.AuditSvc,
		Hub:       stack.Hub,
		Health:    stack.Health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// buildNotifier assembles the delivery chain: live chat connections first, the log as fallback.
func buildNotifier(cfg *app.Config, hub *realtime.Hub) notifier.Notifier {
	var channels []notifier.Notifier
	if hub != nil {
		channels = append(channels, notifier.NewInstrumented("realtime", notifier.NewRealtime(hub)))
	}
	if cfg.Realtime.LogFallback || hub == nil {
		channels = append(channels, notifier.NewInstrumented("log", notifier.NewLog()))
	}
	return notifier.NewFanout(channels...)
}

// buildHealth registers a probe for every component that is running.
func buildHealth(stack *runtimeStack) *monitoring.Manager {
	health := monitoring.NewManager(monitoring.Database(stack.DB, 0))
	if stack.Dispatcher != nil {
		health.Register(monitoring.Scheduler(stack.Dispatcher, nil))
	}
	if stack.Hub != nil {
		health.Register(monitoring.Realtime(stack.Hub))
	}
	return health
}

func buildRunner(cfg *app.Config, stack *runtimeStack) (*scheduler.Dispatcher, *scheduler.Runner, error) {
	dispatcher, err := scheduler.NewDispatcher(stack.Store, buildNotifier(cfg, stack.Hub),
		scheduler.WithInterval(cfg.Scheduler.Interval))
	if err != nil {
		return nil, nil, fmt.Errorf("initialise dispatcher: %w", err)
	}

	opts := []scheduler.Option{
		scheduler.WithFirstRunDelay(cfg.Scheduler.FirstRunDelay),
		scheduler.WithRetention(cfg.Scheduler.Retention),
		scheduler.WithPurgeSchedule(cfg.Scheduler.PurgeSchedule),
	}
	if spec := cfg.Dialogue.SweepSchedule; spec != "" {
		sessions := stack.Sessions
		opts = append(opts, scheduler.WithJob(scheduler.Job{
			Name:     "session-sweep",
			Schedule: spec,
			Run: func(context.Context) error {
				if removed := sessions.Sweep(); removed > 0 {
					logger.WithModule("dialogue").Debug("expired sessions swept", zap.Int("removed", removed))
				}
				return nil
			},
		}))
	}
	if retention := cfg.Scheduler.AuditRetention; retention > 0 {
		audit := stack.AuditSvc
		opts = append(opts, scheduler.WithJob(scheduler.Job{
			Name:     "audit-cleanup",
			Schedule: cfg.Scheduler.PurgeSchedule,
			Run: func(ctx context.Context) error {
				_, err := audit.CleanupOlderThan(ctx, retention)
				return err
			},
		}))
	}

	runner, err := scheduler.NewRunner(dispatcher, stack.Reminders, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise scheduler: %w", err)
	}
	return dispatcher, runner, nil
}

// Shutdown gracefully stops background jobs, closes chat connections and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Runner != nil {
		select {
		case <-s.Runner.Stop().Done():
		case <-ctx.Done():
			log.Warn("scheduler did not stop before shutdown deadline")
		}
	}

	if s.Hub != nil {
		if err := s.Hub.Close(ctx); err != nil {
			log.Warn("chat connections did not close before shutdown deadline", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseConfig()
	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
