package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/app"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/handlers"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/middleware"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/monitoring"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/realtime"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
)

// apiRequestsPerMinute caps reporting API calls per client IP.
const apiRequestsPerMinute = 120

// Dependencies are the components the HTTP surface reads from.
type Dependencies struct {
	DB        *gorm.DB
	Config    *app.Config
	Teams     *services.TeamService
	Reminders *services.ReminderService
	Audit     *services.AuditService
	// Hub is optional. The chat gateway is mounted only when it is set.
	Hub *realtime.Hub
	// Health is optional. When nil, readiness only checks the database.
	Health *monitoring.Manager
}

// NewRouter builds the Gin engine, wires middleware and registers the reporting routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Teams == nil || deps.Reminders == nil || deps.Audit == nil {
		return nil, errors.New("team, reminder and audit services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.GET("/health", handlers.Health(deps.DB))
	health := deps.Health
	if health == nil {
		health = monitoring.NewManager(monitoring.Database(deps.DB, 0))
	}
	r.GET("/health/ready", handlers.Readiness(health))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(apiRequestsPerMinute, time.Minute))
	registerReportingRoutes(api, deps)

	if deps.Hub != nil {
		chat := handlers.NewChatHandler(deps.Hub)
		r.GET("/ws/chat", chat.Stream)
	}

	if prom := deps.Config.Monitoring.Prometheus; prom.Enabled {
		r.GET(prom.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func registerReportingRoutes(api *gin.RouterGroup, deps Dependencies) {
	teamHandler := handlers.NewTeamHandler(deps.Teams)
	teams := api.Group("/teams")
	{
		teams.GET("", teamHandler.List)
		teams.GET("/:id", teamHandler.Get)
	}

	inviteHandler := handlers.NewInviteHandler(deps.Teams)
	api.GET("/invites", inviteHandler.List)

	reminderHandler := handlers.NewReminderHandler(deps.Reminders)
	api.GET("/reminders", reminderHandler.List)

	auditHandler := handlers.NewAuditHandler(deps.Audit)
	api.GET("/audit", auditHandler.List)
}
