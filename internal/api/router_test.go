package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/app"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/database/testutil"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/monitoring"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

type fixture struct {
	router    *gin.Engine
	teams     *services.TeamService
	reminders *services.ReminderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	st, err := store.NewGormStore(db)
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	teams, err := services.NewTeamService(st, audit)
	require.NoError(t, err)
	reminders, err := services.NewReminderService(st, audit)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Prometheus = app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"}

	router, err := NewRouter(Dependencies{
		DB:        db,
		Config:    cfg,
		Teams:     teams,
		Reminders: reminders,
		Audit:     audit,
	})
	require.NoError(t, err)

	return &fixture{router: router, teams: teams, reminders: reminders}
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var payload response.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	}
	return w, payload
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(Dependencies{})
	require.Error(t, err)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	w, payload := f.get(t, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, payload.Success)

	w, payload = f.get(t, "/health/ready")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "up", payload.Data.(map[string]any)["status"])

	w, _ = f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "remind_api_latency_seconds")

	w, payload = f.get(t, "/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)

	// Without a hub the chat gateway is not mounted.
	w, _ = f.get(t, "/ws/chat?user_id=1")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterReadinessReportsFailures(t *testing.T) {
	f := newFixture(t)
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	cfg := &app.Config{}
	router, err := NewRouter(Dependencies{
		DB:        db,
		Config:    cfg,
		Teams:     f.teams,
		Reminders: f.reminders,
		Audit:     audit,
		Health:    monitoring.NewManager(monitoring.Realtime(nil)),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "UNAVAILABLE", payload.Error.Code)

	// Metrics stay unmounted when prometheus is disabled.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterTeamsAndInvites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, services.CreateTeamInput{
		CreatorID: 101,
		Name:      "Standup",
		Invitees:  []string{"@bob"},
	})
	require.NoError(t, err)
	require.Len(t, invites, 1)

	w, payload := f.get(t, "/api/teams?member=101")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, payload.Meta.Total)

	w, payload = f.get(t, "/api/teams?member=999")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, payload.Meta.Total)

	w, payload = f.get(t, "/api/teams/"+team.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Standup", payload.Data.(map[string]any)["name"])

	w, payload = f.get(t, "/api/teams/00000000-0000-4000-8000-000000000000")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)

	w, payload = f.get(t, "/api/invites?username=bob")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, payload.Meta.Total)

	w, payload = f.get(t, "/api/invites?username=b!")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, payload.Error.Message, "must be a chat username")

	w, payload = f.get(t, "/api/teams?member=-3")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, payload.Success)
}

func TestRouterRemindersAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reminders.Create(ctx, services.CreateReminderInput{
		OwnerID: 101,
		Text:    "Water plants",
		DueAt:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	w, payload := f.get(t, "/api/reminders?owner=101&pending=true")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, payload.Meta.Total)

	w, payload = f.get(t, "/api/reminders?team=Standup")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, payload.Meta.Total)

	w, _ = f.get(t, "/api/reminders?team=Standup&personal=true")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, payload = f.get(t, "/api/audit?per_page=10")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, payload.Meta.Page)
	require.Equal(t, 10, payload.Meta.PerPage)
	require.GreaterOrEqual(t, payload.Meta.Total, 1)

	w, _ = f.get(t, "/api/audit?result=maybe")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
