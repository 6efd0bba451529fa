package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsRepairsUnusableValues(t *testing.T) {
	cfg := &Config{}
	cfg.Scheduler.FirstRunDelay = -time.Second
	cfg.Monitoring.Prometheus.Endpoint = "metrics"

	adjusted, loc, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)

	require.Equal(t, time.Minute, cfg.Scheduler.Interval)
	require.Zero(t, cfg.Scheduler.FirstRunDelay)
	require.Equal(t, 24*time.Hour, cfg.Dialogue.SessionTTL)
	require.Equal(t, 1, cfg.Realtime.Burst)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.Equal(t, "UTC", cfg.Server.Timezone)

	for _, key := range []string{"scheduler.interval", "scheduler.first_run_delay", "scheduler.purge_schedule", "dialogue.session_ttl", "realtime.burst", "monitoring.prometheus.endpoint", "server.timezone"} {
		require.True(t, adjusted[key], key)
	}
}

func TestApplyRuntimeDefaultsPreservesValidValues(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Timezone: "Europe/Berlin"},
		Scheduler: SchedulerConfig{Interval: 30 * time.Second, Retention: time.Hour, PurgeSchedule: "@daily"},
		Dialogue:  DialogueConfig{SessionTTL: time.Hour},
		Realtime:  RealtimeConfig{Burst: 3},
		Monitoring: MonitoringConfig{Prometheus: PrometheusConfig{
			Endpoint: "/metrics",
		}},
	}

	adjusted, loc, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, adjusted)
	require.Equal(t, "Europe/Berlin", loc.String())
	require.Equal(t, 30*time.Second, cfg.Scheduler.Interval)
}

func TestApplyRuntimeDefaultsRejectsUnknownTimezone(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Timezone: "Mars/Olympus"}}
	_, _, err := ApplyRuntimeDefaults(cfg)
	require.Error(t, err)

	_, _, err = ApplyRuntimeDefaults(nil)
	require.Error(t, err)
}
