package app

import (
	"fmt"
	"strings"
	"time"
)

const (
	minSchedulerInterval = time.Second
	defaultInterval      = time.Minute
	defaultSessionTTL    = 24 * time.Hour
)

// ApplyRuntimeDefaults repairs settings that would leave a component unusable and resolves
// the configured timezone. It returns the keys it changed so callers can log them.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, *time.Location, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is nil")
	}

	adjusted := make(map[string]bool)

	if cfg.Scheduler.Interval < minSchedulerInterval {
		cfg.Scheduler.Interval = defaultInterval
		adjusted["scheduler.interval"] = true
	}
	if cfg.Scheduler.FirstRunDelay < 0 {
		cfg.Scheduler.FirstRunDelay = 0
		adjusted["scheduler.first_run_delay"] = true
	}
	if cfg.Scheduler.Retention < 0 {
		cfg.Scheduler.Retention = 0
		adjusted["scheduler.retention"] = true
	}
	if strings.TrimSpace(cfg.Scheduler.PurgeSchedule) == "" {
		cfg.Scheduler.PurgeSchedule = "@daily"
		adjusted["scheduler.purge_schedule"] = true
	}
	if cfg.Dialogue.SessionTTL <= 0 {
		cfg.Dialogue.SessionTTL = defaultSessionTTL
		adjusted["dialogue.session_ttl"] = true
	}
	if cfg.Realtime.Burst <= 0 {
		cfg.Realtime.Burst = 1
		adjusted["realtime.burst"] = true
	}
	if endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint); !strings.HasPrefix(endpoint, "/") {
		cfg.Monitoring.Prometheus.Endpoint = "/metrics"
		adjusted["monitoring.prometheus.endpoint"] = true
	}

	zone := strings.TrimSpace(cfg.Server.Timezone)
	if zone == "" {
		zone = "UTC"
		cfg.Server.Timezone = zone
		adjusted["server.timezone"] = true
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, nil, fmt.Errorf("server.timezone: %w", err)
	}

	return adjusted, loc, nil
}
