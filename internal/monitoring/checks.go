package monitoring

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/scheduler"
)

const (
	defaultDatabaseTimeout = 2 * time.Second
	// missedTicks is how many intervals may pass without a tick before the scheduler degrades.
	missedTicks = 3
)

// TickSource exposes the outcome of the latest dispatch pass.
type TickSource interface {
	LastTick() scheduler.TickStatus
	Interval() time.Duration
}

// ConnectionCounter reports open chat connections.
type ConnectionCounter interface {
	Connections() int
}

// Database pings db within timeout.
func Database(db *gorm.DB, timeout time.Duration) Check {
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}
	return NewCheck("database", func(ctx context.Context) ProbeResult {
		if db == nil {
			return ProbeResult{Status: StatusDown, Details: "database not configured"}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return ResultFromError(err)
		}
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return ResultFromError(sqlDB.PingContext(probeCtx))
	})
}

// Scheduler degrades when the last tick failed or when ticks stopped arriving.
func Scheduler(source TickSource, now func() time.Time) Check {
	if now == nil {
		now = time.Now
	}
	return NewCheck("scheduler", func(context.Context) ProbeResult {
		if source == nil {
			return ProbeResult{Status: StatusDown, Details: "scheduler not running"}
		}
		last := source.LastTick()
		if last.At.IsZero() {
			return ProbeResult{Status: StatusUp, Details: "pending first tick"}
		}
		if last.Err != nil {
			return ProbeResult{Status: StatusDegraded, Details: "last tick failed: " + last.Err.Error()}
		}
		if age := now().Sub(last.At); age > missedTicks*source.Interval() {
			return ProbeResult{Status: StatusDegraded, Details: fmt.Sprintf("no tick for %s", age.Truncate(time.Second))}
		}
		return ProbeResult{
			Status:  StatusUp,
			Details: fmt.Sprintf("last tick delivered %d of %d due", last.Result.Delivered, last.Result.Due),
		}
	})
}

// Realtime reports the chat gateway and its open connection count.
func Realtime(counter ConnectionCounter) Check {
	return NewCheck("realtime", func(context.Context) ProbeResult {
		if counter == nil {
			return ProbeResult{Status: StatusDegraded, Details: "chat gateway unavailable"}
		}
		return ProbeResult{Status: StatusUp, Details: fmt.Sprintf("%d open connections", counter.Connections())}
	})
}
