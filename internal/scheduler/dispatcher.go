// Package scheduler delivers due reminders on a fixed tick and runs the retention jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/notifier"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/metrics"
)

// DefaultInterval is the tick period and the width of the delivery window.
const DefaultInterval = time.Minute

// TickResult summarises one dispatch pass.
type TickResult struct {
	Due       int
	Delivered int
	Failed    int
	Orphaned  int
}

// Dispatcher selects reminders that fell due within the last interval and sends them.
type Dispatcher struct {
	store    store.Store
	notifier notifier.Notifier
	interval time.Duration
	log      *zap.Logger

	mu   sync.RWMutex
	last TickStatus
}

// TickStatus is the outcome of the most recent pass.
type TickStatus struct {
	At     time.Time
	Result TickResult
	Err    error
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithInterval sets the tick period. It must match the period the dispatcher is driven at,
// otherwise reminders fall between windows or are considered twice.
func WithInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(st store.Store, n notifier.Notifier, opts ...DispatcherOption) (*Dispatcher, error) {
	if st == nil {
		return nil, errors.New("dispatcher: store is required")
	}
	if n == nil {
		return nil, errors.New("dispatcher: notifier is required")
	}
	d := &Dispatcher{
		store:    st,
		notifier: n,
		interval: DefaultInterval,
		log:      logger.WithModule("scheduler"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Interval returns the configured tick period.
func (d *Dispatcher) Interval() time.Duration {
	return d.interval
}

// LastTick reports the most recent pass. At is zero before the first tick.
func (d *Dispatcher) LastTick() TickStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// Tick delivers every undelivered reminder with 0 <= now-due < interval, plus reminders
// saved since the previous tick for an instant that tick already passed. Send failures are
// logged per recipient and do not stop the pass; a reminder is marked delivered once all of
// its recipients were attempted.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) (result TickResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	defer func() {
		metrics.SchedulerTickDuration.Observe(time.Since(started).Seconds())
		d.mu.Lock()
		d.last = TickStatus{At: now, Result: result, Err: err}
		d.mu.Unlock()
	}()

	due, err := d.dueReminders(ctx, now)
	if err != nil {
		metrics.SchedulerTicks.WithLabelValues("error").Inc()
		return result, fmt.Errorf("dispatcher: load due reminders: %w", err)
	}
	result.Due = len(due)

	var errs error
	for i := range due {
		reminder := &due[i]

		recipients, err := d.recipients(ctx, reminder)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if len(recipients) == 0 {
			result.Orphaned++
			d.log.Warn("team reminder has no recipients",
				zap.String("reminder_id", reminder.ID),
				zap.String("team", reminder.TeamName),
			)
		}

		text := Message(reminder)
		for _, recipient := range recipients {
			if err := d.notifier.Send(ctx, recipient, text); err != nil {
				result.Failed++
				d.log.Warn("reminder delivery failed",
					zap.String("reminder_id", reminder.ID),
					logger.ChatUser(recipient),
					zap.Error(err),
				)
				continue
			}
			result.Delivered++
		}

		if err := d.store.MarkReminderDelivered(ctx, reminder.ID, now); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	label := "ok"
	if errs != nil {
		label = "error"
	}
	metrics.SchedulerTicks.WithLabelValues(label).Inc()
	if result.Due > 0 {
		d.log.Info("tick",
			zap.Time("now", now),
			zap.Int("due", result.Due),
			zap.Int("delivered", result.Delivered),
			zap.Int("failed", result.Failed),
		)
	}
	return result, errs
}

// dueReminders returns the reminders of the window (now-interval, now]. A reminder saved
// for the current minute after the previous tick ran would fall behind that window, so
// undelivered reminders created inside the window are added when they were due no earlier
// than the minute they were saved in.
func (d *Dispatcher) dueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	windowStart := now.Add(-d.interval)
	due, err := d.store.GetReminders(ctx, store.ReminderFilter{
		Undelivered: true,
		DueAfter:    &windowStart,
		DueUntil:    &now,
	})
	if err != nil {
		return nil, err
	}

	late, err := d.store.GetReminders(ctx, store.ReminderFilter{
		Undelivered:  true,
		DueUntil:     &now,
		CreatedAfter: &windowStart,
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(due))
	for _, reminder := range due {
		seen[reminder.ID] = struct{}{}
	}
	for _, reminder := range late {
		if _, ok := seen[reminder.ID]; ok {
			continue
		}
		if reminder.DueAt.Before(reminder.CreatedAt.Truncate(time.Minute)) {
			continue
		}
		d.log.Debug("catching up reminder saved after its window",
			zap.String("reminder_id", reminder.ID),
			zap.Time("due_at", reminder.DueAt),
			zap.Time("created_at", reminder.CreatedAt),
		)
		due = append(due, reminder)
	}
	return due, nil
}

// recipients resolves who receives reminder. A team reminder reaches the members of every
// team carrying its name, each user once.
func (d *Dispatcher) recipients(ctx context.Context, reminder *models.Reminder) ([]int64, error) {
	if reminder.IsPersonal() {
		return []int64{reminder.OwnerID}, nil
	}

	teams, err := d.store.GetTeams(ctx, store.TeamFilter{Name: reminder.TeamName})
	if err != nil {
		return nil, fmt.Errorf("dispatcher: resolve team %q: %w", reminder.TeamName, err)
	}
	seen := make(map[int64]struct{})
	var out []int64
	for _, team := range teams {
		for _, member := range team.Members {
			if _, ok := seen[member]; ok {
				continue
			}
			seen[member] = struct{}{}
			out = append(out, member)
		}
	}
	return out, nil
}

// Message renders the chat text of reminder.
func Message(reminder *models.Reminder) string {
	if reminder.IsPersonal() {
		return "⏰ Reminder:\n\n" + reminder.Text
	}
	return fmt.Sprintf("⏰ Reminder for team %s:\n\n%s", reminder.TeamName, reminder.Text)
}
