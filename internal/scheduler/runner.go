package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
)

const (
	defaultFirstRunDelay = 10 * time.Second
	defaultRetention     = 7 * 24 * time.Hour
	defaultPurgeSpec     = "@daily"

	// maxCatchUpTicks bounds how many skipped slots one run replays after a stall.
	maxCatchUpTicks = 10
)

// Purger drops delivered reminders older than retention.
type Purger interface {
	PurgeDelivered(ctx context.Context, retention time.Duration) (int64, error)
}

// Job is an extra periodic task run next to the dispatcher, such as the session sweep.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Runner drives the dispatcher and the maintenance jobs from one cron scheduler.
type Runner struct {
	dispatcher *Dispatcher
	purger     Purger
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger

	firstRunDelay time.Duration
	retention     time.Duration
	purgeSchedule string
	jobs          []Job

	tickMu   sync.Mutex
	schedule delayedEvery
	lastSlot time.Time
}

// Option customises the Runner.
type Option func(*Runner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Runner) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock handed to the dispatcher.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithFirstRunDelay sets how long after Start the first tick runs.
func WithFirstRunDelay(delay time.Duration) Option {
	return func(r *Runner) {
		if delay >= 0 {
			r.firstRunDelay = delay
		}
	}
}

// WithRetention sets how long delivered reminders are kept. Zero disables the purge job.
func WithRetention(retention time.Duration) Option {
	return func(r *Runner) {
		if retention >= 0 {
			r.retention = retention
		}
	}
}

// WithPurgeSchedule overrides the cron specification of the purge job.
func WithPurgeSchedule(spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.purgeSchedule = spec
		}
	}
}

// WithJob registers an additional periodic job.
func WithJob(job Job) Option {
	return func(r *Runner) {
		if job.Run != nil && job.Schedule != "" {
			r.jobs = append(r.jobs, job)
		}
	}
}

// NewRunner constructs a Runner. A nil purger disables the purge job.
func NewRunner(dispatcher *Dispatcher, purger Purger, opts ...Option) (*Runner, error) {
	if dispatcher == nil {
		return nil, errors.New("runner: dispatcher is required")
	}
	r := &Runner{
		dispatcher:    dispatcher,
		purger:        purger,
		now:           time.Now,
		log:           logger.WithModule("scheduler"),
		firstRunDelay: defaultFirstRunDelay,
		retention:     defaultRetention,
		purgeSchedule: defaultPurgeSpec,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.schedule = delayedEvery{start: r.now().Add(r.firstRunDelay), every: dispatcher.Interval()}
	if r.cron == nil {
		r.cron = cron.New(
			cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
	}
	return r, nil
}

// Start registers the jobs and launches the scheduler. Ticks run firstRunDelay after Start
// and then every dispatcher interval.
func (r *Runner) Start() error {
	r.tickMu.Lock()
	r.schedule = delayedEvery{
		start: r.now().Add(r.firstRunDelay),
		every: r.dispatcher.Interval(),
	}
	r.lastSlot = time.Time{}
	schedule := r.schedule
	r.tickMu.Unlock()
	r.cron.Schedule(schedule, cron.FuncJob(r.tick))

	if r.purger != nil && r.retention > 0 {
		if _, err := r.cron.AddFunc(r.purgeSchedule, func() {
			if err := r.purge(context.Background()); err != nil {
				r.log.Warn("reminder purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	for _, job := range r.jobs {
		if _, err := r.cron.AddFunc(job.Schedule, func() {
			if err := job.Run(context.Background()); err != nil {
				r.log.Warn("job failed", zap.String("job", job.Name), zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	r.cron.Start()
	r.log.Info("scheduler started",
		zap.Duration("interval", r.dispatcher.Interval()),
		zap.Duration("first_run_delay", r.firstRunDelay),
	)
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs complete.
func (r *Runner) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce executes one tick followed by every maintenance job.
func (r *Runner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if _, err := r.dispatcher.Tick(ctx, r.now()); err != nil {
		errs = multierr.Append(errs, err)
	}
	if r.purger != nil && r.retention > 0 {
		errs = multierr.Append(errs, r.purge(ctx))
	}
	for _, job := range r.jobs {
		if err := job.Run(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// tick runs the dispatcher at the slot instant the schedule fired for rather than the time
// the job started, so consecutive windows tile. Slots skipped while a previous run was still
// going are replayed first.
func (r *Runner) tick() {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	for _, at := range r.pendingSlots(r.schedule.slot(r.now())) {
		if _, err := r.dispatcher.Tick(context.Background(), at); err != nil {
			r.log.Error("tick failed", zap.Time("slot", at), zap.Error(err))
		}
	}
}

// pendingSlots returns the slots up to and including slot that have not run yet. Callers
// hold tickMu.
func (r *Runner) pendingSlots(slot time.Time) []time.Time {
	if !r.lastSlot.IsZero() && !slot.After(r.lastSlot) {
		return nil
	}

	var out []time.Time
	if !r.lastSlot.IsZero() {
		missed := int(slot.Sub(r.lastSlot)/r.schedule.every) - 1
		if missed > maxCatchUpTicks {
			r.log.Warn("scheduler fell behind, dropping skipped slots",
				zap.Int("skipped", missed-maxCatchUpTicks),
				zap.Time("last_slot", r.lastSlot),
			)
			missed = maxCatchUpTicks
		}
		for i := missed; i >= 1; i-- {
			out = append(out, slot.Add(-time.Duration(i)*r.schedule.every))
		}
	}
	r.lastSlot = slot
	return append(out, slot)
}

func (r *Runner) purge(ctx context.Context) error {
	removed, err := r.purger.PurgeDelivered(ctx, r.retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.Info("purged delivered reminders", zap.Int64("removed", removed))
	}
	return nil
}

// delayedEvery fires at start and then every interval after it.
type delayedEvery struct {
	start time.Time
	every time.Duration
}

// slot returns the latest fire instant not after t, or start when t precedes it.
func (s delayedEvery) slot(t time.Time) time.Time {
	if !t.After(s.start) {
		return s.start
	}
	return s.start.Add(t.Sub(s.start) / s.every * s.every)
}

func (s delayedEvery) Next(t time.Time) time.Time {
	if t.Before(s.start) {
		return s.start
	}
	n := t.Sub(s.start)/s.every + 1
	return s.start.Add(n * s.every)
}
