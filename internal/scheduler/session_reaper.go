package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpiredSessionDeleter is a session backend that can drop expired records
// in bulk. Backends with native key expiry do not need a reaper.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a five-field cron expression or an @descriptor.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// SessionReaper periodically deletes expired sessions from the backend.
// Expired sessions are already invisible to lookups; reaping only bounds the
// size of the sessions table.
type SessionReaper struct {
	backend  ExpiredSessionDeleter
	schedule string
	timeout  time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewSessionReaper creates a reaper running on schedule.
func NewSessionReaper(backend ExpiredSessionDeleter, schedule string) *SessionReaper {
	return &SessionReaper{
		backend:  backend,
		schedule: schedule,
		timeout:  30 * time.Second,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the reap job. It stops when ctx is cancelled.
func (r *SessionReaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return nil
	}

	if r.schedule == "" {
		log.Printf("Session reaper: disabled")
		return nil
	}

	if err := ValidateSchedule(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", r.schedule, err)
	}

	entryID, err := r.cron.AddFunc(r.schedule, func() {
		r.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reap job: %w", err)
	}
	r.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, r.cancelFunc = context.WithCancel(ctx)

	r.cron.Start()
	r.isRunning = true

	log.Printf("Session reaper: started with schedule '%s'", r.schedule)

	go func() {
		<-cancelCtx.Done()
		r.Stop()
	}()

	return nil
}

// Stop waits for a running reap to finish and stops the scheduler.
func (r *SessionReaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()
	r.cron.Remove(r.entryID)

	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.isRunning = false
	r.cancelFunc = nil

	log.Printf("Session reaper: stopped")
}

// IsRunning returns whether the reaper is active.
func (r *SessionReaper) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRunning
}

// NextRunTime returns when the next reap will occur.
func (r *SessionReaper) NextRunTime() *time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.isRunning {
		return nil
	}

	for _, entry := range r.cron.Entries() {
		if entry.ID == r.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunOnce deletes expired sessions immediately and returns how many were
// removed.
func (r *SessionReaper) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.backend.DeleteExpired(ctx)
	if err != nil {
		log.Printf("Session reaper: failed to delete expired sessions: %v", err)
		return 0, err
	}
	if n > 0 {
		log.Printf("Session reaper: deleted %d expired sessions", n)
	}
	return n, nil
}
