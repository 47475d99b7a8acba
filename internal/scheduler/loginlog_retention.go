package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NayeyYe/BookManage/internal/config"
)

// DefaultRetentionSchedule runs the purge daily at 03:00.
const DefaultRetentionSchedule = "0 3 * * *"

// LoginLogPurger deletes login logs older than a cutoff.
// Satisfied by *loginlogs.Repository.
type LoginLogPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LoginLogRetention periodically deletes login logs older than the
// retention window. It does nothing unless enabled in configuration.
type LoginLogRetention struct {
	purger LoginLogPurger
	config config.LoginLogs
	now    func() time.Time

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewLoginLogRetention creates a new retention job.
func NewLoginLogRetention(purger LoginLogPurger, cfg config.LoginLogs) *LoginLogRetention {
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = DefaultRetentionSchedule
	}
	return &LoginLogRetention{
		purger: purger,
		config: cfg,
		now:    time.Now,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// ValidateSchedule checks a 5-field cron expression.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	return err
}

// Start schedules the purge if retention is enabled. The job stops when
// ctx is cancelled or Stop is called.
func (s *LoginLogRetention) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.RetentionEnabled {
		log.Printf("Login log retention: disabled")
		return nil
	}

	if s.config.RetentionDays <= 0 {
		return fmt.Errorf("login log retention days must be positive, got %d", s.config.RetentionDays)
	}

	if err := ValidateSchedule(s.config.RetentionSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.RetentionSchedule, err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.config.RetentionSchedule, func() {
		if _, err := s.RunOnce(cancelCtx); err != nil {
			log.Printf("Login log retention: purge failed: %v", err)
		}
	})
	if err != nil {
		s.cancelFunc()
		return fmt.Errorf("failed to schedule retention job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("Login log retention: started with schedule '%s', keeping %d days. Next run: %v",
		s.config.RetentionSchedule,
		s.config.RetentionDays,
		s.cron.Entry(entryID).Schedule.Next(s.now()))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running purge to finish and stops the scheduler.
func (s *LoginLogRetention) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Login log retention: stopped")
}

// IsRunning reports whether the job is scheduled.
func (s *LoginLogRetention) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce deletes every login log older than the retention window and
// returns how many rows were removed.
func (s *LoginLogRetention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.config.RetentionDays)
	deleted, err := s.purger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("Login log retention: deleted %d entries older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}
