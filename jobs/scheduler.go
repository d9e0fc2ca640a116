package jobs

import (
	"context"
	"database/sql"
	"log"
	"time"

	"eduverse_backend/db"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic maintenance against the database.
type Scheduler struct {
	cron *cron.Cron
	db   *sql.DB
	now  func() time.Time
}

func NewScheduler(conn *sql.DB) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		db:   conn,
		now:  time.Now,
	}
}

// Start registers the jobs and starts the cron loop. schedule is a
// cron expression such as "@every 1h".
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.PurgeExpiredRegistrations(context.Background()); err != nil {
			log.Printf("[OTP-CLEANUP] %v", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[OTP-CLEANUP] Scheduler started (%s)", schedule)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// PurgeExpiredRegistrations deletes unverified accounts whose OTP has
// expired so the email can be registered again.
func (s *Scheduler) PurgeExpiredRegistrations(ctx context.Context) (int64, error) {
	n, err := db.DeleteExpiredPendingUsers(ctx, s.db, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[OTP-CLEANUP] Removed %d expired registrations", n)
	}
	return n, nil
}
