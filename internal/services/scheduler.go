package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduler runs deferred callbacks. Cancel is best-effort: cancelling a
// job that already fired or was never scheduled is not an error — the fire
// handler's own idempotency checks are the real safety net.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{jobs: make(map[string]*time.Timer)}
}

// ScheduleAfter runs fn after delay and returns the job handle. The handle
// is also passed to fn so fire handlers can detect stale jobs.
func (s *Scheduler) ScheduleAfter(delay time.Duration, fn func(jobID string)) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.jobs[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
		fn(id)
	})
	s.mu.Unlock()

	return id
}

// Cancel stops a pending job. Unknown or already-fired handles are ignored.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	timer, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	if ok && !timer.Stop() {
		log.Printf("scheduler: job %s already fired before cancel", id)
	}
}

// PendingCount reports how many jobs are scheduled but not yet fired.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
