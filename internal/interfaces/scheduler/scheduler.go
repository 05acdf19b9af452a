package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// ScheduleTime is a time of day, in the server's local zone.
type ScheduleTime struct {
	Hour   int
	Minute int
}

func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses a time string in HH:MM format.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	if hour < 0 || hour > 23 {
		return ScheduleTime{}, fmt.Errorf("invalid hour: %d (must be 0-23)", hour)
	}
	if minute < 0 || minute > 59 {
		return ScheduleTime{}, fmt.Errorf("invalid minute: %d (must be 0-59)", minute)
	}
	return ScheduleTime{Hour: hour, Minute: minute}, nil
}

// JobProvider lists the jobs for one scheduled run.
type JobProvider func(ctx context.Context) ([]Job, error)

// Scheduler submits the provider's jobs to a worker pool at fixed times of day.
type Scheduler struct {
	pool          *WorkerPool
	scheduleTimes []ScheduleTime
	jobProvider   JobProvider

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	lastRunKey string
}

// NewScheduler parses times and binds provider to pool. The pool is owned by
// the caller and is not stopped by Shutdown.
func NewScheduler(pool *WorkerPool, times []string, provider JobProvider) (*Scheduler, error) {
	scheduleTimes := make([]ScheduleTime, 0, len(times))
	for _, s := range times {
		st, err := ParseScheduleTime(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule time %q: %w", s, err)
		}
		scheduleTimes = append(scheduleTimes, st)
	}
	if len(scheduleTimes) == 0 {
		return nil, fmt.Errorf("at least one schedule time is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pool:          pool,
		scheduleTimes: scheduleTimes,
		jobProvider:   provider,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	log.Printf("Scheduler started with times: %v", s.scheduleTimes)
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				log.Printf("Scheduler: triggered at %s", now.Format("15:04"))
				s.RunNow()
			}
		}
	}
}

// shouldRun reports whether now matches a schedule time that has not
// already fired this minute.
func (s *Scheduler) shouldRun(now time.Time) bool {
	key := now.Format("2006-01-02T15:04")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRunKey == key {
		return false
	}
	for _, st := range s.scheduleTimes {
		if now.Hour() == st.Hour && now.Minute() == st.Minute {
			s.lastRunKey = key
			return true
		}
	}
	return false
}

// RunNow fetches jobs from the provider and submits them. It returns the
// number of jobs accepted by the pool.
func (s *Scheduler) RunNow() int {
	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		log.Printf("Scheduler: failed to fetch jobs: %v", err)
		return 0
	}

	submitted := 0
	for _, job := range jobs {
		if err := s.pool.Submit(job); err != nil {
			log.Printf("Scheduler: failed to submit %s: %v", job.Description(), err)
			continue
		}
		submitted++
	}
	if len(jobs) > 0 {
		log.Printf("Scheduler: submitted %d/%d jobs", submitted, len(jobs))
	}
	return submitted
}

// Shutdown stops the schedule loop.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// NextRun returns the next scheduled time after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	var next time.Time
	for _, st := range s.scheduleTimes {
		t := time.Date(now.Year(), now.Month(), now.Day(), st.Hour, st.Minute, 0, 0, now.Location())
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}
