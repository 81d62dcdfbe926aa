package report

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the single recurring merge job. Rescheduling always removes
// the previous entry first, so two live jobs can never exist at once.
type Scheduler struct {
	cron   *cron.Cron
	jobID  string
	job    func()
	logger *slog.Logger

	mu    sync.Mutex
	entry cron.EntryID
}

func NewScheduler(jobID string, job func(), logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		jobID:  jobID,
		job:    job,
		logger: logger,
	}
}

// Start begins running scheduled entries.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler; a run already in progress completes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Entries returns the number of live cron entries.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Reschedule replaces the job's trigger. timeOfDay is 24-hour "HH:MM"; an
// empty timeOfDay removes the job. A bad time or timezone leaves no job set.
func (s *Scheduler) Reschedule(timeOfDay, timezone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
		s.logger.Info("removed existing schedule job", "job_id", s.jobID)
	}
	if strings.TrimSpace(timeOfDay) == "" {
		return nil
	}

	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		s.logger.Error("failed to schedule daily job", "job_id", s.jobID, "error", err)
		return err
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		err = fmt.Errorf("bad timezone %q: %w", timezone, err)
		s.logger.Error("failed to schedule daily job", "job_id", s.jobID, "error", err)
		return err
	}

	spec := fmt.Sprintf("CRON_TZ=%s %d %d * * *", timezone, minute, hour)
	entry, err := s.cron.AddFunc(spec, s.job)
	if err != nil {
		s.logger.Error("failed to schedule daily job", "job_id", s.jobID, "spec", spec, "error", err)
		return err
	}
	s.entry = entry
	s.logger.Info("scheduled daily report",
		"job_id", s.jobID, "time", fmt.Sprintf("%02d:%02d", hour, minute), "timezone", timezone)
	return nil
}

func parseTimeOfDay(v string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad time of day %q", v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour in %q", v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute in %q", v)
	}
	return hour, minute, nil
}
