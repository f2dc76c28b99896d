package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"taskmaster/internal/model"
)

const backupJob = "backup"

// SchedulerService runs the background jobs. Every job has a name and
// registering a name again replaces the previous entry.
type SchedulerService struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	logger := cronLogger{log.Default().WithPrefix("cron")}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobs: make(map[string]cron.EntryID),
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

// ScheduleDaily runs job every day at hhmm (24h "HH:MM").
func (s *SchedulerService) ScheduleDaily(name, hhmm string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(hhmm)
	if err != nil {
		return 0, err
	}
	return s.replace(name, spec, job)
}

// ScheduleInterval runs job every interval, rounded down to whole seconds.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("interval %s is shorter than a second", interval)
	}
	return s.replace(name, fmt.Sprintf("@every %ds", int(interval/time.Second)), job)
}

// ScheduleBackup runs job at the given backup frequency.
func (s *SchedulerService) ScheduleBackup(freq model.BackupFrequency, job func()) (cron.EntryID, error) {
	spec, err := backupSpec(freq)
	if err != nil {
		return 0, err
	}
	return s.replace(backupJob, spec, job)
}

// Entries reports how many jobs are registered.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) replace(name, spec string, job func()) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = id
	log.Debug("job scheduled", "job", name, "spec", spec)
	return id, nil
}

func backupSpec(freq model.BackupFrequency) (string, error) {
	switch freq {
	case model.BackupDaily:
		return "@daily", nil
	case model.BackupWeekly:
		return "@weekly", nil
	case model.BackupMonthly:
		return "@monthly", nil
	default:
		return "", fmt.Errorf("invalid backup frequency %q", freq)
	}
}

// buildDailySpec turns "HH:MM" into a six-field (seconds first) cron spec.
func buildDailySpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", hhmm)
	}
	return fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour()), nil
}

// cronLogger adapts the process logger to cron.Logger. cron reports every
// wakeup through Info, so that goes to debug.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
