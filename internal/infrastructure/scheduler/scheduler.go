package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voltbill/backend/internal/application/billing"
	"go.uber.org/zap"
)

// defaultTickInterval is how often the scheduler checks whether a job
// is due.
const defaultTickInterval = time.Minute

// JobID identifies one of the fixed billing jobs
type JobID string

const (
	JobMonthlyBillGeneration  JobID = "monthly_bill_generation"
	JobPaymentReminders       JobID = "payment_reminders"
	JobOverdueBills           JobID = "overdue_bills"
	JobMeterReadingCollection JobID = "meter_reading_collection"
)

// JobRunner is the application surface the scheduler drives. The
// billing Service implements it.
type JobRunner interface {
	GenerateMonthlyBills(ctx context.Context, periodStart, periodEnd time.Time) (billing.JobResult, error)
	SendPaymentReminders(ctx context.Context, today time.Time) (billing.JobResult, error)
	MarkOverdueBills(ctx context.Context, today time.Time) (billing.JobResult, error)
	CollectMeterReadings(ctx context.Context) (billing.JobResult, error)
}

// JobStatus is one row of the scheduler status report
type JobStatus struct {
	ID          JobID              `json:"id"`
	Description string             `json:"description"`
	Running     bool               `json:"running"`
	LastRunAt   *time.Time         `json:"last_run_at,omitempty"`
	LastResult  *billing.JobResult `json:"last_result,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
	NextRunAt   time.Time          `json:"next_run_at"`
	NextRunIn   string             `json:"next_run_in"`
}

// job is one registered schedule entry. due and nextRun are pure over
// the supplied clock so the schedule is testable.
type job struct {
	id          JobID
	description string
	due         func(now time.Time) bool
	nextRun     func(now time.Time) time.Time
	run         func(ctx context.Context, now time.Time) (billing.JobResult, error)

	running    bool
	lastRunAt  *time.Time
	lastResult *billing.JobResult
	lastError  string
}

// BillingSchedulerConfig holds scheduler settings
type BillingSchedulerConfig struct {
	TickInterval time.Duration
}

// BillingScheduler runs the four billing jobs on their fixed schedule:
// monthly generation on the 1st at 02:00, reminders daily at 10:00,
// overdue marking daily at 11:00, and meter reading collection on
// Sunday at 08:00. A job never overlaps its own previous run.
type BillingScheduler struct {
	config BillingSchedulerConfig
	runner JobRunner
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	jobs      []*job
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewBillingScheduler creates a scheduler over the given job runner
func NewBillingScheduler(config BillingSchedulerConfig, runner JobRunner, logger *zap.Logger) *BillingScheduler {
	if config.TickInterval <= 0 {
		config.TickInterval = defaultTickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BillingScheduler{
		config: config,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
	s.jobs = []*job{
		{
			id:          JobMonthlyBillGeneration,
			description: "Generate bills for the previous month for every active unit",
			due: func(now time.Time) bool {
				return now.Day() == 1 && now.Hour() == 2 && now.Minute() == 0
			},
			nextRun: func(now time.Time) time.Time {
				next := time.Date(now.Year(), now.Month(), 1, 2, 0, 0, 0, now.Location())
				if !now.Before(next) {
					next = next.AddDate(0, 1, 0)
				}
				return next
			},
			run: func(ctx context.Context, now time.Time) (billing.JobResult, error) {
				start, end := previousMonth(now)
				return runner.GenerateMonthlyBills(ctx, start, end)
			},
		},
		{
			id:          JobPaymentReminders,
			description: "Send payment reminders for bills nearing their due date",
			due:         dailyAt(10, 0),
			nextRun:     nextDailyAt(10, 0),
			run: func(ctx context.Context, now time.Time) (billing.JobResult, error) {
				return runner.SendPaymentReminders(ctx, now)
			},
		},
		{
			id:          JobOverdueBills,
			description: "Mark pending bills past their due date as overdue",
			due:         dailyAt(11, 0),
			nextRun:     nextDailyAt(11, 0),
			run: func(ctx context.Context, now time.Time) (billing.JobResult, error) {
				return runner.MarkOverdueBills(ctx, now)
			},
		},
		{
			id:          JobMeterReadingCollection,
			description: "Collect meter readings from connected meters",
			due: func(now time.Time) bool {
				return now.Weekday() == time.Sunday && now.Hour() == 8 && now.Minute() == 0
			},
			nextRun: func(now time.Time) time.Time {
				next := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
				for next.Weekday() != time.Sunday || !now.Before(next) {
					next = next.AddDate(0, 0, 1)
				}
				return next
			},
			run: func(ctx context.Context, _ time.Time) (billing.JobResult, error) {
				return runner.CollectMeterReadings(ctx)
			},
		},
	}
	return s
}

// Start launches the tick loop
func (s *BillingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.tickLoop(ctx)

	s.logger.Info("billing scheduler started",
		zap.Duration("tick_interval", s.config.TickInterval),
		zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels the tick loop and waits for in-flight jobs
func (s *BillingScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("billing scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("billing scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *BillingScheduler) tickLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

// tick launches every due job that is not already running
func (s *BillingScheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.running || !j.due(now) {
			continue
		}
		j.running = true
		s.wg.Add(1)
		go func(j *job) {
			defer s.wg.Done()
			s.execute(ctx, j, now)
		}(j)
	}
}

// RunJobNow runs one job synchronously, outside its schedule
func (s *BillingScheduler) RunJobNow(ctx context.Context, id JobID) (billing.JobResult, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return billing.JobResult{}, ErrSchedulerNotRunning
	}
	j := s.find(id)
	if j == nil {
		s.mu.Unlock()
		return billing.JobResult{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if j.running {
		s.mu.Unlock()
		return billing.JobResult{}, fmt.Errorf("%w: %s", ErrJobAlreadyRunning, id)
	}
	j.running = true
	s.mu.Unlock()

	return s.execute(ctx, j, s.now())
}

// execute runs the job body and records the outcome. The caller must
// have set j.running under the lock.
func (s *BillingScheduler) execute(ctx context.Context, j *job, now time.Time) (billing.JobResult, error) {
	s.logger.Info("scheduler job starting", zap.String("job", string(j.id)))
	result, err := j.run(ctx, now)

	s.mu.Lock()
	j.running = false
	ranAt := now
	j.lastRunAt = &ranAt
	j.lastResult = &result
	if err != nil {
		j.lastError = err.Error()
	} else {
		j.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduler job failed",
			zap.String("job", string(j.id)),
			zap.Error(err))
		return result, err
	}
	s.logger.Info("scheduler job finished",
		zap.String("job", string(j.id)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total))
	return result, nil
}

// JobStatuses reports every job with its last outcome and next run
func (s *BillingScheduler) JobStatuses() []JobStatus {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		next := j.nextRun(now)
		statuses = append(statuses, JobStatus{
			ID:          j.id,
			Description: j.description,
			Running:     j.running,
			LastRunAt:   j.lastRunAt,
			LastResult:  j.lastResult,
			LastError:   j.lastError,
			NextRunAt:   next,
			NextRunIn:   humanizeUntil(now, next),
		})
	}
	return statuses
}

func (s *BillingScheduler) find(id JobID) *job {
	for _, j := range s.jobs {
		if j.id == id {
			return j
		}
	}
	return nil
}

func dailyAt(hour, minute int) func(time.Time) bool {
	return func(now time.Time) bool {
		return now.Hour() == hour && now.Minute() == minute
	}
}

func nextDailyAt(hour, minute int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !now.Before(next) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

// previousMonth returns the first and last day of the month before now
func previousMonth(now time.Time) (time.Time, time.Time) {
	firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := firstOfThis.AddDate(0, -1, 0)
	end := firstOfThis.AddDate(0, 0, -1)
	return start, end
}

// humanizeUntil renders the wait before next as a coarse duration
func humanizeUntil(now, next time.Time) string {
	d := next.Sub(now)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return "under a minute"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		days := int(d.Hours()) / 24
		hours := int(d.Hours()) % 24
		return fmt.Sprintf("%dd%dh", days, hours)
	}
}
