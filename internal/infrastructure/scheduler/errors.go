package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when a trigger arrives while
	// the scheduler is stopped.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrUnknownJob is returned for a trigger naming no registered job.
	ErrUnknownJob = errors.New("unknown scheduler job")

	// ErrJobAlreadyRunning is returned when a job is triggered while a
	// previous run of the same job is still in flight.
	ErrJobAlreadyRunning = errors.New("job is already running")
)
