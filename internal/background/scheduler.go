package background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lorewiki-backend/pkg/logger"
)

// SchedulerConfig sizes the worker pool and its ready queue.
type SchedulerConfig struct {
	WorkerCount int
	QueueSize   int
}

// RetryPolicy controls how a failing run is retried. Zero MaxRetries
// means a single attempt.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Job is one unit of deferred work. Run receives a context that is
// canceled at shutdown and, when Timeout is set, after the deadline.
type Job struct {
	Name        string
	Run         func(ctx context.Context) error
	Delay       time.Duration
	Timeout     time.Duration
	RetryPolicy RetryPolicy
}

var (
	ErrSchedulerNotStarted = errors.New("scheduler not started")
	ErrJobAlreadyScheduled = errors.New("job already scheduled")
)

// Scheduler runs jobs on a fixed worker pool. Delays, retry backoffs and
// periodic reruns are armed on timers, so a job that is merely waiting
// never occupies a worker.
type Scheduler struct {
	cfg SchedulerConfig

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	periodic map[string]struct{}
	timers   map[*time.Timer]struct{}

	ready chan execution

	workerWG sync.WaitGroup
}

// execution is one pending run of a job. every > 0 marks a periodic job
// that re-arms itself after each run.
type execution struct {
	job     Job
	attempt int
	every   time.Duration
}

var (
	metricsOnce        sync.Once
	jobRunsTotal       *prometheus.CounterVec
	jobDurationSeconds *prometheus.HistogramVec
	jobLastSuccess     *prometheus.GaugeVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lorewiki",
			Subsystem: "background",
			Name:      "job_runs_total",
			Help:      "Total background job executions",
		}, []string{"job", "status"})

		jobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lorewiki",
			Subsystem: "background",
			Name:      "job_duration_seconds",
			Help:      "Duration of background job executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"})

		jobLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lorewiki",
			Subsystem: "background",
			Name:      "job_last_success_timestamp",
			Help:      "Unix timestamp of the last successful background job execution",
		}, []string{"job"})
	})
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	initMetrics()

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}

	return &Scheduler{
		cfg:      cfg,
		ready:    make(chan execution, cfg.QueueSize),
		periodic: make(map[string]struct{}),
		timers:   make(map[*time.Timer]struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.workerWG.Add(1)
		go s.worker()
	}
}

// Schedule queues a one-shot job, after Job.Delay when one is set.
func (s *Scheduler) Schedule(job Job) error {
	if err := validateJob(job); err != nil {
		return err
	}
	if !s.running() {
		return ErrSchedulerNotStarted
	}

	s.dispatch(execution{job: job, attempt: 1})
	return nil
}

// ScheduleEvery runs the job once now and then again every interval, for
// the life of the scheduler. The name stays held while the job is
// standing, so scheduling a second periodic job under it is rejected.
func (s *Scheduler) ScheduleEvery(interval time.Duration, job Job) error {
	if err := validateJob(job); err != nil {
		return err
	}
	if interval <= 0 {
		return errors.New("interval must be positive")
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrSchedulerNotStarted
	}
	if _, held := s.periodic[job.Name]; held {
		s.mu.Unlock()
		return ErrJobAlreadyScheduled
	}
	s.periodic[job.Name] = struct{}{}
	s.mu.Unlock()

	s.dispatch(execution{job: job, attempt: 1, every: interval})
	return nil
}

func validateJob(job Job) error {
	if job.Name == "" {
		return errors.New("job name is required")
	}
	if job.Run == nil {
		return errors.New("job runner is required")
	}
	return nil
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// dispatch queues the execution, arming a timer first when it is not due
// yet. The timer is registered under the lock before it can fire, and a
// late fire during shutdown drops the job instead of queueing it.
func (s *Scheduler) dispatch(e execution) {
	delay := e.job.Delay
	e.job.Delay = 0
	if delay <= 0 {
		s.enqueue(e)
		return
	}

	s.mu.Lock()
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, timer)
		s.mu.Unlock()
		s.enqueue(e)
	})
	s.timers[timer] = struct{}{}
	s.mu.Unlock()
}

func (s *Scheduler) enqueue(e execution) {
	select {
	case <-s.ctx.Done():
	case s.ready <- e:
	}
}

func (s *Scheduler) worker() {
	defer s.workerWG.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case e := <-s.ready:
			s.run(e)
		}
	}
}

// run executes one attempt and decides the follow-up: backoff retry
// while attempts remain, then for periodic jobs the next interval.
// Cancellation ends the line, success or not.
func (s *Scheduler) run(e execution) {
	err := s.attempt(e)

	switch {
	case err == nil:
		logger.Info("Background job completed", map[string]interface{}{"job": e.job.Name, "attempt": e.attempt})
	case errors.Is(err, context.Canceled):
		logger.Warn("Background job canceled", map[string]interface{}{"job": e.job.Name, "attempt": e.attempt})
		return
	case e.attempt <= e.job.RetryPolicy.MaxRetries:
		retry := e
		retry.attempt++
		retry.job.Delay = e.job.RetryPolicy.Backoff
		s.dispatch(retry)
		return
	default:
		logger.Error(err, "Background job gave up", map[string]interface{}{"job": e.job.Name, "attempt": e.attempt})
	}

	if e.every > 0 {
		next := e
		next.attempt = 1
		next.job.Delay = e.every
		s.dispatch(next)
	}
}

func (s *Scheduler) attempt(e execution) error {
	start := time.Now()
	status := "success"
	var runErr error

	ctx := s.ctx
	if e.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.job.Timeout)
		defer cancel()
	}

	defer func() {
		jobDurationSeconds.WithLabelValues(e.job.Name).Observe(time.Since(start).Seconds())
		jobRunsTotal.WithLabelValues(e.job.Name, status).Inc()
		if status == "success" {
			jobLastSuccess.WithLabelValues(e.job.Name).SetToCurrentTime()
		}
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic: %v", r)
			}
		}()
		runErr = e.job.Run(ctx)
	}()

	if runErr == nil {
		return nil
	}

	if errors.Is(runErr, context.Canceled) {
		status = "canceled"
	} else {
		status = "failure"
		logger.Error(runErr, "Background job failed", map[string]interface{}{"job": e.job.Name, "attempt": e.attempt})
	}
	return runErr
}

// Shutdown cancels the scheduler context, disarms pending timers and
// waits for workers to finish their current job, up to the context
// deadline. Workers never sleep through a delay, so the wait is bounded
// by the longest running job.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	timers := make([]*time.Timer, 0, len(s.timers))
	for timer := range s.timers {
		timers = append(timers, timer)
	}
	s.mu.Unlock()

	cancel()
	for _, timer := range timers {
		timer.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveJobCount reports how many periodic jobs are standing.
func (s *Scheduler) ActiveJobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.periodic)
}
