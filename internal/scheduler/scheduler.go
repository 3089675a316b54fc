// Package scheduler is a process-wide registry of named recurring jobs.
// Each job wraps an async task with run/success/failure counters and
// last/next-run timestamps, and can be triggered manually outside its cron
// schedule. All state is in-memory and resets on process restart.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is the unit of work a job runs. Errors are recorded on the job
// status, never propagated to the caller of a cron tick.
type Task func(ctx context.Context) error

// JobStatus is a read-only snapshot of one job's tracked state
type JobStatus struct {
	Name          string     `json:"name"`
	Schedule      string     `json:"schedule"`
	LastRun       *time.Time `json:"last_run,omitempty"`
	LastSuccess   *time.Time `json:"last_success,omitempty"`
	LastFailure   *time.Time `json:"last_failure,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	TotalRuns     int64      `json:"total_runs"`
	TotalSuccess  int64      `json:"total_success"`
	TotalFailures int64      `json:"total_failures"`
	IsRunning     bool       `json:"is_running"`
	NextRun       *time.Time `json:"next_run,omitempty"`
	Stopped       bool       `json:"stopped"`
}

type job struct {
	name     string
	spec     string
	task     Task
	schedule cron.Schedule
	entryID  cron.EntryID

	// runMu serializes executions of this job so a manual trigger and a
	// cron tick can never overlap.
	runMu sync.Mutex

	// mu guards status so snapshots stay readable mid-run
	mu     sync.Mutex
	status JobStatus
}

// Scheduler owns the cron timers and the job registry. Construct one at
// process startup and pass it wherever jobs need triggering or querying.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location

	mu      sync.Mutex
	jobs    map[string]*job
	order   []string
	started bool
}

// New returns a scheduler evaluating all schedules in the given timezone
func New(loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		loc:  loc,
		jobs: make(map[string]*job),
	}
}

// Register adds a named job with a standard 5-field cron spec. Returns an
// error for an invalid spec or a duplicate name.
func (s *Scheduler) Register(name, spec string, task Task) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("job %s: invalid cron spec %q: %w", name, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	j := &job{
		name:     name,
		spec:     spec,
		task:     task,
		schedule: schedule,
		status:   JobStatus{Name: name, Schedule: spec},
	}
	next := schedule.Next(time.Now().In(s.loc))
	j.status.NextRun = &next

	j.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() { s.runJob(j) }))
	s.jobs[name] = j
	s.order = append(s.order, name)
	return nil
}

// Start launches the cron timers. Calling it again is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	log.Printf("Scheduler started with %d jobs in %s", len(s.jobs), s.loc)
}

// Shutdown stops the timers and waits for in-flight runs to finish
func (s *Scheduler) Shutdown() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return s.cron.Stop()
}

// TriggerJob runs a registered job immediately, outside its cron schedule,
// updating the same counters a tick would. It returns the task's error, or
// an error if no job with that name exists.
func (s *Scheduler) TriggerJob(name string) error {
	j, err := s.lookup(name)
	if err != nil {
		return err
	}
	return s.runJob(j)
}

// StopJob detaches a job from its cron timer without touching counters
func (s *Scheduler) StopJob(name string) error {
	j, err := s.lookup(name)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Stopped {
		return nil
	}
	s.cron.Remove(j.entryID)
	j.status.Stopped = true
	j.status.NextRun = nil
	return nil
}

// StartJob re-attaches a stopped job to its cron timer
func (s *Scheduler) StartJob(name string) error {
	j, err := s.lookup(name)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.Stopped {
		return nil
	}
	j.entryID = s.cron.Schedule(j.schedule, cron.FuncJob(func() { s.runJob(j) }))
	next := j.schedule.Next(time.Now().In(s.loc))
	j.status.Stopped = false
	j.status.NextRun = &next
	return nil
}

// StopAll detaches every job from its timer
func (s *Scheduler) StopAll() {
	for _, name := range s.jobNames() {
		_ = s.StopJob(name)
	}
}

// StartAll re-attaches every stopped job
func (s *Scheduler) StartAll() {
	for _, name := range s.jobNames() {
		_ = s.StartJob(name)
	}
}

// Status returns snapshots of every job in registration order
func (s *Scheduler) Status() []JobStatus {
	var out []JobStatus
	for _, name := range s.jobNames() {
		if st, ok := s.JobStatus(name); ok {
			out = append(out, st)
		}
	}
	return out
}

// JobStatus returns one job's snapshot
func (s *Scheduler) JobStatus(name string) (JobStatus, bool) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobStatus{}, false
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, true
}

func (s *Scheduler) lookup(name string) (*job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("job not registered: %s", name)
	}
	return j, nil
}

func (s *Scheduler) jobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// runJob drives one Idle -> Running -> (Succeeded|Failed) -> Idle cycle.
// Overlapping runs of the same job queue on runMu.
func (s *Scheduler) runJob(j *job) error {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	started := time.Now().In(s.loc)
	j.mu.Lock()
	j.status.IsRunning = true
	j.status.LastRun = &started
	j.status.TotalRuns++
	j.mu.Unlock()

	err := runTask(j.task)

	finished := time.Now().In(s.loc)
	next := j.schedule.Next(finished)

	j.mu.Lock()
	if err != nil {
		j.status.LastFailure = &finished
		j.status.TotalFailures++
		j.status.LastError = err.Error()
		log.Printf("Job %s failed: %v", j.name, err)
	} else {
		j.status.LastSuccess = &finished
		j.status.TotalSuccess++
		j.status.LastError = ""
	}
	if !j.status.Stopped {
		j.status.NextRun = &next
	}
	j.status.IsRunning = false
	j.mu.Unlock()

	return err
}

// runTask converts a task panic into an error so one bad job never kills
// the process.
func runTask(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t(context.Background())
}
