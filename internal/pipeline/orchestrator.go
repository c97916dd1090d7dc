// Package pipeline sequences the ingest, linking, reconciliation, and
// analytics stages into idempotent runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

var (
	// ErrRunInProgress means a run is already executing; only one runs at a time
	ErrRunInProgress = errors.New("pipeline run already in progress")
	// ErrAdminLocked means an operator has locked the pipeline against new runs
	ErrAdminLocked = errors.New("pipeline is locked by an administrator")
	// ErrCancelled means the run stopped at a stage boundary after a cancel request
	ErrCancelled = errors.New("pipeline run cancelled")
)

// Stage is one step of the pipeline. Run returns the number of rows the
// stage produced or touched.
type Stage interface {
	Name() string
	Run(ctx context.Context) (int, error)
}

// StageFunc adapts a function to the Stage interface
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context) (int, error)
}

func (s StageFunc) Name() string { return s.StageName }
func (s StageFunc) Run(ctx context.Context) (int, error) { return s.Fn(ctx) }

// Notifier receives run snapshots on every state transition
type Notifier interface {
	NotifyRun(run models.PipelineRun)
}

// Orchestrator executes the stage sequence under a single-flight run lock.
// Cancellation is cooperative: the flag is checked between stages, never
// inside one, so a stage's transaction either commits whole or not at all.
type Orchestrator struct {
	store  *db.Store
	stages []Stage

	mu          sync.Mutex
	running     bool
	adminLocked bool
	cancel      bool
	current     *models.PipelineRun

	notifier Notifier
}

// New creates an orchestrator over an ordered stage list
func New(store *db.Store, stages []Stage) *Orchestrator {
	return &Orchestrator{store: store, stages: stages}
}

// SetNotifier attaches a run-state listener, typically the websocket hub
func (o *Orchestrator) SetNotifier(n Notifier) {
	o.notifier = n
}

// StartRun begins a run in the background. It fails fast with
// ErrRunInProgress or ErrAdminLocked; otherwise it returns the new run in
// its initial running state.
func (o *Orchestrator) StartRun(trigger string) (*models.PipelineRun, error) {
	o.mu.Lock()
	if o.adminLocked {
		o.mu.Unlock()
		return nil, ErrAdminLocked
	}
	if o.running {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}

	run := &models.PipelineRun{
		RunID:     uuid.New().String(),
		State:     models.RunStateRunning,
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
		Stages:    []models.StageResult{},
	}
	o.running = true
	o.cancel = false
	o.current = run
	o.mu.Unlock()

	snapshot := *run
	o.persist(snapshot)
	o.notify(snapshot)

	go o.execute(run)
	return &snapshot, nil
}

// Cancel requests that the current run stop at the next stage boundary.
// Returns false when nothing is running.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return false
	}
	o.cancel = true
	return true
}

// SetAdminLock flips the operator lock. A locked pipeline rejects new runs
// but never interrupts the one in flight.
func (o *Orchestrator) SetAdminLock(locked bool) {
	o.mu.Lock()
	o.adminLocked = locked
	o.mu.Unlock()
}

// AdminLocked reports the operator lock state
func (o *Orchestrator) AdminLocked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.adminLocked
}

// CurrentRun returns a snapshot of the in-flight run, if any
func (o *Orchestrator) CurrentRun() *models.PipelineRun {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return nil
	}
	snapshot := *o.current
	snapshot.Stages = append([]models.StageResult(nil), o.current.Stages...)
	return &snapshot
}

// execute drives the run to a terminal state
func (o *Orchestrator) execute(run *models.PipelineRun) {
	ctx := context.Background()

	for _, stage := range o.stages {
		if o.cancelRequested() {
			o.finish(run, models.RunStateCancelled, "", ErrCancelled.Error())
			return
		}

		o.mu.Lock()
		run.CurrentStage = stage.Name()
		snapshot := *run
		o.mu.Unlock()
		o.persist(snapshot)
		o.notify(snapshot)

		started := time.Now().UTC()
		fmt.Printf("[Pipeline] run %s stage %s started\n", run.RunID, stage.Name())

		rows, err := stage.Run(ctx)
		finished := time.Now().UTC()

		result := models.StageResult{
			Stage:      stage.Name(),
			Rows:       rows,
			StartedAt:  started,
			FinishedAt: finished,
			Duration:   finished.Sub(started),
		}
		if err != nil {
			result.Err = err.Error()
			o.mu.Lock()
			run.Stages = append(run.Stages, result)
			o.mu.Unlock()
			fmt.Printf("[Pipeline] run %s stage %s failed: %v\n", run.RunID, stage.Name(), err)
			o.finish(run, models.RunStateFailed, stage.Name(), err.Error())
			return
		}

		o.mu.Lock()
		run.Stages = append(run.Stages, result)
		o.mu.Unlock()
		fmt.Printf("[Pipeline] run %s stage %s done: %d rows in %v\n",
			run.RunID, stage.Name(), rows, finished.Sub(started))
	}

	o.finish(run, models.RunStateCompleted, "", "")
}

// finish moves the run to a terminal state and releases the run lock
func (o *Orchestrator) finish(run *models.PipelineRun, state models.RunState, failedStage, errText string) {
	now := time.Now().UTC()

	o.mu.Lock()
	run.State = state
	run.CurrentStage = ""
	run.FailedStage = failedStage
	run.Error = errText
	run.FinishedAt = &now
	snapshot := *run
	snapshot.Stages = append([]models.StageResult(nil), run.Stages...)
	o.running = false
	o.cancel = false
	o.current = nil
	o.mu.Unlock()

	o.persist(snapshot)
	o.notify(snapshot)
	fmt.Printf("[Pipeline] run %s finished: %s\n", snapshot.RunID, state)
}

func (o *Orchestrator) cancelRequested() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancel
}

// persist saves the run snapshot; persistence failures are logged, not
// fatal, so a flaky runs table cannot kill the pipeline itself
func (o *Orchestrator) persist(run models.PipelineRun) {
	if o.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.SaveRun(ctx, run); err != nil {
		fmt.Printf("[Pipeline] failed to save run %s: %v\n", run.RunID, err)
	}
}

func (o *Orchestrator) notify(run models.PipelineRun) {
	if o.notifier != nil {
		o.notifier.NotifyRun(run)
	}
}
