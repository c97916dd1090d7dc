package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/pipeline"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// recorder captures every run snapshot the orchestrator emits
type recorder struct {
	mu   sync.Mutex
	runs []models.PipelineRun
	done chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 8)}
}

func (r *recorder) NotifyRun(run models.PipelineRun) {
	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()
	if run.State.Terminal() {
		r.done <- struct{}{}
	}
}

func (r *recorder) waitTerminal(t *testing.T) models.PipelineRun {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not reach a terminal state")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[len(r.runs)-1]
}

func stage(name string, fn func(ctx context.Context) (int, error)) pipeline.Stage {
	return pipeline.StageFunc{StageName: name, Fn: fn}
}

func okStage(name string, rows int) pipeline.Stage {
	return stage(name, func(ctx context.Context) (int, error) { return rows, nil })
}

func TestRunCompletesAllStages(t *testing.T) {
	rec := newRecorder()
	orch := pipeline.New(nil, []pipeline.Stage{
		okStage("first", 3),
		okStage("second", 7),
	})
	orch.SetNotifier(rec)

	run, err := orch.StartRun("manual")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.State != models.RunStateRunning {
		t.Errorf("initial state = %s, want running", run.State)
	}
	if run.RunID == "" {
		t.Error("run should have an ID")
	}

	final := rec.waitTerminal(t)
	if final.State != models.RunStateCompleted {
		t.Fatalf("final state = %s, want completed", final.State)
	}
	if len(final.Stages) != 2 {
		t.Fatalf("got %d stage results, want 2", len(final.Stages))
	}
	if final.Stages[0].Stage != "first" || final.Stages[0].Rows != 3 {
		t.Errorf("stage 0 = %+v, want first with 3 rows", final.Stages[0])
	}
	if final.Stages[1].Stage != "second" || final.Stages[1].Rows != 7 {
		t.Errorf("stage 1 = %+v, want second with 7 rows", final.Stages[1])
	}
	if final.FinishedAt == nil {
		t.Error("completed run should have a finish time")
	}
}

func TestSecondRunRejectedWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	// The post-completion restart below re-invokes the stage closure
	var startOnce sync.Once

	rec := newRecorder()
	orch := pipeline.New(nil, []pipeline.Stage{
		stage("blocking", func(ctx context.Context) (int, error) {
			startOnce.Do(func() { close(started) })
			<-release
			return 0, nil
		}),
	})
	orch.SetNotifier(rec)

	if _, err := orch.StartRun("manual"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	<-started

	if _, err := orch.StartRun("manual"); !errors.Is(err, pipeline.ErrRunInProgress) {
		t.Errorf("second StartRun error = %v, want ErrRunInProgress", err)
	}

	close(release)
	final := rec.waitTerminal(t)
	if final.State != models.RunStateCompleted {
		t.Errorf("final state = %s, want completed", final.State)
	}

	// Lock released after the run finishes
	if _, err := orch.StartRun("manual"); err != nil {
		t.Errorf("StartRun after completion: %v", err)
	}
	rec.waitTerminal(t)
}

func TestAdminLockRejectsRuns(t *testing.T) {
	orch := pipeline.New(nil, []pipeline.Stage{okStage("only", 1)})

	orch.SetAdminLock(true)
	if _, err := orch.StartRun("manual"); !errors.Is(err, pipeline.ErrAdminLocked) {
		t.Errorf("StartRun under lock error = %v, want ErrAdminLocked", err)
	}
	if !orch.AdminLocked() {
		t.Error("AdminLocked should report true")
	}

	rec := newRecorder()
	orch.SetNotifier(rec)
	orch.SetAdminLock(false)
	if _, err := orch.StartRun("manual"); err != nil {
		t.Errorf("StartRun after unlock: %v", err)
	}
	rec.waitTerminal(t)
}

func TestCancelStopsAtStageBoundary(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	secondRan := false

	rec := newRecorder()
	orch := pipeline.New(nil, []pipeline.Stage{
		stage("first", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		}),
		stage("second", func(ctx context.Context) (int, error) {
			secondRan = true
			return 1, nil
		}),
	})
	orch.SetNotifier(rec)

	if _, err := orch.StartRun("manual"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	<-started

	if !orch.Cancel() {
		t.Error("Cancel should report true while a run is in flight")
	}
	close(release)

	final := rec.waitTerminal(t)
	if final.State != models.RunStateCancelled {
		t.Fatalf("final state = %s, want cancelled", final.State)
	}
	if secondRan {
		t.Error("stage after the cancel boundary must not run")
	}
	// The in-flight stage finished whole before the boundary check
	if len(final.Stages) != 1 || final.Stages[0].Stage != "first" {
		t.Errorf("stage results = %+v, want first only", final.Stages)
	}
}

func TestCancelWithoutRun(t *testing.T) {
	orch := pipeline.New(nil, []pipeline.Stage{okStage("only", 1)})
	if orch.Cancel() {
		t.Error("Cancel with no run in flight should report false")
	}
}

func TestStageFailureStopsRun(t *testing.T) {
	thirdRan := false

	rec := newRecorder()
	orch := pipeline.New(nil, []pipeline.Stage{
		okStage("first", 2),
		stage("second", func(ctx context.Context) (int, error) {
			return 0, fmt.Errorf("stream unavailable")
		}),
		stage("third", func(ctx context.Context) (int, error) {
			thirdRan = true
			return 0, nil
		}),
	})
	orch.SetNotifier(rec)

	if _, err := orch.StartRun("manual"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	final := rec.waitTerminal(t)
	if final.State != models.RunStateFailed {
		t.Fatalf("final state = %s, want failed", final.State)
	}
	if final.FailedStage != "second" {
		t.Errorf("failed stage = %s, want second", final.FailedStage)
	}
	if final.Error != "stream unavailable" {
		t.Errorf("error = %q, want the stage error", final.Error)
	}
	if thirdRan {
		t.Error("stages after a failure must not run")
	}

	// A failed run releases the lock for the retry
	if _, err := orch.StartRun("manual"); err != nil {
		t.Errorf("StartRun after failure: %v", err)
	}
	rec.waitTerminal(t)
}

func TestStageSequence(t *testing.T) {
	stages := pipeline.BuildStages(nil, nil, nil, nil, nil, nil)

	want := []string{
		pipeline.StageSnapshotIngest,
		pipeline.StageResultsIngest,
		pipeline.StageIdentityLink,
		pipeline.StageReconcile,
		pipeline.StageAnalyticsRebuild,
	}
	if len(stages) != len(want) {
		t.Fatalf("got %d stages, want %d", len(stages), len(want))
	}
	for i, s := range stages {
		if s.Name() != want[i] {
			t.Errorf("stage %d = %s, want %s", i, s.Name(), want[i])
		}
	}
}

func TestCurrentRunSnapshot(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	rec := newRecorder()
	orch := pipeline.New(nil, []pipeline.Stage{
		stage("blocking", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 0, nil
		}),
	})
	orch.SetNotifier(rec)

	if orch.CurrentRun() != nil {
		t.Error("CurrentRun should be nil before any run")
	}

	run, err := orch.StartRun("scheduled")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	<-started

	current := orch.CurrentRun()
	if current == nil || current.RunID != run.RunID {
		t.Fatalf("CurrentRun = %+v, want run %s", current, run.RunID)
	}
	if current.Trigger != "scheduled" {
		t.Errorf("trigger = %s, want scheduled", current.Trigger)
	}

	close(release)
	rec.waitTerminal(t)

	if orch.CurrentRun() != nil {
		t.Error("CurrentRun should be nil after the run finishes")
	}
}
