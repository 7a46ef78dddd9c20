package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/domain"
)

// fakeCompute serves canned describe responses.
type fakeCompute struct {
	details map[string]compute.JobDetail
	err     error
}

func (f *fakeCompute) Submit(context.Context, compute.SubmitInput) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeCompute) Describe(_ context.Context, remoteIDs []string) ([]compute.JobDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []compute.JobDetail
	for _, id := range remoteIDs {
		if d, ok := f.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeCompute) ListActive(context.Context, string) ([]compute.JobDetail, error) {
	return nil, nil
}

func (f *fakeCompute) Cancel(context.Context, string, string) error {
	return nil
}

// fakeChecker reports existence from a fixed set of paths.
type fakeChecker struct {
	existing map[string]bool
}

func (f *fakeChecker) ExistAll(_ context.Context, paths []string) (bool, error) {
	for _, p := range paths {
		if !f.existing[p] {
			return false, nil
		}
	}
	return true, nil
}

func submittedJob(wf *domain.Workflow, stage, remoteID string) *domain.Job {
	job := &domain.Job{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		Sample:     "s1",
		Stage:      stage,
		Name:       "wf_s1_" + stage,
		Definition: stage + ":1",
		Queue:      "highmem",
		Outputs:    []string{"s3://results/s1/" + stage + ".out"},
		Identity:   "identity-" + stage,
		State:      domain.JobStateNotSubmitted,
		CreatedAt:  time.Now(),
	}
	wf.AddJob(job)
	job.MarkSubmitted(remoteID)
	return job
}

func testMonitor(fc *fakeCompute, checker *fakeChecker) *Monitor {
	return New(Config{
		Compute: fc,
		Checker: checker,
		Clock:   clock.NewMock(),
	})
}

func TestPoll_AdvancesStateFromService(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")

	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateRunning},
	}}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	m.Poll(context.Background())

	if job.State != domain.JobStateRunning {
		t.Errorf("expected RUNNING, got %s", job.State)
	}
}

func TestPoll_OutputTruthBeatsFailedStatus(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")

	// The service says FAILED, but the outputs are all there
	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateFailed, StatusReason: "oom"},
	}}
	checker := &fakeChecker{existing: map[string]bool{job.Outputs[0]: true}}
	m := testMonitor(fc, checker)
	m.Track(wf)

	m.Poll(context.Background())

	if job.State != domain.JobStateSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s", job.State)
	}
	if job.CompletedBy != domain.CompletedByOutput {
		t.Errorf("expected completion by output, got %q", job.CompletedBy)
	}
}

func TestPoll_NoStateRegression(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")

	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateRunning},
	}}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	ctx := context.Background()
	m.Poll(ctx)

	// The service momentarily reports an earlier state
	fc.details["r1"] = compute.JobDetail{RemoteID: "r1", State: domain.JobStateRunnable}
	m.Poll(ctx)

	if job.State != domain.JobStateRunning {
		t.Errorf("state must not regress, got %s", job.State)
	}
}

func TestPoll_FailedJobRecordsReason(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")

	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateFailed, StatusReason: "exit code 137"},
	}}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	m.Poll(context.Background())

	if job.State != domain.JobStateFailed {
		t.Fatalf("expected FAILED, got %s", job.State)
	}
	if job.Error != "exit code 137" {
		t.Errorf("expected the status reason recorded, got %q", job.Error)
	}
}

func TestPoll_UnknownJobKeepsState(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")

	// The service has no record of the job, outputs are absent
	fc := &fakeCompute{details: map[string]compute.JobDetail{}}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	m.Poll(context.Background())

	if job.State != domain.JobStateSubmitted {
		t.Errorf("unknown job must keep its state, got %s", job.State)
	}
	if job.Error != compute.ErrUnknownJob.Error() {
		t.Errorf("the poll anomaly must be recorded on the job, got %q", job.Error)
	}
}

func TestPoll_UnknownJobWithOutputsSucceeds(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")

	fc := &fakeCompute{details: map[string]compute.JobDetail{}}
	checker := &fakeChecker{existing: map[string]bool{job.Outputs[0]: true}}
	m := testMonitor(fc, checker)
	m.Track(wf)

	m.Poll(context.Background())

	if job.State != domain.JobStateSucceeded || job.CompletedBy != domain.CompletedByOutput {
		t.Errorf("vanished job with outputs must succeed by output, got %s/%q",
			job.State, job.CompletedBy)
	}
}

func TestPoll_ServiceOutageLeavesJobsUntouched(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")

	fc := &fakeCompute{err: errors.New("throttled")}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	m.Poll(context.Background())

	if job.State != domain.JobStateSubmitted {
		t.Errorf("an outage must not change job state, got %s", job.State)
	}
	if len(m.Tracked()) != 1 {
		t.Error("the workflow must still be tracked")
	}
}

func TestPoll_FinishedWorkflowUntracked(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")
	wf.Status = domain.WorkflowStatusSubmitted

	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateSucceeded},
	}}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	m.Poll(context.Background())

	if job.State != domain.JobStateSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s", job.State)
	}
	if wf.Status != domain.WorkflowStatusCompleted {
		t.Errorf("expected COMPLETED workflow, got %s", wf.Status)
	}
	if len(m.Tracked()) != 0 {
		t.Error("a finished workflow must leave the tracking set")
	}
}

func TestRun_PollsOnTicks(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := submittedJob(wf, "align", "r1")
	wf.Status = domain.WorkflowStatusSubmitted

	mock := clock.NewMock()
	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateSucceeded},
	}}
	m := New(Config{
		Compute:      fc,
		Checker:      &fakeChecker{},
		Clock:        mock,
		PollInterval: 30 * time.Second,
	})
	m.Track(wf)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Let the goroutine park on the ticker, then fire one tick
	time.Sleep(10 * time.Millisecond)
	mock.Add(30 * time.Second)
	time.Sleep(10 * time.Millisecond)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if job.State != domain.JobStateSucceeded {
		t.Errorf("expected the tick to poll, job state is %s", job.State)
	}
}

func TestBuildReport(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wgs_2024")
	wf.Status = domain.WorkflowStatusSubmitted

	byExit := submittedJob(wf, "align", "r1")
	byExit.AdvanceTo(domain.JobStateSucceeded)

	byOutput := submittedJob(wf, "call", "r2")
	byOutput.MarkSucceededByOutput()

	failed := submittedJob(wf, "qc", "r3")
	failed.MarkFailed("exit code 1")

	running := submittedJob(wf, "report", "r4")
	running.AdvanceTo(domain.JobStateRunning)

	r := BuildReport([]*domain.Workflow{wf})
	if len(r.Workflows) != 1 {
		t.Fatalf("expected 1 workflow in report, got %d", len(r.Workflows))
	}

	wr := r.Workflows[0]
	if wr.Total != 4 {
		t.Errorf("expected 4 jobs, got %d", wr.Total)
	}
	if wr.DoneByExit != 1 || wr.DoneByOutput != 1 {
		t.Errorf("expected 1 done by exit and 1 by output, got %d/%d",
			wr.DoneByExit, wr.DoneByOutput)
	}
	if wr.ByState[domain.JobStateFailed] != 1 {
		t.Errorf("expected 1 failed, got %d", wr.ByState[domain.JobStateFailed])
	}

	var sb strings.Builder
	if err := r.Render(&sb); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(sb.String(), "wgs_2024") {
		t.Error("rendered report must name the workflow")
	}
}

func TestPoll_AllFailedWorkflowCompletes(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	submittedJob(wf, "align", "r1")
	wf.Status = domain.WorkflowStatusSubmitted

	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateFailed, StatusReason: "oom"},
	}}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	m.Poll(context.Background())

	// COMPLETED means "all jobs terminal": failures stay visible on the
	// jobs, the workflow itself still closes and leaves the tracking set
	if got := wf.CurrentStatus(); got != domain.WorkflowStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got)
	}
	if wf.AllSucceeded() {
		t.Error("an all-failed workflow must not report success")
	}
	if len(m.Tracked()) != 0 {
		t.Error("the workflow must leave the tracking set")
	}
}

func TestPoll_ConcurrentWithReaders(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	wf.Status = domain.WorkflowStatusSubmitted
	submittedJob(wf, "align", "r1")
	lost := submittedJob(wf, "call", "r2")

	// r2 is deliberately missing from the service: every cycle rewrites
	// the anomaly on the job, so writes keep happening under the readers
	fc := &fakeCompute{details: map[string]compute.JobDetail{
		"r1": {RemoteID: "r1", State: domain.JobStateRunning},
	}}
	m := testMonitor(fc, &fakeChecker{})
	m.Track(wf)

	// Readers hit the live workflows the way the HTTP API does, while
	// Poll mutates job state from its worker goroutines
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			BuildReport(m.Tracked())
			for _, tracked := range m.Tracked() {
				for _, j := range tracked.SnapshotJobs() {
					_ = j.State
				}
				_ = tracked.CurrentStatus()
			}
		}
	}()

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		m.Poll(ctx)
	}

	// Drive both jobs to terminal so finalization rewrites the workflow
	// status under the readers as well
	fc.details["r1"] = compute.JobDetail{RemoteID: "r1", State: domain.JobStateSucceeded}
	fc.details["r2"] = compute.JobDetail{RemoteID: "r2", State: domain.JobStateSucceeded}
	m.Poll(ctx)

	close(stop)
	wg.Wait()

	if lost.State != domain.JobStateSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", lost.State)
	}
	if len(m.Tracked()) != 0 {
		t.Error("a finished workflow must leave the tracking set")
	}
}
