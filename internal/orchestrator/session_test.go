package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/registry"
)

// fakeChecker reports existence from a fixed set of paths.
type fakeChecker struct {
	existing map[string]bool
	err      error
}

func (f *fakeChecker) ExistAll(_ context.Context, paths []string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, p := range paths {
		if !f.existing[p] {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeChecker) Invalidate(string) {}

// fakeDeduper is an in-memory registry without seeding.
type fakeDeduper struct {
	entries map[string]registry.Entry
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{entries: make(map[string]registry.Entry)}
}

func (f *fakeDeduper) Lookup(_ context.Context, identity, _ string) (registry.Entry, bool, error) {
	e, ok := f.entries[identity]
	if !ok || e.State == domain.JobStateFailed {
		return registry.Entry{}, false, nil
	}
	return e, true, nil
}

func (f *fakeDeduper) Record(identity, remoteID string, state domain.JobState) {
	f.entries[identity] = registry.Entry{Identity: identity, RemoteID: remoteID, State: state}
}

func (f *fakeDeduper) Forget(identity string) {
	delete(f.entries, identity)
}

// fakeSubmitter records submissions and mints sequential remote IDs.
type fakeSubmitter struct {
	submitted []compute.SubmitInput
	cancelled []string
	submitErr error
}

func (f *fakeSubmitter) Submit(_ context.Context, in compute.SubmitInput) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, in)
	return fmt.Sprintf("remote-%d", len(f.submitted)), nil
}

func (f *fakeSubmitter) Describe(context.Context, []string) ([]compute.JobDetail, error) {
	return nil, nil
}

func (f *fakeSubmitter) ListActive(context.Context, string) ([]compute.JobDetail, error) {
	return nil, nil
}

func (f *fakeSubmitter) Cancel(_ context.Context, remoteID, _ string) error {
	f.cancelled = append(f.cancelled, remoteID)
	return nil
}

func testJob(wf *domain.Workflow, stage string, upstreams ...*domain.Job) *domain.Job {
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
	for _, up := range upstreams {
		job.Upstreams = append(job.Upstreams, up.ID)
	}
	return job
}

func testSession(wf *domain.Workflow, checker *fakeChecker, sub *fakeSubmitter) *Session {
	return NewSession(SessionConfig{
		Workflow: wf,
		Checker:  checker,
		Registry: newFakeDeduper(),
		Compute:  sub,
	})
}

func TestAddJob_OutputsExistSkipsSubmit(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := testJob(wf, "align")
	wf.AddJob(job)

	checker := &fakeChecker{existing: map[string]bool{job.Outputs[0]: true}}
	sub := &fakeSubmitter{}
	s := testSession(wf, checker, sub)

	if err := s.AddJob(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.State != domain.JobStateSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", job.State)
	}
	if job.CompletedBy != domain.CompletedByOutput {
		t.Errorf("expected completion by output, got %q", job.CompletedBy)
	}
	if len(sub.submitted) != 0 {
		t.Error("nothing must be submitted when outputs exist")
	}
	if job.IsSubmitted() {
		t.Error("job must have no remote id")
	}
}

func TestAddJob_DedupReusesRunningJob(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := testJob(wf, "align")
	wf.AddJob(job)

	dedup := newFakeDeduper()
	dedup.Record(job.Identity, "extant-42", domain.JobStateRunning)

	sub := &fakeSubmitter{}
	s := NewSession(SessionConfig{
		Workflow: wf,
		Checker:  &fakeChecker{},
		Registry: dedup,
		Compute:  sub,
	})

	if err := s.AddJob(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.RemoteID != "extant-42" {
		t.Errorf("expected reused remote id, got %q", job.RemoteID)
	}
	if job.State != domain.JobStateRunning {
		t.Errorf("expected RUNNING from the registry, got %s", job.State)
	}
	if len(sub.submitted) != 0 {
		t.Error("a registry hit must not submit")
	}
}

func TestAddJob_SubmitsWithDependsOn(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	up := testJob(wf, "align")
	down := testJob(wf, "call", up)
	wf.AddJob(up)
	wf.AddJob(down)

	sub := &fakeSubmitter{}
	s := testSession(wf, &fakeChecker{}, sub)

	ctx := context.Background()
	if err := s.AddJob(ctx, up); err != nil {
		t.Fatalf("upstream: %v", err)
	}
	if err := s.AddJob(ctx, down); err != nil {
		t.Fatalf("downstream: %v", err)
	}

	if len(sub.submitted) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(sub.submitted))
	}
	deps := sub.submitted[1].DependsOn
	if len(deps) != 1 || deps[0] != up.RemoteID {
		t.Errorf("downstream must depend on upstream remote id, got %v", deps)
	}
}

func TestAddJob_CompletedUpstreamNotInDependsOn(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	up := testJob(wf, "align")
	down := testJob(wf, "call", up)
	wf.AddJob(up)
	wf.AddJob(down)

	// Upstream outputs already exist, downstream outputs do not
	checker := &fakeChecker{existing: map[string]bool{up.Outputs[0]: true}}
	sub := &fakeSubmitter{}
	s := testSession(wf, checker, sub)

	ctx := context.Background()
	s.AddJob(ctx, up)
	if err := s.AddJob(ctx, down); err != nil {
		t.Fatalf("downstream: %v", err)
	}

	if len(sub.submitted) != 1 {
		t.Fatalf("expected only the downstream submission, got %d", len(sub.submitted))
	}
	if len(sub.submitted[0].DependsOn) != 0 {
		t.Errorf("an output-complete upstream must not appear in dependsOn, got %v",
			sub.submitted[0].DependsOn)
	}
}

func TestAddJob_FailedUpstreamBlocks(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	up := testJob(wf, "align")
	down := testJob(wf, "call", up)
	wf.AddJob(up)
	wf.AddJob(down)

	sub := &fakeSubmitter{submitErr: errors.New("quota exceeded")}
	s := testSession(wf, &fakeChecker{}, sub)

	ctx := context.Background()
	if err := s.AddJob(ctx, up); err == nil {
		t.Fatal("expected a submission error for the upstream")
	}
	if up.State != domain.JobStateFailed {
		t.Fatalf("expected FAILED upstream, got %s", up.State)
	}

	err := s.AddJob(ctx, down)
	if !errors.Is(err, ErrDependencyBlocked) {
		t.Errorf("expected ErrDependencyBlocked, got %v", err)
	}
	if down.IsSubmitted() {
		t.Error("blocked job must not be submitted")
	}
}

func TestAddJob_UnsubmittedUpstreamBlocks(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	up := testJob(wf, "align")
	down := testJob(wf, "call", up)
	wf.AddJob(up)
	wf.AddJob(down)

	sub := &fakeSubmitter{}
	s := testSession(wf, &fakeChecker{}, sub)

	// Downstream added without ever submitting the upstream
	err := s.AddJob(context.Background(), down)
	if !errors.Is(err, ErrDependencyBlocked) {
		t.Errorf("expected ErrDependencyBlocked, got %v", err)
	}
}

func TestAddJob_CheckFailureDoesNotSubmit(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := testJob(wf, "align")
	wf.AddJob(job)

	checker := &fakeChecker{err: errors.New("storage unreachable")}
	sub := &fakeSubmitter{}
	s := testSession(wf, checker, sub)

	err := s.AddJob(context.Background(), job)
	if err == nil {
		t.Fatal("expected a check error")
	}

	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Errorf("expected SubmissionError, got %T", err)
	}
	if len(sub.submitted) != 0 {
		t.Error("an unverifiable job must not be submitted")
	}
	if job.State != domain.JobStateNotSubmitted {
		t.Errorf("job state must stay NOT_SUBMITTED, got %s", job.State)
	}
}

func TestAddJob_Idempotent(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := testJob(wf, "align")
	wf.AddJob(job)

	sub := &fakeSubmitter{}
	s := testSession(wf, &fakeChecker{}, sub)

	ctx := context.Background()
	s.AddJob(ctx, job)
	s.AddJob(ctx, job) // second pass: the registry already knows the identity

	if len(sub.submitted) != 1 {
		t.Errorf("expected a single submission, got %d", len(sub.submitted))
	}
}

func TestAddJob_DryRun(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := testJob(wf, "align")
	wf.AddJob(job)

	sub := &fakeSubmitter{}
	s := NewSession(SessionConfig{
		Workflow: wf,
		Checker:  &fakeChecker{},
		Registry: newFakeDeduper(),
		Compute:  sub,
		DryRun:   true,
	})

	if err := s.AddJob(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sub.submitted) != 0 {
		t.Error("dry-run must not submit")
	}
	if job.IsSubmitted() {
		t.Error("dry-run must not assign a remote id")
	}
}

func TestSubmitWorkflow_IndependentChainsSurviveFailure(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	broken := testJob(wf, "align")
	dependent := testJob(wf, "call", broken)
	standalone := testJob(wf, "qc")
	wf.AddJob(broken)
	wf.AddJob(dependent)
	wf.AddJob(standalone)

	// Only the first submission fails
	sub := &fakeSubmitter{submitErr: errors.New("quota exceeded")}
	s := testSession(wf, &fakeChecker{}, sub)

	ctx := context.Background()
	s.AddJob(ctx, broken)
	sub.submitErr = nil

	err := s.SubmitWorkflow(ctx)
	if err == nil {
		t.Fatal("expected joined errors from the blocked chain")
	}

	if !standalone.IsSubmitted() {
		t.Error("the independent chain must still be submitted")
	}
	if dependent.IsSubmitted() {
		t.Error("the dependent of a failed job must not be submitted")
	}
	if wf.Status != domain.WorkflowStatusSubmitted {
		t.Errorf("workflow must be marked SUBMITTED, got %s", wf.Status)
	}
}

func TestResubmitFailed(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	job := testJob(wf, "align")
	wf.AddJob(job)

	sub := &fakeSubmitter{submitErr: errors.New("quota exceeded")}
	s := testSession(wf, &fakeChecker{}, sub)

	ctx := context.Background()
	s.AddJob(ctx, job)
	if job.State != domain.JobStateFailed {
		t.Fatalf("setup: expected FAILED, got %s", job.State)
	}

	sub.submitErr = nil
	count, err := s.ResubmitFailed(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 resubmitted job, got %d", count)
	}
	if job.State != domain.JobStateSubmitted || !job.IsSubmitted() {
		t.Errorf("expected a fresh submission, got state=%s remote=%q", job.State, job.RemoteID)
	}
	if job.Error != "" {
		t.Errorf("old error must be cleared, got %q", job.Error)
	}
}

func TestResubmitJob(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	broken := testJob(wf, "align")
	healthy := testJob(wf, "call")
	wf.AddJob(broken)
	wf.AddJob(healthy)

	sub := &fakeSubmitter{submitErr: errors.New("quota exceeded")}
	s := testSession(wf, &fakeChecker{}, sub)

	ctx := context.Background()
	s.AddJob(ctx, broken)
	if broken.State != domain.JobStateFailed {
		t.Fatalf("setup: expected FAILED, got %s", broken.State)
	}
	sub.submitErr = nil
	s.AddJob(ctx, healthy)

	if err := s.ResubmitJob(ctx, broken.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if broken.State != domain.JobStateSubmitted || !broken.IsSubmitted() {
		t.Errorf("expected a fresh submission, got state=%s remote=%q",
			broken.State, broken.RemoteID)
	}

	// Only FAILED jobs may be resubmitted selectively
	if err := s.ResubmitJob(ctx, healthy.ID); !errors.Is(err, ErrJobNotFailed) {
		t.Errorf("expected ErrJobNotFailed, got %v", err)
	}
	if err := s.ResubmitJob(ctx, uuid.New()); err == nil {
		t.Error("expected an error for an unknown job id")
	}
}

func TestCancelWorkflow(t *testing.T) {
	wf := domain.NewWorkflow(uuid.New(), "wf")
	active := testJob(wf, "align")
	pending := testJob(wf, "call", active)
	wf.AddJob(active)
	wf.AddJob(pending)

	sub := &fakeSubmitter{}
	s := testSession(wf, &fakeChecker{}, sub)

	ctx := context.Background()
	s.AddJob(ctx, active)

	if err := s.CancelWorkflow(ctx, "operator request"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sub.cancelled) != 1 || sub.cancelled[0] != active.RemoteID {
		t.Errorf("expected the active job cancelled, got %v", sub.cancelled)
	}
	if wf.Status != domain.WorkflowStatusCancelled {
		t.Errorf("expected CANCELLED workflow, got %s", wf.Status)
	}

	// The session is closed for new work
	if err := s.AddJob(ctx, pending); !errors.Is(err, ErrWorkflowCancelled) {
		t.Errorf("expected ErrWorkflowCancelled, got %v", err)
	}
}
