package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
)

// fakeCompute serves canned queue listings and counts calls.
type fakeCompute struct {
	active    map[string][]compute.JobDetail
	listCalls int
	listErr   error
}

func (f *fakeCompute) Submit(context.Context, compute.SubmitInput) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeCompute) Describe(context.Context, []string) ([]compute.JobDetail, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCompute) ListActive(_ context.Context, queue string) ([]compute.JobDetail, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.active[queue], nil
}

func (f *fakeCompute) Cancel(context.Context, string, string) error {
	return errors.New("not implemented")
}

func TestRegistry_RecordAndLookup(t *testing.T) {
	r := New(Config{Compute: &fakeCompute{}})

	r.Record("id-1", "batch-job-1", domain.JobStateRunning)

	e, ok, err := r.Lookup(context.Background(), "id-1", "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if e.RemoteID != "batch-job-1" || e.State != domain.JobStateRunning {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestRegistry_FailedJobNotReused(t *testing.T) {
	r := New(Config{Compute: &fakeCompute{}})

	r.Record("id-1", "batch-job-1", domain.JobStateFailed)

	if _, ok, _ := r.Lookup(context.Background(), "id-1", "q"); ok {
		t.Error("a FAILED job must not block resubmission")
	}
}

func TestRegistry_SeedsOncePerQueue(t *testing.T) {
	params := map[string]string{"input": "s3://raw/s1.fastq.gz"}
	identity, err := engine.Identity("align:3", "highmem", params)
	if err != nil {
		t.Fatal(err)
	}

	fc := &fakeCompute{active: map[string][]compute.JobDetail{
		"highmem": {
			{
				RemoteID:   "extant-1",
				Definition: "arn:aws:batch:us-east-1:123:job-definition/align:3",
				Queue:      "arn:aws:batch:us-east-1:123:job-queue/highmem",
				Parameters: params,
				State:      domain.JobStateRunning,
			},
		},
	}}
	r := New(Config{Compute: fc})

	ctx := context.Background()
	e, ok, err := r.Lookup(ctx, identity, "highmem")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || e.RemoteID != "extant-1" {
		t.Fatalf("expected the extant job, got ok=%v entry=%+v", ok, e)
	}

	// Second lookup against the same queue must not relist
	r.Lookup(ctx, identity, "highmem")
	if fc.listCalls != 1 {
		t.Errorf("expected a single listing, got %d", fc.listCalls)
	}
}

func TestRegistry_SeedFailurePropagated(t *testing.T) {
	fc := &fakeCompute{listErr: errors.New("throttled")}
	r := New(Config{Compute: fc})

	if _, _, err := r.Lookup(context.Background(), "id-1", "q"); err == nil {
		t.Error("seeding failure must surface, not pass as a miss")
	}
}

func TestRegistry_Forget(t *testing.T) {
	r := New(Config{Compute: &fakeCompute{}})

	r.Record("id-1", "batch-job-1", domain.JobStateRunning)
	r.Forget("id-1")

	if _, ok, _ := r.Lookup(context.Background(), "id-1", "q"); ok {
		t.Error("forgotten entry must not be returned")
	}
	if r.Size() != 0 {
		t.Errorf("expected empty registry, got %d", r.Size())
	}
}
