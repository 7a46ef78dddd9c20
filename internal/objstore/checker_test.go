package objstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// fakeStore serves folder listings from memory and counts List calls.
type fakeStore struct {
	folders map[string][]string
	calls   int
	err     error
}

func (f *fakeStore) List(_ context.Context, folder string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.folders[folder], nil
}

func newTestChecker(store Store, mock *clock.Mock) *Checker {
	return NewChecker(CheckerConfig{
		Store:           store,
		RecheckInterval: 30 * time.Second,
		ListRetries:     1,
		Clock:           mock,
	})
}

func TestChecker_Exists(t *testing.T) {
	store := &fakeStore{folders: map[string][]string{
		"s3://results/s1": {"aligned.bam", "aligned.bam.bai"},
	}}
	c := newTestChecker(store, clock.NewMock())

	ok, err := c.Exists(context.Background(), "s3://results/s1/aligned.bam")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected file to exist")
	}

	ok, _ = c.Exists(context.Background(), "s3://results/s1/missing.vcf")
	if ok {
		t.Error("expected file to be absent")
	}
}

func TestChecker_CachesFolderListing(t *testing.T) {
	store := &fakeStore{folders: map[string][]string{
		"s3://results/s1": {"a.bam", "b.bam"},
	}}
	c := newTestChecker(store, clock.NewMock())

	ctx := context.Background()
	c.Exists(ctx, "s3://results/s1/a.bam")
	c.Exists(ctx, "s3://results/s1/b.bam")
	c.Exists(ctx, "s3://results/s1/a.bam")

	if store.calls != 1 {
		t.Errorf("expected a single listing, got %d", store.calls)
	}
}

func TestChecker_NegativeResultRechecked(t *testing.T) {
	mock := clock.NewMock()
	store := &fakeStore{folders: map[string][]string{"s3://results/s1": {}}}
	c := newTestChecker(store, mock)

	ctx := context.Background()
	path := "s3://results/s1/late.bam"

	if ok, _ := c.Exists(ctx, path); ok {
		t.Fatal("file must be absent initially")
	}

	// Within the recheck interval the cached miss is trusted
	store.folders["s3://results/s1"] = []string{"late.bam"}
	mock.Add(10 * time.Second)
	if ok, _ := c.Exists(ctx, path); ok {
		t.Error("negative cache must hold within the interval")
	}
	if store.calls != 1 {
		t.Errorf("expected no relisting yet, got %d calls", store.calls)
	}

	// After the interval the folder is listed again and the file shows up
	mock.Add(25 * time.Second)
	ok, err := c.Exists(ctx, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected the file after recheck")
	}
}

func TestChecker_PositiveResultFinal(t *testing.T) {
	mock := clock.NewMock()
	store := &fakeStore{folders: map[string][]string{
		"s3://results/s1": {"a.bam"},
	}}
	c := newTestChecker(store, mock)

	ctx := context.Background()
	c.Exists(ctx, "s3://results/s1/a.bam")

	// Even long past the interval a positive hit does not trigger a relisting
	mock.Add(time.Hour)
	c.Exists(ctx, "s3://results/s1/a.bam")

	if store.calls != 1 {
		t.Errorf("positive hit must not relist, got %d calls", store.calls)
	}
}

func TestChecker_StoreErrorPropagated(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	c := newTestChecker(store, clock.NewMock())

	_, err := c.Exists(context.Background(), "s3://results/s1/a.bam")
	if err == nil {
		t.Fatal("expected an error, not a silent miss")
	}
}

func TestChecker_InvalidPath(t *testing.T) {
	c := newTestChecker(&fakeStore{}, clock.NewMock())

	cases := []string{
		"results/s1/a.bam",
		"s3://results/s1/",
		"s3://bucket-only",
	}
	for _, p := range cases {
		if _, err := c.Exists(context.Background(), p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("path %q: expected ErrInvalidPath, got %v", p, err)
		}
	}
}

func TestChecker_ExistAll(t *testing.T) {
	store := &fakeStore{folders: map[string][]string{
		"s3://results/s1": {"a.bam", "a.vcf"},
	}}
	c := newTestChecker(store, clock.NewMock())

	ctx := context.Background()
	ok, err := c.ExistAll(ctx, []string{"s3://results/s1/a.bam", "s3://results/s1/a.vcf"})
	if err != nil || !ok {
		t.Errorf("expected all outputs present, got ok=%v err=%v", ok, err)
	}

	ok, _ = c.ExistAll(ctx, []string{"s3://results/s1/a.bam", "s3://results/s1/missing"})
	if ok {
		t.Error("expected false when one output is missing")
	}
}

func TestChecker_Invalidate(t *testing.T) {
	store := &fakeStore{folders: map[string][]string{
		"s3://results/s1": {"a.bam"},
	}}
	c := newTestChecker(store, clock.NewMock())

	ctx := context.Background()
	c.Exists(ctx, "s3://results/s1/a.bam")
	c.Invalidate("s3://results/s1/a.bam")
	c.Exists(ctx, "s3://results/s1/a.bam")

	if store.calls != 2 {
		t.Errorf("expected relisting after invalidation, got %d calls", store.calls)
	}
}

func TestSplitPath(t *testing.T) {
	folder, file, err := SplitPath("s3://bucket/a/b/c.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if folder != "s3://bucket/a/b" || file != "c.txt" {
		t.Errorf("got folder=%q file=%q", folder, file)
	}
}
