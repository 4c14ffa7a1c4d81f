package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/zaliant/storefront-backend/pkg/logger"
)

type stubLicenseExpirer struct {
	batches []int
	calls   int
	err     error
}

func (s *stubLicenseExpirer) ExpireDue(_ context.Context, _ time.Time, _ int) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if len(s.batches) == 0 {
		return 0, nil
	}
	expired := s.batches[0]
	s.batches = s.batches[1:]
	return expired, nil
}

func newExpiryJob(t *testing.T, expirer *stubLicenseExpirer) Job {
	t.Helper()
	job, err := NewLicenseExpiryJob(LicenseExpiryJobParams{
		Logger:   logger.New(logger.Options{Output: io.Discard}),
		Licenses: expirer,
	})
	if err != nil {
		t.Fatalf("NewLicenseExpiryJob: %v", err)
	}
	return job
}

func TestLicenseExpiryJob_SweepsUntilDrained(t *testing.T) {
	expirer := &stubLicenseExpirer{batches: []int{200, 200, 37}}
	job := newExpiryJob(t, expirer)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Three productive batches plus the empty pass that stops the loop.
	if expirer.calls != 4 {
		t.Fatalf("expected 4 sweep calls, got %d", expirer.calls)
	}
}

func TestLicenseExpiryJob_SurfacesBatchError(t *testing.T) {
	expirer := &stubLicenseExpirer{err: errors.New("db down")}
	job := newExpiryJob(t, expirer)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLicenseExpiryJob_RequiresDependencies(t *testing.T) {
	if _, err := NewLicenseExpiryJob(LicenseExpiryJobParams{Licenses: &stubLicenseExpirer{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewLicenseExpiryJob(LicenseExpiryJobParams{Logger: logger.New(logger.Options{Output: io.Discard})}); err == nil {
		t.Fatal("expected error without license service")
	}
}
