package announcements

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
)

type stubAnnouncementsRepo struct {
	rows []*models.Announcement
}

func (s *stubAnnouncementsRepo) FindActive(_ context.Context) (*models.Announcement, error) {
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].Active {
			copied := *s.rows[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubAnnouncementsRepo) DeactivateAllTx(_ *gorm.DB) error {
	for _, row := range s.rows {
		row.Active = false
	}
	return nil
}

func (s *stubAnnouncementsRepo) CreateTx(_ *gorm.DB, row *models.Announcement) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	copied := *row
	s.rows = append(s.rows, &copied)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T, repo *stubAnnouncementsRepo) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSet_ActivatingReplacesPrevious(t *testing.T) {
	repo := &stubAnnouncementsRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.Set(context.Background(), SetInput{Message: "first", Active: true}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := svc.Set(context.Background(), SetInput{Message: "second", Active: true}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	active, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active == nil || active.Message != "second" {
		t.Fatalf("expected second banner active, got %+v", active)
	}

	activeCount := 0
	for _, row := range repo.rows {
		if row.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active banner, got %d", activeCount)
	}
}

func TestSet_InactiveBannerKeepsCurrent(t *testing.T) {
	repo := &stubAnnouncementsRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.Set(context.Background(), SetInput{Message: "live", Active: true}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := svc.Set(context.Background(), SetInput{Message: "draft", Active: false}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	active, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active == nil || active.Message != "live" {
		t.Fatalf("expected live banner to survive, got %+v", active)
	}
}

func TestSet_EmptyMessageRejected(t *testing.T) {
	svc := newTestService(t, &stubAnnouncementsRepo{})

	_, err := svc.Set(context.Background(), SetInput{Message: "   "})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestActive_NoneIsNotAnError(t *testing.T) {
	svc := newTestService(t, &stubAnnouncementsRepo{})

	active, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active != nil {
		t.Fatalf("expected nil banner, got %+v", active)
	}
}
