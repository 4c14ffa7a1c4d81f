package licenses

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/outbox"
	pkgpagination "github.com/zaliant/storefront-backend/pkg/pagination"
)

type stubLicensesRepo struct {
	byKey       map[string]*models.LicenseKey
	failCreates int
}

func newStubLicensesRepo() *stubLicensesRepo {
	return &stubLicensesRepo{byKey: make(map[string]*models.LicenseKey)}
}

func (s *stubLicensesRepo) CreateTx(_ *gorm.DB, key *models.LicenseKey) error {
	if s.failCreates > 0 {
		s.failCreates--
		return &duplicateKeyError{}
	}
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = time.Now().UTC()
	copied := *key
	s.byKey[key.Key] = &copied
	return nil
}

func (s *stubLicensesRepo) FindByKey(_ context.Context, key string) (*models.LicenseKey, error) {
	row, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (s *stubLicensesRepo) FindByID(_ context.Context, id uuid.UUID) (*models.LicenseKey, error) {
	for _, row := range s.byKey {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubLicensesRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.LicenseKey, error) {
	var rows []models.LicenseKey
	for _, row := range s.byKey {
		if row.OrderID == orderID {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (s *stubLicensesRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.LicenseKey, error) {
	return nil, nil
}

func (s *stubLicensesRepo) List(_ context.Context, status *enums.LicenseStatus, limit int, _ *pkgpagination.Cursor) ([]models.LicenseKey, error) {
	var rows []models.LicenseKey
	for _, row := range s.byKey {
		if status != nil && row.Status != *status {
			continue
		}
		rows = append(rows, *row)
		if len(rows) >= limit {
			break
		}
	}
	return rows, nil
}

func (s *stubLicensesRepo) Activate(_ context.Context, key, hwid string, now time.Time) (int64, error) {
	row, ok := s.byKey[key]
	if !ok {
		return 0, nil
	}
	if row.Status != enums.LicenseStatusActive && row.Status != enums.LicenseStatusUsed {
		return 0, nil
	}
	if row.HWID != nil && *row.HWID != hwid {
		return 0, nil
	}
	if row.ExpiresAt != nil && !row.ExpiresAt.After(now) {
		return 0, nil
	}
	row.Status = enums.LicenseStatusUsed
	row.HWID = &hwid
	if row.ActivatedAt == nil {
		at := now
		row.ActivatedAt = &at
	}
	return 1, nil
}

func (s *stubLicensesRepo) FindDueForExpiry(_ context.Context, now time.Time, limit int) ([]models.LicenseKey, error) {
	var rows []models.LicenseKey
	for _, row := range s.byKey {
		if row.Status != enums.LicenseStatusActive && row.Status != enums.LicenseStatusUsed {
			continue
		}
		if row.ExpiresAt == nil || row.ExpiresAt.After(now) {
			continue
		}
		rows = append(rows, *row)
		if len(rows) >= limit {
			break
		}
	}
	return rows, nil
}

func (s *stubLicensesRepo) RevokeTx(_ *gorm.DB, id uuid.UUID) (int64, error) {
	for _, row := range s.byKey {
		if row.ID == id && row.Status != enums.LicenseStatusRevoked {
			row.Status = enums.LicenseStatusRevoked
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubLicensesRepo) ExpireTx(_ *gorm.DB, id uuid.UUID) (int64, error) {
	for _, row := range s.byKey {
		if row.ID != id {
			continue
		}
		if row.Status != enums.LicenseStatusActive && row.Status != enums.LicenseStatusUsed {
			return 0, nil
		}
		row.Status = enums.LicenseStatusExpired
		return 1, nil
	}
	return 0, nil
}

func (s *stubLicensesRepo) CountByStatus(_ context.Context) (map[enums.LicenseStatus]int64, error) {
	counts := make(map[enums.LicenseStatus]int64)
	for _, row := range s.byKey {
		counts[row.Status]++
	}
	return counts, nil
}

type duplicateKeyError struct{}

func (*duplicateKeyError) Error() string {
	return `duplicate key value violates unique constraint "idx_license_keys_key"`
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T, repo *stubLicensesRepo, emitter *stubEmitter) Service {
	t.Helper()
	svc, err := NewService(repo, emitter, stubTxRunner{}, logger.New(logger.Options{Output: io.Discard}), "ZLNT")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func issueTestKey(t *testing.T, svc Service, label string) *models.LicenseKey {
	t.Helper()
	row, err := svc.IssueTx(context.Background(), &gorm.DB{}, IssueInput{
		OrderID:      uuid.New(),
		ProductName:  "Valorant Private",
		VariantLabel: label,
		IssuedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("IssueTx: %v", err)
	}
	return row
}

func TestIssueTx_KeyShapeAndExpiry(t *testing.T) {
	repo := newStubLicensesRepo()
	emitter := &stubEmitter{}
	svc := newTestService(t, repo, emitter)

	issuedAt := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	row, err := svc.IssueTx(context.Background(), &gorm.DB{}, IssueInput{
		OrderID:      uuid.New(),
		ProductName:  "Valorant Private",
		VariantLabel: "30 Days",
		IssuedAt:     issuedAt,
	})
	if err != nil {
		t.Fatalf("IssueTx: %v", err)
	}
	if !strings.HasPrefix(row.Key, "ZLNT-") {
		t.Fatalf("expected ZLNT prefix, got %q", row.Key)
	}
	if len(strings.Split(row.Key, "-")) != 4 {
		t.Fatalf("expected four key groups, got %q", row.Key)
	}
	if row.Status != enums.LicenseStatusActive {
		t.Fatalf("expected active status, got %s", row.Status)
	}
	if row.ExpiresAt == nil {
		t.Fatal("expected expiry for a 30 day variant")
	}
	want := issuedAt.Add(30 * 24 * time.Hour)
	if !row.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, row.ExpiresAt)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventLicenseIssued {
		t.Fatalf("expected one license_issued event, got %+v", emitter.events)
	}
}

func TestIssueTx_LifetimeHasNoExpiry(t *testing.T) {
	repo := newStubLicensesRepo()
	svc := newTestService(t, repo, &stubEmitter{})

	row := issueTestKey(t, svc, "Lifetime")
	if row.ExpiresAt != nil {
		t.Fatalf("expected open-ended key, got expiry %s", row.ExpiresAt)
	}
}

func TestIssueTx_RetriesOnKeyCollision(t *testing.T) {
	repo := newStubLicensesRepo()
	repo.failCreates = 2
	svc := newTestService(t, repo, &stubEmitter{})

	row := issueTestKey(t, svc, "7 Days")
	if repo.byKey[row.Key] == nil {
		t.Fatal("expected key to be persisted after retries")
	}
}

func TestActivate_BindsHWID(t *testing.T) {
	repo := newStubLicensesRepo()
	svc := newTestService(t, repo, &stubEmitter{})
	issued := issueTestKey(t, svc, "30 Days")

	row, err := svc.Activate(context.Background(), ActivateInput{Key: issued.Key, HWID: "HW-123"})
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if row.Status != enums.LicenseStatusUsed {
		t.Fatalf("expected used status, got %s", row.Status)
	}
	if row.HWID == nil || *row.HWID != "HW-123" {
		t.Fatalf("expected hwid HW-123, got %v", row.HWID)
	}
	if row.ActivatedAt == nil {
		t.Fatal("expected activated_at to be set")
	}
}

func TestActivate_SameDeviceIsIdempotent(t *testing.T) {
	repo := newStubLicensesRepo()
	svc := newTestService(t, repo, &stubEmitter{})
	issued := issueTestKey(t, svc, "30 Days")

	first, err := svc.Activate(context.Background(), ActivateInput{Key: issued.Key, HWID: "HW-123"})
	if err != nil {
		t.Fatalf("first Activate: %v", err)
	}
	second, err := svc.Activate(context.Background(), ActivateInput{Key: issued.Key, HWID: "HW-123"})
	if err != nil {
		t.Fatalf("second Activate: %v", err)
	}
	if !first.ActivatedAt.Equal(*second.ActivatedAt) {
		t.Fatalf("expected activated_at to be preserved: %s vs %s", first.ActivatedAt, second.ActivatedAt)
	}
}

func TestActivate_OtherDeviceConflicts(t *testing.T) {
	repo := newStubLicensesRepo()
	svc := newTestService(t, repo, &stubEmitter{})
	issued := issueTestKey(t, svc, "30 Days")

	if _, err := svc.Activate(context.Background(), ActivateInput{Key: issued.Key, HWID: "HW-123"}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	_, err := svc.Activate(context.Background(), ActivateInput{Key: issued.Key, HWID: "HW-456"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestActivate_UnknownKey(t *testing.T) {
	repo := newStubLicensesRepo()
	svc := newTestService(t, repo, &stubEmitter{})

	_, err := svc.Activate(context.Background(), ActivateInput{Key: "ZLNT-NOPE1-NOPE2-NOPE3", HWID: "HW-1"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestActivate_RevokedKey(t *testing.T) {
	repo := newStubLicensesRepo()
	svc := newTestService(t, repo, &stubEmitter{})
	issued := issueTestKey(t, svc, "30 Days")
	repo.byKey[issued.Key].Status = enums.LicenseStatusRevoked

	_, err := svc.Activate(context.Background(), ActivateInput{Key: issued.Key, HWID: "HW-1"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict error, got %v", err)
	}
}

func TestActivate_LapsedKey(t *testing.T) {
	repo := newStubLicensesRepo()
	svc := newTestService(t, repo, &stubEmitter{})
	issued := issueTestKey(t, svc, "7 Days")
	past := time.Now().UTC().Add(-time.Hour)
	repo.byKey[issued.Key].ExpiresAt = &past

	_, err := svc.Activate(context.Background(), ActivateInput{Key: issued.Key, HWID: "HW-1"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict error, got %v", err)
	}
}

func TestRevoke_EmitsEventOnce(t *testing.T) {
	repo := newStubLicensesRepo()
	emitter := &stubEmitter{}
	svc := newTestService(t, repo, emitter)
	issued := issueTestKey(t, svc, "Lifetime")

	row, err := svc.Revoke(context.Background(), issued.ID, "chargeback")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if row.Status != enums.LicenseStatusRevoked {
		t.Fatalf("expected revoked status, got %s", row.Status)
	}

	// Revoking again is a no-op and must not emit a second event.
	if _, err := svc.Revoke(context.Background(), issued.ID, "chargeback"); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	revoked := 0
	for _, event := range emitter.events {
		if event.EventType == enums.EventLicenseRevoked {
			revoked++
		}
	}
	if revoked != 1 {
		t.Fatalf("expected one revoked event, got %d", revoked)
	}
}

func TestExpireDue_SweepsLapsedKeys(t *testing.T) {
	repo := newStubLicensesRepo()
	emitter := &stubEmitter{}
	svc := newTestService(t, repo, emitter)

	lapsed := issueTestKey(t, svc, "7 Days")
	past := time.Now().UTC().Add(-time.Hour)
	repo.byKey[lapsed.Key].ExpiresAt = &past
	issueTestKey(t, svc, "Lifetime")

	count, err := svc.ExpireDue(context.Background(), time.Now().UTC(), 100)
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one expired key, got %d", count)
	}
	if repo.byKey[lapsed.Key].Status != enums.LicenseStatusExpired {
		t.Fatalf("expected expired status, got %s", repo.byKey[lapsed.Key].Status)
	}
	expiredEvents := 0
	for _, event := range emitter.events {
		if event.EventType == enums.EventLicenseExpired {
			expiredEvents++
		}
	}
	if expiredEvents != 1 {
		t.Fatalf("expected one expired event, got %d", expiredEvents)
	}
}
