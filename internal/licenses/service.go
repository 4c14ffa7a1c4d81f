package licenses

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/zaliant/storefront-backend/pkg/db"
	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/outbox"
	"github.com/zaliant/storefront-backend/pkg/outbox/payloads"
	pkgpagination "github.com/zaliant/storefront-backend/pkg/pagination"
)

const keyGenAttempts = 5

type licensesRepository interface {
	CreateTx(tx *gorm.DB, key *models.LicenseKey) error
	FindByKey(ctx context.Context, key string) (*models.LicenseKey, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseKey, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LicenseKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.LicenseKey, error)
	List(ctx context.Context, status *enums.LicenseStatus, limit int, cursor *pkgpagination.Cursor) ([]models.LicenseKey, error)
	Activate(ctx context.Context, key, hwid string, now time.Time) (int64, error)
	FindDueForExpiry(ctx context.Context, now time.Time, limit int) ([]models.LicenseKey, error)
	RevokeTx(tx *gorm.DB, id uuid.UUID) (int64, error)
	ExpireTx(tx *gorm.DB, id uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[enums.LicenseStatus]int64, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IssueInput describes one key to mint at checkout.
type IssueInput struct {
	OrderID      uuid.UUID
	LineItemID   *uuid.UUID
	ProductName  string
	VariantLabel string
	IssuedAt     time.Time
}

// ActivateInput binds a key to a hardware identifier.
type ActivateInput struct {
	Key  string `json:"key" validate:"required"`
	HWID string `json:"hwid" validate:"required"`
}

// ListParams filters the back-office key listing.
type ListParams struct {
	Status *enums.LicenseStatus
	pkgpagination.Params
}

// ListResult is one page of keys plus the next cursor.
type ListResult struct {
	Items  []models.LicenseKey `json:"items"`
	Cursor string              `json:"cursor"`
}

// Service exposes license issuance, activation, and lifecycle semantics.
type Service interface {
	IssueTx(ctx context.Context, tx *gorm.DB, input IssueInput) (*models.LicenseKey, error)
	Activate(ctx context.Context, input ActivateInput) (*models.LicenseKey, error)
	Lookup(ctx context.Context, key string) (*models.LicenseKey, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LicenseKey, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.LicenseKey, error)
	ListKeys(ctx context.Context, params ListParams) (*ListResult, error)
	Revoke(ctx context.Context, id uuid.UUID, reason string) (*models.LicenseKey, error)
	ExpireDue(ctx context.Context, now time.Time, batchSize int) (int, error)
	CountByStatus(ctx context.Context) (map[enums.LicenseStatus]int64, error)
}

type service struct {
	repo      licensesRepository
	events    eventEmitter
	tx        txRunner
	logg      *logger.Logger
	keyPrefix string
}

// NewService builds a license service backed by the provided dependencies.
func NewService(repo licensesRepository, events eventEmitter, tx txRunner, logg *logger.Logger, keyPrefix string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("license repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = "ZLNT"
	}
	return &service{repo: repo, events: events, tx: tx, logg: logg, keyPrefix: keyPrefix}, nil
}

func (s *service) IssueTx(ctx context.Context, tx *gorm.DB, input IssueInput) (*models.LicenseKey, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(input.ProductName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	issuedAt := input.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	row := &models.LicenseKey{
		OrderID:      input.OrderID,
		LineItemID:   input.LineItemID,
		ProductName:  input.ProductName,
		VariantLabel: input.VariantLabel,
		Status:       enums.LicenseStatusActive,
		ExpiresAt:    ExpiryFromLabel(input.VariantLabel, issuedAt),
	}

	var createErr error
	for attempt := 0; attempt < keyGenAttempts; attempt++ {
		row.Key = generateKey(s.keyPrefix)
		createErr = s.repo.CreateTx(tx, row)
		if createErr == nil {
			break
		}
		if !dbpkg.IsUniqueViolation(createErr, "idx_license_keys_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "creating license key")
		}
	}
	if createErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "exhausted key generation attempts")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventLicenseIssued,
		AggregateType: enums.AggregateLicense,
		AggregateID:   row.ID,
		Version:       1,
		Data: payloads.LicenseIssuedEvent{
			LicenseID:    row.ID,
			OrderID:      row.OrderID,
			ProductName:  row.ProductName,
			VariantLabel: row.VariantLabel,
			ExpiresAt:    row.ExpiresAt,
		},
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting license event")
	}

	return row, nil
}

func (s *service) Activate(ctx context.Context, input ActivateInput) (*models.LicenseKey, error) {
	key := strings.TrimSpace(input.Key)
	hwid := strings.TrimSpace(input.HWID)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license key required")
	}
	if hwid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hardware id required")
	}

	now := time.Now().UTC()
	affected, err := s.repo.Activate(ctx, key, hwid, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activating license")
	}
	if affected == 0 {
		return nil, s.diagnoseActivationFailure(ctx, key, hwid, now)
	}

	row, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading activated license")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activated license disappeared")
	}
	return row, nil
}

// diagnoseActivationFailure reloads the row to tell the caller which guard
// of the conditional update rejected the bind.
func (s *service) diagnoseActivationFailure(ctx context.Context, key, hwid string, now time.Time) error {
	row, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inspecting license")
	}
	if row == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unknown license key")
	}
	switch {
	case row.Status == enums.LicenseStatusRevoked:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "license has been revoked")
	case row.Status == enums.LicenseStatusExpired,
		row.ExpiresAt != nil && !row.ExpiresAt.After(now):
		return pkgerrors.New(pkgerrors.CodeStateConflict, "license has expired")
	case row.HWID != nil && *row.HWID != hwid:
		return pkgerrors.New(pkgerrors.CodeConflict, "license is bound to another device")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "license cannot be activated")
	}
}

func (s *service) Lookup(ctx context.Context, key string) (*models.LicenseKey, error) {
	if strings.TrimSpace(key) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license key required")
	}
	row, err := s.repo.FindByKey(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading license")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown license key")
	}
	return row, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LicenseKey, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing licenses")
	}
	return rows, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.LicenseKey, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing licenses")
	}
	return rows, nil
}

func (s *service) ListKeys(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pkgpagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, params.Status, limit+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing licenses")
	}

	result := &ListResult{Items: rows}
	if len(rows) > limit {
		result.Items = rows[:limit]
		last := result.Items[limit-1]
		result.Cursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *service) Revoke(ctx context.Context, id uuid.UUID, reason string) (*models.LicenseKey, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading license")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
	}
	if row.Status == enums.LicenseStatusRevoked {
		return row, nil
	}

	previous := row.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.RevokeTx(tx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLicenseRevoked,
			AggregateType: enums.AggregateLicense,
			AggregateID:   id,
			Version:       1,
			Data: payloads.LicenseRevokedEvent{
				LicenseID: id,
				OrderID:   row.OrderID,
				Previous:  previous,
				Reason:    reason,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoking license")
	}

	row.Status = enums.LicenseStatusRevoked
	return row, nil
}

func (s *service) ExpireDue(ctx context.Context, now time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	due, err := s.repo.FindDueForExpiry(ctx, now, batchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding expired licenses")
	}

	expired := 0
	for _, row := range due {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			affected, err := s.repo.ExpireTx(tx, row.ID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return nil
			}
			expired++
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLicenseExpired,
				AggregateType: enums.AggregateLicense,
				AggregateID:   row.ID,
				Version:       1,
				Data: payloads.LicenseExpiredEvent{
					LicenseID: row.ID,
					OrderID:   row.OrderID,
					ExpiredAt: now,
				},
			})
		})
		if err != nil {
			return expired, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expiring license")
		}
	}
	if expired > 0 {
		s.logg.Info(s.logg.WithField(ctx, "expired", expired), "license expiry sweep completed")
	}
	return expired, nil
}

func (s *service) CountByStatus(ctx context.Context) (map[enums.LicenseStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting licenses")
	}
	return counts, nil
}

const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateKey mints a key like ZLNT-7K2MQ-9XWPA-H4TBN. The alphabet skips
// look-alike characters so keys survive being read aloud.
func generateKey(prefix string) string {
	groups := make([]string, 0, 4)
	groups = append(groups, prefix)
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to a
		// uuid so issuance still completes.
		return prefix + "-" + strings.ToUpper(uuid.NewString())
	}
	for g := 0; g < 3; g++ {
		chars := make([]byte, 5)
		for i := 0; i < 5; i++ {
			chars[i] = keyAlphabet[int(buf[g*5+i])%len(keyAlphabet)]
		}
		groups = append(groups, string(chars))
	}
	return strings.Join(groups, "-")
}
