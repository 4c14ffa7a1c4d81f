package announcements

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
)

type announcementsRepository interface {
	FindActive(ctx context.Context) (*models.Announcement, error)
	DeactivateAllTx(tx *gorm.DB) error
	CreateTx(tx *gorm.DB, row *models.Announcement) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SetInput replaces the storefront banner.
type SetInput struct {
	Message   string `json:"message" validate:"required"`
	Active    bool   `json:"active"`
	CreatedBy *string
}

// Service manages the single-active storefront banner.
type Service interface {
	Active(ctx context.Context) (*models.Announcement, error)
	Set(ctx context.Context, input SetInput) (*models.Announcement, error)
}

type service struct {
	repo announcementsRepository
	tx   txRunner
}

func NewService(repo announcementsRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("announcements repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Active returns the current banner, or nil when none is live.
func (s *service) Active(ctx context.Context) (*models.Announcement, error) {
	row, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading announcement")
	}
	return row, nil
}

func (s *service) Set(ctx context.Context, input SetInput) (*models.Announcement, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message required")
	}

	row := &models.Announcement{
		Message:   message,
		Active:    input.Active,
		CreatedBy: input.CreatedBy,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// A newly active banner replaces whatever was live before.
		if input.Active {
			if err := s.repo.DeactivateAllTx(tx); err != nil {
				return err
			}
		}
		return s.repo.CreateTx(tx, row)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving announcement")
	}
	return row, nil
}
