package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/logger"
)

const expirySweepBatchSize = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// licenseExpirer is the slice of the license service the sweep needs.
type licenseExpirer interface {
	ExpireDue(ctx context.Context, now time.Time, batchSize int) (int, error)
}

// LicenseExpiryJobParams configure the nightly license expiry sweep.
type LicenseExpiryJobParams struct {
	Logger    *logger.Logger
	Licenses  licenseExpirer
	BatchSize int
}

// NewLicenseExpiryJob constructs the job that flips lapsed keys to expired.
func NewLicenseExpiryJob(params LicenseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Licenses == nil {
		return nil, fmt.Errorf("license service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = expirySweepBatchSize
	}
	return &licenseExpiryJob{
		logg:      params.Logger,
		licenses:  params.Licenses,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type licenseExpiryJob struct {
	logg      *logger.Logger
	licenses  licenseExpirer
	batchSize int
	now       func() time.Time
}

func (j *licenseExpiryJob) Name() string { return "license-expiry" }

// Run sweeps in batches until a pass expires nothing. Batch errors are
// collected rather than aborting the sweep, so one bad row cannot park the
// whole backlog.
func (j *licenseExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	total := 0
	var errs error
	for {
		expired, err := j.licenses.ExpireDue(ctx, now, j.batchSize)
		total += expired
		if err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if expired == 0 {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"swept_at":     now,
		"keys_expired": total,
	})
	j.logg.Info(logCtx, "license expiry sweep finished")
	return errs
}
