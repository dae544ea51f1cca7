package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonledger/internal/apierror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// Option tweaks a service at construction time.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loadErr turns a repository lookup failure into NotFound or a wrapped internal error.
func loadErr(err error, what string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("%s %s not found", what, id)
	}
	return fmt.Errorf("load %s %s: %w", what, id, err)
}

// discrepancyTolerance is the largest |difference| still treated as a match.
var discrepancyTolerance = decimal.RequireFromString("0.01")

// money normalizes a monetary value to the two-decimal fixed point used everywhere.
func money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// truncateDay drops the time of day, keeping the calendar date in UTC.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
