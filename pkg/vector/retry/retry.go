// Package retry wraps a vector.Driver so transient store failures are
// retried with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/vector"
)

const (
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultMaxRetryDelay = 10 * time.Second
)

// Options controls the retry policy. Zero values use the defaults.
type Options struct {
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Logger        *slog.Logger
}

// Driver retries Upsert and Query on errors classified as errdefs.ErrService.
type Driver struct {
	next vector.Driver
	opts Options
}

// Wrap returns next wrapped with the retry policy.
func Wrap(next vector.Driver, opts Options) *Driver {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Driver{next: next, opts: opts}
}

func (d *Driver) Upsert(ctx context.Context, entries []vector.Entry) error {
	return d.do(ctx, "upsert", func() error {
		return d.next.Upsert(ctx, entries)
	})
}

func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	var results []vector.QueryResult
	err := d.do(ctx, "query", func() error {
		var err error
		results, err = d.next.Query(ctx, embedding, topK)
		return err
	})
	return results, err
}

// EnsureIndex forwards to the wrapped driver with the retry policy.
func (d *Driver) EnsureIndex(ctx context.Context) error {
	return d.do(ctx, "ensure_index", func() error {
		return vector.EnsureIndex(ctx, d.next)
	})
}

func (d *Driver) Close() error {
	return d.next.Close()
}

func (d *Driver) do(ctx context.Context, op string, fn func() error) error {
	delay := d.opts.RetryDelay

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errdefs.IsRetryable(err) || attempt >= d.opts.MaxRetries {
			return err
		}

		d.opts.Logger.Warn("vector store request failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"delay", delay,
			logger.Err(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		delay = min(delay*2, d.opts.MaxRetryDelay)
	}
}

var (
	_ vector.Driver       = (*Driver)(nil)
	_ vector.IndexCreator = (*Driver)(nil)
)
