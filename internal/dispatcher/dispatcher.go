package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/jmehdipour/domain-offers/internal/metrics"
	"github.com/jmehdipour/domain-offers/internal/model"
)

const DefaultAttemptTimeout = 10 * time.Second

var (
	ErrNoProviders        = errors.New("no email providers configured")
	ErrAllProvidersFailed = errors.New("all email providers failed")
	ErrAttemptTimeout     = errors.New("provider attempt timed out")
)

// Dispatcher tries providers in priority order until one accepts the message.
type Dispatcher struct {
	providers      []Provider
	attemptTimeout time.Duration
	log            *zap.Logger
}

func NewDispatcher(provs []Provider, attemptTimeout time.Duration, log *zap.Logger) *Dispatcher {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Dispatcher{
		providers:      provs,
		attemptTimeout: attemptTimeout,
		log:            log.With(zap.String("component", "dispatcher")),
	}
}

func (d *Dispatcher) Providers() []Provider { return d.providers }

// Deliver never returns an error: failures are reported in the
// DeliveryReport so callers can decide whether they matter.
func (d *Dispatcher) Deliver(ctx context.Context, email model.Email) model.DeliveryReport {
	report := model.DeliveryReport{Kind: email.Kind}

	if len(d.providers) == 0 {
		report.Err = ErrNoProviders
		return report
	}

	var errs *multierror.Error
	for _, p := range d.providers {
		err := d.tryOnce(ctx, p, email)
		report.Attempts = append(report.Attempts, model.AttemptResult{
			Provider: p.Name(),
			Success:  err == nil,
			Err:      err,
		})

		if err == nil {
			report.Sent = true
			report.Provider = p.Name()
			return report
		}

		errs = multierror.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		d.log.Error("provider attempt failed",
			zap.String("provider", p.Name()),
			zap.String("kind", email.Kind.String()),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			break
		}
	}

	report.Err = fmt.Errorf("%w: %w", ErrAllProvidersFailed, errs.ErrorOrNil())

	return report
}

// tryOnce runs a single attempt under its own deadline. A provider that
// ignores cancellation is abandoned when the deadline passes.
func (d *Dispatcher) tryOnce(ctx context.Context, p Provider, email model.Email) error {
	ctx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- p.Send(ctx, email) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	metrics.ProviderLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, d.attemptTimeout, err)
	}

	result := "sent"
	if err != nil {
		result = "failed"
	}
	metrics.ProviderAttemptsTotal.WithLabelValues(p.Name(), email.Kind.String(), result).Inc()

	return err
}
