package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/model"
)

// fakeProvider is a scriptable Provider.
type fakeProvider struct {
	name  string
	err   error
	block bool // wait for ctx cancellation
	hang  bool // ignore ctx entirely
	calls atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(ctx context.Context, _ model.Email) error {
	f.calls.Add(1)
	switch {
	case f.hang:
		time.Sleep(time.Second)
		return nil
	case f.block:
		<-ctx.Done()
		return ctx.Err()
	default:
		return f.err
	}
}

func ownerEmail() model.Email {
	return model.Email{
		Kind:    model.KindOwner,
		Locale:  model.LocaleEN,
		To:      []model.Address{{Email: "owner@example.com"}},
		Subject: "New Offer for example.com",
		Text:    "body",
	}
}

func TestDeliver_NoProviders(t *testing.T) {
	d := NewDispatcher(nil, time.Second, nil)

	report := d.Deliver(context.Background(), ownerEmail())

	assert.False(t, report.Sent)
	assert.Empty(t, report.Attempts)
	assert.ErrorIs(t, report.Err, ErrNoProviders)
}

func TestDeliver_FirstSuccessStops(t *testing.T) {
	p1 := &fakeProvider{name: "sendgrid"}
	p2 := &fakeProvider{name: "brevo"}
	d := NewDispatcher([]Provider{p1, p2}, time.Second, nil)

	report := d.Deliver(context.Background(), ownerEmail())

	require.True(t, report.Sent)
	assert.NoError(t, report.Err)
	assert.Equal(t, "sendgrid", report.Provider)
	assert.Len(t, report.Attempts, 1)
	assert.EqualValues(t, 0, p2.calls.Load())
}

func TestDeliver_FallbackToSecond(t *testing.T) {
	p1 := &fakeProvider{name: "sendgrid", err: errors.New("boom")}
	p2 := &fakeProvider{name: "brevo"}
	p3 := &fakeProvider{name: "resend"}
	d := NewDispatcher([]Provider{p1, p2, p3}, time.Second, nil)

	report := d.Deliver(context.Background(), ownerEmail())

	require.True(t, report.Sent)
	assert.Equal(t, "brevo", report.Provider)
	require.Len(t, report.Attempts, 2)
	assert.Equal(t, "sendgrid", report.Attempts[0].Provider)
	assert.False(t, report.Attempts[0].Success)
	assert.Error(t, report.Attempts[0].Err)
	assert.Equal(t, "brevo", report.Attempts[1].Provider)
	assert.True(t, report.Attempts[1].Success)
	assert.EqualValues(t, 0, p3.calls.Load())
}

func TestDeliver_AllFail(t *testing.T) {
	boom := errors.New("boom")
	p1 := &fakeProvider{name: "sendgrid", err: boom}
	p2 := &fakeProvider{name: "brevo", err: &StatusError{Provider: "brevo", Status: 401}}
	d := NewDispatcher([]Provider{p1, p2}, time.Second, nil)

	report := d.Deliver(context.Background(), ownerEmail())

	assert.False(t, report.Sent)
	assert.Len(t, report.Attempts, 2)
	assert.ErrorIs(t, report.Err, ErrAllProvidersFailed)
	assert.ErrorIs(t, report.Err, boom)

	var se *StatusError
	require.ErrorAs(t, report.Err, &se)
	assert.Equal(t, 401, se.Status)
}

func TestDeliver_TimeoutMovesToNextProvider(t *testing.T) {
	slow := &fakeProvider{name: "sendgrid", block: true}
	fast := &fakeProvider{name: "brevo"}
	d := NewDispatcher([]Provider{slow, fast}, 20*time.Millisecond, nil)

	report := d.Deliver(context.Background(), ownerEmail())

	require.True(t, report.Sent)
	assert.Equal(t, "brevo", report.Provider)
	assert.ErrorIs(t, report.Attempts[0].Err, ErrAttemptTimeout)
	assert.ErrorIs(t, report.Attempts[0].Err, context.DeadlineExceeded)
}

func TestDeliver_AbandonsProviderIgnoringContext(t *testing.T) {
	stuck := &fakeProvider{name: "sendgrid", hang: true}
	d := NewDispatcher([]Provider{stuck}, 20*time.Millisecond, nil)

	start := time.Now()
	report := d.Deliver(context.Background(), ownerEmail())

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, report.Sent)
	assert.ErrorIs(t, report.Attempts[0].Err, ErrAttemptTimeout)
}

func TestDeliver_StopsWhenParentCancelled(t *testing.T) {
	p1 := &fakeProvider{name: "sendgrid", block: true}
	p2 := &fakeProvider{name: "brevo"}
	d := NewDispatcher([]Provider{p1, p2}, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := d.Deliver(ctx, ownerEmail())

	assert.False(t, report.Sent)
	assert.Len(t, report.Attempts, 1)
	assert.EqualValues(t, 0, p2.calls.Load())
}

func TestNewDispatcher_DefaultTimeout(t *testing.T) {
	d := NewDispatcher(nil, 0, nil)
	assert.Equal(t, DefaultAttemptTimeout, d.attemptTimeout)
}

func TestDispatcher_ProvidersKeepsPriorityOrder(t *testing.T) {
	cfg := config.Config{Delivery: config.DeliveryConfig{SenderEmail: "noreply@example.com"}}
	cfg.Providers.Resend.APIKey = "re"
	cfg.Providers.SendGrid.APIKey = "sg"

	d := NewDispatcher(BuildProviders(cfg, nil), time.Second, nil)

	assert.Equal(t, []string{"sendgrid", "resend"}, Names(d.Providers()))
}
