package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jmehdipour/domain-offers/internal/challenge"
	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/mailtmpl"
	"github.com/jmehdipour/domain-offers/internal/metrics"
	"github.com/jmehdipour/domain-offers/internal/model"
	"github.com/jmehdipour/domain-offers/internal/util"
)

// Deliverer sends one message through the configured providers.
type Deliverer interface {
	Deliver(ctx context.Context, email model.Email) model.DeliveryReport
}

// RequestMeta carries transport details that are useful for verification and logs.
type RequestMeta struct {
	RemoteIP  string
	UserAgent string
	RequestID string
}

// Result is what the relay knows after a submission has been accepted.
type Result struct {
	InquiryID        string
	OwnerNotified    bool
	ConfirmationSent bool
	Owner            model.DeliveryReport
	Confirmation     model.DeliveryReport
}

// Service validates contact submissions, verifies the challenge token and
// relays the offer to the owner plus a receipt to the sender.
type Service struct {
	site      config.SiteConfig
	locale    model.Locale // used when a payload carries none
	verifier  challenge.Verifier
	deliverer Deliverer
	validate  *validator.Validate
	tracer    trace.Tracer
	log       *zap.Logger
}

// New constructs the relay service.
func New(site config.SiteConfig, verifier challenge.Verifier, deliverer Deliverer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	locale, _ := model.ParseLocale(site.DefaultLocale)

	return &Service{
		site:      site,
		locale:    locale,
		verifier:  verifier,
		deliverer: deliverer,
		validate:  validator.New(),
		tracer:    otel.Tracer("domain-offers/relay"),
		log:       log.With(zap.String("component", "relay")),
	}
}

// Submit runs the whole pipeline for one payload. Only validation and
// challenge failures are returned as errors; delivery problems are logged
// and reported through Result.
func (s *Service) Submit(ctx context.Context, p model.SubmissionPayload, meta RequestMeta) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "Relay.Submit")
	defer span.End()

	res, err := s.submit(ctx, p, meta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.SubmissionsTotal.WithLabelValues(outcomeOf(err)).Inc()
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("inquiry.id", res.InquiryID),
		attribute.Bool("inquiry.owner_notified", res.OwnerNotified),
		attribute.Bool("inquiry.confirmation_sent", res.ConfirmationSent),
	)
	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()

	return res, nil
}

func (s *Service) submit(ctx context.Context, p model.SubmissionPayload, meta RequestMeta) (Result, error) {
	p.Normalize(s.locale)

	if err := s.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Result{}, fmt.Errorf("validate payload: %w", err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return Result{}, &ValidationError{Message: MsgRequiredFields, Fields: fields}
	}

	if p.ChallengeToken == "" {
		return Result{}, &ValidationError{Message: MsgChallengeRequired, Fields: []string{"challengeToken"}}
	}

	if _, err := s.verifier.Verify(ctx, p.ChallengeToken, meta.RemoteIP); err != nil {
		return Result{}, &ChallengeVerificationError{Err: err}
	}

	res := Result{InquiryID: util.NewInquiryID()}

	owner, confirmation, err := s.compose(res.InquiryID, p)
	if err != nil {
		return Result{}, fmt.Errorf("compose emails: %w", err)
	}

	// Delivery must not be cut short by the client going away.
	dctx := context.WithoutCancel(ctx)

	// Both messages are always attempted; a failure of one never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		res.Owner = s.deliverer.Deliver(dctx, owner)
		if !res.Owner.Sent {
			return fmt.Errorf("owner notification: %w", res.Owner.Err)
		}
		return nil
	})
	g.Go(func() error {
		res.Confirmation = s.deliverer.Deliver(dctx, confirmation)
		if !res.Confirmation.Sent {
			return fmt.Errorf("confirmation: %w", res.Confirmation.Err)
		}
		return nil
	})
	deliveryErr := g.Wait()

	res.OwnerNotified = res.Owner.Sent
	res.ConfirmationSent = res.Confirmation.Sent

	log := s.log.With(zap.String("inquiry_id", res.InquiryID), zap.String("request_id", meta.RequestID))

	if deliveryErr != nil {
		log.Warn("delivery incomplete",
			zap.Bool("owner_notified", res.OwnerNotified),
			zap.Bool("confirmation_sent", res.ConfirmationSent),
			zap.Error(deliveryErr),
		)
	}

	if res.OwnerNotified {
		log.Info("owner notification sent", zap.String("provider", res.Owner.Provider))
	} else {
		// side channel: the inquiry must not be lost when no provider took it
		log.Info("new domain inquiry",
			zap.String("domain", s.site.DomainName),
			zap.String("name", p.Name),
			zap.String("email", p.Email),
			zap.String("phone", p.Phone),
			zap.String("offer", p.Offer),
			zap.String("message", p.Message),
			zap.String("locale", p.Locale.String()),
			zap.Bool("confirmation_sent", res.ConfirmationSent),
			zap.NamedError("delivery_error", res.Owner.Err),
		)
	}

	if res.ConfirmationSent {
		log.Info("confirmation email sent", zap.String("provider", res.Confirmation.Provider))
	}

	return res, nil
}

func (s *Service) compose(inquiryID string, p model.SubmissionPayload) (owner, confirmation model.Email, err error) {
	data := mailtmpl.Data{
		Domain:    s.site.DomainName,
		InquiryID: inquiryID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Offer:     p.Offer,
		Message:   p.Message,
	}
	submitter := model.Address{Email: p.Email, Name: p.Name}

	o, err := mailtmpl.Owner(p.Locale, data)
	if err != nil {
		return owner, confirmation, err
	}
	c, err := mailtmpl.Confirmation(p.Locale, data)
	if err != nil {
		return owner, confirmation, err
	}

	owner = model.Email{
		Kind:    model.KindOwner,
		Locale:  p.Locale,
		To:      []model.Address{{Email: s.site.ContactEmail}},
		ReplyTo: &submitter,
		Subject: o.Subject,
		Text:    o.Text,
		HTML:    o.HTML,
	}
	confirmation = model.Email{
		Kind:    model.KindConfirmation,
		Locale:  p.Locale,
		To:      []model.Address{submitter},
		Subject: c.Subject,
		Text:    c.Text,
		HTML:    c.HTML,
	}

	return owner, confirmation, nil
}

func outcomeOf(err error) string {
	var ve *ValidationError
	var ce *ChallengeVerificationError
	switch {
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &ce):
		return "challenge_failed"
	default:
		return "error"
	}
}
