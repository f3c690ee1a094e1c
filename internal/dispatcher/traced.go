package dispatcher

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jmehdipour/domain-offers/internal/model"
)

// tracedProvider wraps a Provider with a span per Send.
type tracedProvider struct {
	Provider
	tracer trace.Tracer
}

func Traced(p Provider) Provider {
	return &tracedProvider{
		Provider: p,
		tracer:   otel.Tracer("domain-offers/dispatcher"),
	}
}

func (t *tracedProvider) Send(ctx context.Context, email model.Email) error {
	ctx, span := t.tracer.Start(ctx, "Provider.Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", t.Name()),
			attribute.String("email.kind", email.Kind.String()),
			attribute.String("email.locale", email.Locale.String()),
		))
	defer span.End()

	err := t.Provider.Send(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}
