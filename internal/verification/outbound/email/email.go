package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/mail"
	"github.com/jobboard/verification/internal/verification/entity"
)

const defaultAttemptTimeout = 10 * time.Second

type Config struct {
	// AttemptTimeout bounds each provider attempt.
	AttemptTimeout time.Duration
	ProductName    string
	SupportEmail   string
}

// Dispatcher delivers verification codes through a primary provider and
// falls back to a secondary one. It never fails: every problem is reported
// in the returned outcome.
type Dispatcher struct {
	primary        mail.Mail
	secondary      mail.Mail
	attemptTimeout time.Duration
	productName    string
	supportEmail   string
	ins            instrument.Instrumentation
	attempts       metric.Int64Counter
}

func New(primary, secondary mail.Mail, cfg Config, ins instrument.Instrumentation) *Dispatcher {
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}

	productName := cfg.ProductName
	if productName == "" {
		productName = "Job Board"
	}

	attempts, err := ins.Meter("verification.outbound.email").Int64Counter(
		"verification.delivery.attempts",
		metric.WithDescription("Verification email delivery attempts per provider"),
	)
	if err != nil {
		slog.Error("failed to create delivery attempts counter", "error", err)
	}

	return &Dispatcher{
		primary:        primary,
		secondary:      secondary,
		attemptTimeout: timeout,
		productName:    productName,
		supportEmail:   cfg.SupportEmail,
		ins:            ins,
		attempts:       attempts,
	}
}

func (d *Dispatcher) Send(ctx context.Context, in entity.DeliveryRequest) entity.DeliveryOutcome {
	ctx, span := d.ins.Tracer("verification.outbound.email").Start(ctx, "Send")
	defer span.End()

	// An issuance is not cancelled by its caller going away; only the
	// per-attempt timeout bounds delivery.
	ctx = context.WithoutCancel(ctx)

	msg, err := d.render(in)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render verification email", "email", in.Email, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.DeliveryOutcome{Category: mail.CategoryUnknown.String(), Error: err.Error()}
	}

	receipt, primaryErr := d.attempt(ctx, d.primary, msg)
	if primaryErr == nil {
		return entity.DeliveryOutcome{
			Provider:    providerName(d.primary),
			Delivered:   true,
			TransportID: receipt.TransportID,
		}
	}

	primaryCategory := mail.CategoryOf(primaryErr)
	if primaryCategory != mail.CategoryNotConfigured {
		slog.WarnContext(ctx, "primary provider failed", "provider", providerName(d.primary), "category", primaryCategory.String(), "error", primaryErr)
	}

	if !configured(d.secondary) {
		d.record(ctx, d.secondary, "skipped", mail.CategoryNotConfigured)
		span.SetStatus(codes.Error, primaryErr.Error())
		return entity.DeliveryOutcome{
			Provider: providerName(d.primary),
			Category: primaryCategory.String(),
			Error:    primaryErr.Error(),
		}
	}

	out := entity.DeliveryOutcome{
		Provider:        providerName(d.secondary),
		FallbackUsed:    true,
		PrimaryCategory: primaryCategory.String(),
		PrimaryError:    primaryErr.Error(),
	}

	receipt, secondaryErr := d.attempt(ctx, d.secondary, msg)
	if secondaryErr != nil {
		slog.WarnContext(ctx, "secondary provider failed", "provider", out.Provider, "error", secondaryErr)
		span.SetStatus(codes.Error, secondaryErr.Error())
		out.Category = mail.CategoryOf(secondaryErr).String()
		out.Error = secondaryErr.Error()
		return out
	}

	out.Delivered = true
	out.TransportID = receipt.TransportID
	return out
}

// attempt runs one provider under the attempt timeout. Unconfigured providers
// are not called.
func (d *Dispatcher) attempt(ctx context.Context, p mail.Mail, msg mail.Message) (mail.Receipt, error) {
	if !configured(p) {
		d.record(ctx, p, "skipped", mail.CategoryNotConfigured)
		return mail.Receipt{}, &mail.Error{Provider: providerName(p), Category: mail.CategoryNotConfigured, Err: mail.ErrNotConfigured}
	}

	actx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()

	receipt, err := p.Send(actx, msg)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) && mail.CategoryOf(err) != mail.CategoryTransportUnavailable {
			err = &mail.Error{Provider: p.Name(), Category: mail.CategoryTransportUnavailable, Err: err}
		}
		d.record(ctx, p, "failed", mail.CategoryOf(err))
		return mail.Receipt{}, err
	}

	d.record(ctx, p, "delivered", mail.CategoryUnknown)
	return receipt, nil
}

func (d *Dispatcher) record(ctx context.Context, p mail.Mail, result string, category mail.Category) {
	if d.attempts == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider", providerName(p)),
		attribute.String("result", result),
	}
	if result != "delivered" {
		attrs = append(attrs, attribute.String("category", category.String()))
	}
	d.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func configured(p mail.Mail) bool {
	return p != nil && p.Configured()
}

func providerName(p mail.Mail) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}
