package mq

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/codes"

	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/messaging"
	"github.com/jobboard/verification/internal/pkg/uid"
	"github.com/jobboard/verification/internal/shared/event"
	"github.com/jobboard/verification/internal/verification/entity"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	uid    uid.StringID
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, uid uid.StringID, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, uid: uid, ins: ins}
}

func (m *Messaging) PublishEmailVerified(ctx context.Context, msg entity.EmailVerifiedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishEmailVerified")
	defer span.End()

	err := m.publish(ctx, event.EmailVerifiedDestination, msg.Email, event.EmailVerifiedMessage{
		EventID:    m.uid.Generate(),
		Email:      msg.Email,
		VerifiedAt: msg.VerifiedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishCodeIssued(ctx context.Context, msg entity.CodeIssuedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishCodeIssued")
	defer span.End()

	err := m.publish(ctx, event.CodeIssuedDestination, msg.Email, event.CodeIssuedMessage{
		EventID:      m.uid.Generate(),
		Email:        msg.Email,
		Provider:     msg.Provider,
		Delivered:    msg.Delivered,
		FallbackUsed: msg.FallbackUsed,
		ExpiresAt:    msg.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// publish keys messages by email so brokers that partition or order keep one
// identity's events in sequence.
func (m *Messaging) publish(ctx context.Context, destination, email string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	_, err = m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:        body,
		Key:         []byte(email),
		OrderingKey: email,
		Headers:     []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	})
	return err
}
