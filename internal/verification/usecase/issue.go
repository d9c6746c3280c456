package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jobboard/verification/internal/pkg/goerror"
	"github.com/jobboard/verification/internal/verification/entity"
)

type IssueInput struct {
	Email       string `validate:"required,email,max=254"`
	DisplayName string `validate:"omitempty,max=100"`
}

type IssueOutput struct {
	Accepted         bool
	EmailSent        bool
	ShowCode         bool
	Code             string
	ExpiresInSeconds int
	Provider         string
	FallbackUsed     bool
	DeliveryError    string
}

// Issue generates a fresh code for the email, tries to deliver it and stores
// it whatever the delivery outcome. Only a store failure fails the call.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	code, err := s.generator.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(digestInput(in.Email, code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.codeTTL()
	outcome := s.delivery.Send(ctx, entity.DeliveryRequest{
		Email:            in.Email,
		DisplayName:      in.DisplayName,
		Code:             code,
		ExpiresInMinutes: int(ttl.Minutes()),
	})
	if !outcome.Delivered {
		slog.WarnContext(ctx, "verification code not delivered", "email", in.Email, "category", outcome.Category, "primary_category", outcome.PrimaryCategory)
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	if err := s.store.UpsertPendingCode(ctx, entity.PendingCode{
		Email:     in.Email,
		CodeHash:  string(codeHash),
		ExpiresAt: expiresAt,
		Delivery:  outcome,
		Now:       now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert pending code", "email", in.Email, "error", err)
		return nil, errStoreUnavailable(err)
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		return s.repoMessaging.PublishCodeIssued(ctx, entity.CodeIssuedEvent{
			Email:        in.Email,
			Provider:     outcome.Provider,
			Delivered:    outcome.Delivered,
			FallbackUsed: outcome.FallbackUsed,
			ExpiresAt:    expiresAt,
		})
	})

	out := &IssueOutput{
		Accepted:         true,
		EmailSent:        outcome.Delivered,
		ShowCode:         !outcome.Delivered && s.revealCodeOnFailure(),
		ExpiresInSeconds: int(ttl.Seconds()),
		Provider:         outcome.Provider,
		FallbackUsed:     outcome.FallbackUsed,
	}
	if out.ShowCode {
		out.Code = code
	}
	if !outcome.Delivered {
		out.DeliveryError = outcome.Category
	}

	return out, nil
}
