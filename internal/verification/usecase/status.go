package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jobboard/verification/internal/pkg/goerror"
)

type StatusInput struct {
	Email string `validate:"required,email,max=254"`
}

type StatusOutput struct {
	Verified       bool
	HasPendingCode bool
	CodeExpired    bool
}

// Status is a read-only projection; it never clears an expired code.
// An unknown email reports all false.
func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rec, err := s.store.GetVerification(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return &StatusOutput{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get verification", "email", in.Email, "error", err)
		return nil, errStoreUnavailable(err)
	}

	pending := rec.HasPendingCode()

	return &StatusOutput{
		Verified:       rec.Verified,
		HasPendingCode: pending,
		CodeExpired:    pending && rec.Expired(s.now()),
	}, nil
}
