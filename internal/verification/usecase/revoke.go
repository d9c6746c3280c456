package usecase

import (
	"context"
	"log/slog"

	"github.com/jobboard/verification/internal/pkg/goerror"
)

type RevokeInput struct {
	Email string `validate:"required,email,max=254"`
}

type RevokeOutput struct {
	Revoked bool
}

// Revoke clears the pending code and the verified flag so verification can
// start over. Revoked is false when no record existed.
func (s *Usecase) Revoke(ctx context.Context, in RevokeInput) (*RevokeOutput, error) {
	ctx, span := s.startSpan(ctx, "Revoke")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	revoked, err := s.store.ClearVerification(ctx, in.Email, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo clear verification", "email", in.Email, "error", err)
		return nil, errStoreUnavailable(err)
	}

	return &RevokeOutput{Revoked: revoked}, nil
}
