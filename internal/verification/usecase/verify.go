package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jobboard/verification/internal/pkg/goerror"
	"github.com/jobboard/verification/internal/verification/entity"
)

type VerifyInput struct {
	Email string `validate:"required,email,max=254"`
	Code  string `validate:"required,otpcode"`
}

type VerifyOutput struct {
	Verified bool
}

// Verify checks a candidate code against the pending one. A matching code is
// consumed with a conditional write, so a concurrent Issue that replaced the
// code turns this call into a mismatch instead of verifying the new code.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rec, err := s.store.GetVerification(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get verification", "email", in.Email, "error", err)
		return nil, errStoreUnavailable(err)
	}

	if !rec.HasPendingCode() {
		return nil, ErrNoPendingCode
	}

	now := s.now()
	if rec.Expired(now) {
		if _, err := s.store.ClearExpiredCode(ctx, in.Email, rec.CodeHash, now); err != nil {
			slog.ErrorContext(ctx, "failed to repo clear expired code", "email", in.Email, "error", err)
			return nil, errStoreUnavailable(err)
		}
		return nil, ErrExpired
	}

	if !s.hmac.Verify(rec.CodeHash, digestInput(in.Email, in.Code)) {
		slog.WarnContext(ctx, "verification code mismatch", "email", in.Email)
		return nil, ErrMismatch
	}

	consumed, err := s.store.ConsumeCode(ctx, entity.ConsumeCode{Email: in.Email, CodeHash: rec.CodeHash, Now: now})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume code", "email", in.Email, "error", err)
		return nil, errStoreUnavailable(err)
	}
	if !consumed {
		return nil, s.lostRace(ctx, in.Email, rec.CodeHash)
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		return s.repoMessaging.PublishEmailVerified(ctx, entity.EmailVerifiedEvent{Email: in.Email, VerifiedAt: now})
	})

	return &VerifyOutput{Verified: true}, nil
}

// lostRace explains why a conditional consume did not apply.
func (s *Usecase) lostRace(ctx context.Context, email, comparedHash string) error {
	rec, err := s.store.GetVerification(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get verification", "email", email, "error", err)
		return errStoreUnavailable(err)
	}

	switch {
	case !rec.HasPendingCode():
		return ErrNoPendingCode
	case rec.CodeHash != comparedHash:
		slog.WarnContext(ctx, "verification code replaced during verify", "email", email)
		return ErrMismatch
	default:
		return ErrExpired
	}
}
