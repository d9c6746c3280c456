package db

import (
	"context"
	"time"

	"github.com/jobboard/verification/internal/verification/entity"
)

// A new code always replaces the previous one and resets verification, so a
// verified record never carries a pending code.
const upsertPendingCode = `
INSERT INTO email_verifications (email, code_hash, expires_at, verified, verified_at, delivery, created_at, updated_at)
VALUES ($1, $2, $3, FALSE, NULL, $4, $5, $5)
ON CONFLICT (email) DO UPDATE SET
    code_hash   = EXCLUDED.code_hash,
    expires_at  = EXCLUDED.expires_at,
    verified    = FALSE,
    verified_at = NULL,
    delivery    = EXCLUDED.delivery,
    updated_at  = EXCLUDED.updated_at`

// The code is consumed only if it is still the one that was compared and it
// has not expired; the expiry instant itself is still valid.
const consumeCode = `
UPDATE email_verifications SET
    code_hash   = NULL,
    expires_at  = NULL,
    verified    = TRUE,
    verified_at = $3,
    updated_at  = $3
WHERE email = $1 AND code_hash = $2 AND expires_at >= $3`

const clearExpiredCode = `
UPDATE email_verifications SET
    code_hash  = NULL,
    expires_at = NULL,
    updated_at = $3
WHERE email = $1 AND code_hash = $2 AND expires_at < $3`

const clearVerification = `
UPDATE email_verifications SET
    code_hash   = NULL,
    expires_at  = NULL,
    verified    = FALSE,
    verified_at = NULL,
    updated_at  = $2
WHERE email = $1`

func (s *DB) UpsertPendingCode(ctx context.Context, in entity.PendingCode) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPendingCode")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, upsertPendingCode,
		in.Email,
		in.CodeHash,
		in.ExpiresAt.UTC(),
		deliveryColumn(in.Delivery),
		in.Now.UTC(),
	)
	err = s.mapError(err)
	return err
}

func (s *DB) ConsumeCode(ctx context.Context, in entity.ConsumeCode) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeCode")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, consumeCode, in.Email, in.CodeHash, in.Now.UTC())
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) ClearExpiredCode(ctx context.Context, email, codeHash string, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ClearExpiredCode")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, clearExpiredCode, email, codeHash, now.UTC())
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) ClearVerification(ctx context.Context, email string, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ClearVerification")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, clearVerification, email, now.UTC())
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
