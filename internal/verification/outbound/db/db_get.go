package db

import (
	"context"
	"time"

	"github.com/jobboard/verification/internal/verification/entity"
)

const getVerification = `
SELECT email, code_hash, expires_at, verified, verified_at, delivery, created_at, updated_at
FROM email_verifications
WHERE email = $1`

func (s *DB) GetVerification(ctx context.Context, email string) (_ *entity.Verification, err error) {
	ctx, span := s.startSpan(ctx, "GetVerification")
	defer func() { s.endSpan(span, err) }()

	var (
		rec        entity.Verification
		codeHash   *string
		expiresAt  *time.Time
		verifiedAt *time.Time
		delivery   deliveryColumn
	)

	err = s.conn.QueryRow(ctx, getVerification, email).Scan(
		&rec.Email,
		&codeHash,
		&expiresAt,
		&rec.Verified,
		&verifiedAt,
		&delivery,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	if codeHash != nil {
		rec.CodeHash = *codeHash
	}
	rec.ExpiresAt = utc(expiresAt)
	rec.VerifiedAt = utc(verifiedAt)
	rec.Delivery = entity.DeliveryOutcome(delivery)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	return &rec, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
