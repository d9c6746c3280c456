package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jobboard/verification/internal/pkg/goerror"
	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/verification/entity"
)

const (
	fieldCodeHash   = "code_hash"
	fieldExpiresAt  = "expires_at"
	fieldVerified   = "verified"
	fieldVerifiedAt = "verified_at"
	fieldDelivery   = "delivery"
	fieldCreatedAt  = "created_at"
	fieldUpdatedAt  = "updated_at"
)

// Each write runs as one script so it is atomic per email.
var (
	upsertPendingCode = redis.NewScript(`
redis.call('HSETNX', KEYS[1], 'created_at', ARGV[4])
redis.call('HDEL', KEYS[1], 'verified_at')
redis.call('HSET', KEYS[1], 'code_hash', ARGV[1], 'expires_at', ARGV[2], 'verified', '0', 'delivery', ARGV[3], 'updated_at', ARGV[4])
return 1`)

	consumeCode = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'code_hash', 'expires_at')
if not rec[1] or not rec[2] or rec[1] ~= ARGV[1] then return 0 end
if tonumber(rec[2]) < tonumber(ARGV[2]) then return 0 end
redis.call('HDEL', KEYS[1], 'code_hash', 'expires_at')
redis.call('HSET', KEYS[1], 'verified', '1', 'verified_at', ARGV[2], 'updated_at', ARGV[2])
return 1`)

	clearExpiredCode = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'code_hash', 'expires_at')
if not rec[1] or not rec[2] or rec[1] ~= ARGV[1] then return 0 end
if tonumber(rec[2]) >= tonumber(ARGV[2]) then return 0 end
redis.call('HDEL', KEYS[1], 'code_hash', 'expires_at')
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return 1`)

	clearVerification = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HDEL', KEYS[1], 'code_hash', 'expires_at', 'verified_at')
redis.call('HSET', KEYS[1], 'verified', '0', 'updated_at', ARGV[1])
return 1`)
)

// Cache stores verification records as Redis hashes keyed by email.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{
		client: client,
		prefix: "verification:",
		ins:    ins,
	}
}

func (c *Cache) key(email string) string {
	return c.prefix + email
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("verification.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) Ping(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "Ping")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Ping(ctx).Err()
	return err
}

func (c *Cache) GetVerification(ctx context.Context, email string) (_ *entity.Verification, err error) {
	ctx, span := c.startSpan(ctx, "GetVerification")
	defer func() { c.endSpan(span, err) }()

	fields, err := c.client.HGetAll(ctx, c.key(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	rec := &entity.Verification{
		Email:      email,
		CodeHash:   fields[fieldCodeHash],
		ExpiresAt:  millis(fields[fieldExpiresAt]),
		Verified:   fields[fieldVerified] == "1",
		VerifiedAt: millis(fields[fieldVerifiedAt]),
	}
	if t := millis(fields[fieldCreatedAt]); t != nil {
		rec.CreatedAt = *t
	}
	if t := millis(fields[fieldUpdatedAt]); t != nil {
		rec.UpdatedAt = *t
	}
	if raw := fields[fieldDelivery]; raw != "" {
		if err = json.Unmarshal([]byte(raw), &rec.Delivery); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func (c *Cache) UpsertPendingCode(ctx context.Context, in entity.PendingCode) (err error) {
	ctx, span := c.startSpan(ctx, "UpsertPendingCode")
	defer func() { c.endSpan(span, err) }()

	delivery, err := json.Marshal(in.Delivery)
	if err != nil {
		return err
	}

	err = upsertPendingCode.Run(ctx, c.client, []string{c.key(in.Email)},
		in.CodeHash,
		in.ExpiresAt.UnixMilli(),
		string(delivery),
		in.Now.UnixMilli(),
	).Err()
	return err
}

func (c *Cache) ConsumeCode(ctx context.Context, in entity.ConsumeCode) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ConsumeCode")
	defer func() { c.endSpan(span, err) }()

	n, err := consumeCode.Run(ctx, c.client, []string{c.key(in.Email)}, in.CodeHash, in.Now.UnixMilli()).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (c *Cache) ClearExpiredCode(ctx context.Context, email, codeHash string, now time.Time) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ClearExpiredCode")
	defer func() { c.endSpan(span, err) }()

	n, err := clearExpiredCode.Run(ctx, c.client, []string{c.key(email)}, codeHash, now.UnixMilli()).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (c *Cache) ClearVerification(ctx context.Context, email string, now time.Time) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ClearVerification")
	defer func() { c.endSpan(span, err) }()

	n, err := clearVerification.Run(ctx, c.client, []string{c.key(email)}, now.UnixMilli()).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func millis(v string) *time.Time {
	if v == "" {
		return nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
