package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jobboard/verification/internal/pkg/goerror"
	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/migration"
	"github.com/jobboard/verification/internal/verification/entity"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("verification"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migration.Run(dsn, Migrations, "migrations", migration.Up))

	return NewDB(pool, instrument.NewNoop()), dsn
}

func pending(email, hash string, now time.Time) entity.PendingCode {
	return entity.PendingCode{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: now.Add(5 * time.Minute),
		Delivery:  entity.DeliveryOutcome{Provider: "smtp", Delivered: true, TransportID: "<id@host>"},
		Now:       now,
	}
}

func TestDB(t *testing.T) {
	s, dsn := newTestDB(t)
	ctx := context.Background()

	t.Run("PingAndNotFound", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))

		_, err := s.GetVerification(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("UpsertThenGet", func(t *testing.T) {
		require.NoError(t, s.UpsertPendingCode(ctx, pending("a@x.com", "h1", t0)))

		rec, err := s.GetVerification(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "h1", rec.CodeHash)
		require.NotNil(t, rec.ExpiresAt)
		assert.Equal(t, t0.Add(5*time.Minute), *rec.ExpiresAt)
		assert.False(t, rec.Verified)
		assert.Equal(t, "<id@host>", rec.Delivery.TransportID)
		assert.Equal(t, t0, rec.CreatedAt)
	})

	t.Run("ReissueReplacesCodeAndKeepsCreatedAt", func(t *testing.T) {
		later := t0.Add(time.Minute)
		next := pending("a@x.com", "h2", later)
		next.Delivery = entity.DeliveryOutcome{Provider: "sendgrid", FallbackUsed: true, Category: "AUTH_FAILURE"}
		require.NoError(t, s.UpsertPendingCode(ctx, next))

		rec, err := s.GetVerification(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "h2", rec.CodeHash)
		assert.Equal(t, t0, rec.CreatedAt)
		assert.Equal(t, later, rec.UpdatedAt)
		assert.True(t, rec.Delivery.FallbackUsed)
	})

	t.Run("ConsumeRequiresSameHash", func(t *testing.T) {
		ok, err := s.ConsumeCode(ctx, entity.ConsumeCode{Email: "a@x.com", CodeHash: "h1", Now: t0.Add(2 * time.Minute)})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.ConsumeCode(ctx, entity.ConsumeCode{Email: "a@x.com", CodeHash: "h2", Now: t0.Add(2 * time.Minute)})
		require.NoError(t, err)
		assert.True(t, ok)

		rec, err := s.GetVerification(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, rec.Verified)
		assert.False(t, rec.HasPendingCode())
		require.NotNil(t, rec.VerifiedAt)

		ok, err = s.ConsumeCode(ctx, entity.ConsumeCode{Email: "a@x.com", CodeHash: "h2", Now: t0.Add(2 * time.Minute)})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ConsumeAtExpiryInstant", func(t *testing.T) {
		require.NoError(t, s.UpsertPendingCode(ctx, pending("edge@x.com", "h", t0)))

		ok, err := s.ConsumeCode(ctx, entity.ConsumeCode{Email: "edge@x.com", CodeHash: "h", Now: t0.Add(5 * time.Minute)})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ClearExpiredOnlyAfterExpiry", func(t *testing.T) {
		require.NoError(t, s.UpsertPendingCode(ctx, pending("old@x.com", "h", t0)))

		ok, err := s.ClearExpiredCode(ctx, "old@x.com", "h", t0.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.ConsumeCode(ctx, entity.ConsumeCode{Email: "old@x.com", CodeHash: "h", Now: t0.Add(6 * time.Minute)})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.ClearExpiredCode(ctx, "old@x.com", "h", t0.Add(6*time.Minute))
		require.NoError(t, err)
		assert.True(t, ok)

		rec, err := s.GetVerification(ctx, "old@x.com")
		require.NoError(t, err)
		assert.False(t, rec.HasPendingCode())
		assert.False(t, rec.Verified)
	})

	t.Run("ClearVerification", func(t *testing.T) {
		ok, err := s.ClearVerification(ctx, "ghost@x.com", t0)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.ClearVerification(ctx, "a@x.com", t0.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, ok)

		rec, err := s.GetVerification(ctx, "a@x.com")
		require.NoError(t, err)
		assert.False(t, rec.Verified)
		assert.Nil(t, rec.VerifiedAt)
		assert.False(t, rec.HasPendingCode())
	})

	t.Run("MigrateDownAndUp", func(t *testing.T) {
		require.NoError(t, migration.Run(dsn, Migrations, "migrations", migration.Down))

		_, err := s.GetVerification(ctx, "a@x.com")
		assert.Error(t, err)

		require.NoError(t, migration.Run(dsn, Migrations, "migrations", migration.Up))
		require.NoError(t, migration.Run(dsn, Migrations, "migrations", migration.Up))

		_, err = s.GetVerification(ctx, "a@x.com")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestDeliveryColumn_Scan(t *testing.T) {
	var d deliveryColumn
	require.NoError(t, d.Scan([]byte(`{"provider":"smtp","delivered":true}`)))
	assert.Equal(t, "smtp", d.Provider)
	assert.True(t, d.Delivered)

	require.NoError(t, d.Scan(nil))
	assert.Equal(t, deliveryColumn{}, d)

	assert.ErrorIs(t, d.Scan(42), errScanDelivery)
}

func TestDB_mapError(t *testing.T) {
	s := NewDB(nil, instrument.NewNoop())
	assert.NoError(t, s.mapError(nil))
	assert.ErrorIs(t, s.mapError(context.Canceled), context.Canceled)
}
