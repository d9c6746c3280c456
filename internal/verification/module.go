package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jobboard/verification/internal/pkg/clock"
	"github.com/jobboard/verification/internal/pkg/config"
	"github.com/jobboard/verification/internal/pkg/goroutine"
	"github.com/jobboard/verification/internal/pkg/hash"
	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/mail"
	"github.com/jobboard/verification/internal/pkg/messaging"
	"github.com/jobboard/verification/internal/pkg/otp"
	"github.com/jobboard/verification/internal/pkg/router"
	"github.com/jobboard/verification/internal/pkg/uid"
	"github.com/jobboard/verification/internal/pkg/validator"
	"github.com/jobboard/verification/internal/verification/entity"
	"github.com/jobboard/verification/internal/verification/inbound"
	"github.com/jobboard/verification/internal/verification/outbound/cache"
	"github.com/jobboard/verification/internal/verification/outbound/db"
	"github.com/jobboard/verification/internal/verification/outbound/dynamo"
	"github.com/jobboard/verification/internal/verification/outbound/email"
	"github.com/jobboard/verification/internal/verification/outbound/mq"
	"github.com/jobboard/verification/internal/verification/usecase"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

type Dependency struct {
	Store       string                     `validate:"required,oneof=postgres redis dynamodb"`
	DBConn      *pgxpool.Pool              `validate:"required_if=Store postgres"`
	CacheConn   redis.UniversalClient      `validate:"required_if=Store redis"`
	DynamoDB    dynamo.API                 `validate:"required_if=Store dynamodb"`
	DynamoTable string                     `validate:"required_if=Store dynamodb"`
	Messaging   messaging.Publisher        `validate:"required"`
	Primary     mail.Mail                  `validate:"required"`
	Secondary   mail.Mail
	Router      *router.Router             `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Generator   otp.Generator              `validate:"required"`
	UID         uid.StringID               `validate:"required"`
}

type store interface {
	GetVerification(ctx context.Context, email string) (*entity.Verification, error)
	UpsertPendingCode(ctx context.Context, in entity.PendingCode) error
	ConsumeCode(ctx context.Context, in entity.ConsumeCode) (bool, error)
	ClearExpiredCode(ctx context.Context, email, codeHash string, now time.Time) (bool, error)
	ClearVerification(ctx context.Context, email string, now time.Time) (bool, error)
	Ping(ctx context.Context) error
}

// Module is the wired email verification module.
type Module struct {
	store store
}

// Ping reports whether the verification store is reachable.
func (m *Module) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	st, err := newStore(dep)
	if err != nil {
		return nil, err
	}

	dispatcher := email.New(dep.Primary, dep.Secondary, email.Config{
		AttemptTimeout: dep.Config.GetSecond("modules.verification.delivery.attempt_timeout_seconds"),
		ProductName:    dep.Config.GetString("modules.verification.product_name"),
		SupportEmail:   dep.Config.GetString("modules.verification.support_email"),
	}, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		Store:         st,
		Delivery:      dispatcher,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.UID, dep.Instrument),
		Generator:     dep.Generator,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return &Module{store: st}, nil
}

func newStore(dep Dependency) (store, error) {
	switch dep.Store {
	case StorePostgres:
		return db.NewDB(dep.DBConn, dep.Instrument), nil
	case StoreRedis:
		return cache.NewCache(dep.CacheConn, dep.Instrument), nil
	case StoreDynamoDB:
		return dynamo.NewDynamo(dep.DynamoDB, dep.DynamoTable, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("verification: unknown store %q", dep.Store)
	}
}
