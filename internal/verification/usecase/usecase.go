package usecase

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jobboard/verification/internal/pkg/clock"
	"github.com/jobboard/verification/internal/pkg/config"
	"github.com/jobboard/verification/internal/pkg/goroutine"
	"github.com/jobboard/verification/internal/pkg/hash"
	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/otp"
	"github.com/jobboard/verification/internal/pkg/validator"
	"github.com/jobboard/verification/internal/verification/entity"
)

const defaultCodeTTL = 300 * time.Second

type repoStore interface {
	GetVerification(ctx context.Context, email string) (*entity.Verification, error)
	UpsertPendingCode(ctx context.Context, in entity.PendingCode) error
	ConsumeCode(ctx context.Context, in entity.ConsumeCode) (bool, error)
	ClearExpiredCode(ctx context.Context, email, codeHash string, now time.Time) (bool, error)
	ClearVerification(ctx context.Context, email string, now time.Time) (bool, error)
}

type repoMessaging interface {
	PublishEmailVerified(ctx context.Context, msg entity.EmailVerifiedEvent) error
	PublishCodeIssued(ctx context.Context, msg entity.CodeIssuedEvent) error
}

type delivery interface {
	Send(ctx context.Context, in entity.DeliveryRequest) entity.DeliveryOutcome
}

type Usecase struct {
	store         repoStore
	delivery      delivery
	repoMessaging repoMessaging
	generator     otp.Generator
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	Store         repoStore
	Delivery      delivery
	RepoMessaging repoMessaging
	Generator     otp.Generator
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:         dep.Store,
		delivery:      dep.Delivery,
		repoMessaging: dep.RepoMessaging,
		generator:     dep.Generator,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) codeTTL() time.Duration {
	if ttl := s.cfg.GetSecond("modules.verification.code_ttl_seconds"); ttl > 0 {
		return ttl
	}
	return defaultCodeTTL
}

// now is the clock at the coarsest precision any store keeps (milliseconds),
// so an expiry check here agrees with the conditional writes in the store.
func (s *Usecase) now() time.Time {
	return s.clock.Now().Truncate(time.Millisecond)
}

func (s *Usecase) revealCodeOnFailure() bool {
	const key = "modules.verification.reveal_code_on_failure"
	if !s.cfg.IsSet(key) {
		return true
	}
	return s.cfg.GetBool(key)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// digestInput binds a code to its address so equal codes issued to different
// emails never share a stored digest.
func digestInput(email, code string) string {
	return email + "\x00" + code
}
