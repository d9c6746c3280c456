package app

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
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
	"github.com/jobboard/verification/internal/verification"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uuid      uid.StringID
	ulid      uid.StringID
	generator otp.Generator

	// resources
	store        string
	dbConn       *pgxpool.Pool
	cacheConn    *redis.Client
	dynamoClient *dynamodb.Client
	mails        []mail.Mail
	primaryMail  mail.Mail
	secondMail   mail.Mail
	messaging    messaging.Publisher

	// modules
	verification *verification.Module

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initStore()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
