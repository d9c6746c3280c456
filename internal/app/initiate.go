package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/option"

	"github.com/jobboard/verification/internal/pkg/awsclient"
	"github.com/jobboard/verification/internal/pkg/clock"
	"github.com/jobboard/verification/internal/pkg/config"
	"github.com/jobboard/verification/internal/pkg/goroutine"
	"github.com/jobboard/verification/internal/pkg/hash"
	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/mail"
	"github.com/jobboard/verification/internal/pkg/messaging"
	"github.com/jobboard/verification/internal/pkg/migration"
	"github.com/jobboard/verification/internal/pkg/otp"
	"github.com/jobboard/verification/internal/pkg/router"
	"github.com/jobboard/verification/internal/pkg/uid"
	"github.com/jobboard/verification/internal/pkg/validator"
	"github.com/jobboard/verification/internal/verification"
	"github.com/jobboard/verification/internal/verification/outbound/db"
	"github.com/jobboard/verification/internal/verification/outbound/dynamo"
)

// ConfigPath resolves the config file location from the environment.
func ConfigPath() string {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}
	return path
}

func (a *App) initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.NewViper(ConfigPath())
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.ulid = uid.NewULID()
	a.goroutine = goroutine.NewManager(
		a.config.GetInt("app.server.max_goroutine"),
		a.config.GetSecond("app.server.background_task_timeout_seconds"),
	)
	secret := a.config.GetString("hash.hmac.secret")
	if secret == "" {
		slog.Error("hash.hmac.secret must be set")
		os.Exit(1)
	}
	a.hmac = hash.NewHMACSHA256(secret)
	a.generator = otp.NewRandomHOTP(libOTP.DigitsSix)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

// pingWithRetry retries fn with a capped Fibonacci backoff so the service
// tolerates dependencies that start slightly after it.
func (a *App) pingWithRetry(name string, fn func(ctx context.Context) error) error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxRetries(a.config.GetUint64("app.startup.ping_retries"), b)

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := fn(pingCtx); err != nil {
			slog.WarnContext(ctx, "dependency not ready", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initStore() {
	a.store = strings.TrimSpace(a.config.GetString("modules.verification.store"))

	switch a.store {
	case verification.StorePostgres:
		a.initDatabase()
	case verification.StoreRedis:
		a.initCache()
	case verification.StoreDynamoDB:
		a.initDynamoDB()
	default:
		slog.Error("unknown verification store", "store", a.store)
		os.Exit(1)
	}
}

func (a *App) initDatabase() {
	pool, err := NewDatabasePool(a.ctx, a.config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := a.pingWithRetry("database", pool.Ping); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("database.auto_migrate") {
		if err := migration.Run(a.config.GetString("database.url"), db.Migrations, "migrations", migration.Up); err != nil {
			slog.Error("failed to migrate DB", "error", err)
			os.Exit(1)
		}
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	if err := a.pingWithRetry("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initDynamoDB() {
	client, err := awsclient.NewDynamoDB(a.ctx, a.awsConfig())
	if err != nil {
		slog.Error("failed to init dynamodb client", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("dynamodb.auto_create_table") {
		table := dynamo.NewDynamo(client, a.config.GetString("dynamodb.table"), a.ins)
		if err := a.pingWithRetry("dynamodb", table.EnsureTable); err != nil {
			slog.Error("failed to ensure dynamodb table", "error", err)
			os.Exit(1)
		}
	}

	a.dynamoClient = client
}

func (a *App) awsConfig() awsclient.Config {
	return awsclient.Config{
		Region:          a.config.GetString("aws.region"),
		AccessKeyID:     a.config.GetString("aws.access_key_id"),
		SecretAccessKey: a.config.GetString("aws.secret_access_key"),
		EndpointURL:     a.config.GetString("aws.endpoint_url"),
	}
}

func (a *App) initMail() {
	providers := map[string]mail.Mail{
		"smtp": mail.NewSMTP(mail.SMTPConfig{
			Host:               a.config.GetString("mail.smtp.host"),
			Port:               a.config.GetInt("mail.smtp.port"),
			Username:           a.config.GetString("mail.smtp.username"),
			Password:           a.config.GetString("mail.smtp.password"),
			From:               a.config.GetString("mail.from"),
			FromName:           a.config.GetString("mail.from_name"),
			HeloName:           a.config.GetString("mail.smtp.helo_name"),
			DialTimeout:        a.config.GetSecond("mail.smtp.dial_timeout_seconds"),
			InsecureSkipVerify: a.config.GetBool("mail.smtp.insecure_skip_verify"),
			UID:                a.ulid,
		}),
		"sendgrid": mail.NewSendGrid(mail.SendGridConfig{
			APIKey:   a.config.GetString("mail.sendgrid.api_key"),
			From:     a.config.GetString("mail.from"),
			FromName: a.config.GetString("mail.from_name"),
			BaseURL:  a.config.GetString("mail.sendgrid.base_url"),
		}),
	}

	primary, ok := providers[a.config.GetString("mail.primary")]
	if !ok {
		slog.Error("unknown primary mail provider", "provider", a.config.GetString("mail.primary"))
		os.Exit(1)
	}
	secondary := providers[a.config.GetString("mail.secondary")]
	if secondary == primary {
		secondary = nil
	}

	a.mails = lo.Values(providers)
	a.primaryMail = primary
	a.secondMail = secondary

	configured := lo.FilterMap(a.mails, func(m mail.Mail, _ int) (string, bool) {
		return m.Name(), m.Configured()
	})
	if len(configured) == 0 {
		slog.Warn("no mail provider configured, codes will only be returned to callers when reveal_code_on_failure is set")
	} else {
		slog.Info("mail providers configured", "providers", configured)
	}
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.producer_config.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.producer_config.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.producer_config.write_timeout_seconds")
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			BatchTimeout: time.Duration(a.config.GetInt("messaging.kafka.batch_timeout_ms")) * time.Millisecond,
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: func() []option.ClientOption {
				var opts []option.ClientOption
				if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.credentials_file")); v != "" {
					opts = append(opts, option.WithCredentialsFile(v))
				}
				if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
					opts = append(opts, option.WithEndpoint(v), option.WithoutAuthentication())
				}
				return opts
			}(),
		},
		SNS: messaging.SNSConfig{
			AWS:            a.awsConfig(),
			TopicARNPrefix: a.config.GetString("messaging.sns.topic_arn_prefix"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
		Health: func(ctx context.Context) error {
			return a.verification.Ping(ctx)
		},
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				var errs []error
				for _, m := range a.mails {
					if err := m.Close(); err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
