package app

import (
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/jobboard/verification/internal/verification"
	"github.com/jobboard/verification/internal/verification/outbound/dynamo"
)

func (a *App) initModules() {
	m, err := verification.New(verification.Dependency{
		Store:       a.store,
		DBConn:      a.dbConn,
		CacheConn:   a.redisClient(),
		DynamoDB:    a.dynamoDB(),
		DynamoTable: a.config.GetString("dynamodb.table"),
		Messaging:   a.messaging,
		Primary:     a.primaryMail,
		Secondary:   a.secondMail,
		Router:      a.router,
		Config:      a.config,
		Instrument:  a.ins,
		Clock:       a.clock,
		Goroutine:   a.goroutine,
		Validator:   a.validator,
		HMAC:        a.hmac,
		Generator:   a.generator,
		UID:         a.ulid,
	})
	if err != nil {
		slog.Error("failed to init module verification", "error", err)
		os.Exit(1)
	}

	a.verification = m
}

// dynamoDB avoids handing the module a typed nil client.
func (a *App) dynamoDB() dynamo.API {
	if a.dynamoClient == nil {
		return nil
	}
	return a.dynamoClient
}

func (a *App) redisClient() redis.UniversalClient {
	if a.cacheConn == nil {
		return nil
	}
	return a.cacheConn
}
