package awsclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_StaticCredentials(t *testing.T) {
	cfg, err := Load(context.Background(), Config{Region: "eu-west-1", AccessKeyID: "AKID", SecretAccessKey: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestNewClients(t *testing.T) {
	cfg := Config{Region: "us-east-1", AccessKeyID: "x", SecretAccessKey: "y", EndpointURL: "http://localhost:4566"}

	ddb, err := NewDynamoDB(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, ddb)
	assert.Equal(t, "http://localhost:4566", *ddb.Options().BaseEndpoint)

	snsClient, err := NewSNS(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", *snsClient.Options().BaseEndpoint)
}
