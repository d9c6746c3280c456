// Package awsclient builds AWS SDK v2 clients from application config.
//
// An EndpointURL (LocalStack, DynamoDB Local) overrides the service endpoint
// for every client built from the same Config.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Config holds the AWS connection settings shared by all clients.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string
}

// Load resolves an aws.Config. Static credentials are used when an access key
// is set, otherwise the default provider chain applies.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("awsclient: load config: %w", err)
	}

	return awsCfg, nil
}

// NewDynamoDB creates a DynamoDB client.
func NewDynamoDB(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	awsCfg, err := Load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*dynamodb.Options)
	if cfg.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		})
	}

	return dynamodb.NewFromConfig(awsCfg, clientOpts...), nil
}

// NewSNS creates an SNS client.
func NewSNS(ctx context.Context, cfg Config) (*sns.Client, error) {
	awsCfg, err := Load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*sns.Options)
	if cfg.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		})
	}

	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}
