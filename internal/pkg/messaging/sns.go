package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/atomic"

	"github.com/jobboard/verification/internal/pkg/awsclient"
)

// ErrSNSTopicPrefixRequired is returned when no topic ARN prefix is configured.
var ErrSNSTopicPrefixRequired = errors.New("messaging: sns topic arn prefix is required")

// SNSConfig configures the AWS SNS implementation.
type SNSConfig struct {
	// AWS holds region, credentials and an optional endpoint override.
	AWS awsclient.Config
	// TopicARNPrefix is prepended to destinations that are not full ARNs,
	// e.g. "arn:aws:sns:us-east-1:123456789012:".
	TopicARNPrefix string

	// Client provides an existing SNS client.
	Client *sns.Client
}

// SNS is a publisher backed by AWS SNS topics.
type SNS struct {
	client *sns.Client
	prefix string
	closed atomic.Bool
}

// NewSNS constructs an SNS publisher.
func NewSNS(ctx context.Context, cfg SNSConfig) (*SNS, error) {
	if cfg.TopicARNPrefix == "" {
		return nil, ErrSNSTopicPrefixRequired
	}

	client := cfg.Client
	if client == nil {
		c, err := awsclient.NewSNS(ctx, cfg.AWS)
		if err != nil {
			return nil, fmt.Errorf("messaging: sns client: %w", err)
		}
		client = c
	}

	return &SNS{client: client, prefix: cfg.TopicARNPrefix}, nil
}

// TopicARN maps a destination to an SNS topic ARN. Dots are not allowed in
// topic names and become hyphens.
func (s *SNS) TopicARN(destination string) string {
	if strings.HasPrefix(destination, "arn:") {
		return destination
	}
	return s.prefix + strings.ReplaceAll(destination, ".", "-")
}

// Publish sends a message to an SNS topic.
func (s *SNS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := validate(ctx, destination, msg); err != nil {
		return PublishResult{}, err
	}
	if s.closed.Load() {
		return PublishResult{}, ErrClosed
	}

	in := &sns.PublishInput{
		TopicArn: aws.String(s.TopicARN(destination)),
		Message:  aws.String(string(msg.Body)),
	}

	if attrs := attributes(msg); len(attrs) > 0 {
		in.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		for k, v := range attrs {
			in.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	out, err := s.client.Publish(ctx, in)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: sns publish: %w", err)
	}

	return PublishResult{
		MessageID: aws.ToString(out.MessageId),
		Topic:     aws.ToString(in.TopicArn),
		Timestamp: time.Now(),
	}, nil
}

// Close marks the publisher closed; the SNS client holds no connections to release.
func (s *SNS) Close() error {
	s.closed.Store(true)
	return nil
}
