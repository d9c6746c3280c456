package dynamo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jobboard/verification/internal/pkg/goerror"
	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/verification/entity"
)

// API is the subset of *dynamodb.Client used by Dynamo.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// item is the stored shape; timestamps are unix milliseconds so conditions
// can compare them numerically.
type item struct {
	Email      string                 `dynamodbav:"email"`
	CodeHash   string                 `dynamodbav:"code_hash,omitempty"`
	ExpiresAt  int64                  `dynamodbav:"expires_at,omitempty"`
	Verified   bool                   `dynamodbav:"verified"`
	VerifiedAt int64                  `dynamodbav:"verified_at,omitempty"`
	Delivery   entity.DeliveryOutcome `dynamodbav:"delivery"`
	CreatedAt  int64                  `dynamodbav:"created_at"`
	UpdatedAt  int64                  `dynamodbav:"updated_at"`
}

func (i item) toEntity() *entity.Verification {
	return &entity.Verification{
		Email:      i.Email,
		CodeHash:   i.CodeHash,
		ExpiresAt:  fromMillis(i.ExpiresAt),
		Verified:   i.Verified,
		VerifiedAt: fromMillis(i.VerifiedAt),
		Delivery:   i.Delivery,
		CreatedAt:  time.UnixMilli(i.CreatedAt).UTC(),
		UpdatedAt:  time.UnixMilli(i.UpdatedAt).UTC(),
	}
}

// Dynamo stores verification records in a DynamoDB table keyed by email.
// Conditional writes stand in for row locks.
type Dynamo struct {
	client API
	table  string
	ins    instrument.Instrumentation
}

func NewDynamo(client API, table string, ins instrument.Instrumentation) *Dynamo {
	return &Dynamo{client: client, table: table, ins: ins}
}

func (d *Dynamo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return d.ins.Tracer("verification.outbound.dynamo").Start(ctx, name)
}

func (d *Dynamo) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (d *Dynamo) key(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: email},
	}
}

// EnsureTable creates the table when it does not exist yet.
func (d *Dynamo) EnsureTable(ctx context.Context) error {
	_, err := d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(d.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
		},
	})

	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		slog.InfoContext(ctx, "dynamodb table already exists", "table", d.table)
		return nil
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "dynamodb table created", "table", d.table)
	return nil
}

func (d *Dynamo) Ping(ctx context.Context) (err error) {
	ctx, span := d.startSpan(ctx, "Ping")
	defer func() { d.endSpan(span, err) }()

	_, err = d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	return err
}

func (d *Dynamo) GetVerification(ctx context.Context, email string) (_ *entity.Verification, err error) {
	ctx, span := d.startSpan(ctx, "GetVerification")
	defer func() { d.endSpan(span, err) }()

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		err = goerror.ErrNotFound
		return nil, err
	}

	var it item
	if err = attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}

	return it.toEntity(), nil
}

func (d *Dynamo) UpsertPendingCode(ctx context.Context, in entity.PendingCode) (err error) {
	ctx, span := d.startSpan(ctx, "UpsertPendingCode")
	defer func() { d.endSpan(span, err) }()

	delivery, err := attributevalue.Marshal(in.Delivery)
	if err != nil {
		return err
	}

	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.table),
		Key:       d.key(in.Email),
		UpdateExpression: aws.String("SET code_hash = :h, expires_at = :e, verified = :f, delivery = :d, " +
			"updated_at = :now, created_at = if_not_exists(created_at, :now) REMOVE verified_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h":   &types.AttributeValueMemberS{Value: in.CodeHash},
			":e":   millisValue(in.ExpiresAt),
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":d":   delivery,
			":now": millisValue(in.Now),
		},
	})
	return err
}

func (d *Dynamo) ConsumeCode(ctx context.Context, in entity.ConsumeCode) (_ bool, err error) {
	ctx, span := d.startSpan(ctx, "ConsumeCode")
	defer func() { d.endSpan(span, err) }()

	return d.conditional(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 d.key(in.Email),
		UpdateExpression:    aws.String("SET verified = :t, verified_at = :now, updated_at = :now REMOVE code_hash, expires_at"),
		ConditionExpression: aws.String("code_hash = :h AND expires_at >= :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h":   &types.AttributeValueMemberS{Value: in.CodeHash},
			":t":   &types.AttributeValueMemberBOOL{Value: true},
			":now": millisValue(in.Now),
		},
	})
}

func (d *Dynamo) ClearExpiredCode(ctx context.Context, email, codeHash string, now time.Time) (_ bool, err error) {
	ctx, span := d.startSpan(ctx, "ClearExpiredCode")
	defer func() { d.endSpan(span, err) }()

	return d.conditional(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 d.key(email),
		UpdateExpression:    aws.String("SET updated_at = :now REMOVE code_hash, expires_at"),
		ConditionExpression: aws.String("code_hash = :h AND expires_at < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h":   &types.AttributeValueMemberS{Value: codeHash},
			":now": millisValue(now),
		},
	})
}

func (d *Dynamo) ClearVerification(ctx context.Context, email string, now time.Time) (_ bool, err error) {
	ctx, span := d.startSpan(ctx, "ClearVerification")
	defer func() { d.endSpan(span, err) }()

	return d.conditional(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 d.key(email),
		UpdateExpression:    aws.String("SET verified = :f, updated_at = :now REMOVE code_hash, expires_at, verified_at"),
		ConditionExpression: aws.String("attribute_exists(email)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": millisValue(now),
		},
	})
}

// conditional runs an update and reports whether its condition held.
func (d *Dynamo) conditional(ctx context.Context, in *dynamodb.UpdateItemInput) (bool, error) {
	_, err := d.client.UpdateItem(ctx, in)

	var failed *types.ConditionalCheckFailedException
	if errors.As(err, &failed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
