package messaging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobboard/verification/internal/pkg/awsclient"
)

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	p, err := NewFromDriver(ctx, "", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Noop{}, p)

	_, err = NewFromDriver(ctx, "rabbitmq", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(ctx, DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(ctx, DriverNSQ, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNSQProducerAddrRequired)

	_, err = NewFromDriver(ctx, DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(ctx, DriverGooglePubSub, FactoryOptions{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)

	_, err = NewFromDriver(ctx, DriverSNS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrSNSTopicPrefixRequired)
}

func TestNoop(t *testing.T) {
	n := NewNoop()
	ctx := context.Background()

	res, err := n.Publish(ctx, "verification.email.verified", OutgoingMessage{Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "verification.email.verified", res.Topic)

	_, err = n.Publish(ctx, "", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrDestinationRequired)

	_, err = n.Publish(ctx, "x", OutgoingMessage{Delay: time.Second})
	assert.ErrorIs(t, err, ErrUnsupported)

	require.NoError(t, n.Close())
	_, err = n.Publish(ctx, "x", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAttributes(t *testing.T) {
	assert.Nil(t, attributes(OutgoingMessage{}))

	got := attributes(OutgoingMessage{
		Headers:    []Header{{Key: "cID", Value: []byte("abc")}, {Key: "", Value: []byte("skip")}, {Key: "k", Value: []byte("header")}},
		Attributes: map[string]string{"k": "attr"},
	})
	assert.Equal(t, map[string]string{"cID": "abc", "k": "attr"}, got)
}

func TestKafka_ClosedWriter(t *testing.T) {
	k, err := NewKafka(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	require.NoError(t, err)
	require.NoError(t, k.Close())

	_, err = k.Publish(context.Background(), "topic", OutgoingMessage{Body: []byte("x")})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSNS_Publish(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(`<PublishResponse xmlns="http://sns.amazonaws.com/doc/2010-03-31/">
  <PublishResult><MessageId>msg-1</MessageId></PublishResult>
  <ResponseMetadata><RequestId>req-1</RequestId></ResponseMetadata>
</PublishResponse>`))
	}))
	defer srv.Close()

	s, err := NewSNS(context.Background(), SNSConfig{
		AWS:            awsclient.Config{Region: "us-east-1", AccessKeyID: "x", SecretAccessKey: "y", EndpointURL: srv.URL},
		TopicARNPrefix: "arn:aws:sns:us-east-1:000000000000:",
	})
	require.NoError(t, err)

	res, err := s.Publish(context.Background(), "verification.email.verified", OutgoingMessage{
		Body:    []byte(`{"email":"a@example.com"}`),
		Headers: []Header{{Key: "cID", Value: []byte("c-1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", res.MessageID)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:verification-email-verified", res.Topic)
	assert.Equal(t, "Publish", form.Get("Action"))
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:verification-email-verified", form.Get("TopicArn"))
	assert.Equal(t, `{"email":"a@example.com"}`, form.Get("Message"))

	assert.Equal(t, "arn:aws:sns:eu-west-1:1:custom", s.TopicARN("arn:aws:sns:eu-west-1:1:custom"))
}
