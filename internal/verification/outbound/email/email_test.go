package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/mail"
	"github.com/jobboard/verification/internal/verification/entity"
)

type fakeMail struct {
	name       string
	configured bool
	err        error
	hang       bool
	sent       []mail.Message
}

func (f *fakeMail) Name() string     { return f.name }
func (f *fakeMail) Configured() bool { return f.configured }
func (f *fakeMail) Close() error     { return nil }

func (f *fakeMail) Send(ctx context.Context, msg mail.Message) (mail.Receipt, error) {
	f.sent = append(f.sent, msg)
	if f.hang {
		<-ctx.Done()
		return mail.Receipt{}, ctx.Err()
	}
	if f.err != nil {
		return mail.Receipt{}, f.err
	}
	return mail.Receipt{TransportID: f.name + "-id"}, nil
}

func newDispatcher(primary, secondary mail.Mail) *Dispatcher {
	return New(primary, secondary, Config{
		AttemptTimeout: 50 * time.Millisecond,
		ProductName:    "Job Board",
		SupportEmail:   "support@jobboard.test",
	}, instrument.NewNoop())
}

var request = entity.DeliveryRequest{
	Email:            "ana@example.com",
	DisplayName:      "Ana",
	Code:             "123456",
	ExpiresInMinutes: 5,
}

func TestDispatcher_Send(t *testing.T) {
	authErr := &mail.Error{Provider: "smtp", Category: mail.CategoryAuthFailure, Err: errors.New("535 bad credentials")}
	rejectErr := &mail.Error{Provider: "sendgrid", Category: mail.CategoryRecipientRejected, Err: errors.New("invalid email")}

	tests := []struct {
		name      string
		primary   *fakeMail
		secondary *fakeMail
		want      entity.DeliveryOutcome
		calls     [2]int
	}{
		{
			name:      "PrimaryDelivers",
			primary:   &fakeMail{name: "smtp", configured: true},
			secondary: &fakeMail{name: "sendgrid", configured: true},
			want:      entity.DeliveryOutcome{Provider: "smtp", Delivered: true, TransportID: "smtp-id"},
			calls:     [2]int{1, 0},
		},
		{
			name:      "FallbackDelivers",
			primary:   &fakeMail{name: "smtp", configured: true, err: authErr},
			secondary: &fakeMail{name: "sendgrid", configured: true},
			want: entity.DeliveryOutcome{
				Provider:        "sendgrid",
				Delivered:       true,
				TransportID:     "sendgrid-id",
				FallbackUsed:    true,
				PrimaryCategory: "AUTH_FAILURE",
				PrimaryError:    authErr.Error(),
			},
			calls: [2]int{1, 1},
		},
		{
			name:      "BothFail",
			primary:   &fakeMail{name: "smtp", configured: true, err: authErr},
			secondary: &fakeMail{name: "sendgrid", configured: true, err: rejectErr},
			want: entity.DeliveryOutcome{
				Provider:        "sendgrid",
				Category:        "RECIPIENT_REJECTED",
				Error:           rejectErr.Error(),
				FallbackUsed:    true,
				PrimaryCategory: "AUTH_FAILURE",
				PrimaryError:    authErr.Error(),
			},
			calls: [2]int{1, 1},
		},
		{
			name:      "PrimaryFailsWithoutSecondary",
			primary:   &fakeMail{name: "smtp", configured: true, err: authErr},
			secondary: &fakeMail{name: "sendgrid"},
			want: entity.DeliveryOutcome{
				Provider: "smtp",
				Category: "AUTH_FAILURE",
				Error:    authErr.Error(),
			},
			calls: [2]int{1, 0},
		},
		{
			name:      "PrimaryNotConfigured",
			primary:   &fakeMail{name: "smtp"},
			secondary: &fakeMail{name: "sendgrid", configured: true},
			want: entity.DeliveryOutcome{
				Provider:        "sendgrid",
				Delivered:       true,
				TransportID:     "sendgrid-id",
				FallbackUsed:    true,
				PrimaryCategory: "NOT_CONFIGURED",
				PrimaryError:    "mail: smtp: NOT_CONFIGURED: mail: provider not configured",
			},
			calls: [2]int{0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(tt.primary, tt.secondary)

			got := d.Send(context.Background(), request)

			assert.Equal(t, tt.want, got)
			assert.Len(t, tt.primary.sent, tt.calls[0])
			assert.Len(t, tt.secondary.sent, tt.calls[1])
		})
	}
}

func TestDispatcher_Send_NothingConfigured(t *testing.T) {
	d := newDispatcher(&fakeMail{name: "smtp"}, nil)

	got := d.Send(context.Background(), request)

	assert.False(t, got.Delivered)
	assert.False(t, got.FallbackUsed)
	assert.Equal(t, "NOT_CONFIGURED", got.Category)
	assert.Equal(t, "smtp", got.Provider)
}

func TestDispatcher_Send_AttemptTimeout(t *testing.T) {
	primary := &fakeMail{name: "smtp", configured: true, hang: true}
	secondary := &fakeMail{name: "sendgrid", configured: true}
	d := newDispatcher(primary, secondary)

	start := time.Now()
	got := d.Send(context.Background(), request)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, got.Delivered)
	assert.True(t, got.FallbackUsed)
	assert.Equal(t, "TRANSPORT_UNAVAILABLE", got.PrimaryCategory)
}

func TestDispatcher_Send_IgnoresCallerCancel(t *testing.T) {
	primary := &fakeMail{name: "smtp", configured: true}
	d := newDispatcher(primary, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := d.Send(ctx, request)

	assert.True(t, got.Delivered)
}

func TestDispatcher_render(t *testing.T) {
	primary := &fakeMail{name: "smtp", configured: true}
	d := newDispatcher(primary, nil)

	d.Send(context.Background(), request)
	require.Len(t, primary.sent, 1)

	msg := primary.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, msg.To)
	assert.Equal(t, "Your Job Board verification code", msg.Subject)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "verification_html", []byte(msg.HTMLBody))
	g.Assert(t, "verification_txt", []byte(msg.TextBody))
}

func TestDispatcher_render_EscapesDisplayName(t *testing.T) {
	d := newDispatcher(nil, nil)

	msg, err := d.render(entity.DeliveryRequest{
		Email:            "bo@example.com",
		DisplayName:      "<b>Bo</b>",
		Code:             "654321",
		ExpiresInMinutes: 5,
	})
	require.NoError(t, err)

	assert.Contains(t, msg.HTMLBody, "Hi &lt;b&gt;Bo&lt;/b&gt;,")
	assert.Contains(t, msg.TextBody, "Hi <b>Bo</b>,")
	assert.Contains(t, msg.TextBody, "654321")
}

func TestDispatcher_render_DefaultName(t *testing.T) {
	d := newDispatcher(nil, nil)

	msg, err := d.render(entity.DeliveryRequest{Email: "x@example.com", Code: "000111", ExpiresInMinutes: 10})
	require.NoError(t, err)

	assert.Contains(t, msg.TextBody, "Hi there,")
	assert.Contains(t, msg.TextBody, "expires in 10 minutes")
}
