package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridSendPath = "/v3/mail/send"

// SendGrid is a Mail implementation backed by the SendGrid v3 API.
type SendGrid struct {
	client      *sendgrid.Client
	apiKey      string
	defaultFrom string
	fromName    string
}

// SendGridConfig configures the SendGrid implementation.
type SendGridConfig struct {
	// APIKey is the SendGrid API key.
	APIKey string
	// From is the default sender when Message.From is empty.
	From string
	// FromName is the default sender display name.
	FromName string
	// BaseURL overrides the API host (e.g. https://api.sendgrid.com).
	BaseURL string
}

// NewSendGrid constructs a SendGrid mail sender.
func NewSendGrid(cfg SendGridConfig) *SendGrid {
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + sendGridSendPath
	}

	return &SendGrid{
		client:      client,
		apiKey:      cfg.APIKey,
		defaultFrom: cfg.From,
		fromName:    cfg.FromName,
	}
}

// Name returns the provider name.
func (s *SendGrid) Name() string {
	return "sendgrid"
}

// Configured reports whether an API key and a default sender are set.
func (s *SendGrid) Configured() bool {
	return s.apiKey != "" && s.defaultFrom != ""
}

// Send delivers a message through the SendGrid API.
func (s *SendGrid) Send(ctx context.Context, msg Message) (Receipt, error) {
	if !s.Configured() {
		return Receipt{}, newError(s.Name(), CategoryNotConfigured, ErrNotConfigured)
	}

	if len(msg.To) == 0 {
		return Receipt{}, newError(s.Name(), CategoryRecipientRejected, ErrSMTPNoRecipients)
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	name := msg.FromName
	if name == "" {
		name = s.fromName
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(name, from))
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgmail.NewEmail("", cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgmail.NewEmail("", bcc))
	}
	m.AddPersonalizations(p)

	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		if ctx.Err() != nil {
			return Receipt{}, newError(s.Name(), CategoryTransportUnavailable, errors.Join(ctx.Err(), err))
		}
		return Receipt{}, newError(s.Name(), CategoryTransportUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
		return Receipt{}, newError(s.Name(), categoryFromStatus(resp.StatusCode, resp.Body), err)
	}

	var id string
	for k, v := range resp.Headers {
		if strings.EqualFold(k, "X-Message-Id") && len(v) > 0 {
			id = v[0]
			break
		}
	}

	return Receipt{TransportID: id}, nil
}

// Close implements io.Closer for interface compatibility.
func (s *SendGrid) Close() error {
	return nil
}

// sendGridErrors is the v3 API error body.
type sendGridErrors struct {
	Errors []struct {
		Field string `json:"field"`
	} `json:"errors"`
}

func categoryFromStatus(status int, body string) Category {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryAuthFailure
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return CategoryTransportUnavailable
	case status == http.StatusBadRequest:
		return categoryFromFields(body)
	default:
		return CategoryUnknown
	}
}

// categoryFromFields classifies a 400 by the request fields SendGrid names.
// Sender fields are tied to the account's verified identities.
func categoryFromFields(body string) Category {
	var res sendGridErrors
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return CategoryUnknown
	}

	for _, e := range res.Errors {
		switch {
		case strings.HasPrefix(e.Field, "personalizations.") && strings.HasSuffix(e.Field, ".email"):
			return CategoryRecipientRejected
		case e.Field == "from" || strings.HasPrefix(e.Field, "from."):
			return CategoryAuthFailure
		}
	}
	return CategoryUnknown
}
