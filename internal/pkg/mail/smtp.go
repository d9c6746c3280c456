package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/jobboard/verification/internal/pkg/uid"
)

var (
	// ErrSMTPNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when both Message.From and the configured default From are empty.
	ErrSMTPNoSender = errors.New("no sender provided")
)

const defaultSMTPDialTimeout = 10 * time.Second

// SMTP is a Mail implementation backed by net/smtp.
type SMTP struct {
	host        string
	port        int
	username    string
	password    string
	defaultFrom string
	fromName    string
	heloName    string
	dialTimeout time.Duration
	tlsConfig   *tls.Config
	uid         uid.StringID
}

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// FromName is the default sender display name.
	FromName string
	// HeloName overrides the name announced in EHLO; defaults to "localhost".
	HeloName string
	// DialTimeout bounds connection setup when the context has no deadline.
	DialTimeout time.Duration
	// InsecureSkipVerify disables certificate checks on STARTTLS (local relays only).
	InsecureSkipVerify bool
	// UID generates the Message-ID local part.
	UID uid.StringID
}

// NewSMTP constructs an SMTP mail sender.
//
// An incomplete configuration is not an error: the sender reports
// Configured() == false and refuses to send.
func NewSMTP(cfg SMTPConfig) *SMTP {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultSMTPDialTimeout
	}

	heloName := cfg.HeloName
	if heloName == "" {
		heloName = "localhost"
	}

	id := cfg.UID
	if id == nil {
		id = uid.NewULID()
	}

	return &SMTP{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		defaultFrom: cfg.From,
		fromName:    cfg.FromName,
		heloName:    heloName,
		dialTimeout: dialTimeout,
		tlsConfig: &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for local relays
			MinVersion:         tls.VersionTLS12,
		},
		uid: id,
	}
}

// Name returns the provider name.
func (s *SMTP) Name() string {
	return "smtp"
}

// Configured reports whether host, port and a default sender are set.
func (s *SMTP) Configured() bool {
	return s.host != "" && s.port > 0 && s.defaultFrom != ""
}

// Send delivers a message over SMTP.
//
// The whole exchange is bounded by ctx: its deadline is applied to the
// connection and cancellation closes it.
func (s *SMTP) Send(ctx context.Context, msg Message) (Receipt, error) {
	if !s.Configured() {
		return Receipt{}, newError(s.Name(), CategoryNotConfigured, ErrNotConfigured)
	}

	if err := ctx.Err(); err != nil {
		return Receipt{}, newError(s.Name(), CategoryTransportUnavailable, err)
	}

	rcpts := recipients(msg)
	if len(rcpts) == 0 {
		return Receipt{}, newError(s.Name(), CategoryRecipientRejected, ErrSMTPNoRecipients)
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return Receipt{}, newError(s.Name(), CategoryNotConfigured, ErrSMTPNoSender)
	}

	messageID := fmt.Sprintf("<%s@%s>", s.uid.Generate(), s.host)
	raw := s.buildRaw(msg, from, messageID)

	if err := s.deliver(ctx, from, rcpts, raw); err != nil {
		return Receipt{}, err
	}

	return Receipt{TransportID: messageID}, nil
}

// Close implements io.Closer for interface compatibility.
func (s *SMTP) Close() error {
	return nil
}

func (s *SMTP) deliver(ctx context.Context, from string, rcpts []string, raw []byte) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return newError(s.Name(), CategoryTransportUnavailable, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return s.classify(ctx, err, false)
	}
	defer func() { _ = client.Close() }()

	if err := client.Hello(s.heloName); err != nil {
		return s.classify(ctx, err, false)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(s.tlsConfig); err != nil {
			return s.classify(ctx, err, false)
		}
	}

	if s.username != "" && s.password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.username, s.password, s.host)
			if err := client.Auth(auth); err != nil {
				return newError(s.Name(), CategoryAuthFailure, err)
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return s.classify(ctx, err, false)
	}

	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return s.classify(ctx, err, true)
		}
	}

	w, err := client.Data()
	if err != nil {
		return s.classify(ctx, err, false)
	}
	if _, err := w.Write(raw); err != nil {
		return s.classify(ctx, err, false)
	}
	if err := w.Close(); err != nil {
		return s.classify(ctx, err, false)
	}

	if err := client.Quit(); err != nil {
		return s.classify(ctx, err, false)
	}

	return nil
}

// classify maps an SMTP exchange failure to a category. rcpt tells whether the
// failure happened while the server was judging a recipient.
func (s *SMTP) classify(ctx context.Context, err error, rcpt bool) error {
	if ctx.Err() != nil {
		return newError(s.Name(), CategoryTransportUnavailable, errors.Join(ctx.Err(), err))
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch {
		case tpErr.Code == 530 || tpErr.Code == 534 || tpErr.Code == 535:
			return newError(s.Name(), CategoryAuthFailure, err)
		case tpErr.Code == 421 || (tpErr.Code >= 450 && tpErr.Code < 500 && !rcpt):
			return newError(s.Name(), CategoryTransportUnavailable, err)
		case rcpt && tpErr.Code >= 500:
			return newError(s.Name(), CategoryRecipientRejected, err)
		}
		return newError(s.Name(), CategoryUnknown, err)
	}

	return newError(s.Name(), CategoryOf(err), err)
}

func (s *SMTP) buildRaw(msg Message, from, messageID string) []byte {
	body, contentType := buildBody(msg, messageID)

	fromHeader := from
	name := msg.FromName
	if name == "" {
		name = s.fromName
	}
	if name != "" {
		fromHeader = fmt.Sprintf("%q <%s>", name, from)
	}

	var headers []string
	headers = append(headers, fmt.Sprintf("From: %s", fromHeader))
	headers = append(headers, fmt.Sprintf("To: %s", strings.Join(msg.To, ", ")))
	if len(msg.Cc) > 0 {
		headers = append(headers, fmt.Sprintf("Cc: %s", strings.Join(msg.Cc, ", ")))
	}
	headers = append(headers, fmt.Sprintf("Subject: %s", msg.Subject))
	headers = append(headers, fmt.Sprintf("Message-ID: %s", messageID))
	headers = append(headers, fmt.Sprintf("Date: %s", time.Now().UTC().Format(time.RFC1123Z)))
	headers = append(headers, "MIME-Version: 1.0")
	headers = append(headers, fmt.Sprintf("Content-Type: %s", contentType))

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func buildBody(msg Message, messageID string) (body string, contentType string) {
	if msg.HTMLBody != "" && msg.TextBody != "" {
		boundary := multipartBoundary(messageID)
		var sb strings.Builder
		sb.WriteString("This is a multipart message in MIME format.\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(msg.TextBody)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(msg.HTMLBody)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s--", boundary)
		return sb.String(), fmt.Sprintf("multipart/alternative; boundary=%s", boundary)
	}

	if msg.HTMLBody != "" {
		return msg.HTMLBody, "text/html; charset=UTF-8"
	}

	return msg.TextBody, "text/plain; charset=UTF-8"
}

func multipartBoundary(messageID string) string {
	id := strings.Trim(messageID, "<>")
	if at := strings.IndexByte(id, '@'); at > 0 {
		id = id[:at]
	}
	return "verification-boundary-" + strings.ToLower(id)
}
