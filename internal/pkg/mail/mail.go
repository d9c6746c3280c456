package mail

import (
	"context"
	"io"
)

// Message represents an email payload.
//
// Fields are intentionally provider-agnostic so they can be sent using SMTP or
// other delivery mechanisms.
type Message struct {
	// From is an optional explicit sender; fallback depends on implementation.
	From string
	// FromName is an optional display name for the sender.
	FromName string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body; preferred when HTMLBody is empty.
	TextBody string
	// HTMLBody is the optional HTML body.
	HTMLBody string
}

// Receipt is what a provider hands back once it accepted a message.
type Receipt struct {
	// TransportID identifies the message at the provider (Message-ID, API message id).
	TransportID string
}

// Mail abstracts an email provider (SMTP, third-party API, etc).
type Mail interface {
	io.Closer
	// Name is a short stable identifier of the provider, used in logs and outcomes.
	Name() string
	// Configured reports whether the provider has what it needs to attempt a send.
	// It never performs I/O.
	Configured() bool
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) (Receipt, error)
}

func recipients(msg Message) []string {
	all := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	all = append(all, msg.To...)
	all = append(all, msg.Cc...)
	all = append(all, msg.Bcc...)
	return all
}
