package mail

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

// fakeSMTPServer speaks just enough SMTP for net/smtp to deliver one message.
type fakeSMTPServer struct {
	ln       net.Listener
	rcptCode int
	hang     bool

	mu   sync.Mutex
	data string
	rcpt []string
}

func newFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &fakeSMTPServer{ln: ln, rcptCode: 250}
	t.Cleanup(func() { _ = ln.Close() })

	return srv
}

func (f *fakeSMTPServer) start() {
	go func() {
		for {
			conn, err := f.ln.Accept()
			if err != nil {
				return
			}
			go f.handle(conn)
		}
	}()
}

func (f *fakeSMTPServer) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeSMTPServer) handle(conn net.Conn) {
	defer conn.Close()

	if f.hang {
		time.Sleep(time.Second)
		return
	}

	r := bufio.NewReader(conn)
	write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

	write("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		cmd := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			write("250-fake")
			write("250 8BITMIME")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			write("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			f.mu.Lock()
			f.rcpt = append(f.rcpt, line)
			f.mu.Unlock()
			write(strconv.Itoa(f.rcptCode) + " rcpt")
		case cmd == "DATA":
			write("354 go ahead")
			var sb strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				sb.WriteString(l)
			}
			f.mu.Lock()
			f.data = sb.String()
			f.mu.Unlock()
			write("250 queued")
		case cmd == "QUIT":
			write("221 bye")
			return
		default:
			write("250 OK")
		}
	}
}

func TestSMTP_Configured(t *testing.T) {
	assert.False(t, NewSMTP(SMTPConfig{}).Configured())
	assert.False(t, NewSMTP(SMTPConfig{Host: "localhost", Port: 25}).Configured())
	assert.True(t, NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "no-reply@example.com"}).Configured())
}

func TestSMTP_Send(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewSMTP(SMTPConfig{}).Send(context.Background(), Message{To: []string{"a@example.com"}})
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, CategoryNotConfigured, CategoryOf(err))
	})

	t.Run("delivered", func(t *testing.T) {
		srv := newFakeSMTPServer(t)
		srv.start()

		s := NewSMTP(SMTPConfig{
			Host: "127.0.0.1", Port: srv.port(), From: "no-reply@example.com", FromName: "Jobs",
			UID: fixedID("01JTESTID"),
		})

		rc, err := s.Send(context.Background(), Message{
			To:       []string{"user@example.com"},
			Subject:  "Your code",
			TextBody: "code 123456",
			HTMLBody: "<p>code 123456</p>",
		})
		require.NoError(t, err)
		assert.Equal(t, "<01JTESTID@127.0.0.1>", rc.TransportID)

		srv.mu.Lock()
		defer srv.mu.Unlock()
		assert.Contains(t, srv.data, "Subject: Your code")
		assert.Contains(t, srv.data, "Message-ID: <01JTESTID@127.0.0.1>")
		assert.Contains(t, srv.data, "multipart/alternative; boundary=verification-boundary-01jtestid")
		assert.Contains(t, srv.data, "code 123456")
		assert.Len(t, srv.rcpt, 1)
	})

	t.Run("recipient rejected", func(t *testing.T) {
		srv := newFakeSMTPServer(t)
		srv.rcptCode = 550
		srv.start()

		s := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), From: "no-reply@example.com"})

		_, err := s.Send(context.Background(), Message{To: []string{"nobody@example.com"}, TextBody: "x"})
		require.Error(t, err)
		assert.Equal(t, CategoryRecipientRejected, CategoryOf(err))
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := newFakeSMTPServer(t)
		port := srv.port()
		require.NoError(t, srv.ln.Close())

		s := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: port, From: "no-reply@example.com"})

		_, err := s.Send(context.Background(), Message{To: []string{"user@example.com"}, TextBody: "x"})
		require.Error(t, err)
		assert.Equal(t, CategoryTransportUnavailable, CategoryOf(err))
	})

	t.Run("deadline", func(t *testing.T) {
		srv := newFakeSMTPServer(t)
		srv.hang = true
		srv.start()

		s := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), From: "no-reply@example.com"})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := s.Send(ctx, Message{To: []string{"user@example.com"}, TextBody: "x"})
		require.Error(t, err)
		assert.Equal(t, CategoryTransportUnavailable, CategoryOf(err))
		assert.Less(t, time.Since(start), 900*time.Millisecond)
	})
}
