package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hogis-registration/config"
)

type smtpTransport struct {
	host     string
	port     int
	username string
	password string
	from     mail.Address
	timeout  time.Duration
}

func newSMTPTransport(cfg *config.MailConfig) *smtpTransport {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &smtpTransport{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     mail.Address{Name: cfg.FromName, Address: from},
		timeout:  30 * time.Second,
	}
}

func (t *smtpTransport) name() string { return "smtp" }

func (t *smtpTransport) send(ctx context.Context, msg *Message) (string, error) {
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.host)
	body, err := buildMIME(t.from, msg, id, time.Now())
	if err != nil {
		return "", err
	}

	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	dialer := &net.Dialer{Timeout: t.timeout}

	var conn net.Conn
	if t.port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: t.host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(t.timeout))
	}

	c, err := smtp.NewClient(conn, t.host)
	if err != nil {
		conn.Close()
		return "", err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok && t.port != 465 {
		if err := c.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
			return "", fmt.Errorf("starttls: %w", err)
		}
	}
	if t.username != "" {
		if err := c.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
			return "", fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(t.from.Address); err != nil {
		return "", err
	}
	if err := c.Rcpt(msg.To.Address); err != nil {
		return "", err
	}
	w, err := c.Data()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(body); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	if err := c.Quit(); err != nil {
		return "", err
	}
	return id, nil
}

// buildMIME multipart/alternative message with text and HTML parts
func buildMIME(from mail.Address, msg *Message, messageID string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ k, v string }{
		{"From", from.String()},
		{"To", msg.To.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", messageID},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	}
	var head strings.Builder
	for _, h := range headers {
		head.WriteString(h.k + ": " + h.v + "\r\n")
	}
	head.WriteString("\r\n")

	for _, part := range []struct{ ct, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ct}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return append([]byte(head.String()), buf.Bytes()...), nil
}
