package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type SMTPMailer struct {
	Host     string
	Port     int
	From     string
	FromName string
	User     string
	Pass     string
	UseTLS   bool // implicit TLS (port 465); otherwise STARTTLS when offered
}

func NewSMTPMailer(host string, port int, from, fromName, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:     strings.TrimSpace(host),
		Port:     port,
		From:     strings.TrimSpace(from),
		FromName: strings.TrimSpace(fromName),
		User:     strings.TrimSpace(user),
		Pass:     strings.TrimSpace(pass),
		UseTLS:   useTLS,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	to := strings.TrimSpace(msg.ToEmail)
	if to == "" {
		return "", fmt.Errorf("smtp: empty recipient email")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
	}

	c, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer c.Close()

	if !s.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return "", fmt.Errorf("smtp: starttls: %w", err)
			}
		}
	}
	if s.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host)); err != nil {
			return "", fmt.Errorf("smtp: auth: %w", err)
		}
	}
	if err := c.Mail(s.From); err != nil {
		return "", err
	}
	if err := c.Rcpt(to); err != nil {
		return "", err
	}
	w, err := c.Data()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(s.build(to, msg)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return "", c.Quit()
}

func (s *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	var (
		conn net.Conn
		err  error
	)
	if s.UseTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: s.Host}}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (s *SMTPMailer) build(to string, msg Message) []byte {
	var buf bytes.Buffer
	boundary := "mixed-boundary"
	from := s.From
	if s.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.FromName), s.From)
	}
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// text part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", msg.Text)

	// html part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", msg.HTML)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
