package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSend struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	Enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	m := &MailerSend{
		Enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSend) Send(ctx context.Context, in Message) (string, error) {
	if !m.Enabled {
		return "", errors.New("mailersend disabled (missing MAILERSEND_API_KEY or EMAIL_USER)")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: in.ToName, Email: in.ToEmail}})
	msg.SetSubject(in.Subject)
	if strings.TrimSpace(in.Text) != "" {
		msg.SetText(in.Text)
	}
	if strings.TrimSpace(in.HTML) != "" {
		msg.SetHTML(in.HTML)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	// MailerSend uses X-Message-Id
	return res.Header.Get("X-Message-Id"), nil
}
