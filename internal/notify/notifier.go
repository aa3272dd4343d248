// Package notify sends the two emails that follow a new booking: one to the
// trainer, one to the client.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	"github.com/diagnosis/trainer-bookings/internal/platform/mailer"
)

var (
	adminText = texttemplate.Must(texttemplate.New("admin").Parse(`New booking received:
Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
Date: {{.Date}}
Time: {{.Time}}
Message: {{.Message}}
`))

	adminHTML = htmltemplate.Must(htmltemplate.New("admin").Parse(`<h2>New Booking Received</h2>
<ul>
  <li><strong>Name:</strong> {{.Name}}</li>
  <li><strong>Email:</strong> {{.Email}}</li>
  <li><strong>Phone:</strong> {{.Phone}}</li>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.Time}}</li>
  <li><strong>Message:</strong> {{.Message}}</li>
</ul>`))

	clientText = texttemplate.Must(texttemplate.New("client").Parse(`Hi {{.Name}},

Thank you for booking a session!
Here are your booking details:

Date: {{.Date}}
Time: {{.Time}}
Phone: {{.Phone}}
Message: {{.Message}}

I look forward to working with you!

Best,
Your Trainer
`))

	clientHTML = htmltemplate.Must(htmltemplate.New("client").Parse(`<div style="font-family: Arial, sans-serif; color: #222;">
  <h2 style="color: #e11d48;">Your Booking is Confirmed!</h2>
  <p>Hi <strong>{{.Name}}</strong>,</p>
  <p>Thank you for booking a session! Here are your booking details:</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 8px;"><strong>Date:</strong></td><td>{{.Date}}</td></tr>
    <tr><td style="padding: 4px 8px;"><strong>Time:</strong></td><td>{{.Time}}</td></tr>
    <tr><td style="padding: 4px 8px;"><strong>Phone:</strong></td><td>{{.Phone}}</td></tr>
    <tr><td style="padding: 4px 8px;"><strong>Message:</strong></td><td>{{.Message}}</td></tr>
  </table>
  <p style="margin-top: 16px;">I look forward to working with you!</p>
  <p>Best,<br/>Your Trainer</p>
</div>`))
)

type Notifier struct {
	mail    mailer.Service
	adminTo string
}

// New returns a Notifier that sends the trainer's copy to adminTo.
func New(mail mailer.Service, adminTo string) *Notifier {
	return &Notifier{mail: mail, adminTo: adminTo}
}

type view struct {
	Name, Email, Phone, Date, Time, Message string
}

// BookingCreated sends both emails concurrently. It succeeds only if both
// were accepted by the mail service.
func (n *Notifier) BookingCreated(ctx context.Context, b domain.Booking) error {
	v := view{Name: b.Name, Email: b.Email, Phone: b.Phone, Date: b.Date, Time: b.Time, Message: "N/A"}
	if b.Message != nil && *b.Message != "" {
		v.Message = *b.Message
	}

	admin, err := render(n.adminTo, "", "New Booking Received", adminText, adminHTML, v)
	if err != nil {
		return err
	}
	client, err := render(b.Email, b.Name, "Your Booking is Confirmed!", clientText, clientHTML, v)
	if err != nil {
		return err
	}

	// One failed send does not cancel the other; both failures are reported.
	var (
		g    errgroup.Group
		errs [2]error
	)
	g.Go(func() error {
		if _, err := n.mail.Send(ctx, admin); err != nil {
			errs[0] = fmt.Errorf("admin notification: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := n.mail.Send(ctx, client); err != nil {
			errs[1] = fmt.Errorf("client confirmation: %w", err)
		}
		return nil
	})
	_ = g.Wait()
	return errors.Join(errs[:]...)
}

func render(to, name, subject string, text *texttemplate.Template, html *htmltemplate.Template, v view) (mailer.Message, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, v); err != nil {
		return mailer.Message{}, fmt.Errorf("render %q text: %w", subject, err)
	}
	if err := html.Execute(&hb, v); err != nil {
		return mailer.Message{}, fmt.Errorf("render %q html: %w", subject, err)
	}
	return mailer.Message{ToEmail: to, ToName: name, Subject: subject, Text: tb.String(), HTML: hb.String()}, nil
}
