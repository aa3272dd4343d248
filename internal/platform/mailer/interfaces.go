package mailer

import "context"

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Service delivers a single message and returns the provider's message id
// when it has one.
type Service interface {
	Send(ctx context.Context, msg Message) (string, error)
}
