package delivery

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the adapter interface for outgoing account email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ActivationMessage builds the email that carries a new account's activation link.
func ActivationMessage(to, username, publicURL, activationToken string) Message {
	link := strings.TrimRight(publicURL, "/") + "/api/v1/auth/activate/" + activationToken
	return Message{
		To:      to,
		Subject: "Activate your WeConnect account",
		Body: fmt.Sprintf("Hello %s,\n\nConfirm your email address to start using WeConnect:\n%s\n",
			username, link),
	}
}

// LogMailer writes messages to the process log instead of sending them. It is
// used when no SendGrid API key is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Printf("INFO (LogMailer): Email to %s, subject %q:\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}
