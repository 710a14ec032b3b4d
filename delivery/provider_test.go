package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivationMessage(t *testing.T) {
	msg := ActivationMessage("emery@andela.com", "Muhozi", "http://localhost:8080/", "abc123")

	assert.Equal(t, "emery@andela.com", msg.To)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.Body, "Muhozi")
	assert.Contains(t, msg.Body, "http://localhost:8080/api/v1/auth/activate/abc123")
}

func TestLogMailer(t *testing.T) {
	var m Mailer = LogMailer{}
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Body: "b"}))
}
