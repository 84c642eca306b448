package smtp

import (
	"context"
	"fmt"

	"github.com/hearthcall/hearth/internal/core/domain"
	"gopkg.in/gomail.v2"
)

// Mailer sends call invitations over SMTP. It runs only on the
// fire-and-forget path after room creation; errors surface to the caller
// for logging and nothing else.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) SendInvite(ctx context.Context, to domain.Contact, joinURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to.Email)
	msg.SetHeader("Subject", "You have a video call waiting!")
	msg.SetBody("text/html", inviteBody(to.Name, joinURL))

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func inviteBody(name, joinURL string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; padding: 40px;">
    <h1 style="color: #333; text-align: center;">Someone wants to see you, %s!</h1>
    <div style="text-align: center; margin: 40px 0;">
      <a href="%s" style="background: #2196F3; color: white; padding: 18px 50px;
         text-decoration: none; border-radius: 8px; display: inline-block;
         font-size: 20px; font-weight: bold;">Join Video Call</a>
    </div>
    <p style="color: #666; font-size: 14px; text-align: center;">
      Make sure your camera and microphone are enabled.
    </p>
    <p style="color: #999; font-size: 12px; text-align: center;">
      Link: <a href="%s" style="color: #2196F3;">%s</a>
    </p>
  </div>
</div>`, name, joinURL, joinURL, joinURL)
}

// Noop is the sender used when SMTP is not configured.
type Noop struct{}

func (Noop) SendInvite(ctx context.Context, to domain.Contact, joinURL string) error {
	return nil
}
