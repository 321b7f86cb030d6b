// Package mail delivers the verification emails of the contacts service via
// SendGrid. Delivery happens on a background goroutine: the HTTP response to
// the caller never waits for the mail provider, and failures are only logged.
package mail

import (
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender sends verification emails through the SendGrid API.
type Sender struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *slog.Logger
}

// NewSender creates a Sender using the given SendGrid API key and from
// address.
func NewSender(apiKey string, fromName string, fromAddr string, logger *slog.Logger) *Sender {
	return &Sender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddr),
		logger: logger,
	}
}

// SendVerification mails the verification link to the given address. The call
// returns immediately; the actual delivery is fire-and-forget.
func (s *Sender) SendVerification(toAddr string, link string) {
	message := verificationMessage(s.from, toAddr, link)
	go func() {
		response, err := s.client.Send(message)
		if err != nil {
			s.logger.Error("sending verification email failed",
				slog.String("to", toAddr), slog.String("error", err.Error()))
			return
		}
		if response.StatusCode >= 400 {
			s.logger.Error("verification email rejected by provider",
				slog.String("to", toAddr), slog.Int("status", response.StatusCode))
		}
	}()
}

// verificationMessage builds the plain-text verification mail.
func verificationMessage(from *sgmail.Email, toAddr string, link string) *sgmail.SGMailV3 {
	to := sgmail.NewEmail("", toAddr)
	body := "Click the link to verify your email: " + link
	return sgmail.NewSingleEmail(from, "Verify your email", to, body, body)
}
