package email

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"

	"andesgo/intake/internal/config"
)

// resendEmails is the subset of the Resend client used for delivery.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers messages through the Resend HTTP API.
type ResendSender struct {
	cfg    *config.Config
	emails resendEmails
}

// NewResendSender creates a sender backed by a Resend client for cfg.ResendAPIKey.
func NewResendSender(cfg *config.Config) Sender {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &ResendSender{cfg: cfg, emails: client.Emails}
}

func newResendSenderWithClient(cfg *config.Config, emails resendEmails) *ResendSender {
	return &ResendSender{cfg: cfg, emails: emails}
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("message has no recipients")
	}

	params := &resend.SendEmailRequest{
		From:    fromOrDefault(msg, s.cfg.MailFromAddress),
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	if msg.Tag != "" {
		params.Tags = []resend.Tag{{Name: "category", Value: msg.Tag}}
	}
	for _, a := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:  a.Content,
			Filename: a.Filename,
		})
	}

	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		log.Printf("Failed to send email via Resend to %v: %v", msg.To, err)
		return "", fmt.Errorf("resend error: %w", err)
	}
	log.Printf("Email sent via Resend to %v (Subject: %s, ID: %s)", msg.To, msg.Subject, sent.Id)
	return sent.Id, nil
}
