package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"andesgo/intake/internal/config"
)

// Attachment is a file carried by an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a provider-neutral outgoing email. From falls back to the
// sender's configured address when empty. Tag identifies the notification
// kind (e.g. "mailbox_operator") and is used by mock sinks as a lookup key.
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
	Tag         string
}

// Sender defines the interface for sending emails.
// It returns the provider's message id when one is available.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// SMTPSender implements the Sender interface using Go's net/smtp package.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates a new SMTPSender.
// Without an SMTP host it falls back to a LoggingSender.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Println("SMTP host not configured, using logging email sender.")
		return &LoggingSender{cfg: cfg}
	}

	auth := smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost)
	addr := fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort)

	return &SMTPSender{
		cfg:  cfg,
		auth: auth,
		addr: addr,
	}
}

// Send delivers the message over SMTP. net/smtp does not take a context,
// so cancellation is left to the caller's timeout.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) (string, error) {
	from := fromOrDefault(msg, s.cfg.MailFromAddress)
	raw, messageID, err := BuildMIME(from, msg, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	if err := smtp.SendMail(s.addr, s.auth, envelopeAddress(from), msg.To, raw); err != nil {
		log.Printf("Failed to send email via SMTP to %v: %v", msg.To, err)
		return "", fmt.Errorf("smtp error: %w", err)
	}
	log.Printf("Email sent successfully via SMTP to %v (Subject: %s)", msg.To, msg.Subject)
	return messageID, nil
}

// LoggingSender only logs email details.
// Useful for development or when SMTP isn't configured.
type LoggingSender struct {
	cfg *config.Config
}

func (s *LoggingSender) Send(ctx context.Context, msg *Message) (string, error) {
	log.Printf("--- Sending Email (Logged) ---")
	log.Printf("From: %s", fromOrDefault(msg, s.cfg.MailFromAddress))
	log.Printf("To: %v", msg.To)
	if msg.ReplyTo != "" {
		log.Printf("Reply-To: %s", msg.ReplyTo)
	}
	log.Printf("Subject: %s", msg.Subject)
	for _, a := range msg.Attachments {
		log.Printf("Attachment: %s (%s, %d bytes)", a.Filename, a.ContentType, len(a.Content))
	}
	log.Println("--- Text Body ---")
	log.Println(msg.Text)
	log.Println("--- End Email ---")
	return "", nil
}

func fromOrDefault(msg *Message, fallback string) string {
	if msg.From != "" {
		return msg.From
	}
	return fallback
}

// envelopeAddress extracts "a@b" from "Name <a@b>".
func envelopeAddress(addr string) string {
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		if j := strings.LastIndex(addr, ">"); j > i {
			return addr[i+1 : j]
		}
	}
	return strings.TrimSpace(addr)
}

// BuildMIME renders msg as an RFC 5322 message with a multipart/alternative
// body and any attachments. It returns the raw bytes and the Message-ID.
func BuildMIME(from string, msg *Message, now time.Time) ([]byte, string, error) {
	if len(msg.To) == 0 {
		return nil, "", fmt.Errorf("message has no recipients")
	}
	for _, v := range append([]string{from, msg.ReplyTo}, msg.To...) {
		if strings.ContainsAny(v, "\r\n") {
			return nil, "", fmt.Errorf("header value %q contains a line break", v)
		}
	}

	domain := "localhost"
	if at := strings.LastIndex(envelopeAddress(from), "@"); at >= 0 {
		domain = envelopeAddress(from)[at+1:]
	}
	messageID := fmt.Sprintf("<%d.%s@%s>", now.UnixNano(), sanitizeTag(msg.Tag), domain)

	var buf bytes.Buffer
	writeHeader := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	writeHeader("From", from)
	writeHeader("To", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		writeHeader("Reply-To", msg.ReplyTo)
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", now.Format(time.RFC1123Z))
	writeHeader("Message-ID", messageID)
	writeHeader("MIME-Version", "1.0")

	mixed := multipart.NewWriter(&buf)
	writeHeader("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	buf.WriteString("\r\n")

	var altBody bytes.Buffer
	alt := multipart.NewWriter(&altBody)
	if err := writeTextPart(alt, "text/plain", msg.Text); err != nil {
		return nil, "", err
	}
	if msg.HTML != "" {
		if err := writeTextPart(alt, "text/html", msg.HTML); err != nil {
			return nil, "", err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, "", err
	}

	altPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + alt.Boundary()},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := altPart.Write(altBody.Bytes()); err != nil {
		return nil, "", err
	}

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, "", err
		}
		if err := writeBase64Lines(part, a.Content); err != nil {
			return nil, "", err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), messageID, nil
}

func writeTextPart(w *multipart.Writer, contentType, body string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType + `; charset="UTF-8"`},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return err
	}
	return writeBase64Lines(part, []byte(body))
}

// writeBase64Lines wraps base64 output at 76 columns.
func writeBase64Lines(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := w.Write([]byte(encoded + "\r\n"))
	return err
}

func sanitizeTag(tag string) string {
	if tag == "" {
		return "msg"
	}
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(tag))
}
