package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"andesgo/intake/internal/config"
)

const mockEmailTTL = 5 * time.Minute

// MockEmail is the JSON document a RedisSender stores per message.
type MockEmail struct {
	ID          string   `json:"id"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	Subject     string   `json:"subject"`
	Text        string   `json:"text"`
	HTML        string   `json:"html"`
	Attachments []string `json:"attachments,omitempty"`
	Tag         string   `json:"tag"`
	SentAt      string   `json:"sent_at"`
}

// RedisSender stores emails in Redis instead of delivering them, so that
// end-to-end tests can read them back through the service API.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{
		client: client,
		cfg:    cfg,
	}
}

// MockEmailKey is the Redis key under which the message for the given
// recipient and tag is kept.
func MockEmailKey(to, tag string) string {
	if tag == "" {
		tag = "unknown"
	}
	return fmt.Sprintf("mockemail:%s:%s", strings.ToLower(to), tag)
}

func (s *RedisSender) Send(ctx context.Context, msg *Message) (string, error) {
	primaryTo := ""
	if len(msg.To) > 0 {
		primaryTo = msg.To[0]
	}

	doc := MockEmail{
		ID:      uuid.NewString(),
		From:    fromOrDefault(msg, s.cfg.MailFromAddress),
		To:      strings.Join(msg.To, ", "),
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
		Tag:     msg.Tag,
		SentAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, a := range msg.Attachments {
		doc.Attachments = append(doc.Attachments, a.Filename)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := MockEmailKey(primaryTo, msg.Tag)
	if err := s.client.Set(ctx, key, jsonData, mockEmailTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (TTL: %v, To: %s, Subject: %s)", key, mockEmailTTL, doc.To, msg.Subject)
	return doc.ID, nil
}
