package email

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"andesgo/intake/internal/config"
)

// FileEmailSender appends every message, MIME encoded, to a local file.
type FileEmailSender struct {
	filePath string
	cfg      *config.Config
	mu       sync.Mutex
}

// NewFileEmailSender creates a new FileEmailSender.
// It ensures the directory for the log file exists.
func NewFileEmailSender(filePath string, cfg *config.Config) (Sender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("email log file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for email log file '%s': %w", dir, err)
	}

	return &FileEmailSender{filePath: filePath, cfg: cfg}, nil
}

// Send writes the rendered message to the configured file.
func (s *FileEmailSender) Send(ctx context.Context, msg *Message) (string, error) {
	now := time.Now()
	raw, messageID, err := BuildMIME(fromOrDefault(msg, s.cfg.MailFromAddress), msg, now)
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("FileEmailSender: Failed to open log file '%s': %v", s.filePath, err)
		return "", fmt.Errorf("failed to open email log file: %w", err)
	}
	defer file.Close()

	entry := fmt.Sprintf("--- Email Logged at %s (To: %v, Subject: %s, Tag: %s) ---\n",
		now.Format(time.RFC3339Nano), msg.To, msg.Subject, msg.Tag)
	entry += string(raw)
	entry += "--- End Logged Email ---\n\n"

	if _, err := file.WriteString(entry); err != nil {
		log.Printf("FileEmailSender: Failed to write to log file '%s': %v", s.filePath, err)
		return "", fmt.Errorf("failed to write email to log file: %w", err)
	}

	log.Printf("FileEmailSender: Email to %v (Subject: %s) logged to %s", msg.To, msg.Subject, s.filePath)
	return messageID, nil
}
