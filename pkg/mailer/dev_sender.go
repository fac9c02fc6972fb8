package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DevSender implements Sender for local development. It saves messages as
// HTML and JSON files in a directory instead of calling the provider, and
// reports a synthetic message ID so the processing path behaves exactly as
// in production.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender that writes emails to dir.
// The directory will be created if it doesn't exist.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

// devMetadata is the message data saved to JSON (excluding HTML content).
type devMetadata struct {
	Timestamp string   `json:"timestamp"`
	MessageID string   `json:"message_id"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Tags      []string `json:"tags,omitempty"`
	TextBody  string   `json:"text_body,omitempty"`
}

// Send writes the message to disk and returns a successful Result carrying
// a generated message ID.
func (d *DevSender) Send(_ context.Context, msg Message) Result {
	if err := msg.Validate(); err != nil {
		return failure(err)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return failure(fmt.Errorf("%w: failed to create directory: %v", ErrSendFailed, err))
	}

	now := time.Now()
	messageID := "dev-" + uuid.NewString()

	identifier := msg.Subject
	if len(msg.Tags) > 0 {
		identifier = msg.Tags[0]
	}
	baseFilename := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(identifier))

	if msg.HTMLBody != "" {
		htmlPath := filepath.Join(d.dir, baseFilename+".html")
		if err := os.WriteFile(htmlPath, []byte(msg.HTMLBody), 0644); err != nil {
			return failure(fmt.Errorf("%w: failed to write HTML file: %v", ErrSendFailed, err))
		}
	}

	metadata := devMetadata{
		Timestamp: now.Format(time.RFC3339),
		MessageID: messageID,
		To:        msg.To,
		Subject:   msg.Subject,
		Tags:      msg.Tags,
		TextBody:  msg.TextBody,
	}

	jsonData, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return failure(fmt.Errorf("%w: failed to marshal metadata: %v", ErrSendFailed, err))
	}

	jsonPath := filepath.Join(d.dir, baseFilename+".json")
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return failure(fmt.Errorf("%w: failed to write JSON file: %v", ErrSendFailed, err))
	}

	return Result{Success: true, MessageID: messageID}
}

// sanitizeRegex matches characters that are not alphanumeric, dash, underscore, or dot.
var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts a string into a safe filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}

	if s == "" {
		s = "email"
	}

	return strings.ToLower(s)
}
