package mailer

import (
	"context"
	"fmt"
	"regexp"
)

// Sender delivers one message through an email provider.
//
// Send never panics and never surfaces transport errors to the caller as
// Go errors: every provider or network failure is folded into the returned
// Result so the processing loop can treat all outcomes uniformly.
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

// Attachment is a file attached to a message, base64-encoded.
type Attachment struct {
	Name        string
	Content     string
	ContentType string
}

// Message is the normalized outbound email. Content is either rendered
// HTML/text bodies or a provider-side template reference (TemplateID plus
// Params) - exactly one of the two forms should be populated.
type Message struct {
	To          []string
	CC          []string
	BCC         []string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	TextBody    string
	TemplateID  int64
	Params      map[string]any
	Attachments []Attachment
	Tags        []string
}

// Result is the outcome of one delivery attempt.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks the message is sendable: at least one valid recipient and
// either a provider template reference or a subject with some body content.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidMessage)
	}
	for _, addr := range m.To {
		if !emailRegex.MatchString(addr) {
			return fmt.Errorf("%w: invalid recipient address %q", ErrInvalidMessage, addr)
		}
	}
	if m.TemplateID != 0 {
		return nil
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.HTMLBody == "" && m.TextBody == "" {
		return fmt.Errorf("%w: either HTML or text body is required", ErrInvalidMessage)
	}
	return nil
}

// failure builds a failed Result from an error.
func failure(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
