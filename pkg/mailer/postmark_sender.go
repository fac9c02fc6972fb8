package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

type postmarkSender struct {
	client *postmark.Client
	config Config
}

// NewPostmarkSender creates a Postmark-backed delivery client.
// Both tokens and valid sender identities are required.
func NewPostmarkSender(cfg Config) (Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.SupportEmail == "" {
		return nil, fmt.Errorf("%w: SupportEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// MustNewPostmarkSender creates a Postmark sender, panicking on invalid config.
func MustNewPostmarkSender(cfg Config) Sender {
	sender, err := NewPostmarkSender(cfg)
	if err != nil {
		panic(err)
	}
	return sender
}

// Send maps the normalized message 1:1 onto Postmark's payload and submits
// it. Tracking is enabled for opens and HTML link clicks so the webhook
// reconciler receives opened/clicked events. The provider call carries an
// explicit timeout: one hung request must not stall a whole processing batch.
func (s *postmarkSender) Send(ctx context.Context, msg Message) Result {
	if err := msg.Validate(); err != nil {
		return failure(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	defer cancel()

	if msg.TemplateID != 0 {
		return s.sendTemplated(ctx, msg)
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:        s.from(),
		ReplyTo:     s.replyTo(msg),
		To:          strings.Join(msg.To, ","),
		Cc:          strings.Join(msg.CC, ","),
		Bcc:         strings.Join(msg.BCC, ","),
		Subject:     msg.Subject,
		Tag:         primaryTag(msg.Tags),
		HTMLBody:    msg.HTMLBody,
		TextBody:    msg.TextBody,
		Attachments: attachments(msg.Attachments),
		Metadata:    tagMetadata(msg.Tags),
		TrackOpens:  true,
		TrackLinks:  "HtmlOnly",
	})
	return toResult(resp.MessageID, resp.ErrorCode, resp.Message, err)
}

func (s *postmarkSender) sendTemplated(ctx context.Context, msg Message) Result {
	resp, err := s.client.SendTemplatedEmail(ctx, postmark.TemplatedEmail{
		TemplateID:    msg.TemplateID,
		TemplateModel: msg.Params,
		From:          s.from(),
		ReplyTo:       s.replyTo(msg),
		To:            strings.Join(msg.To, ","),
		Cc:            strings.Join(msg.CC, ","),
		Bcc:           strings.Join(msg.BCC, ","),
		Tag:           primaryTag(msg.Tags),
		Attachments:   attachments(msg.Attachments),
		Metadata:      templateTagMetadata(msg.Tags),
		TrackOpens:    true,
		TrackLinks:    "HtmlOnly",
	})
	return toResult(resp.MessageID, resp.ErrorCode, resp.Message, err)
}

func (s *postmarkSender) from() string {
	if s.config.SenderName != "" {
		return fmt.Sprintf("%s <%s>", s.config.SenderName, s.config.SenderEmail)
	}
	return s.config.SenderEmail
}

// replyTo prefers the message's own reply-to, falling back to the support
// address so customer responses always reach a monitored inbox.
func (s *postmarkSender) replyTo(msg Message) string {
	if msg.ReplyTo != "" {
		return msg.ReplyTo
	}
	return s.config.SupportEmail
}

// primaryTag returns the first tag; Postmark accepts a single Tag field,
// additional tags travel as metadata.
func primaryTag(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return tags[0]
}

func tagMetadata(tags []string) map[string]string {
	if len(tags) < 2 {
		return nil
	}
	meta := make(map[string]string, len(tags)-1)
	for i, tag := range tags[1:] {
		meta[fmt.Sprintf("tag_%d", i+1)] = tag
	}
	return meta
}

// templateTagMetadata widens tagMetadata for TemplatedEmail, whose Metadata
// field is map[string]any rather than map[string]string.
func templateTagMetadata(tags []string) map[string]any {
	tagged := tagMetadata(tags)
	if tagged == nil {
		return nil
	}
	meta := make(map[string]any, len(tagged))
	for k, v := range tagged {
		meta[k] = v
	}
	return meta
}

func attachments(in []Attachment) []postmark.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]postmark.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, postmark.Attachment{
			Name:        a.Name,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}
	return out
}

// toResult folds the provider response and transport error into one Result;
// callers never see a raw error.
func toResult(messageID string, errorCode int64, message string, err error) Result {
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("%v: %v", ErrSendFailed, err)}
	}
	if errorCode > 0 {
		return Result{Success: false, Error: fmt.Sprintf("postmark error: %d - %s", errorCode, message)}
	}
	return Result{Success: true, MessageID: messageID}
}
