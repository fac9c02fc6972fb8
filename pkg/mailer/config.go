package mailer

import "time"

// Config holds delivery provider configuration.
// The Postmark tokens are optional to support development environments where
// outbound email is redirected to disk. SenderEmail and SupportEmail are
// required as they establish sender identity and reply-to behavior for all
// outbound mail.
type Config struct {
	PostmarkServerToken  string        `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string        `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderName           string        `env:"SENDER_NAME" envDefault:"Proofr"`
	SenderEmail          string        `env:"SENDER_EMAIL,required"`
	SupportEmail         string        `env:"SUPPORT_EMAIL,required"`
	SendTimeout          time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"10s"`
}
