package mailer

import "errors"

var (
	ErrInvalidConfig  = errors.New("mailer.errors.invalid_config")
	ErrInvalidMessage = errors.New("mailer.errors.invalid_message")
	ErrSendFailed     = errors.New("mailer.errors.failed_to_send_email")
)
