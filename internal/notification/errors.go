package notification

import "errors"

var (
	// ErrStorageNil is returned when a nil storage is provided
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrRegistryNil is returned when a nil template registry is provided
	ErrRegistryNil = errors.New("template registry cannot be nil")

	// ErrSenderNil is returned when a nil delivery sender is provided
	ErrSenderNil = errors.New("delivery sender cannot be nil")

	// ErrNotFound is returned when a notification does not exist
	ErrNotFound = errors.New("notification not found")

	// ErrNotClaimed is returned when an update expected the row to be in
	// sending state but another writer changed it first
	ErrNotClaimed = errors.New("notification is not claimed for processing")

	// ErrCreateFailed is returned when persisting a new notification fails
	ErrCreateFailed = errors.New("failed to create notification record")

	// ErrMissingRecipient is returned when queueing without a recipient address
	ErrMissingRecipient = errors.New("recipient email is required")

	// ErrMissingTemplateID is returned when queueing without a template id
	ErrMissingTemplateID = errors.New("template id is required")

	// ErrMissingUserID is returned when queueing without a user id
	ErrMissingUserID = errors.New("user id is required")
)
