package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidStatus is returned for a status outside the fixed set
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrEmptyPatch is returned when an update carries no fields
	ErrEmptyPatch = errors.New("no fields to update")

	// ErrInvalidEmail is returned when a patched email is malformed
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrAlreadySubscribed is returned when the newsletter already has the email
	ErrAlreadySubscribed = errors.New("email already subscribed")

	// ErrMissingEmail is returned when a subscriber has no email
	ErrMissingEmail = errors.New("subscriber email is required")
)
