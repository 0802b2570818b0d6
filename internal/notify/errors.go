package notify

import "errors"

var (
	// ErrNotificationFailed means the operations team was not told about a lead.
	ErrNotificationFailed = errors.New("notify: internal notification failed")

	// ErrNoRecipient is returned when a confirmation has nowhere to go.
	ErrNoRecipient = errors.New("notify: lead has no email address")
)
