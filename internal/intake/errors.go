package intake

import (
	"errors"

	"github.com/nevloh/nevloh-website-sub001/internal/spam"
)

var (
	// ErrNotConfigured means the email provider or the operations mailbox is
	// missing, so no lead could reach anyone.
	ErrNotConfigured = errors.New("intake: service not configured")

	// ErrSpamBlocked is wrapped by BlockedError.
	ErrSpamBlocked = errors.New("intake: submission blocked")
)

// BlockedError carries a hard-reject verdict back to the handler.
type BlockedError struct {
	Verdict spam.Verdict
}

func (e *BlockedError) Error() string {
	return "intake: submission blocked: " + e.Verdict.Reason
}

func (e *BlockedError) Unwrap() error { return ErrSpamBlocked }
