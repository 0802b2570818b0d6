// Package spam classifies contact-form submissions as clean, silently
// droppable (soft) or explicitly refused (hard) before any other work is done.
package spam

// Kind is the outcome class of a gate evaluation.
type Kind int

const (
	Clean Kind = iota
	SoftReject
	HardReject
)

func (k Kind) String() string {
	switch k {
	case SoftReject:
		return "soft"
	case HardReject:
		return "hard"
	default:
		return "clean"
	}
}

// Reasons recorded on non-clean verdicts.
const (
	ReasonHoneypot           = "honeypot"
	ReasonTooFast            = "too_fast"
	ReasonVerificationFailed = "verification_failed"
	ReasonDisposableEmail    = "disposable_email"
	ReasonVelocity           = "velocity"
	reasonContentPrefix      = "content:"
)

// Client-facing messages for hard rejects. They never name the check.
const (
	MessageVerificationFailed = "Security verification failed. Please refresh the page and try again."
	MessageDisposableEmail    = "Please use a valid, permanent email address."
)

// Verdict is the result of evaluating one submission. Message is only set
// for hard rejects and is safe to show the submitter.
type Verdict struct {
	Kind    Kind
	Reason  string
	Message string
}

func clean() Verdict { return Verdict{Kind: Clean} }

func soft(reason string) Verdict { return Verdict{Kind: SoftReject, Reason: reason} }

func hard(reason, message string) Verdict {
	return Verdict{Kind: HardReject, Reason: reason, Message: message}
}
