package spam

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nevloh/nevloh-website-sub001/internal/forms"
	"github.com/nevloh/nevloh-website-sub001/internal/observability/metrics"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

var tracer = otel.Tracer("nevloh.spam")

const (
	defaultMinDwell = 3 * time.Second
	maxClockSkew    = time.Minute
)

// GateOptions wires the gate's checks. A nil Verifier disables challenge
// verification, a nil Velocity disables velocity counting.
type GateOptions struct {
	MinDwell   time.Duration
	Verifier   Verifier
	Disposable *DisposableList
	Velocity   *VelocityLimiter
	Logger     *logging.Logger
	Metrics    *metrics.IntakeMetrics
}

// Gate runs the spam checks in a fixed order and stops at the first
// non-clean result.
type Gate struct {
	minDwell   time.Duration
	verifier   Verifier
	content    *ContentFilter
	disposable *DisposableList
	velocity   *VelocityLimiter
	logger     *logging.Logger
	metrics    *metrics.IntakeMetrics
	now        func() time.Time
}

func NewGate(opts GateOptions) *Gate {
	if opts.MinDwell <= 0 {
		opts.MinDwell = defaultMinDwell
	}
	if opts.Disposable == nil {
		opts.Disposable = NewDisposableList()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Gate{
		minDwell:   opts.MinDwell,
		verifier:   opts.Verifier,
		content:    NewContentFilter(),
		disposable: opts.Disposable,
		velocity:   opts.Velocity,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// Evaluate classifies sub. It never returns an error: provider failures are
// logged and treated as clean for the affected check.
func (g *Gate) Evaluate(ctx context.Context, sub *forms.Submission) Verdict {
	ctx, span := tracer.Start(ctx, "spam.evaluate")
	defer span.End()

	v := g.evaluate(ctx, sub)
	span.SetAttributes(
		attribute.String("spam.kind", v.Kind.String()),
		attribute.String("spam.reason", v.Reason),
	)
	if v.Kind != Clean {
		g.logger.Warn("submission rejected by spam gate",
			"timestamp", g.now().UTC().Format(time.RFC3339),
			"source", sub.Source,
			"kind", v.Kind.String(),
			"reason", v.Reason,
			"email", logging.RedactEmail(sub.Email),
			"ip", sub.ClientIP,
		)
		g.metrics.ObserveSpamVerdict(v.Kind.String(), v.Reason)
	}
	return v
}

func (g *Gate) evaluate(ctx context.Context, sub *forms.Submission) Verdict {
	if strings.TrimSpace(sub.Website) != "" {
		return soft(ReasonHoneypot)
	}

	if sub.FormRenderedAt > 0 {
		rendered := time.UnixMilli(sub.FormRenderedAt)
		elapsed := g.now().Sub(rendered)
		if elapsed < -maxClockSkew || (elapsed >= 0 && elapsed < g.minDwell) {
			return soft(ReasonTooFast)
		}
	}

	if token := strings.TrimSpace(sub.RecaptchaToken); token != "" && g.verifier != nil {
		ok, err := g.verifier.Verify(ctx, token, sub.ClientIP)
		switch {
		case err != nil:
			g.logger.Warn("challenge verification unavailable, allowing submission", "error", err)
		case !ok:
			return hard(ReasonVerificationFailed, MessageVerificationFailed)
		}
	}

	if label, hit := g.content.Match(sub.Message, sub.Company, sub.FirstName, sub.LastName, sub.Address, sub.HearAboutUs); hit {
		return soft(reasonContentPrefix + label)
	}

	if email := strings.TrimSpace(sub.Email); email != "" && g.disposable.Blocked(email) {
		return hard(ReasonDisposableEmail, MessageDisposableEmail)
	}

	if g.velocity != nil {
		exceeded, count, err := g.velocity.Exceeded(ctx, sub.Email, sub.ClientIP)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				g.logger.Warn("velocity check failed, allowing submission", "error", err)
			}
		} else if exceeded {
			g.logger.Debug("submission velocity exceeded", "count", count)
			return soft(ReasonVelocity)
		}
	}

	return clean()
}
