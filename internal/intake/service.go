// Package intake runs the public contact-form pipeline: spam gate, form
// normalization, internal notification, lead storage and best-effort
// follow-ups.
package intake

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nevloh/nevloh-website-sub001/internal/forms"
	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/internal/notify"
	"github.com/nevloh/nevloh-website-sub001/internal/observability/metrics"
	"github.com/nevloh/nevloh-website-sub001/internal/spam"
	"github.com/nevloh/nevloh-website-sub001/internal/tasks"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

// Gate classifies a submission.
type Gate interface {
	Evaluate(ctx context.Context, sub *forms.Submission) spam.Verdict
}

// LeadStore persists accepted leads.
type LeadStore interface {
	Create(ctx context.Context, lead *leads.Lead) (*leads.Lead, error)
}

// Outcome is how a submission ended when no error was returned.
type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeSoftRejected Outcome = "soft_rejected"
)

// Result describes a successful submission. Lead is nil for soft rejects.
// Stored is false when the lead reached operations but the store write
// failed.
type Result struct {
	Outcome Outcome
	Lead    *leads.Lead
	Stored  bool
}

// Deps wires a Service.
type Deps struct {
	Gate        Gate
	Dispatcher  *notify.Dispatcher
	Store       LeadStore
	MailingList *notify.MailingList
	Runner      *tasks.Runner
	Logger      *logging.Logger
	Metrics     *metrics.IntakeMetrics
	// Configured is false when email delivery cannot work.
	Configured bool
}

type Service struct {
	gate        Gate
	dispatcher  *notify.Dispatcher
	store       LeadStore
	mailingList *notify.MailingList
	runner      *tasks.Runner
	logger      *logging.Logger
	metrics     *metrics.IntakeMetrics
	configured  bool
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	if d.Runner == nil {
		d.Runner = tasks.NewInlineRunner(d.Logger)
	}
	if d.Configured && (d.Gate == nil || d.Dispatcher == nil || d.Store == nil) {
		panic("intake: gate, dispatcher and store required")
	}
	return &Service{
		gate:        d.Gate,
		dispatcher:  d.Dispatcher,
		store:       d.Store,
		mailingList: d.MailingList,
		runner:      d.Runner,
		logger:      d.Logger,
		metrics:     d.Metrics,
		configured:  d.Configured,
	}
}

// Submit runs the pipeline for one submission. Errors are ErrNotConfigured,
// *BlockedError, *forms.ValidationError or a notify.ErrNotificationFailed
// wrap; every other failure is absorbed.
func (s *Service) Submit(ctx context.Context, sub *forms.Submission) (Result, error) {
	start := time.Now()
	res, err := s.submit(ctx, sub)
	outcome := string(res.Outcome)
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveIntakeLatency(outcome, time.Since(start).Seconds())
	return res, err
}

func (s *Service) submit(ctx context.Context, sub *forms.Submission) (Result, error) {
	if !s.configured {
		s.logger.Error("intake rejected: email delivery not configured")
		s.metrics.ObserveSubmission(sourceLabel(sub.Source), "not_configured")
		return Result{}, ErrNotConfigured
	}

	verdict := s.gate.Evaluate(ctx, sub)
	switch verdict.Kind {
	case spam.SoftReject:
		s.metrics.ObserveSubmission(sourceLabel(sub.Source), "soft_rejected")
		return Result{Outcome: OutcomeSoftRejected}, nil
	case spam.HardReject:
		s.metrics.ObserveSubmission(sourceLabel(sub.Source), "blocked")
		return Result{}, &BlockedError{Verdict: verdict}
	}

	lead, err := forms.Normalize(sub)
	if err != nil {
		s.metrics.ObserveSubmission(sourceLabel(sub.Source), "invalid")
		s.logger.Info("submission failed validation", "source", sourceLabel(sub.Source), "error", err)
		return Result{}, err
	}
	// The id travels in the notification so ops can find the record later.
	lead.ID = uuid.NewString()
	source := string(lead.Source)

	dispatched := s.dispatcher.Dispatch(ctx, lead)
	if dispatched.Err != nil {
		s.metrics.ObserveSubmission(source, "notification_failed")
		s.logger.Error("internal notification failed", "error", dispatched.Err, "lead_id", lead.ID, "source", source)
		return Result{}, dispatched.Err
	}

	res := Result{Outcome: OutcomeAccepted, Lead: lead}
	created, err := s.store.Create(ctx, lead)
	if err != nil {
		s.metrics.ObserveStoreFailure("create")
		s.logger.Error("lead store write failed after notification", "error", err, "lead_id", lead.ID, "source", source)
	} else {
		res.Lead = created
		res.Stored = true
	}

	if lead.Newsletter && lead.Email != "" && s.mailingList.Enabled() {
		contact := notify.Contact{
			Email:     lead.Email,
			FirstName: lead.FirstName,
			LastName:  lead.LastName,
			Phone:     lead.Phone,
			Country:   lead.Country,
		}
		s.runner.Go(ctx, "mailing_list_contact", func(tctx context.Context) error {
			return s.mailingList.AddContact(tctx, contact)
		}, "lead_id", lead.ID)
	}

	s.metrics.ObserveSubmission(source, "accepted")
	s.logger.Info("lead accepted",
		"lead_id", lead.ID,
		"source", source,
		"email", logging.RedactEmail(lead.Email),
		"confirmation_queued", dispatched.ConfirmationQueued,
		"stored", res.Stored,
	)
	return res, nil
}

// sourceLabel bounds the source metric label to the known form shapes.
func sourceLabel(tag string) string {
	if source, ok := forms.CanonicalSource(tag); ok {
		return string(source)
	}
	return "unknown"
}
