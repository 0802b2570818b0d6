package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/internal/observability/metrics"
	"github.com/nevloh/nevloh-website-sub001/internal/tasks"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

var tracer = otel.Tracer("nevloh.notify")

const defaultEmailTimeout = 10 * time.Second

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// OpsEmail receives every internal notification.
	OpsEmail string
	OpsName  string
	Timeout  time.Duration
}

// DispatchResult summarizes Dispatch.
type DispatchResult struct {
	NotificationSent   bool
	ConfirmationQueued bool
	Err                error
}

// Dispatcher sends the mandatory internal notification and the best-effort
// customer confirmation for a lead.
type Dispatcher struct {
	sender    EmailSender
	templates *Templates
	runner    *tasks.Runner
	cfg       DispatcherConfig
	logger    *logging.Logger
	metrics   *metrics.IntakeMetrics
}

func NewDispatcher(sender EmailSender, templates *Templates, runner *tasks.Runner, cfg DispatcherConfig, logger *logging.Logger, m *metrics.IntakeMetrics) *Dispatcher {
	if sender == nil {
		panic("notify: email sender required")
	}
	if templates == nil {
		panic("notify: templates required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if runner == nil {
		runner = tasks.NewInlineRunner(logger)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultEmailTimeout
	}
	if cfg.OpsName == "" {
		cfg.OpsName = "Sales Team"
	}
	return &Dispatcher{
		sender:    sender,
		templates: templates,
		runner:    runner,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
}

// NotifyInternal emails the operations mailbox about lead. Any failure is
// wrapped in ErrNotificationFailed.
func (d *Dispatcher) NotifyInternal(ctx context.Context, lead *leads.Lead) error {
	ctx, span := tracer.Start(ctx, "notify.internal")
	defer span.End()
	span.SetAttributes(attribute.String("lead.source", string(lead.Source)))

	rendered, err := d.templates.Internal(lead)
	if err != nil {
		d.metrics.ObserveEmailSend("internal", "failed")
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	msg := EmailMessage{
		To:         d.cfg.OpsEmail,
		ToName:     d.cfg.OpsName,
		Subject:    rendered.Subject,
		Body:       rendered.Text,
		HTML:       rendered.HTML,
		Categories: []string{"lead-notification", string(lead.Source)},
	}
	if lead.Email != "" {
		msg.ReplyTo = lead.Email
		msg.ReplyToName = lead.FullName()
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()
	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.metrics.ObserveEmailSend("internal", "failed")
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	d.metrics.ObserveEmailSend("internal", "sent")
	return nil
}

// SendConfirmation emails the customer an acknowledgement. Leads without an
// email yield ErrNoRecipient.
func (d *Dispatcher) SendConfirmation(ctx context.Context, lead *leads.Lead) error {
	if lead.Email == "" {
		return ErrNoRecipient
	}
	ctx, span := tracer.Start(ctx, "notify.confirmation")
	defer span.End()

	rendered, err := d.templates.Confirmation(lead)
	if err != nil {
		d.metrics.ObserveEmailSend("confirmation", "failed")
		return err
	}
	msg := EmailMessage{
		To:         lead.Email,
		ToName:     lead.FullName(),
		ReplyTo:    d.cfg.OpsEmail,
		Subject:    rendered.Subject,
		Body:       rendered.Text,
		HTML:       rendered.HTML,
		Categories: []string{"lead-confirmation"},
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()
	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.metrics.ObserveEmailSend("confirmation", "failed")
		return fmt.Errorf("notify: confirmation: %w", err)
	}
	d.metrics.ObserveEmailSend("confirmation", "sent")
	return nil
}

// Dispatch sends the internal notification and, when it succeeds, queues the
// confirmation on the task runner. Confirmation failures never reach the
// caller.
func (d *Dispatcher) Dispatch(ctx context.Context, lead *leads.Lead) DispatchResult {
	if err := d.NotifyInternal(ctx, lead); err != nil {
		return DispatchResult{Err: err}
	}
	res := DispatchResult{NotificationSent: true}
	if lead.Email == "" {
		return res
	}

	snapshot := lead.Clone()
	d.runner.Go(ctx, "confirmation_email", func(tctx context.Context) error {
		err := d.SendConfirmation(tctx, snapshot)
		if errors.Is(err, ErrNoRecipient) {
			return nil
		}
		return err
	}, "lead_id", lead.ID)
	res.ConfirmationQueued = true
	return res
}
