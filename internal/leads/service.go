package leads

import (
	"context"
	"errors"
	"time"

	"github.com/nevloh/nevloh-website-sub001/internal/tasks"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

const defaultStoreTimeout = 5 * time.Second

// Service is the lead store used by intake and the dashboard. It bounds every
// repository call with a timeout and fans newsletter opt-ins out to the
// subscriber store as a best-effort task.
type Service struct {
	repo        Repository
	subscribers SubscriberStore
	runner      *tasks.Runner
	logger      *logging.Logger
	timeout     time.Duration
}

// NewService wires a lead store. subscribers may be nil, in which case
// newsletter opt-ins are only recorded on the lead itself.
func NewService(repo Repository, subscribers SubscriberStore, runner *tasks.Runner, logger *logging.Logger, timeout time.Duration) *Service {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if runner == nil {
		runner = tasks.NewInlineRunner(logger)
	}
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Service{
		repo:        repo,
		subscribers: subscribers,
		runner:      runner,
		logger:      logger,
		timeout:     timeout,
	}
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Create persists lead and, for newsletter opt-ins with an email, schedules
// the subscriber write.
func (s *Service) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()

	created, err := s.repo.Create(cctx, lead)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead stored", "lead_id", created.ID, "source", created.Source)

	if created.Newsletter && created.Email != "" && s.subscribers != nil {
		sub := SubscriberFromLead(created)
		s.runner.Go(ctx, "newsletter_subscribe", func(tctx context.Context) error {
			err := s.subscribers.Subscribe(tctx, sub)
			if errors.Is(err, ErrAlreadySubscribed) {
				s.logger.Debug("newsletter subscriber exists", "email", logging.RedactEmail(sub.Email))
				return nil
			}
			return err
		}, "lead_id", created.ID)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Lead, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.GetByID(cctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.List(cctx, filter)
}

// UpdateStatus performs an administrative status transition. Any status may
// follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	lead, err := s.repo.UpdateStatus(cctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead status updated", "lead_id", id, "status", status)
	return lead, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Lead, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.Update(cctx, id, patch)
}

// Delete removes a lead. Any newsletter subscriber it produced is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.repo.Delete(cctx, id); err != nil {
		return err
	}
	s.logger.Info("lead deleted", "lead_id", id)
	return nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	cctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.CountByStatus(cctx)
}
