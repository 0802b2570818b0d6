// Package dashboard backs the internal lead dashboard: search, status
// changes, edits and CSV export.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
)

// Store is the lead store the dashboard reads and mutates.
type Store interface {
	Get(ctx context.Context, id string) (*leads.Lead, error)
	List(ctx context.Context, filter leads.ListFilter) ([]*leads.Lead, error)
	UpdateStatus(ctx context.Context, id string, status leads.Status) (*leads.Lead, error)
	Update(ctx context.Context, id string, patch leads.Patch) (*leads.Lead, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[leads.Status]int, error)
}

// Stats summarizes the store for the dashboard header.
type Stats struct {
	Total    int                  `json:"total"`
	ByStatus map[leads.Status]int `json:"byStatus"`
}

// EmailBlocked reports whether an address must not be stored on a lead.
type EmailBlocked func(email string) bool

type Controller struct {
	store        Store
	emailBlocked EmailBlocked
}

func NewController(store Store) *Controller {
	if store == nil {
		panic("dashboard: store required")
	}
	return &Controller{store: store}
}

// WithEmailBlocklist makes Update reject patched emails on blocked domains,
// the same rule the intake gate applies to new leads.
func (c *Controller) WithEmailBlocklist(blocked EmailBlocked) *Controller {
	c.emailBlocked = blocked
	return c
}

// parseStatusFilter accepts "" and "all" as no filter.
func parseStatusFilter(raw string) (leads.Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	return leads.ParseStatus(raw)
}

// Search returns leads matching term and status, newest first.
func (c *Controller) Search(ctx context.Context, term, status string) ([]*leads.Lead, error) {
	return c.SearchPage(ctx, term, status, 0, 0)
}

// SearchPage is Search with paging.
func (c *Controller) SearchPage(ctx context.Context, term, status string, limit, offset int) ([]*leads.Lead, error) {
	s, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return c.store.List(ctx, leads.ListFilter{Status: s, Search: term, Limit: limit, Offset: offset})
}

func (c *Controller) Get(ctx context.Context, id string) (*leads.Lead, error) {
	return c.store.Get(ctx, id)
}

// SetStatus moves a lead to status.
func (c *Controller) SetStatus(ctx context.Context, id, status string) (*leads.Lead, error) {
	s, err := leads.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return c.store.UpdateStatus(ctx, id, s)
}

func (c *Controller) Update(ctx context.Context, id string, patch leads.Patch) (*leads.Lead, error) {
	if patch.Email != nil && c.emailBlocked != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email != "" && c.emailBlocked(email) {
			return nil, fmt.Errorf("dashboard: disposable email domain: %w", leads.ErrInvalidEmail)
		}
	}
	return c.store.Update(ctx, id, patch)
}

func (c *Controller) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

func (c *Controller) Stats(ctx context.Context) (Stats, error) {
	counts, err := c.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{ByStatus: make(map[leads.Status]int, len(leads.Statuses))}
	for _, s := range leads.Statuses {
		stats.ByStatus[s] = counts[s]
		stats.Total += counts[s]
	}
	return stats, nil
}
