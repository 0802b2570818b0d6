package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, lead *Lead) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error)
	Update(ctx context.Context, id string, patch Patch) (*Lead, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// InMemoryRepository keeps leads in a map guarded by an RWMutex so dashboard
// reads never wait behind one another.
type InMemoryRepository struct {
	mu          sync.RWMutex
	leads       map[string]*Lead
	now         func() time.Time
	lastCreated time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of lead with lifecycle fields initialized.
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	stored := lead.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Creation order must survive identical clock readings.
	now := nextUpdatedAt(r.lastCreated, r.now())
	r.lastCreated = now
	initialize(stored, uuid.NewString(), now)
	r.leads[stored.ID] = stored
	return stored.Clone(), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead.Clone(), nil
}

// UpdateStatus moves a lead to status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return r.Update(ctx, id, Patch{Status: &status})
}

// Update applies patch and bumps updatedAt.
func (r *InMemoryRepository) Update(ctx context.Context, id string, patch Patch) (*Lead, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	updated := lead.Clone()
	patch.Apply(updated)
	updated.UpdatedAt = nextUpdatedAt(lead.UpdatedAt, r.now())
	r.leads[id] = updated
	return updated.Clone(), nil
}

// Delete removes a lead.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}

// List returns matching leads, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	matches := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.Matches(lead) {
			matches = append(matches, lead.Clone())
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(matches)
	return paginate(matches, filter.Limit, filter.Offset), nil
}

// CountByStatus tallies leads per status.
func (r *InMemoryRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Status]int, len(Statuses))
	for _, lead := range r.leads {
		counts[lead.Status]++
	}
	return counts, nil
}

var _ Repository = (*InMemoryRepository)(nil)
