package leads

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscriber is a newsletter opt-in derived from a lead. Subscribers outlive
// the lead that created them.
type Subscriber struct {
	ID           string    `json:"id" dynamodbav:"id"`
	Email        string    `json:"email" dynamodbav:"email"`
	FirstName    string    `json:"firstName" dynamodbav:"firstName"`
	LastName     string    `json:"lastName,omitempty" dynamodbav:"lastName,omitempty"`
	Source       Source    `json:"source" dynamodbav:"source"`
	LeadID       string    `json:"leadId,omitempty" dynamodbav:"leadId,omitempty"`
	SubscribedAt time.Time `json:"subscribedAt" dynamodbav:"subscribedAt"`
	Active       bool      `json:"active" dynamodbav:"active"`
}

// SubscriberFromLead derives the subscriber record for an opted-in lead.
func SubscriberFromLead(l *Lead) *Subscriber {
	return &Subscriber{
		Email:     l.Email,
		FirstName: l.FirstName,
		LastName:  l.LastName,
		Source:    l.Source,
		LeadID:    l.ID,
	}
}

// SubscriberStore persists newsletter subscribers keyed by email.
type SubscriberStore interface {
	// Subscribe inserts s. An email that is already subscribed yields
	// ErrAlreadySubscribed and leaves the existing record untouched.
	Subscribe(ctx context.Context, s *Subscriber) error
}

func prepareSubscriber(s *Subscriber, now time.Time) error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if s.Email == "" {
		return ErrMissingEmail
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.SubscribedAt = now
	s.Active = true
	return nil
}

// InMemorySubscriberStore keeps subscribers in a map.
type InMemorySubscriberStore struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
}

func NewInMemorySubscriberStore() *InMemorySubscriberStore {
	return &InMemorySubscriberStore{subscribers: make(map[string]Subscriber)}
}

func (s *InMemorySubscriberStore) Subscribe(ctx context.Context, sub *Subscriber) error {
	rec := *sub
	if err := prepareSubscriber(&rec, time.Now().UTC()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[rec.Email]; ok {
		return ErrAlreadySubscribed
	}
	s.subscribers[rec.Email] = rec
	*sub = rec
	return nil
}

// Get returns the subscriber for email, if any.
func (s *InMemorySubscriberStore) Get(email string) (Subscriber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscribers[strings.ToLower(strings.TrimSpace(email))]
	return sub, ok
}

// Len reports how many subscribers are stored.
func (s *InMemorySubscriberStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

var _ SubscriberStore = (*InMemorySubscriberStore)(nil)
