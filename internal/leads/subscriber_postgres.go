package leads

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresSubscriberStore writes subscribers through database/sql. The
// handle is usually opened over the shared pgx pool with stdlib.OpenDBFromPool.
type PostgresSubscriberStore struct {
	db *sql.DB
}

func NewPostgresSubscriberStore(db *sql.DB) *PostgresSubscriberStore {
	if db == nil {
		panic("leads: sql db required")
	}
	return &PostgresSubscriberStore{db: db}
}

// Subscribe inserts the subscriber unless the email already exists.
func (s *PostgresSubscriberStore) Subscribe(ctx context.Context, sub *Subscriber) error {
	rec := *sub
	if err := prepareSubscriber(&rec, time.Now().UTC()); err != nil {
		return err
	}

	query := `
		INSERT INTO newsletter_subscribers (id, email, first_name, last_name, source, lead_id, subscribed_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Email, rec.FirstName, rec.LastName, string(rec.Source), rec.LeadID, rec.SubscribedAt, rec.Active,
	)
	if err != nil {
		return fmt.Errorf("leads: insert subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("leads: insert subscriber: %w", err)
	}
	if n == 0 {
		return ErrAlreadySubscribed
	}
	*sub = rec
	return nil
}

var _ SubscriberStore = (*PostgresSubscriberStore)(nil)
