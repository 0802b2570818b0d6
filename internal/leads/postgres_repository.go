package leads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const leadColumns = `id, first_name, last_name, email, phone, whatsapp, address, parish, country,
	company, position, business_type, fuel_types, delivery_frequency, average_volume,
	preferred_delivery_time, preferred_contact, newsletter, whatsapp_updates, sms_alerts,
	message, source, hear_about_us, notes, status, total_orders, total_spent, created_at, updated_at`

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db  pgxQuerier
	now func() time.Time
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return newPostgresRepository(pool)
}

func newPostgresRepository(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	stored := lead.Clone()
	initialize(stored, uuid.NewString(), r.now())
	if stored.FuelTypes == nil {
		stored.FuelTypes = []string{}
	}

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	`
	if _, err := r.db.Exec(ctx, query,
		stored.ID,
		stored.FirstName,
		stored.LastName,
		stored.Email,
		stored.Phone,
		stored.WhatsApp,
		stored.Address,
		stored.Parish,
		stored.Country,
		stored.Company,
		stored.Position,
		stored.BusinessType,
		stored.FuelTypes,
		stored.DeliveryFrequency,
		stored.AverageVolume,
		stored.PreferredDeliveryTime,
		stored.PreferredContact,
		stored.Newsletter,
		stored.WhatsAppUpdates,
		stored.SMSAlerts,
		stored.Message,
		string(stored.Source),
		stored.HearAboutUs,
		stored.Notes,
		string(stored.Status),
		stored.TotalOrders,
		stored.TotalSpent,
		stored.CreatedAt,
		stored.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return stored, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// UpdateStatus moves a lead to status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return r.Update(ctx, id, Patch{Status: &status})
}

// Update applies patch in a single statement. updated_at never moves
// backwards, even if two writers race with skewed clocks.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (*Lead, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	// Apply onto a scratch lead to reuse the trimming/normalization rules.
	var scratch Lead
	patch.Apply(&scratch)

	updates := []string{}
	args := []any{}
	argNum := 1
	set := func(column string, value any) {
		updates = append(updates, column+" = $"+strconv.Itoa(argNum))
		args = append(args, value)
		argNum++
	}

	if patch.FirstName != nil {
		set("first_name", scratch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", scratch.LastName)
	}
	if patch.Email != nil {
		set("email", scratch.Email)
	}
	if patch.Phone != nil {
		set("phone", scratch.Phone)
	}
	if patch.WhatsApp != nil {
		set("whatsapp", scratch.WhatsApp)
	}
	if patch.Address != nil {
		set("address", scratch.Address)
	}
	if patch.Parish != nil {
		set("parish", scratch.Parish)
	}
	if patch.Country != nil {
		set("country", scratch.Country)
	}
	if patch.Company != nil {
		set("company", scratch.Company)
	}
	if patch.Position != nil {
		set("position", scratch.Position)
	}
	if patch.BusinessType != nil {
		set("business_type", scratch.BusinessType)
	}
	if patch.FuelTypes != nil {
		fuel := scratch.FuelTypes
		if fuel == nil {
			fuel = []string{}
		}
		set("fuel_types", fuel)
	}
	if patch.DeliveryFrequency != nil {
		set("delivery_frequency", scratch.DeliveryFrequency)
	}
	if patch.AverageVolume != nil {
		set("average_volume", scratch.AverageVolume)
	}
	if patch.PreferredDeliveryTime != nil {
		set("preferred_delivery_time", scratch.PreferredDeliveryTime)
	}
	if patch.PreferredContact != nil {
		set("preferred_contact", scratch.PreferredContact)
	}
	if patch.Newsletter != nil {
		set("newsletter", scratch.Newsletter)
	}
	if patch.WhatsAppUpdates != nil {
		set("whatsapp_updates", scratch.WhatsAppUpdates)
	}
	if patch.SMSAlerts != nil {
		set("sms_alerts", scratch.SMSAlerts)
	}
	if patch.Message != nil {
		set("message", scratch.Message)
	}
	if patch.HearAboutUs != nil {
		set("hear_about_us", scratch.HearAboutUs)
	}
	if patch.Notes != nil {
		set("notes", scratch.Notes)
	}
	if patch.Status != nil {
		set("status", string(scratch.Status))
	}
	if patch.TotalOrders != nil {
		set("total_orders", scratch.TotalOrders)
	}
	if patch.TotalSpent != nil {
		set("total_spent", scratch.TotalSpent)
	}

	updates = append(updates, "updated_at = GREATEST($"+strconv.Itoa(argNum)+", updated_at + interval '1 microsecond')")
	args = append(args, r.now())
	argNum++

	args = append(args, id)
	query := "UPDATE leads SET " + strings.Join(updates, ", ") +
		" WHERE id = $" + strconv.Itoa(argNum) +
		" RETURNING " + leadColumns

	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return lead, nil
}

// Delete removes a row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("leads: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// List filters by status and free text, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Status != "" {
		query += " AND status = $" + strconv.Itoa(argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		p := "$" + strconv.Itoa(argNum)
		query += " AND (first_name ILIKE " + p +
			" OR last_name ILIKE " + p +
			" OR (first_name || ' ' || last_name) ILIKE " + p +
			" OR email ILIKE " + p +
			" OR company ILIKE " + p + ")"
		args = append(args, "%"+escapeLike(term)+"%")
		argNum++
	}
	query += " ORDER BY created_at DESC, created_seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT $" + strconv.Itoa(argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += " OFFSET $" + strconv.Itoa(argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	list := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		list = append(list, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return list, nil
}

// CountByStatus tallies leads per status.
func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("leads: count failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(Statuses))
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("leads: scan count failed: %w", err)
		}
		counts[Status(status)] = int(count)
	}
	return counts, rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var source, status string
	if err := row.Scan(
		&lead.ID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&lead.Phone,
		&lead.WhatsApp,
		&lead.Address,
		&lead.Parish,
		&lead.Country,
		&lead.Company,
		&lead.Position,
		&lead.BusinessType,
		&lead.FuelTypes,
		&lead.DeliveryFrequency,
		&lead.AverageVolume,
		&lead.PreferredDeliveryTime,
		&lead.PreferredContact,
		&lead.Newsletter,
		&lead.WhatsAppUpdates,
		&lead.SMSAlerts,
		&lead.Message,
		&source,
		&lead.HearAboutUs,
		&lead.Notes,
		&status,
		&lead.TotalOrders,
		&lead.TotalSpent,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lead.Source = Source(source)
	lead.Status = Status(status)
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.UpdatedAt = lead.UpdatedAt.UTC()
	return &lead, nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

var _ Repository = (*PostgresRepository)(nil)
