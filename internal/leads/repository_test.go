package leads

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleLead() *Lead {
	return &Lead{
		FirstName: "Jane",
		LastName:  "Brown",
		Email:     "jane@example.com",
		Phone:     "876-555-0101",
		Company:   "Island Haulage",
		FuelTypes: []string{"Diesel"},
		Source:    SourceStandard,
		Message:   "Need a quote",
	}
}

func TestInMemoryRepository_CreateInitializesLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	input := sampleLead()
	input.Status = StatusCustomer
	input.TotalOrders = 9

	lead, err := repo.Create(context.Background(), input)
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Zero(t, lead.TotalOrders)
	assert.Zero(t, lead.TotalSpent)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.Equal(t, lead.CreatedAt, lead.UpdatedAt)
	assert.Equal(t, time.UTC, lead.CreatedAt.Location())

	// caller memory is not aliased
	input.FuelTypes[0] = "mutated"
	got, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diesel"}, got.FuelTypes)
}

func TestInMemoryRepository_CreateKeepsPresetID(t *testing.T) {
	repo := NewInMemoryRepository()
	input := sampleLead()
	input.ID = "preassigned"

	lead, err := repo.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "preassigned", lead.ID)
}

func TestInMemoryRepository_NewestLeadListedFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	var last *Lead
	for i := 0; i < 3; i++ {
		l, err := repo.Create(context.Background(), sampleLead())
		require.NoError(t, err)
		last = l
	}

	list, err := repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, last.ID, list[0].ID)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
}

func TestInMemoryRepository_GetByIDNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestInMemoryRepository_UpdateStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), sampleLead())
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(context.Background(), lead.ID, StatusContacted)
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, updated.Status)
	assert.True(t, updated.UpdatedAt.After(lead.UpdatedAt))
	assert.Equal(t, lead.CreatedAt, updated.CreatedAt)

	// any-to-any, including back to new
	back, err := repo.UpdateStatus(context.Background(), lead.ID, StatusNew)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, back.Status)
}

func TestInMemoryRepository_UpdatedAtStrictlyIncreasesWithFrozenClock(t *testing.T) {
	repo := NewInMemoryRepository()
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	lead, err := repo.Create(context.Background(), sampleLead())
	require.NoError(t, err)

	prev := lead.UpdatedAt
	for _, s := range []Status{StatusContacted, StatusCustomer, StatusCustomer, StatusInactive} {
		updated, err := repo.UpdateStatus(context.Background(), lead.ID, s)
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(prev), "updatedAt must increase")
		prev = updated.UpdatedAt
	}
}

func TestInMemoryRepository_UpdateStatusRejectsInvalid(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), sampleLead())
	require.NoError(t, err)

	_, err = repo.UpdateStatus(context.Background(), lead.ID, Status("archived"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = repo.UpdateStatus(context.Background(), "missing", StatusCustomer)
	assert.ErrorIs(t, err, ErrLeadNotFound)

	got, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, got.Status)
	assert.Equal(t, lead.UpdatedAt, got.UpdatedAt)
}

func TestInMemoryRepository_UpdatePatch(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), sampleLead())
	require.NoError(t, err)

	fuel := []string{"LPG", "Kerosene"}
	orders := 3
	updated, err := repo.Update(context.Background(), lead.ID, Patch{
		Email:       strPtr("  NEW@Example.com "),
		Notes:       strPtr("called back"),
		FuelTypes:   &fuel,
		TotalOrders: &orders,
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "called back", updated.Notes)
	assert.Equal(t, fuel, updated.FuelTypes)
	assert.Equal(t, 3, updated.TotalOrders)
	assert.Equal(t, "Jane", updated.FirstName)

	_, err = repo.Update(context.Background(), lead.ID, Patch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)

	_, err = repo.Update(context.Background(), lead.ID, Patch{Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestInMemoryRepository_Delete(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), sampleLead())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), lead.ID))
	_, err = repo.GetByID(context.Background(), lead.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), lead.ID), ErrLeadNotFound)
}

func TestInMemoryRepository_ListFilters(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	a, _ := repo.Create(ctx, &Lead{FirstName: "Alice", LastName: "Grant", Email: "alice@fleet.jm", Company: "Fleet Co"})
	b, _ := repo.Create(ctx, &Lead{FirstName: "Bob", LastName: "Marley", Email: "bob@music.jm"})
	_, _ = repo.Create(ctx, &Lead{FirstName: "Carol", LastName: "King", Company: "Kingston Marine"})
	_, err := repo.UpdateStatus(ctx, b.ID, StatusCustomer)
	require.NoError(t, err)

	byStatus, err := repo.List(ctx, ListFilter{Status: StatusCustomer})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, b.ID, byStatus[0].ID)

	byName, err := repo.List(ctx, ListFilter{Search: "alice grant"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, a.ID, byName[0].ID)

	byCompany, err := repo.List(ctx, ListFilter{Search: "MARINE"})
	require.NoError(t, err)
	require.Len(t, byCompany, 1)
	assert.Equal(t, "Carol", byCompany[0].FirstName)

	none, err := repo.List(ctx, ListFilter{Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none)

	page, err := repo.List(ctx, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Bob", page[0].FirstName)
}

func TestInMemoryRepository_CountByStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	a, _ := repo.Create(ctx, sampleLead())
	_, _ = repo.Create(ctx, sampleLead())
	_, _ = repo.UpdateStatus(ctx, a.ID, StatusInactive)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusNew])
	assert.Equal(t, 1, counts[StatusInactive])
	assert.Zero(t, counts[StatusCustomer])
}

func TestInMemoryRepository_ConcurrentStatusUpdates(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), sampleLead())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.UpdateStatus(context.Background(), lead.ID, Statuses[i%len(Statuses)])
		}(i)
		go func() {
			defer wg.Done()
			_, _ = repo.List(context.Background(), ListFilter{})
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Valid())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Contacted ")
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, s)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNextUpdatedAt(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(time.Second), nextUpdatedAt(base, base.Add(time.Second)))
	assert.Equal(t, base.Add(time.Microsecond), nextUpdatedAt(base, base))
	assert.Equal(t, base.Add(time.Microsecond), nextUpdatedAt(base, base.Add(-time.Hour)))
}
