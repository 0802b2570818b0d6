package dashboard

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

func newTestController(t *testing.T) (*Controller, *leads.Service) {
	t.Helper()
	svc := leads.NewService(leads.NewInMemoryRepository(), nil, nil, logging.Discard(), time.Second)
	return NewController(svc), svc
}

func seed(t *testing.T, svc *leads.Service, first, last, email, company string) *leads.Lead {
	t.Helper()
	lead, err := svc.Create(context.Background(), &leads.Lead{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     "876-555-0100",
		Company:   company,
		Source:    leads.SourceStandard,
	})
	require.NoError(t, err)
	return lead
}

func TestController_SearchMatchesNameEmailCompany(t *testing.T) {
	c, svc := newTestController(t)
	ctx := context.Background()
	seed(t, svc, "Jane", "Brown", "jane@example.com", "Island Haulage")
	seed(t, svc, "Mark", "Green", "mark@farm.jm", "Green Acres")
	seed(t, svc, "Ann", "Lee", "ann@example.com", "")

	got, err := c.Search(ctx, "jane brown", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane", got[0].FirstName)

	got, err = c.Search(ctx, "ACRES", "all")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mark", got[0].FirstName)

	got, err = c.Search(ctx, "example.com", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = c.Search(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Ann", got[0].FirstName, "newest first")
}

func TestController_SearchFiltersByStatus(t *testing.T) {
	c, svc := newTestController(t)
	ctx := context.Background()
	jane := seed(t, svc, "Jane", "Brown", "jane@example.com", "")
	seed(t, svc, "Mark", "Green", "mark@example.com", "")

	_, err := c.SetStatus(ctx, jane.ID, "contacted")
	require.NoError(t, err)

	got, err := c.Search(ctx, "", "contacted")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, jane.ID, got[0].ID)

	_, err = c.Search(ctx, "", "archived")
	assert.ErrorIs(t, err, leads.ErrInvalidStatus)
}

func TestController_SetStatusAnyToAny(t *testing.T) {
	c, svc := newTestController(t)
	ctx := context.Background()
	lead := seed(t, svc, "Jane", "Brown", "jane@example.com", "")

	prev := lead.UpdatedAt
	for _, s := range []string{"customer", "new", "inactive", "contacted", "new"} {
		updated, err := c.SetStatus(ctx, lead.ID, s)
		require.NoError(t, err)
		assert.Equal(t, leads.Status(s), updated.Status)
		assert.True(t, updated.UpdatedAt.After(prev))
		assert.True(t, updated.CreatedAt.Equal(lead.CreatedAt))
		prev = updated.UpdatedAt
	}

	_, err := c.SetStatus(ctx, lead.ID, "closed")
	assert.ErrorIs(t, err, leads.ErrInvalidStatus)

	_, err = c.SetStatus(ctx, "missing", "new")
	assert.ErrorIs(t, err, leads.ErrLeadNotFound)
}

func TestController_UpdateRejectsBlockedEmailDomain(t *testing.T) {
	c, svc := newTestController(t)
	c.WithEmailBlocklist(func(email string) bool {
		return strings.HasSuffix(email, "@mailinator.com")
	})
	lead := seed(t, svc, "Jane", "Brown", "jane@example.com", "")

	blocked := " X@Mailinator.com "
	_, err := c.Update(context.Background(), lead.ID, leads.Patch{Email: &blocked})
	require.ErrorIs(t, err, leads.ErrInvalidEmail)

	got, err := c.Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)

	fine := "jane.b@example.org"
	fuel := []string{"diesel", "diesel", "lpg"}
	updated, err := c.Update(context.Background(), lead.ID, leads.Patch{Email: &fine, FuelTypes: &fuel})
	require.NoError(t, err)
	assert.Equal(t, fine, updated.Email)
	assert.Equal(t, []string{"Diesel", "LPG"}, updated.FuelTypes)

	cleared := ""
	updated, err = c.Update(context.Background(), lead.ID, leads.Patch{Email: &cleared})
	require.NoError(t, err)
	assert.Empty(t, updated.Email)
}

func TestController_DeleteThenGet(t *testing.T) {
	c, svc := newTestController(t)
	ctx := context.Background()
	lead := seed(t, svc, "Jane", "Brown", "jane@example.com", "")

	require.NoError(t, c.Delete(ctx, lead.ID))
	_, err := c.Get(ctx, lead.ID)
	assert.ErrorIs(t, err, leads.ErrLeadNotFound)
	assert.ErrorIs(t, c.Delete(ctx, lead.ID), leads.ErrLeadNotFound)
}

func TestController_Stats(t *testing.T) {
	c, svc := newTestController(t)
	ctx := context.Background()
	a := seed(t, svc, "Jane", "Brown", "jane@example.com", "")
	seed(t, svc, "Mark", "Green", "mark@example.com", "")
	_, err := c.SetStatus(ctx, a.ID, "customer")
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[leads.StatusNew])
	assert.Equal(t, 1, stats.ByStatus[leads.StatusCustomer])
	assert.Equal(t, 0, stats.ByStatus[leads.StatusInactive])
	assert.Len(t, stats.ByStatus, len(leads.Statuses))
}

func TestExportCSV_HeaderAndQuoting(t *testing.T) {
	created := time.Date(2025, 3, 4, 15, 30, 0, 0, time.FixedZone("EST", -5*3600))
	list := []*leads.Lead{
		{
			FirstName: "Jane",
			LastName:  "Brown",
			Email:     "jane@example.com",
			Company:   "Brown, Sons & Co",
			FuelTypes: []string{"Diesel", "ULSD (Ultra Low Sulphur Diesel)"},
			Status:    leads.StatusContacted,
			CreatedAt: created,
			Message:   "Deliver to \"Gate 2\"\nafter 9am",
		},
		{FirstName: "Mark", Status: leads.StatusNew, CreatedAt: created},
	}

	out, err := ExportCSV(list)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(list)+1)
	assert.Equal(t, csvHeader, records[0])
	assert.Len(t, records[0], 19)

	row := records[1]
	assert.Equal(t, "Brown, Sons & Co", row[8])
	assert.Equal(t, "Diesel; ULSD (Ultra Low Sulphur Diesel)", row[11])
	assert.Equal(t, "contacted", row[16])
	assert.Equal(t, "2025-03-04T20:30:00Z", row[17])
	assert.Equal(t, "Deliver to \"Gate 2\"\nafter 9am", row[18])
	assert.Equal(t, "", records[2][11])
}

func TestExportCSV_EmptyListHasHeaderOnly(t *testing.T) {
	out, err := ExportCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
