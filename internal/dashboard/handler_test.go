package dashboard

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

func newTestServer(t *testing.T) (http.Handler, *leads.Service) {
	t.Helper()
	c, svc := newTestController(t)
	h := NewHandler(c, logging.Discard())
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Mount("/admin", h.Routes())
	return r, svc
}

func newTestServerWithBlocklist(t *testing.T) (http.Handler, *leads.Service) {
	t.Helper()
	c, svc := newTestController(t)
	c.WithEmailBlocklist(func(email string) bool { return strings.HasSuffix(email, "@mailinator.com") })
	r := chi.NewRouter()
	r.Mount("/admin", NewHandler(c, logging.Discard()).Routes())
	return r, svc
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListLeads(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, "Jane", "Brown", "jane@example.com", "Island Haulage")
	seed(t, svc, "Mark", "Green", "mark@example.com", "")

	rec := do(t, srv, http.MethodGet, "/admin/leads?search=island", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, "Jane", resp.Leads[0].FirstName)

	rec = do(t, srv, http.MethodGet, "/admin/leads?limit=1&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, "Jane", resp.Leads[0].FirstName)

	rec = do(t, srv, http.MethodGet, "/admin/leads?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetPatchDelete(t *testing.T) {
	srv, svc := newTestServer(t)
	lead := seed(t, svc, "Jane", "Brown", "jane@example.com", "")

	rec := do(t, srv, http.MethodGet, "/admin/leads/"+lead.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPatch, "/admin/leads/"+lead.ID, `{"notes":"called back","totalOrders":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated leads.Lead
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "called back", updated.Notes)
	assert.Equal(t, 2, updated.TotalOrders)
	assert.Equal(t, "Jane", updated.FirstName)

	rec = do(t, srv, http.MethodPatch, "/admin/leads/"+lead.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPatch, "/admin/leads/"+lead.ID, `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srv2, svc2 := newTestServerWithBlocklist(t)
	other := seed(t, svc2, "Sam", "Reid", "sam@example.com", "")
	rec = do(t, srv2, http.MethodPatch, "/admin/leads/"+other.ID, `{"email":"x@mailinator.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPatch, "/admin/leads/missing", `{"notes":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/admin/leads/"+lead.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/admin/leads/"+lead.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/admin/leads/"+lead.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SetStatus(t *testing.T) {
	srv, svc := newTestServer(t)
	lead := seed(t, svc, "Jane", "Brown", "jane@example.com", "")

	rec := do(t, srv, http.MethodPut, "/admin/leads/"+lead.ID+"/status", `{"status":"customer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated leads.Lead
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, leads.StatusCustomer, updated.Status)

	rec = do(t, srv, http.MethodPut, "/admin/leads/"+lead.ID+"/status", `{"status":"vip"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/admin/leads/missing/status", `{"status":"new"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/admin/leads/"+lead.ID+"/status", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_StatsAndExport(t *testing.T) {
	srv, svc := newTestServer(t)
	jane := seed(t, svc, "Jane", "Brown", "jane@example.com", "")
	seed(t, svc, "Mark", "Green", "mark@example.com", "")
	_, err := svc.UpdateStatus(context.Background(), jane.ID, leads.StatusContacted)
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/admin/leads/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[leads.StatusContacted])

	rec = do(t, srv, http.MethodGet, "/admin/leads/export?status=contacted", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, `attachment; filename="leads-2025-06-01.csv"`, rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jane", records[1][0])
}
