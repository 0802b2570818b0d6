package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevloh/nevloh-website-sub001/internal/dashboard"
	httpmiddleware "github.com/nevloh/nevloh-website-sub001/internal/http/middleware"
	"github.com/nevloh/nevloh-website-sub001/internal/intake"
	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/internal/notify"
	"github.com/nevloh/nevloh-website-sub001/internal/observability/metrics"
	"github.com/nevloh/nevloh-website-sub001/internal/spam"
	"github.com/nevloh/nevloh-website-sub001/internal/tasks"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

type testRouter struct {
	handler http.Handler
	sender  *notify.RecordingSender
	leads   *leads.Service
}

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) *testRouter {
	t.Helper()
	return newTestRouterWith(t, func(c *Config) { c.RateLimiter = limiter })
}

func newTestRouterWith(t *testing.T, mutate func(*Config)) *testRouter {
	t.Helper()

	logger := logging.Discard()
	registry := prometheus.NewRegistry()
	m := metrics.NewIntakeMetrics(registry)
	runner := tasks.NewInlineRunner(logger).WithObserver(m)
	sender := &notify.RecordingSender{}
	templates, err := notify.NewTemplates(notify.TemplateConfig{CompanyName: "Nevloh Limited", FallbackPhone: "+1 (876) 449-5172"})
	require.NoError(t, err)

	leadService := leads.NewService(leads.NewInMemoryRepository(), leads.NewInMemorySubscriberStore(), runner, logger, 0)
	intakeService := intake.NewService(intake.Deps{
		Gate:       spam.NewGate(spam.GateOptions{Logger: logger, Metrics: m}),
		Dispatcher: notify.NewDispatcher(sender, templates, runner, notify.DispatcherConfig{OpsEmail: "sales@nevloh.com"}, logger, m),
		Store:      leadService,
		Runner:     runner,
		Logger:     logger,
		Metrics:    m,
		Configured: true,
	})

	cfg := &Config{
		Logger:             logger,
		IntakeHandler:      intake.NewHandler(intakeService, "+1 (876) 449-5172", logger),
		DashboardHandler:   dashboard.NewHandler(dashboard.NewController(leadService), logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://nevloh.com"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	h := New(cfg)
	return &testRouter{handler: h, sender: sender, leads: leadService}
}

func (tr *testRouter) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = "198.51.100.7:40000"
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

const quickLead = `{"firstName":"Devon","phone":"876-555-0199","source":"quick"}`

func TestRouterHealthEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil)

	rec := tr.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouterIntakeFlowsIntoDashboard(t *testing.T) {
	tr := newTestRouter(t, nil)

	rec := tr.do(http.MethodPost, "/api/leads", quickLead)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, tr.sender.Sent(), 1, "quick leads without email only notify operations")

	rec = tr.do(http.MethodGet, "/admin/leads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dashboard.ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Devon", list.Leads[0].FirstName)
	assert.Equal(t, leads.StatusNew, list.Leads[0].Status)

	rec = tr.do(http.MethodPut, "/admin/leads/"+list.Leads[0].ID+"/status", `{"status":"contacted"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = tr.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nevloh_submissions_total{outcome="accepted",source="quick"} 1`)
}

func TestRouterRateLimitsIntakeOnly(t *testing.T) {
	limiter := httpmiddleware.NewRateLimiter(0.001, 1)
	t.Cleanup(limiter.Close)
	tr := newTestRouter(t, limiter)

	assert.Equal(t, http.StatusOK, tr.do(http.MethodPost, "/api/leads", quickLead).Code)
	assert.Equal(t, http.StatusTooManyRequests, tr.do(http.MethodPost, "/api/leads", quickLead).Code)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/admin/leads", "").Code)
		assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/health", "").Code)
	}
}

func TestRouterRateLimitIgnoresForwardedForUnlessTrusted(t *testing.T) {
	post := func(tr *testRouter, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(quickLead))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.RemoteAddr = "198.51.100.7:40000"
		rec := httptest.NewRecorder()
		tr.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	direct := httpmiddleware.NewRateLimiter(0.001, 1)
	t.Cleanup(direct.Close)
	tr := newTestRouterWith(t, func(c *Config) { c.RateLimiter = direct })
	assert.Equal(t, http.StatusOK, post(tr, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, post(tr, "203.0.113.2"))

	proxied := httpmiddleware.NewRateLimiter(0.001, 1)
	t.Cleanup(proxied.Close)
	tr = newTestRouterWith(t, func(c *Config) {
		c.RateLimiter = proxied
		c.TrustProxyHeaders = true
	})
	assert.Equal(t, http.StatusOK, post(tr, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, post(tr, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, post(tr, "203.0.113.1"))
}

func TestRouterRejectsOversizedBody(t *testing.T) {
	tr := newTestRouter(t, nil)

	big := `{"firstName":"` + strings.Repeat("a", int(httpmiddleware.DefaultMaxBodyBytes)) + `"}`
	rec := tr.do(http.MethodPost, "/api/leads", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	tr := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "https://nevloh.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://nevloh.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterUnknownRoute(t *testing.T) {
	tr := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, tr.do(http.MethodGet, "/nope", "").Code)
}
