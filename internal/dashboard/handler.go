package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

const maxPageSize = 500

// Handler exposes the Controller over HTTP.
type Handler struct {
	controller *Controller
	logger     *logging.Logger
	now        func() time.Time
}

func NewHandler(controller *Controller, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{controller: controller, logger: logger, now: time.Now}
}

// ListResponse is the body of GET /admin/leads.
type ListResponse struct {
	Leads []*leads.Lead `json:"leads"`
	Count int           `json:"count"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Routes returns the /leads subtree; mount it under /admin.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/leads", h.ListLeads)
	r.Get("/leads/stats", h.GetStats)
	r.Get("/leads/export", h.ExportLeads)
	r.Get("/leads/{leadID}", h.GetLead)
	r.Patch("/leads/{leadID}", h.UpdateLead)
	r.Put("/leads/{leadID}/status", h.SetStatus)
	r.Delete("/leads/{leadID}", h.DeleteLead)
	return r
}

// ListLeads handles GET /admin/leads?search=&status=&limit=&offset=
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	list, err := h.controller.SearchPage(r.Context(), q.Get("search"), q.Get("status"), limit, offset)
	if err != nil {
		h.writeError(w, "list leads", err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Leads: list, Count: len(list)})
}

// GetStats handles GET /admin/leads/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.controller.Stats(r.Context())
	if err != nil {
		h.writeError(w, "lead stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExportLeads handles GET /admin/leads/export?search=&status=
func (h *Handler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.controller.Search(r.Context(), q.Get("search"), q.Get("status"))
	if err != nil {
		h.writeError(w, "export leads", err)
		return
	}
	body, err := h.controller.ExportCSV(list)
	if err != nil {
		h.writeError(w, "export leads", err)
		return
	}
	filename := "leads-" + h.now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// GetLead handles GET /admin/leads/{leadID}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.controller.Get(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		h.writeError(w, "get lead", err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// UpdateLead handles PATCH /admin/leads/{leadID}
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	var patch leads.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	lead, err := h.controller.Update(r.Context(), chi.URLParam(r, "leadID"), patch)
	if err != nil {
		h.writeError(w, "update lead", err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// SetStatus handles PUT /admin/leads/{leadID}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	lead, err := h.controller.SetStatus(r.Context(), chi.URLParam(r, "leadID"), req.Status)
	if err != nil {
		h.writeError(w, "set lead status", err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// DeleteLead handles DELETE /admin/leads/{leadID}
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Delete(r.Context(), chi.URLParam(r, "leadID")); err != nil {
		h.writeError(w, "delete lead", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, leads.ErrLeadNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lead not found"})
	case errors.Is(err, leads.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
	case errors.Is(err, leads.ErrEmptyPatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no fields to update"})
	case errors.Is(err, leads.ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid email"})
	default:
		h.logger.Error("dashboard request failed", "op", op, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
