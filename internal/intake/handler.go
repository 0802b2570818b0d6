package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/nevloh/nevloh-website-sub001/internal/forms"
	"github.com/nevloh/nevloh-website-sub001/internal/notify"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

const successMessage = "Thank you! We'll be in touch shortly."

// Response is the JSON body returned by the intake endpoint.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// Handler serves POST /api/leads.
type Handler struct {
	service       *Service
	fallbackPhone string
	logger        *logging.Logger
}

func NewHandler(service *Service, fallbackPhone string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, fallbackPhone: fallbackPhone, logger: logger}
}

// SubmitLead handles POST /api/leads requests.
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var sub forms.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.logger.Warn("failed to decode submission", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Error: "Invalid request body"})
		return
	}
	sub.ClientIP = clientIP(r)
	sub.UserAgent = r.UserAgent()

	_, err := h.service.Submit(r.Context(), &sub)
	if err == nil {
		// Soft rejects get the same body so bots learn nothing.
		writeJSON(w, http.StatusOK, Response{Success: true, Message: successMessage})
		return
	}

	var blocked *BlockedError
	var invalid *forms.ValidationError
	switch {
	case errors.Is(err, ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, Response{
			Error: fmt.Sprintf("Our contact form is temporarily unavailable. Please call us at %s.", h.fallbackPhone),
		})
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusBadRequest, Response{Error: blocked.Verdict.Message})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, Response{Error: invalid.Message(), Fields: invalid.Fields})
	case errors.Is(err, notify.ErrNotificationFailed):
		writeJSON(w, http.StatusInternalServerError, Response{
			Error: fmt.Sprintf("We couldn't send your message right now. Please try again or call us at %s.", h.fallbackPhone),
		})
	default:
		h.logger.Error("unexpected intake error", "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: "Something went wrong. Please try again."})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
