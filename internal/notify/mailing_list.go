package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sendgrid/sendgrid-go"

	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

// Contact is a marketing-list entry.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Country   string
}

// MailingList upserts newsletter contacts into a SendGrid Marketing list.
// A MailingList without an API key or list id is a no-op.
type MailingList struct {
	apiKey string
	listID string
	host   string
	logger *logging.Logger
}

// MailingListConfig configures a MailingList.
type MailingListConfig struct {
	APIKey string
	ListID string
	Host   string
}

func NewMailingList(cfg MailingListConfig, logger *logging.Logger) *MailingList {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Host == "" {
		cfg.Host = defaultSendGridHost
	}
	return &MailingList{apiKey: cfg.APIKey, listID: cfg.ListID, host: cfg.Host, logger: logger}
}

// Enabled reports whether contacts will actually be sent.
func (m *MailingList) Enabled() bool {
	return m != nil && m.apiKey != "" && m.listID != ""
}

type contactsRequest struct {
	ListIDs  []string        `json:"list_ids"`
	Contacts []contactRecord `json:"contacts"`
}

type contactRecord struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Country     string `json:"country,omitempty"`
}

// AddContact upserts c into the configured list.
func (m *MailingList) AddContact(ctx context.Context, c Contact) error {
	if !m.Enabled() {
		return nil
	}
	if c.Email == "" {
		return ErrNoRecipient
	}

	body, err := json.Marshal(contactsRequest{
		ListIDs: []string{m.listID},
		Contacts: []contactRecord{{
			Email:       c.Email,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			PhoneNumber: c.Phone,
			Country:     c.Country,
		}},
	})
	if err != nil {
		return fmt.Errorf("notify: encode contact: %w", err)
	}

	request := sendgrid.GetRequest(m.apiKey, "/v3/marketing/contacts", m.host)
	request.Method = "PUT"
	request.Body = body

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("notify: add contact: %w", err)
	}
	if response.StatusCode >= 400 {
		m.logger.Error("sendgrid contacts returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("notify: add contact: status %d", response.StatusCode)
	}
	m.logger.Info("newsletter contact added", "email", logging.RedactEmail(c.Email), "status", response.StatusCode)
	return nil
}
