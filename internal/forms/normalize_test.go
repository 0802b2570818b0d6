package forms

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
)

func standardSubmission() *Submission {
	return &Submission{
		FirstName: " Jane ",
		LastName:  "Brown",
		Email:     " Jane@Example.COM ",
		Phone:     "876-555-0101",
		Message:   "Quote for 5,000 gallons",
	}
}

func requireValidation(t *testing.T, err error, code string) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, code, verr.Code)
	return verr
}

func TestNormalize_StandardShape(t *testing.T) {
	lead, err := Normalize(standardSubmission())
	require.NoError(t, err)

	assert.Equal(t, "Jane", lead.FirstName)
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.Equal(t, leads.SourceStandard, lead.Source)
	assert.False(t, lead.Newsletter)
	assert.False(t, lead.WhatsAppUpdates)
	assert.False(t, lead.SMSAlerts)
	assert.True(t, lead.CreatedAt.IsZero(), "normalizer must not assign timestamps")
	assert.Empty(t, lead.ID)
}

func TestNormalize_SourceAliases(t *testing.T) {
	cases := map[string]leads.Source{
		"":               leads.SourceStandard,
		"contact":        leads.SourceStandard,
		"FULL":           leads.SourceStandard,
		"quick-callback": leads.SourceQuick,
		"hero":           leads.SourceQuick,
		"trade":          leads.SourceInternational,
		" export ":       leads.SourceInternational,
	}
	for tag, want := range cases {
		got, ok := CanonicalSource(tag)
		require.True(t, ok, tag)
		assert.Equal(t, want, got, tag)
	}

	_, err := Normalize(&Submission{Source: "newsletter-popup", FirstName: "A", Phone: "1"})
	requireValidation(t, err, CodeInvalidSource)
}

func TestNormalize_StandardMissingFieldsInOrder(t *testing.T) {
	_, err := Normalize(&Submission{FirstName: "Jane", Phone: "  "})
	verr := requireValidation(t, err, CodeMissingFields)
	assert.Equal(t, []string{"lastName", "email", "phone", "message"}, verr.Fields)
	assert.Contains(t, verr.Message(), "lastName, email, phone, message")
}

func TestNormalize_QuickRequiresPhone(t *testing.T) {
	sub := standardSubmission()
	sub.Source = "quick"
	sub.Phone = ""

	_, err := Normalize(sub)
	verr := requireValidation(t, err, CodeMissingFields)
	assert.Equal(t, []string{"phone"}, verr.Fields)

	lead, err := Normalize(&Submission{Source: "callback", FirstName: "Sam", Phone: "876-555-0000"})
	require.NoError(t, err)
	assert.Equal(t, leads.SourceQuick, lead.Source)
	assert.Empty(t, lead.Email)
}

func TestNormalize_InternationalRequiresCompany(t *testing.T) {
	_, err := Normalize(&Submission{Source: "international", FirstName: "Li", Email: "li@corp.cn", Phone: "+86 1"})
	verr := requireValidation(t, err, CodeMissingFields)
	assert.Equal(t, []string{"company"}, verr.Fields)
}

func TestNormalize_InvalidEmail(t *testing.T) {
	sub := standardSubmission()
	sub.Email = "jane@localhost"
	_, err := Normalize(sub)
	requireValidation(t, err, CodeInvalidEmail)

	// optional email is still validated when present
	_, err = Normalize(&Submission{Source: "quick", FirstName: "Sam", Phone: "1", Email: "not an email"})
	requireValidation(t, err, CodeInvalidEmail)
}

func TestSubmission_DecodesFlexibleTypes(t *testing.T) {
	body := `{
		"firstName": "Jane",
		"fuelTypes": "diesel, lpg",
		"newsletter": "on",
		"whatsappUpdates": true,
		"smsAlerts": "0",
		"formRenderedAt": 1700000000000,
		"website": ""
	}`
	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(body), &sub))
	assert.True(t, bool(sub.Newsletter))
	assert.True(t, bool(sub.WhatsAppUpdates))
	assert.False(t, bool(sub.SMSAlerts))
	assert.Equal(t, int64(1700000000000), sub.FormRenderedAt)
	assert.Equal(t, []string{"Diesel", "LPG"}, leads.NormalizeFuelTypes(sub.FuelTypes))

	var arr Submission
	require.NoError(t, json.Unmarshal([]byte(`{"fuelTypes":["kerosene","jet-a1"],"newsletter":null}`), &arr))
	assert.Equal(t, StringList{"kerosene", "jet-a1"}, arr.FuelTypes)
	assert.False(t, bool(arr.Newsletter))

	var bad Submission
	assert.Error(t, json.Unmarshal([]byte(`{"newsletter":"maybe"}`), &bad))
}
