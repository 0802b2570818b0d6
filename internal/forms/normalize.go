package forms

import (
	"strings"

	"github.com/samber/lo"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
)

type field struct {
	name string
	get  func(*leads.Lead) string
}

var (
	fieldFirstName = field{"firstName", func(l *leads.Lead) string { return l.FirstName }}
	fieldLastName  = field{"lastName", func(l *leads.Lead) string { return l.LastName }}
	fieldEmail     = field{"email", func(l *leads.Lead) string { return l.Email }}
	fieldPhone     = field{"phone", func(l *leads.Lead) string { return l.Phone }}
	fieldMessage   = field{"message", func(l *leads.Lead) string { return l.Message }}
	fieldCompany   = field{"company", func(l *leads.Lead) string { return l.Company }}
)

type shape struct {
	source   leads.Source
	aliases  []string
	required []field
}

// shapes is the per-form dispatch table. Required fields are listed in the
// order they are reported when missing.
var shapes = []shape{
	{
		source:   leads.SourceStandard,
		aliases:  []string{"", "standard", "contact", "full"},
		required: []field{fieldFirstName, fieldLastName, fieldEmail, fieldPhone, fieldMessage},
	},
	{
		source:   leads.SourceQuick,
		aliases:  []string{"quick", "quick-callback", "callback", "hero"},
		required: []field{fieldFirstName, fieldPhone},
	},
	{
		source:   leads.SourceInternational,
		aliases:  []string{"international", "trade", "export"},
		required: []field{fieldFirstName, fieldEmail, fieldPhone, fieldCompany},
	},
}

func lookupShape(tag string) (shape, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return lo.Find(shapes, func(s shape) bool {
		return lo.Contains(s.aliases, tag)
	})
}

// CanonicalSource resolves a form tag or alias to its canonical source.
func CanonicalSource(tag string) (leads.Source, bool) {
	s, ok := lookupShape(tag)
	return s.source, ok
}

// Normalize validates sub against the rules of its form shape and returns
// the lead it describes. It performs no I/O and assigns no timestamps.
func Normalize(sub *Submission) (*leads.Lead, error) {
	sh, ok := lookupShape(sub.Source)
	if !ok {
		return nil, &ValidationError{Code: CodeInvalidSource, Fields: []string{"source"}}
	}

	lead := &leads.Lead{
		FirstName:             clean(sub.FirstName),
		LastName:              clean(sub.LastName),
		Email:                 strings.ToLower(clean(sub.Email)),
		Phone:                 clean(sub.Phone),
		WhatsApp:              clean(sub.WhatsApp),
		Address:               clean(sub.Address),
		Parish:                clean(sub.Parish),
		Country:               clean(sub.Country),
		Company:               clean(sub.Company),
		Position:              clean(sub.Position),
		BusinessType:          clean(sub.BusinessType),
		FuelTypes:             leads.NormalizeFuelTypes(sub.FuelTypes),
		DeliveryFrequency:     clean(sub.DeliveryFrequency),
		AverageVolume:         clean(sub.AverageVolume),
		PreferredDeliveryTime: clean(sub.PreferredDeliveryTime),
		PreferredContact:      clean(sub.PreferredContact),
		Newsletter:            bool(sub.Newsletter),
		WhatsAppUpdates:       bool(sub.WhatsAppUpdates),
		SMSAlerts:             bool(sub.SMSAlerts),
		Message:               clean(sub.Message),
		Source:                sh.source,
		HearAboutUs:           clean(sub.HearAboutUs),
	}

	missing := lo.FilterMap(sh.required, func(f field, _ int) (string, bool) {
		return f.name, f.get(lead) == ""
	})
	if len(missing) > 0 {
		return nil, &ValidationError{Code: CodeMissingFields, Fields: missing}
	}
	if lead.Email != "" && !leads.ValidEmail(lead.Email) {
		return nil, &ValidationError{Code: CodeInvalidEmail, Fields: []string{"email"}}
	}
	return lead, nil
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
