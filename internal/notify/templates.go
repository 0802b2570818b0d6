package notify

import (
	"fmt"
	"strings"

	"github.com/osteele/liquid"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
)

// Rendered is a fully rendered email.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

type emailTemplate struct {
	subject *liquid.Template
	text    *liquid.Template
	html    *liquid.Template
}

// TemplateConfig holds the brand values available to every template.
type TemplateConfig struct {
	CompanyName   string
	FallbackPhone string
}

// Templates renders the internal notification for each form shape and the
// customer confirmation.
type Templates struct {
	cfg          TemplateConfig
	internal     map[leads.Source]*emailTemplate
	confirmation *emailTemplate
}

const sectionRowsHTML = `{% for row in rows %}<tr><td style="padding:6px 12px;color:#6b7280;">{{ row.label | escape }}</td><td style="padding:6px 12px;">{{ row.value | escape }}</td></tr>{% endfor %}`

func htmlSection(title, rowsVar string) string {
	return `{% if ` + rowsVar + `.size > 0 %}<h3 style="margin:20px 0 6px;color:#0f4c81;">` + title + `</h3><table style="border-collapse:collapse;">` +
		strings.ReplaceAll(sectionRowsHTML, "in rows", "in "+rowsVar) + `</table>{% endif %}`
}

func textSection(title, rowsVar string) string {
	return `{% if ` + rowsVar + `.size > 0 %}
` + title + `
{% for row in ` + rowsVar + ` %}{{ row.label }}: {{ row.value }}
{% endfor %}{% endif %}`
}

const htmlOpen = `<div style="font-family:Arial,sans-serif;max-width:640px;">`
const htmlClose = `<p style="color:#9ca3af;font-size:12px;margin-top:24px;">Lead {{ lead.id | escape }} · {{ company_name | escape }} website</p></div>`

var internalSources = map[leads.Source]struct {
	subject string
	text    string
	html    string
}{
	leads.SourceStandard: {
		subject: `New Fuel Delivery Inquiry - {{ lead.first_name }} {{ lead.last_name }}`,
		text: `New fuel delivery inquiry from {{ lead.full_name }}
` + textSection("CONTACT", "contact") + textSection("LOCATION", "location") + textSection("BUSINESS", "business") +
			textSection("FUEL & DELIVERY PREFERENCES", "preferences") + textSection("MARKETING OPT-INS", "opt_ins") + `
MESSAGE
{{ lead.message }}
{% if lead.hear_about_us != "" %}
Heard about us via: {{ lead.hear_about_us }}
{% endif %}
Lead ID: {{ lead.id }}`,
		html: htmlOpen + `<h2 style="color:#0f4c81;">New Fuel Delivery Inquiry</h2>` +
			htmlSection("Contact", "contact") + htmlSection("Location", "location") + htmlSection("Business", "business") +
			htmlSection("Fuel &amp; Delivery Preferences", "preferences") + htmlSection("Marketing Opt-ins", "opt_ins") +
			`{% if lead.message != "" %}<h3 style="margin:20px 0 6px;color:#0f4c81;">Message</h3><p style="white-space:pre-wrap;">{{ lead.message | escape }}</p>{% endif %}` +
			`{% if lead.hear_about_us != "" %}<p>Heard about us via: <strong>{{ lead.hear_about_us | escape }}</strong></p>{% endif %}` + htmlClose,
	},
	leads.SourceInternational: {
		subject: `International Trade Inquiry - {{ lead.company }}`,
		text: `International trade inquiry from {{ lead.company }}
` + textSection("BUSINESS", "business") + textSection("CONTACT", "contact") + textSection("COUNTRY & LOCATION", "location") +
			textSection("FUEL & VOLUME", "preferences") + `{% if lead.message != "" %}
MESSAGE
{{ lead.message }}
{% endif %}
Lead ID: {{ lead.id }}`,
		html: htmlOpen + `<h2 style="color:#0f4c81;">International Trade Inquiry</h2>` +
			htmlSection("Business", "business") + htmlSection("Contact", "contact") + htmlSection("Country &amp; Location", "location") +
			htmlSection("Fuel &amp; Volume", "preferences") +
			`{% if lead.message != "" %}<h3 style="margin:20px 0 6px;color:#0f4c81;">Message</h3><p style="white-space:pre-wrap;">{{ lead.message | escape }}</p>{% endif %}` + htmlClose,
	},
	leads.SourceQuick: {
		subject: `Quick Callback Request - {{ lead.first_name }} ({{ lead.phone }})`,
		text: `{{ lead.full_name }} asked for a call back.
` + textSection("CONTACT", "contact") + `{% if lead.message != "" %}
Note: {{ lead.message }}
{% endif %}
Lead ID: {{ lead.id }}`,
		html: htmlOpen + `<h2 style="color:#0f4c81;">Quick Callback Request</h2><p><strong>{{ lead.full_name | escape }}</strong> asked for a call back.</p>` +
			htmlSection("Contact", "contact") +
			`{% if lead.message != "" %}<p style="white-space:pre-wrap;">{{ lead.message | escape }}</p>{% endif %}` + htmlClose,
	},
}

const (
	confirmationSubject = `Thank you for contacting {{ company_name }}`
	confirmationText    = `Hi {{ lead.first_name }},

Thank you for contacting {{ company_name }}.
{% if quick %}We received your callback request and a member of our team will call you at {{ lead.phone }} shortly.{% else %}We received your inquiry and our team will follow up with a quote tailored to your fuel needs within one business day.{% endif %}

If you need us sooner, call {{ fallback_phone }}.

{{ company_name }}`
	confirmationHTML = `<div style="font-family:Arial,sans-serif;max-width:640px;">
<p>Hi {{ lead.first_name | escape }},</p>
<p>Thank you for contacting {{ company_name | escape }}.</p>
{% if quick %}<p>We received your callback request and a member of our team will call you at <strong>{{ lead.phone | escape }}</strong> shortly.</p>{% else %}<p>We received your inquiry and our team will follow up with a quote tailored to your fuel needs within one business day.</p>{% endif %}
<p>If you need us sooner, call <a href="tel:{{ fallback_phone | escape }}">{{ fallback_phone | escape }}</a>.</p>
<p>{{ company_name | escape }}</p>
</div>`
)

// NewTemplates parses every template up front so syntax errors surface at
// startup.
func NewTemplates(cfg TemplateConfig) (*Templates, error) {
	if cfg.CompanyName == "" {
		cfg.CompanyName = "Nevloh Limited"
	}
	engine := liquid.NewEngine()

	t := &Templates{cfg: cfg, internal: make(map[leads.Source]*emailTemplate, len(internalSources))}
	for source, src := range internalSources {
		tpl, err := parseTemplate(engine, src.subject, src.text, src.html)
		if err != nil {
			return nil, fmt.Errorf("notify: parse %s template: %w", source, err)
		}
		t.internal[source] = tpl
	}
	confirmation, err := parseTemplate(engine, confirmationSubject, confirmationText, confirmationHTML)
	if err != nil {
		return nil, fmt.Errorf("notify: parse confirmation template: %w", err)
	}
	t.confirmation = confirmation
	return t, nil
}

func parseTemplate(engine *liquid.Engine, subject, text, html string) (*emailTemplate, error) {
	var tpl emailTemplate
	for _, p := range []struct {
		dst **liquid.Template
		src string
	}{{&tpl.subject, subject}, {&tpl.text, text}, {&tpl.html, html}} {
		parsed, err := engine.ParseString(p.src)
		if err != nil {
			return nil, err
		}
		*p.dst = parsed
	}
	return &tpl, nil
}

// Internal renders the operations notification for lead's shape.
func (t *Templates) Internal(lead *leads.Lead) (Rendered, error) {
	tpl, ok := t.internal[lead.Source]
	if !ok {
		tpl = t.internal[leads.SourceStandard]
	}
	return tpl.render(t.bindings(lead))
}

// Confirmation renders the customer acknowledgement.
func (t *Templates) Confirmation(lead *leads.Lead) (Rendered, error) {
	return t.confirmation.render(t.bindings(lead))
}

func (tpl *emailTemplate) render(b liquid.Bindings) (Rendered, error) {
	var out Rendered
	for _, p := range []struct {
		dst *string
		src *liquid.Template
	}{{&out.Subject, tpl.subject}, {&out.Text, tpl.text}, {&out.HTML, tpl.html}} {
		s, err := p.src.RenderString(b)
		if err != nil {
			return Rendered{}, fmt.Errorf("notify: render template: %w", err)
		}
		*p.dst = strings.TrimSpace(s)
	}
	out.Subject = strings.Join(strings.Fields(out.Subject), " ")
	return out, nil
}

type row struct {
	label string
	value string
}

func rows(pairs ...row) []map[string]any {
	out := []map[string]any{}
	for _, p := range pairs {
		if strings.TrimSpace(p.value) == "" {
			continue
		}
		out = append(out, map[string]any{"label": p.label, "value": p.value})
	}
	return out
}

func (t *Templates) bindings(l *leads.Lead) liquid.Bindings {
	var optIns []row
	if l.Newsletter {
		optIns = append(optIns, row{"Newsletter", "Yes"})
	}
	if l.WhatsAppUpdates {
		optIns = append(optIns, row{"WhatsApp updates", "Yes"})
	}
	if l.SMSAlerts {
		optIns = append(optIns, row{"SMS alerts", "Yes"})
	}

	return liquid.Bindings{
		"company_name":   t.cfg.CompanyName,
		"fallback_phone": t.cfg.FallbackPhone,
		"quick":          l.Source == leads.SourceQuick,
		"lead": map[string]any{
			"id":            l.ID,
			"first_name":    l.FirstName,
			"last_name":     l.LastName,
			"full_name":     l.FullName(),
			"email":         l.Email,
			"phone":         l.Phone,
			"company":       l.Company,
			"message":       l.Message,
			"hear_about_us": l.HearAboutUs,
		},
		"contact": rows(
			row{"Name", l.FullName()},
			row{"Email", l.Email},
			row{"Phone", l.Phone},
			row{"WhatsApp", l.WhatsApp},
			row{"Preferred contact", l.PreferredContact},
		),
		"location": rows(
			row{"Address", l.Address},
			row{"Parish", l.Parish},
			row{"Country", l.Country},
		),
		"business": rows(
			row{"Company", l.Company},
			row{"Position", l.Position},
			row{"Business type", l.BusinessType},
		),
		"preferences": rows(
			row{"Fuel types", strings.Join(l.FuelTypes, ", ")},
			row{"Delivery frequency", l.DeliveryFrequency},
			row{"Average volume", l.AverageVolume},
			row{"Preferred delivery time", l.PreferredDeliveryTime},
		),
		"opt_ins": rows(optIns...),
	}
}
