// Package forms defines the public contact-form submission and turns it into
// a lead according to the form shape it came from.
package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Submission is the raw body posted by the marketing site's forms.
type Submission struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	WhatsApp  string `json:"whatsapp"`

	Address string `json:"address"`
	Parish  string `json:"parish"`
	Country string `json:"country"`

	Company      string `json:"company"`
	Position     string `json:"position"`
	BusinessType string `json:"businessType"`

	FuelTypes             StringList `json:"fuelTypes"`
	DeliveryFrequency     string     `json:"deliveryFrequency"`
	AverageVolume         string     `json:"averageVolume"`
	PreferredDeliveryTime string     `json:"preferredDeliveryTime"`
	PreferredContact      string     `json:"preferredContact"`

	Newsletter      FlexBool `json:"newsletter"`
	WhatsAppUpdates FlexBool `json:"whatsappUpdates"`
	SMSAlerts       FlexBool `json:"smsAlerts"`

	Message     string `json:"message"`
	Source      string `json:"source"`
	HearAboutUs string `json:"hearAboutUs"`

	// Website is the honeypot; humans never see or fill it.
	Website        string `json:"website"`
	RecaptchaToken string `json:"recaptchaToken"`
	FormRenderedAt int64  `json:"formRenderedAt"`

	// Set by the server, never decoded from the body.
	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// FlexBool decodes checkbox values sent either as JSON booleans or as the
// strings browsers produce ("on", "true", "yes", "1").
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = FlexBool(t)
	case float64:
		*b = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "on", "true", "yes", "1", "y":
			*b = true
		case "", "off", "false", "no", "0", "n":
			*b = false
		default:
			return fmt.Errorf("forms: invalid boolean %q", t)
		}
	default:
		return fmt.Errorf("forms: invalid boolean %s", data)
	}
	return nil
}

// StringList accepts a JSON array of strings or a single comma separated
// string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case float64:
				out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
			default:
				return fmt.Errorf("forms: invalid list item %v", item)
			}
		}
		*l = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("forms: list must be an array or string: %w", err)
	}
	*l = strings.Split(s, ",")
	return nil
}
