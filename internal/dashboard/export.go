package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/nevloh/nevloh-website-sub001/internal/leads"
)

var csvHeader = []string{
	"First Name", "Last Name", "Email", "Phone", "WhatsApp",
	"Address", "Parish", "Country",
	"Company", "Position", "Business Type",
	"Fuel Types", "Delivery Frequency", "Average Volume", "Preferred Delivery Time", "Preferred Contact",
	"Status", "Created Date", "Message",
}

// ExportCSV renders list as CSV with a header row. Only the given leads are
// exported, so callers pass the currently filtered set.
func (c *Controller) ExportCSV(list []*leads.Lead) (string, error) {
	return ExportCSV(list)
}

func ExportCSV(list []*leads.Lead) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("dashboard: write csv header: %w", err)
	}
	for _, l := range list {
		record := []string{
			l.FirstName, l.LastName, l.Email, l.Phone, l.WhatsApp,
			l.Address, l.Parish, l.Country,
			l.Company, l.Position, l.BusinessType,
			strings.Join(l.FuelTypes, "; "), l.DeliveryFrequency, l.AverageVolume, l.PreferredDeliveryTime, l.PreferredContact,
			string(l.Status), l.CreatedAt.UTC().Format(time.RFC3339), l.Message,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("dashboard: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("dashboard: flush csv: %w", err)
	}
	return buf.String(), nil
}
