package leads

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
)

// Status is the lifecycle state of a lead. Any status may move to any other
// through an explicit administrative transition; there is no terminal state.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusCustomer  Status = "customer"
	StatusInactive  Status = "inactive"
)

// Statuses lists every valid status in dashboard display order.
var Statuses = []Status{StatusNew, StatusContacted, StatusCustomer, StatusInactive}

// Valid reports whether s belongs to the fixed status set.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus normalizes and validates a textual status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Source is the canonical tag of the form shape that produced a lead.
type Source string

const (
	SourceStandard      Source = "standard"
	SourceQuick         Source = "quick"
	SourceInternational Source = "international"
)

// Lead is the persisted record of one accepted inquiry.
type Lead struct {
	ID string `json:"id" dynamodbav:"id"`

	FirstName string `json:"firstName" dynamodbav:"firstName"`
	LastName  string `json:"lastName,omitempty" dynamodbav:"lastName,omitempty"`
	Email     string `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone     string `json:"phone" dynamodbav:"phone"`
	WhatsApp  string `json:"whatsapp,omitempty" dynamodbav:"whatsapp,omitempty"`

	Address string `json:"address,omitempty" dynamodbav:"address,omitempty"`
	Parish  string `json:"parish,omitempty" dynamodbav:"parish,omitempty"`
	Country string `json:"country,omitempty" dynamodbav:"country,omitempty"`

	Company      string `json:"company,omitempty" dynamodbav:"company,omitempty"`
	Position     string `json:"position,omitempty" dynamodbav:"position,omitempty"`
	BusinessType string `json:"businessType,omitempty" dynamodbav:"businessType,omitempty"`

	FuelTypes             []string `json:"fuelTypes" dynamodbav:"fuelTypes,omitempty"`
	DeliveryFrequency     string   `json:"deliveryFrequency,omitempty" dynamodbav:"deliveryFrequency,omitempty"`
	AverageVolume         string   `json:"averageVolume,omitempty" dynamodbav:"averageVolume,omitempty"`
	PreferredDeliveryTime string   `json:"preferredDeliveryTime,omitempty" dynamodbav:"preferredDeliveryTime,omitempty"`
	PreferredContact      string   `json:"preferredContact,omitempty" dynamodbav:"preferredContact,omitempty"`

	Newsletter      bool `json:"newsletter" dynamodbav:"newsletter"`
	WhatsAppUpdates bool `json:"whatsappUpdates" dynamodbav:"whatsappUpdates"`
	SMSAlerts       bool `json:"smsAlerts" dynamodbav:"smsAlerts"`

	Message     string `json:"message,omitempty" dynamodbav:"message,omitempty"`
	Source      Source `json:"source" dynamodbav:"source"`
	HearAboutUs string `json:"hearAboutUs,omitempty" dynamodbav:"hearAboutUs,omitempty"`
	Notes       string `json:"notes,omitempty" dynamodbav:"notes,omitempty"`

	Status      Status    `json:"status" dynamodbav:"status"`
	TotalOrders int       `json:"totalOrders" dynamodbav:"totalOrders"`
	TotalSpent  float64   `json:"totalSpent" dynamodbav:"totalSpent"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Clone returns a deep copy so stored records never alias caller memory.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	c := *l
	c.FuelTypes = slices.Clone(l.FuelTypes)
	return &c
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// initialize prepares a lead for its first write.
func initialize(l *Lead, id string, now time.Time) {
	if l.ID == "" {
		l.ID = id
	}
	l.Status = StatusNew
	l.TotalOrders = 0
	l.TotalSpent = 0
	l.CreatedAt = now
	l.UpdatedAt = now
}

// nextUpdatedAt keeps updatedAt strictly increasing even when the clock
// returns the same or an earlier instant.
func nextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

// Patch carries a partial update. Nil fields are left untouched; id,
// createdAt and updatedAt are not patchable.
type Patch struct {
	FirstName             *string   `json:"firstName,omitempty"`
	LastName              *string   `json:"lastName,omitempty"`
	Email                 *string   `json:"email,omitempty"`
	Phone                 *string   `json:"phone,omitempty"`
	WhatsApp              *string   `json:"whatsapp,omitempty"`
	Address               *string   `json:"address,omitempty"`
	Parish                *string   `json:"parish,omitempty"`
	Country               *string   `json:"country,omitempty"`
	Company               *string   `json:"company,omitempty"`
	Position              *string   `json:"position,omitempty"`
	BusinessType          *string   `json:"businessType,omitempty"`
	FuelTypes             *[]string `json:"fuelTypes,omitempty"`
	DeliveryFrequency     *string   `json:"deliveryFrequency,omitempty"`
	AverageVolume         *string   `json:"averageVolume,omitempty"`
	PreferredDeliveryTime *string   `json:"preferredDeliveryTime,omitempty"`
	PreferredContact      *string   `json:"preferredContact,omitempty"`
	Newsletter            *bool     `json:"newsletter,omitempty"`
	WhatsAppUpdates       *bool     `json:"whatsappUpdates,omitempty"`
	SMSAlerts             *bool     `json:"smsAlerts,omitempty"`
	Message               *string   `json:"message,omitempty"`
	HearAboutUs           *string   `json:"hearAboutUs,omitempty"`
	Notes                 *string   `json:"notes,omitempty"`
	Status                *Status   `json:"status,omitempty"`
	TotalOrders           *int      `json:"totalOrders,omitempty"`
	TotalSpent            *float64  `json:"totalSpent,omitempty"`
}

// IsEmpty reports whether the patch sets nothing.
func (p Patch) IsEmpty() bool {
	return p == (Patch{})
}

// Validate checks the patch against lead invariants.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		if email != "" && !ValidEmail(email) {
			return ErrInvalidEmail
		}
	}
	return nil
}

// Apply writes the patched fields onto l. It does not touch timestamps.
func (p Patch) Apply(l *Lead) {
	setString(&l.FirstName, p.FirstName)
	setString(&l.LastName, p.LastName)
	if p.Email != nil {
		l.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	setString(&l.Phone, p.Phone)
	setString(&l.WhatsApp, p.WhatsApp)
	setString(&l.Address, p.Address)
	setString(&l.Parish, p.Parish)
	setString(&l.Country, p.Country)
	setString(&l.Company, p.Company)
	setString(&l.Position, p.Position)
	setString(&l.BusinessType, p.BusinessType)
	if p.FuelTypes != nil {
		l.FuelTypes = NormalizeFuelTypes(*p.FuelTypes)
	}
	setString(&l.DeliveryFrequency, p.DeliveryFrequency)
	setString(&l.AverageVolume, p.AverageVolume)
	setString(&l.PreferredDeliveryTime, p.PreferredDeliveryTime)
	setString(&l.PreferredContact, p.PreferredContact)
	if p.Newsletter != nil {
		l.Newsletter = *p.Newsletter
	}
	if p.WhatsAppUpdates != nil {
		l.WhatsAppUpdates = *p.WhatsAppUpdates
	}
	if p.SMSAlerts != nil {
		l.SMSAlerts = *p.SMSAlerts
	}
	setString(&l.Message, p.Message)
	setString(&l.HearAboutUs, p.HearAboutUs)
	setString(&l.Notes, p.Notes)
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.TotalOrders != nil {
		l.TotalOrders = *p.TotalOrders
	}
	if p.TotalSpent != nil {
		l.TotalSpent = *p.TotalSpent
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// ListFilter narrows List results. Zero values mean "no constraint"; a zero
// Limit returns every match.
type ListFilter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

// Matches applies the status and free-text constraints to l.
func (f ListFilter) Matches(l *Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{l.FirstName, l.LastName, l.FullName(), l.Email, l.Company} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// sortNewestFirst orders by createdAt descending, then id descending.
func sortNewestFirst(list []*Lead) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func paginate(list []*Lead, limit, offset int) []*Lead {
	if offset > 0 {
		if offset >= len(list) {
			return []*Lead{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
