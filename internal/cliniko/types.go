package cliniko

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ID is a server-assigned Cliniko identifier. The API encodes ids as either
// JSON numbers or numeric strings; both decode into ID.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal identifier taken from a URI or flag.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidID)
	}
	return ID(n), nil
}

// UnmarshalJSON accepts 123, "123" and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", data, err)
	}
	*id = ID(n)
	return nil
}

// Amount is a monetary or numeric value the API may send as a number or a
// decimal string.
type Amount float64

// UnmarshalJSON accepts 12.5, "12.50" and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", data, err)
	}
	*a = Amount(f)
	return nil
}

// Links holds the hypermedia links attached to records and list envelopes.
type Links struct {
	Self string `json:"self,omitempty"`
	Next string `json:"next,omitempty"`
}

// Ref is a nested reference to another record.
type Ref struct {
	ID    ID     `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Links Links  `json:"links"`
}

// RefID returns the referenced id, falling back to the last segment of the
// self link when the API only sends links.
func (r *Ref) RefID() ID {
	if r == nil {
		return 0
	}
	if r.ID != 0 {
		return r.ID
	}
	if r.Links.Self == "" {
		return 0
	}
	n, err := strconv.ParseInt(path.Base(r.Links.Self), 10, 64)
	if err != nil {
		return 0
	}
	return ID(n)
}

// PhoneNumber is a patient phone entry.
type PhoneNumber struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

// Address is a patient postal address.
type Address struct {
	Line1    string `json:"line_1,omitempty"`
	Line2    string `json:"line_2,omitempty"`
	Suburb   string `json:"suburb,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
}

type Patient struct {
	Source

	ID                      ID            `json:"id"`
	Title                   string        `json:"title,omitempty"`
	FirstName               string        `json:"first_name"`
	LastName                string        `json:"last_name"`
	PreferredName           string        `json:"preferred_name,omitempty"`
	DateOfBirth             string        `json:"date_of_birth,omitempty"`
	Sex                     string        `json:"sex,omitempty"`
	Email                   string        `json:"email,omitempty"`
	PhoneNumbers            []PhoneNumber `json:"phone_numbers,omitempty"`
	Address                 *Address      `json:"address,omitempty"`
	MedicareNumber          string        `json:"medicare_number,omitempty"`
	MedicareReferenceNumber string        `json:"medicare_reference_number,omitempty"`
	Archived                bool          `json:"archived"`
	CreatedAt               string        `json:"created_at,omitempty"`
	UpdatedAt               string        `json:"updated_at,omitempty"`
	Links                   Links         `json:"links"`
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

type AppointmentTypeRef struct {
	ID       ID     `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Links    Links  `json:"links"`
}

type Appointment struct {
	Source

	ID                 ID                  `json:"id"`
	StartsAt           string              `json:"starts_at"`
	EndsAt             string              `json:"ends_at,omitempty"`
	Duration           int                 `json:"duration,omitempty"`
	AppointmentType    *AppointmentTypeRef `json:"appointment_type,omitempty"`
	Patient            *Ref                `json:"patient,omitempty"`
	Practitioner       *Ref                `json:"practitioner,omitempty"`
	Business           *Ref                `json:"business,omitempty"`
	Status             string              `json:"status,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	CreatedAt          string              `json:"created_at,omitempty"`
	UpdatedAt          string              `json:"updated_at,omitempty"`
	Links              Links               `json:"links"`
}

type Practitioner struct {
	Source

	ID          ID     `json:"id"`
	Title       string `json:"title,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Designation string `json:"designation,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	Links       Links  `json:"links"`
}

type Business struct {
	Source

	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	Country   string `json:"country,omitempty"`
	TimeZone  string `json:"time_zone,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Links     Links  `json:"links"`
}

type AppointmentType struct {
	Source

	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Duration  int    `json:"duration,omitempty"`
	Color     string `json:"color,omitempty"`
	Category  string `json:"category,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Links     Links  `json:"links"`
}

type AvailableTime struct {
	Source

	AppointmentTypeID ID     `json:"appointment_type_id,omitempty"`
	BusinessID        ID     `json:"business_id,omitempty"`
	PractitionerID    ID     `json:"practitioner_id,omitempty"`
	StartsAt          string `json:"starts_at"`
}

// UnmarshalJSON accepts both "starts_at" and "appointment_start".
func (t *AvailableTime) UnmarshalJSON(data []byte) error {
	type plain AvailableTime
	var aux struct {
		plain
		Start string `json:"appointment_start"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = AvailableTime(aux.plain)
	if t.StartsAt == "" {
		t.StartsAt = aux.Start
	}
	return nil
}

// Invoice statuses accepted by the API.
const (
	InvoiceStatusDraft           = "draft"
	InvoiceStatusAwaitingPayment = "awaiting_payment"
	InvoiceStatusPartPaid        = "part_paid"
	InvoiceStatusPaid            = "paid"
	InvoiceStatusVoid            = "void"
	InvoiceStatusWriteOff        = "write_off"
)

// InvoiceStatuses lists every invoice status in display order.
var InvoiceStatuses = []string{
	InvoiceStatusDraft, InvoiceStatusAwaitingPayment, InvoiceStatusPartPaid,
	InvoiceStatusPaid, InvoiceStatusVoid, InvoiceStatusWriteOff,
}

type Invoice struct {
	Source

	ID                ID            `json:"id"`
	InvoiceNumber     string        `json:"invoice_number,omitempty"`
	IssuedAt          string        `json:"issued_at,omitempty"`
	DueAt             string        `json:"due_at,omitempty"`
	Status            string        `json:"status,omitempty"`
	Total             Amount        `json:"total"`
	TaxTotal          Amount        `json:"tax_total"`
	Subtotal          Amount        `json:"subtotal"`
	AmountPaid        Amount        `json:"amount_paid"`
	AmountOutstanding Amount        `json:"amount_outstanding"`
	Notes             string        `json:"notes,omitempty"`
	PaymentTerms      int           `json:"payment_terms,omitempty"`
	Patient           *Ref          `json:"patient,omitempty"`
	Practitioner      *Ref          `json:"practitioner,omitempty"`
	Business          *Ref          `json:"business,omitempty"`
	InvoiceItems      []InvoiceItem `json:"invoice_items,omitempty"`
	CreatedAt         string        `json:"created_at,omitempty"`
	UpdatedAt         string        `json:"updated_at,omitempty"`
	Links             Links         `json:"links"`
}

type TaxRef struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Rate Amount `json:"rate"`
}

type InvoiceItem struct {
	Source

	ID                 ID      `json:"id"`
	InvoiceID          ID      `json:"invoice_id,omitempty"`
	Description        string  `json:"description"`
	UnitPrice          Amount  `json:"unit_price"`
	Quantity           Amount  `json:"quantity"`
	DiscountPercentage Amount  `json:"discount_percentage"`
	DiscountAmount     Amount  `json:"discount_amount"`
	TaxAmount          Amount  `json:"tax_amount"`
	NetAmount          Amount  `json:"net_amount"`
	TotalAmount        Amount  `json:"total_amount"`
	Product            *Ref    `json:"product,omitempty"`
	Tax                *TaxRef `json:"tax,omitempty"`
	CreatedAt          string  `json:"created_at,omitempty"`
	UpdatedAt          string  `json:"updated_at,omitempty"`
	Links              Links   `json:"links"`
}

// Payment methods accepted by the API.
var PaymentMethods = []string{"cash", "credit_card", "eft", "cheque", "other"}

type Payment struct {
	Source

	ID            ID     `json:"id"`
	Amount        Amount `json:"amount"`
	PaidAt        string `json:"paid_at,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Invoice       *Ref   `json:"invoice,omitempty"`
	Patient       *Ref   `json:"patient,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	Links         Links  `json:"links"`
}

type Product struct {
	Source

	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	ItemCode    string  `json:"item_code,omitempty"`
	UnitPrice   Amount  `json:"unit_price"`
	Description string  `json:"description,omitempty"`
	Tax         *TaxRef `json:"tax,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
	Links       Links   `json:"links"`
}

// UnmarshalJSON reads the remote "price" field into UnitPrice when
// "unit_price" is absent.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var aux struct {
		plain
		Price *Amount `json:"price"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Product(aux.plain)
	if p.UnitPrice == 0 && aux.Price != nil {
		p.UnitPrice = *aux.Price
	}
	return nil
}

type Tax struct {
	Source

	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Rate      Amount `json:"rate"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Links     Links  `json:"links"`
}

type PatientCase struct {
	Source

	ID        ID     `json:"id"`
	Name      string `json:"name"`
	PatientID ID     `json:"patient_id,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Links     Links  `json:"links"`
}
