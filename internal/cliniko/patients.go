package cliniko

import (
	"context"
	"net/http"
)

// ListPatientsOptions filters ListPatients. Zero values are omitted.
type ListPatientsOptions struct {
	Q       string
	Page    int
	PerPage int
}

// PatientInput is the writable subset of a patient. Every field is optional;
// nil and empty values are left out of the payload.
type PatientInput struct {
	Title                   *string `json:"title,omitempty"`
	FirstName               *string `json:"first_name,omitempty"`
	LastName                *string `json:"last_name,omitempty"`
	PreferredName           *string `json:"preferred_name,omitempty"`
	DateOfBirth             *string `json:"date_of_birth,omitempty"`
	Sex                     *string `json:"sex,omitempty"`
	Email                   *string `json:"email,omitempty"`
	PhoneNumber             *string `json:"phone_number,omitempty"`
	AddressLine1            *string `json:"address_line_1,omitempty"`
	AddressLine2            *string `json:"address_line_2,omitempty"`
	Suburb                  *string `json:"suburb,omitempty"`
	Postcode                *string `json:"postcode,omitempty"`
	State                   *string `json:"state,omitempty"`
	Country                 *string `json:"country,omitempty"`
	MedicareNumber          *string `json:"medicare_number,omitempty"`
	MedicareReferenceNumber *string `json:"medicare_reference_number,omitempty"`
}

type optionalField struct {
	key string
	get func(*PatientInput) *string
}

// patientFields are copied to the payload top level as-is.
var patientFields = []optionalField{
	{"title", func(p *PatientInput) *string { return p.Title }},
	{"first_name", func(p *PatientInput) *string { return p.FirstName }},
	{"last_name", func(p *PatientInput) *string { return p.LastName }},
	{"preferred_name", func(p *PatientInput) *string { return p.PreferredName }},
	{"date_of_birth", func(p *PatientInput) *string { return p.DateOfBirth }},
	{"sex", func(p *PatientInput) *string { return p.Sex }},
	{"email", func(p *PatientInput) *string { return p.Email }},
	{"medicare_number", func(p *PatientInput) *string { return p.MedicareNumber }},
	{"medicare_reference_number", func(p *PatientInput) *string { return p.MedicareReferenceNumber }},
}

// addressFields populate the nested address object.
var addressFields = []optionalField{
	{"line_1", func(p *PatientInput) *string { return p.AddressLine1 }},
	{"line_2", func(p *PatientInput) *string { return p.AddressLine2 }},
	{"suburb", func(p *PatientInput) *string { return p.Suburb }},
	{"postcode", func(p *PatientInput) *string { return p.Postcode }},
	{"state", func(p *PatientInput) *string { return p.State }},
	{"country", func(p *PatientInput) *string { return p.Country }},
}

// PhoneTypeMobile is the phone type given to the single phone number a
// PatientInput can carry.
const PhoneTypeMobile = "Mobile"

func isSet(s *string) bool {
	return s != nil && *s != ""
}

// Payload renders the request body. A phone number becomes a one-element
// phone_numbers list. The address object is only emitted when line 1, suburb
// or postcode is set, and then holds only the set address fields.
func (p *PatientInput) Payload() map[string]any {
	out := make(map[string]any, len(patientFields)+2)
	for _, f := range patientFields {
		if v := f.get(p); isSet(v) {
			out[f.key] = *v
		}
	}

	if isSet(p.PhoneNumber) {
		out["phone_numbers"] = []PhoneNumber{{Number: *p.PhoneNumber, Type: PhoneTypeMobile}}
	}

	if isSet(p.AddressLine1) || isSet(p.Suburb) || isSet(p.Postcode) {
		address := make(map[string]string, len(addressFields))
		for _, f := range addressFields {
			if v := f.get(p); isSet(v) {
				address[f.key] = *v
			}
		}
		out["address"] = address
	}

	return out
}

func (c *Client) ListPatients(ctx context.Context, opts ListPatientsOptions) (*ListResponse[Patient], error) {
	q := new(query).str("q", opts.Q).int("page", opts.Page).int("per_page", opts.PerPage)
	return list[Patient](ctx, c, "/patients", "patients", q)
}

func (c *Client) GetPatient(ctx context.Context, id ID) (*Patient, error) {
	path, err := resourcePath("/patients", id, "")
	if err != nil {
		return nil, err
	}
	var p Patient
	if err := c.getJSON(ctx, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePatient(ctx context.Context, in PatientInput) (*Patient, error) {
	var p Patient
	if err := c.sendJSON(ctx, http.MethodPost, "/patients", in.Payload(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id ID, in PatientInput) (*Patient, error) {
	path, err := resourcePath("/patients", id, "")
	if err != nil {
		return nil, err
	}
	var p Patient
	if err := c.sendJSON(ctx, http.MethodPut, path, in.Payload(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePatient archives the patient remotely.
func (c *Client) DeletePatient(ctx context.Context, id ID) error {
	path, err := resourcePath("/patients", id, "")
	if err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}
