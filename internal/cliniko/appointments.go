package cliniko

import (
	"context"
	"net/http"
)

// ListAppointmentsOptions filters ListAppointments. Zero values are omitted.
type ListAppointmentsOptions struct {
	Page           int
	PerPage        int
	PatientID      ID
	PractitionerID ID
	BusinessID     ID
	StartsAt       string
	EndsAt         string
	Status         string
}

// AppointmentInput is the body for creating or updating an appointment.
type AppointmentInput struct {
	StartsAt          string `json:"starts_at,omitempty"`
	EndsAt            string `json:"ends_at,omitempty"`
	PatientID         ID     `json:"patient_id,omitempty"`
	PractitionerID    ID     `json:"practitioner_id,omitempty"`
	AppointmentTypeID ID     `json:"appointment_type_id,omitempty"`
	BusinessID        ID     `json:"business_id,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

type cancelRequest struct {
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

func (c *Client) ListAppointments(ctx context.Context, opts ListAppointmentsOptions) (*ListResponse[Appointment], error) {
	q := new(query).
		int("page", opts.Page).
		int("per_page", opts.PerPage).
		id("patient_id", opts.PatientID).
		id("practitioner_id", opts.PractitionerID).
		id("business_id", opts.BusinessID).
		str("starts_at", opts.StartsAt).
		str("ends_at", opts.EndsAt).
		str("status", opts.Status)
	return list[Appointment](ctx, c, "/appointments", "appointments", q)
}

func (c *Client) GetAppointment(ctx context.Context, id ID) (*Appointment, error) {
	path, err := resourcePath("/appointments", id, "")
	if err != nil {
		return nil, err
	}
	var a Appointment
	if err := c.getJSON(ctx, path, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateAppointment(ctx context.Context, in AppointmentInput) (*Appointment, error) {
	var a Appointment
	if err := c.sendJSON(ctx, http.MethodPost, "/appointments", in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id ID, in AppointmentInput) (*Appointment, error) {
	path, err := resourcePath("/appointments", id, "")
	if err != nil {
		return nil, err
	}
	var a Appointment
	if err := c.sendJSON(ctx, http.MethodPut, path, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CancelAppointment cancels without deleting. reason may be empty.
func (c *Client) CancelAppointment(ctx context.Context, id ID, reason string) (*Appointment, error) {
	path, err := resourcePath("/appointments", id, "/cancel")
	if err != nil {
		return nil, err
	}
	var a Appointment
	if err := c.sendJSON(ctx, http.MethodPut, path, cancelRequest{CancellationReason: reason}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteAppointment(ctx context.Context, id ID) error {
	path, err := resourcePath("/appointments", id, "")
	if err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ListAppointmentInvoices returns the invoices raised for an appointment.
func (c *Client) ListAppointmentInvoices(ctx context.Context, id ID) (*ListResponse[Invoice], error) {
	path, err := resourcePath("/appointments", id, "/invoices")
	if err != nil {
		return nil, err
	}
	return list[Invoice](ctx, c, path, "invoices", nil)
}
