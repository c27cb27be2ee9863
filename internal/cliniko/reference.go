package cliniko

import (
	"context"
	"fmt"
	"net/http"
)

// AvailableTimesOptions selects the window for GetAvailableTimes.
type AvailableTimesOptions struct {
	BusinessID        ID
	PractitionerID    ID
	AppointmentTypeID ID
	From              string
	To                string
}

func (c *Client) ListPractitioners(ctx context.Context, opts PageOptions) (*ListResponse[Practitioner], error) {
	return list[Practitioner](ctx, c, "/practitioners", "practitioners", opts.query())
}

func (c *Client) GetPractitioner(ctx context.Context, id ID) (*Practitioner, error) {
	path, err := resourcePath("/practitioners", id, "")
	if err != nil {
		return nil, err
	}
	var p Practitioner
	if err := c.getJSON(ctx, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListBusinesses(ctx context.Context) (*ListResponse[Business], error) {
	return list[Business](ctx, c, "/businesses", "businesses", nil)
}

func (c *Client) GetBusiness(ctx context.Context, id ID) (*Business, error) {
	path, err := resourcePath("/businesses", id, "")
	if err != nil {
		return nil, err
	}
	var b Business
	if err := c.getJSON(ctx, path, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) ListAppointmentTypes(ctx context.Context, opts PageOptions) (*ListResponse[AppointmentType], error) {
	return list[AppointmentType](ctx, c, "/appointment_types", "appointment_types", opts.query())
}

func (c *Client) GetAppointmentType(ctx context.Context, id ID) (*AppointmentType, error) {
	path, err := resourcePath("/appointment_types", id, "")
	if err != nil {
		return nil, err
	}
	var t AppointmentType
	if err := c.getJSON(ctx, path, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetAvailableTimes returns open slots for a practitioner at a business.
func (c *Client) GetAvailableTimes(ctx context.Context, opts AvailableTimesOptions) ([]AvailableTime, error) {
	if opts.BusinessID <= 0 || opts.PractitionerID <= 0 {
		return nil, fmt.Errorf("available times: business and practitioner: %w", ErrInvalidID)
	}
	q := new(query).
		id("business_id", opts.BusinessID).
		id("practitioner_id", opts.PractitionerID).
		id("appointment_type_id", opts.AppointmentTypeID).
		str("from", opts.From).
		str("to", opts.To)

	raw, err := c.do(ctx, http.MethodGet, "/available_times"+q.encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeList[AvailableTime](raw, "available_times")
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}
