package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

const (
	mimeJSON         = "application/json"
	resourcePageSize = 100
)

// jsonContents renders v as indented JSON.
func jsonContents(uri string, v any) (*mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return &mcp.ResourceContents{URI: uri, MIMEType: mimeJSON, Text: string(data)}, nil
}

func items[T any](resp *cliniko.ListResponse[T]) []T {
	if resp.Items == nil {
		return []T{}
	}
	return resp.Items
}

func (h *handlers) registerResources(b *mcp.Builder) {
	b.AddResource(&mcp.Resource{
		URITemplate: "patient://{id}",
		Name:        "Patient",
		Description: "A patient record by ID",
		MIMEType:    mimeJSON,
		Handler:     h.readPatient,
	})
	b.AddResource(&mcp.Resource{
		URITemplate: "patients://list",
		Name:        "Patients",
		Description: "The first page of patients",
		MIMEType:    mimeJSON,
		Handler:     h.readPatients,
	})
	b.AddResource(&mcp.Resource{
		URITemplate: "appointment://{id}",
		Name:        "Appointment",
		Description: "An appointment by ID",
		MIMEType:    mimeJSON,
		Handler:     h.readAppointment,
	})
	b.AddResource(&mcp.Resource{
		URITemplate: "appointments://list",
		Name:        "Appointments",
		Description: "The first page of appointments",
		MIMEType:    mimeJSON,
		Handler:     h.readAppointments,
	})
	b.AddResource(&mcp.Resource{
		URITemplate: "appointments://today",
		Name:        "Today's Appointments",
		Description: "Appointments starting today, local time",
		MIMEType:    mimeJSON,
		Handler:     h.readTodaysAppointments,
	})
	b.AddResource(&mcp.Resource{
		URITemplate: "practitioners://list",
		Name:        "Practitioners",
		Description: "All practitioners",
		MIMEType:    mimeJSON,
		Handler:     h.readPractitioners,
	})
	b.AddResource(&mcp.Resource{
		URITemplate: "businesses://list",
		Name:        "Businesses",
		Description: "All businesses",
		MIMEType:    mimeJSON,
		Handler:     h.readBusinesses,
	})
	b.AddResource(&mcp.Resource{
		URITemplate: "appointment-types://list",
		Name:        "Appointment Types",
		Description: "All appointment types",
		MIMEType:    mimeJSON,
		Handler:     h.readAppointmentTypes,
	})
}

func (h *handlers) readPatient(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContents, error) {
	id, err := cliniko.ParseID(params["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid patient id: %w", err)
	}
	p, err := h.client.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient: %w", err)
	}
	return jsonContents(uri, p)
}

func (h *handlers) readPatients(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContents, error) {
	resp, err := h.client.ListPatients(ctx, cliniko.ListPatientsOptions{PerPage: resourcePageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patients: %w", err)
	}
	return jsonContents(uri, map[string]any{
		"patients":      items(resp),
		"total_entries": resp.TotalEntries,
		"has_more":      resp.HasMore(),
	})
}

func (h *handlers) readAppointment(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContents, error) {
	id, err := cliniko.ParseID(params["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id: %w", err)
	}
	a, err := h.client.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}
	return jsonContents(uri, a)
}

func (h *handlers) readAppointments(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContents, error) {
	resp, err := h.client.ListAppointments(ctx, cliniko.ListAppointmentsOptions{PerPage: resourcePageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}
	return jsonContents(uri, map[string]any{
		"appointments":  items(resp),
		"total_entries": resp.TotalEntries,
		"has_more":      resp.HasMore(),
	})
}

// today returns local midnight and the following midnight.
func today(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func (h *handlers) readTodaysAppointments(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContents, error) {
	start, end := today(h.now())
	resp, err := h.client.ListAppointments(ctx, cliniko.ListAppointmentsOptions{
		StartsAt: start.UTC().Format(time.RFC3339),
		EndsAt:   end.UTC().Format(time.RFC3339),
		PerPage:  resourcePageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch today's appointments: %w", err)
	}
	return jsonContents(uri, map[string]any{
		"date":          start.Format(time.DateOnly),
		"appointments":  items(resp),
		"total_entries": resp.TotalEntries,
		"has_more":      resp.HasMore(),
	})
}

func (h *handlers) readPractitioners(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContents, error) {
	resp, err := h.client.ListPractitioners(ctx, cliniko.PageOptions{PerPage: resourcePageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch practitioners: %w", err)
	}
	return jsonContents(uri, map[string]any{
		"practitioners": items(resp),
		"total_entries": resp.TotalEntries,
	})
}

func (h *handlers) readBusinesses(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContents, error) {
	resp, err := h.client.ListBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch businesses: %w", err)
	}
	return jsonContents(uri, map[string]any{
		"businesses":    items(resp),
		"total_entries": resp.TotalEntries,
	})
}

func (h *handlers) readAppointmentTypes(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContents, error) {
	resp, err := h.client.ListAppointmentTypes(ctx, cliniko.PageOptions{PerPage: resourcePageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment types: %w", err)
	}
	return jsonContents(uri, map[string]any{
		"appointment_types": items(resp),
		"total_entries":     resp.TotalEntries,
	})
}
