package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

type practitionerIDInput struct {
	PractitionerID cliniko.ID `json:"practitioner_id"`
}

type businessIDInput struct {
	BusinessID cliniko.ID `json:"business_id"`
}

type appointmentTypeIDInput struct {
	AppointmentTypeID cliniko.ID `json:"appointment_type_id"`
}

// Reference data is what appointments are booked against. Its handlers
// return client failures as errors rather than error results.
func (h *handlers) registerReferenceTools(b *mcp.Builder) {
	b.AddTool(&mcp.Tool{
		Name:        "list_practitioners",
		Description: "List all practitioners",
		Category:    mcp.CategoryReference,
		Keywords:    []string{"staff", "clinicians", "doctors", "therapists"},
		InputSchema: mcp.Object(mcp.PageProps()),
		Handler:     mcp.Typed(h.listPractitioners),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_practitioner",
		Description: "Get a specific practitioner by ID",
		Category:    mcp.CategoryReference,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"practitioner_id": idSchema("Practitioner ID"),
		}, "practitioner_id"),
		Handler: mcp.Typed(h.getPractitioner),
	})

	b.AddTool(&mcp.Tool{
		Name:        "list_appointment_types",
		Description: "List all appointment types",
		Category:    mcp.CategoryReference,
		Keywords:    []string{"services", "treatments"},
		InputSchema: mcp.Object(mcp.PageProps()),
		Handler:     mcp.Typed(h.listAppointmentTypes),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_appointment_type",
		Description: "Get a specific appointment type by ID",
		Category:    mcp.CategoryReference,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"appointment_type_id": idSchema("Appointment type ID"),
		}, "appointment_type_id"),
		Handler: mcp.Typed(h.getAppointmentType),
	})

	b.AddTool(&mcp.Tool{
		Name:        "list_businesses",
		Description: "List all businesses",
		Category:    mcp.CategoryReference,
		Keywords:    []string{"clinics", "locations", "sites"},
		InputSchema: mcp.Object(nil),
		Handler:     h.listBusinesses,
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_business",
		Description: "Get a specific business by ID",
		Category:    mcp.CategoryReference,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"business_id": idSchema("Business ID"),
		}, "business_id"),
		Handler: mcp.Typed(h.getBusiness),
	})
}

func (h *handlers) listPractitioners(ctx context.Context, in pageInput) (*mcp.Result, error) {
	resp, err := h.client.ListPractitioners(ctx, in.options())
	if err != nil {
		return nil, fmt.Errorf("failed to list practitioners: %w", err)
	}
	return listResult("practitioners", resp, in.Page)
}

func (h *handlers) getPractitioner(ctx context.Context, in practitionerIDInput) (*mcp.Result, error) {
	p, err := h.client.GetPractitioner(ctx, in.PractitionerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) listAppointmentTypes(ctx context.Context, in pageInput) (*mcp.Result, error) {
	resp, err := h.client.ListAppointmentTypes(ctx, in.options())
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment types: %w", err)
	}
	return listResult("appointment_types", resp, in.Page)
}

func (h *handlers) getAppointmentType(ctx context.Context, in appointmentTypeIDInput) (*mcp.Result, error) {
	t, err := h.client.GetAppointmentType(ctx, in.AppointmentTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment type: %w", err)
	}
	return mcp.JSONResult(t)
}

func (h *handlers) listBusinesses(ctx context.Context, _ mcp.Args) (*mcp.Result, error) {
	resp, err := h.client.ListBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return listResult("businesses", resp, 1)
}

func (h *handlers) getBusiness(ctx context.Context, in businessIDInput) (*mcp.Result, error) {
	biz, err := h.client.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return mcp.JSONResult(biz)
}
