package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

type listAppointmentsInput struct {
	pageInput
	PatientID      cliniko.ID `json:"patient_id"`
	PractitionerID cliniko.ID `json:"practitioner_id"`
	BusinessID     cliniko.ID `json:"business_id"`
	StartsAt       string     `json:"starts_at"`
	EndsAt         string     `json:"ends_at"`
	Status         string     `json:"status"`
}

type appointmentIDInput struct {
	AppointmentID cliniko.ID `json:"appointment_id"`
}

type updateAppointmentInput struct {
	AppointmentID cliniko.ID `json:"appointment_id"`
	cliniko.AppointmentInput
}

type cancelAppointmentInput struct {
	AppointmentID      cliniko.ID `json:"appointment_id"`
	CancellationReason string     `json:"cancellation_reason"`
}

type availableTimesInput struct {
	BusinessID        cliniko.ID `json:"business_id"`
	PractitionerID    cliniko.ID `json:"practitioner_id"`
	AppointmentTypeID cliniko.ID `json:"appointment_type_id,omitempty"`
	From              string     `json:"from"`
	To                string     `json:"to"`
}

func (h *handlers) registerAppointmentTools(b *mcp.Builder) {
	b.AddTool(&mcp.Tool{
		Name:        "list_appointments",
		Description: "List or search for appointments",
		Category:    mcp.CategoryAppointments,
		Keywords:    []string{"search", "schedule", "bookings", "calendar"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"patient_id":      idSchema("Filter by patient ID"),
			"practitioner_id": idSchema("Filter by practitioner ID"),
			"business_id":     idSchema("Filter by business ID"),
			"starts_at":       mcp.String("Filter appointments starting from (ISO 8601)"),
			"ends_at":         mcp.String("Filter appointments ending before (ISO 8601)"),
			"status":          mcp.String("Filter by status (Active, Cancelled, Did not arrive)"),
		})),
		Handler: mcp.Typed(h.listAppointments),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_appointment",
		Description: "Get a specific appointment by ID",
		Category:    mcp.CategoryAppointments,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"appointment_id": idSchema("Appointment ID"),
		}, "appointment_id"),
		Handler: mcp.Typed(h.getAppointment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "create_appointment",
		Description: "Create a new appointment",
		Category:    mcp.CategoryAppointments,
		Keywords:    []string{"book", "schedule", "new"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"starts_at":           mcp.String("Appointment start time (ISO 8601)"),
			"ends_at":             mcp.String("Appointment end time (ISO 8601)"),
			"patient_id":          idSchema("Patient ID (optional for walk-ins)"),
			"practitioner_id":     idSchema("Practitioner ID"),
			"appointment_type_id": idSchema("Appointment type ID"),
			"business_id":         idSchema("Business ID"),
			"notes":               mcp.String("Appointment notes"),
		}, "starts_at", "practitioner_id", "appointment_type_id", "business_id"),
		Handler: mcp.Typed(h.createAppointment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "update_appointment",
		Description: "Update an existing appointment",
		Category:    mcp.CategoryAppointments,
		Keywords:    []string{"reschedule", "edit", "move"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"appointment_id": idSchema("Appointment ID"),
			"starts_at":      mcp.String("New start time (ISO 8601)"),
			"ends_at":        mcp.String("New end time (ISO 8601)"),
			"notes":          mcp.String("Updated notes"),
			"patient_id":     idSchema("New patient ID"),
		}, "appointment_id"),
		Handler: mcp.Typed(h.updateAppointment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "cancel_appointment",
		Description: "Cancel an appointment",
		Category:    mcp.CategoryAppointments,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"appointment_id":      idSchema("Appointment ID"),
			"cancellation_reason": mcp.String("Reason for cancellation"),
		}, "appointment_id"),
		Handler: mcp.Typed(h.cancelAppointment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "delete_appointment",
		Description: "Delete an appointment completely",
		Category:    mcp.CategoryAppointments,
		Keywords:    []string{"remove"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"appointment_id": idSchema("Appointment ID"),
		}, "appointment_id"),
		Handler: mcp.Typed(h.deleteAppointment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_available_times",
		Description: "Get available appointment times for a practitioner",
		Category:    mcp.CategoryAppointments,
		Keywords:    []string{"availability", "free", "slots", "openings"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"business_id":         idSchema("Business ID"),
			"practitioner_id":     idSchema("Practitioner ID"),
			"appointment_type_id": idSchema("Appointment type ID"),
			"from":                mcp.String("Start date for availability check (YYYY-MM-DD)"),
			"to":                  mcp.String("End date for availability check (YYYY-MM-DD)"),
		}, "business_id", "practitioner_id", "from", "to"),
		Handler: mcp.Typed(h.getAvailableTimes),
	})
}

func (h *handlers) listAppointments(ctx context.Context, in listAppointmentsInput) (*mcp.Result, error) {
	resp, err := h.client.ListAppointments(ctx, cliniko.ListAppointmentsOptions{
		Page:           in.Page,
		PerPage:        in.PerPage,
		PatientID:      in.PatientID,
		PractitionerID: in.PractitionerID,
		BusinessID:     in.BusinessID,
		StartsAt:       in.StartsAt,
		EndsAt:         in.EndsAt,
		Status:         in.Status,
	})
	if err != nil {
		return failed(ctx, "list appointments", err)
	}
	return listResult("appointments", resp, in.Page)
}

func (h *handlers) getAppointment(ctx context.Context, in appointmentIDInput) (*mcp.Result, error) {
	a, err := h.client.GetAppointment(ctx, in.AppointmentID)
	if err != nil {
		return failed(ctx, "get appointment", err)
	}
	return mcp.JSONResult(a)
}

func (h *handlers) createAppointment(ctx context.Context, in cliniko.AppointmentInput) (*mcp.Result, error) {
	a, err := h.client.CreateAppointment(ctx, in)
	if err != nil {
		return failed(ctx, "create appointment", err)
	}
	return mcp.JSONResult(a)
}

func (h *handlers) updateAppointment(ctx context.Context, in updateAppointmentInput) (*mcp.Result, error) {
	a, err := h.client.UpdateAppointment(ctx, in.AppointmentID, in.AppointmentInput)
	if err != nil {
		return failed(ctx, "update appointment", err)
	}
	return mcp.JSONResult(a)
}

func (h *handlers) cancelAppointment(ctx context.Context, in cancelAppointmentInput) (*mcp.Result, error) {
	a, err := h.client.CancelAppointment(ctx, in.AppointmentID, in.CancellationReason)
	if err != nil {
		return failed(ctx, "cancel appointment", err)
	}
	return mcp.JSONResult(a)
}

func (h *handlers) deleteAppointment(ctx context.Context, in appointmentIDInput) (*mcp.Result, error) {
	if err := h.client.DeleteAppointment(ctx, in.AppointmentID); err != nil {
		return failed(ctx, "delete appointment", err)
	}
	return mcp.TextResult(fmt.Sprintf("Appointment %s has been deleted successfully", in.AppointmentID)), nil
}

func (h *handlers) getAvailableTimes(ctx context.Context, in availableTimesInput) (*mcp.Result, error) {
	times, err := h.client.GetAvailableTimes(ctx, cliniko.AvailableTimesOptions{
		BusinessID:        in.BusinessID,
		PractitionerID:    in.PractitionerID,
		AppointmentTypeID: in.AppointmentTypeID,
		From:              in.From,
		To:                in.To,
	})
	if err != nil {
		return failed(ctx, "get available times", err)
	}
	if times == nil {
		times = []cliniko.AvailableTime{}
	}
	return mcp.JSONResult(struct {
		AvailableTimes []cliniko.AvailableTime `json:"available_times"`
		Total          int                     `json:"total"`
		availableTimesInput
	}{times, len(times), in})
}
