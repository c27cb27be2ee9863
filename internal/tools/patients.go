package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

type listPatientsInput struct {
	pageInput
	Q string `json:"q"`
}

type patientIDInput struct {
	PatientID cliniko.ID `json:"patient_id"`
}

type updatePatientInput struct {
	PatientID cliniko.ID `json:"patient_id"`
	cliniko.PatientInput
}

// patientProps describes the writable patient fields.
func patientProps() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"first_name":                mcp.String("Patient first name"),
		"last_name":                 mcp.String("Patient last name"),
		"title":                     mcp.String("Title (Mr, Ms, Dr, etc)"),
		"preferred_name":            mcp.String("Preferred name"),
		"date_of_birth":             mcp.String("Date of birth (YYYY-MM-DD)"),
		"sex":                       mcp.Enum("Biological sex", "Male", "Female", "Other"),
		"email":                     mcp.String("Email address"),
		"phone_number":              mcp.String("Primary phone number, stored as a mobile"),
		"address_line_1":            mcp.String("Address line 1"),
		"address_line_2":            mcp.String("Address line 2"),
		"suburb":                    mcp.String("Suburb/City"),
		"postcode":                  mcp.String("Postcode"),
		"state":                     mcp.String("State/Province"),
		"country":                   mcp.String("Country"),
		"medicare_number":           mcp.String("Medicare number"),
		"medicare_reference_number": mcp.String("Medicare reference number"),
	}
}

func (h *handlers) registerPatientTools(b *mcp.Builder) {
	b.AddTool(&mcp.Tool{
		Name:        "list_patients",
		Description: "List or search for patients",
		Category:    mcp.CategoryPatients,
		Keywords:    []string{"search", "find", "people"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"q": mcp.String("Search query (searches name, email, phone)"),
		})),
		Handler: mcp.Typed(h.listPatients),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_patient",
		Description: "Get a specific patient by ID",
		Category:    mcp.CategoryPatients,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"patient_id": idSchema("Patient ID"),
		}, "patient_id"),
		Handler: mcp.Typed(h.getPatient),
	})

	b.AddTool(&mcp.Tool{
		Name:        "create_patient",
		Description: "Create a new patient",
		Category:    mcp.CategoryPatients,
		Keywords:    []string{"add", "new", "register"},
		InputSchema: mcp.Object(patientProps(), "first_name", "last_name"),
		Handler:     mcp.Typed(h.createPatient),
	})

	b.AddTool(&mcp.Tool{
		Name:        "update_patient",
		Description: "Update an existing patient. Only the fields given are changed.",
		Category:    mcp.CategoryPatients,
		Keywords:    []string{"edit", "modify"},
		InputSchema: mcp.Object(mcp.With(patientProps(), map[string]*jsonschema.Schema{
			"patient_id": idSchema("Patient ID"),
		}), "patient_id"),
		Handler: mcp.Typed(h.updatePatient),
	})

	b.AddTool(&mcp.Tool{
		Name:        "delete_patient",
		Description: "Delete (archive) a patient",
		Category:    mcp.CategoryPatients,
		Keywords:    []string{"archive", "remove"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"patient_id": idSchema("Patient ID"),
		}, "patient_id"),
		Handler: mcp.Typed(h.deletePatient),
	})
}

func (h *handlers) listPatients(ctx context.Context, in listPatientsInput) (*mcp.Result, error) {
	resp, err := h.client.ListPatients(ctx, cliniko.ListPatientsOptions{Q: in.Q, Page: in.Page, PerPage: in.PerPage})
	if err != nil {
		return failed(ctx, "list patients", err)
	}
	return listResult("patients", resp, in.Page)
}

func (h *handlers) getPatient(ctx context.Context, in patientIDInput) (*mcp.Result, error) {
	p, err := h.client.GetPatient(ctx, in.PatientID)
	if err != nil {
		return failed(ctx, "get patient", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) createPatient(ctx context.Context, in cliniko.PatientInput) (*mcp.Result, error) {
	p, err := h.client.CreatePatient(ctx, in)
	if err != nil {
		return failed(ctx, "create patient", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) updatePatient(ctx context.Context, in updatePatientInput) (*mcp.Result, error) {
	p, err := h.client.UpdatePatient(ctx, in.PatientID, in.PatientInput)
	if err != nil {
		return failed(ctx, "update patient", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) deletePatient(ctx context.Context, in patientIDInput) (*mcp.Result, error) {
	if err := h.client.DeletePatient(ctx, in.PatientID); err != nil {
		return failed(ctx, "delete patient", err)
	}
	return mcp.TextResult(fmt.Sprintf("Patient %s has been archived successfully", in.PatientID)), nil
}
