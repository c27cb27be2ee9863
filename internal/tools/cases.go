package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

type caseIDInput struct {
	pageInput
	CaseID cliniko.ID `json:"case_id"`
}

func (h *handlers) registerCaseTools(b *mcp.Builder) {
	b.AddTool(&mcp.Tool{
		Name:        "list_patient_cases",
		Description: "List the cases opened for a patient",
		Category:    mcp.CategoryCases,
		Keywords:    []string{"episodes", "claims", "treatment"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"patient_id": idSchema("Patient ID"),
		}), "patient_id"),
		Handler: mcp.Typed(h.listPatientCases),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_case",
		Description: "Get a specific patient case by ID",
		Category:    mcp.CategoryCases,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"case_id": idSchema("Case ID"),
		}, "case_id"),
		Handler: mcp.Typed(h.getCase),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_case_invoices",
		Description: "Get the invoices billed against a patient case",
		Category:    mcp.CategoryCases,
		Keywords:    []string{"billing"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"case_id": idSchema("Case ID"),
		}), "case_id"),
		Handler: mcp.Typed(h.getCaseInvoices),
	})
}

func (h *handlers) listPatientCases(ctx context.Context, in patientPageInput) (*mcp.Result, error) {
	resp, err := h.client.ListPatientCases(ctx, in.PatientID, in.options())
	if err != nil {
		return failed(ctx, "list patient cases", err)
	}
	return listResult("patient_cases", resp, in.Page)
}

func (h *handlers) getCase(ctx context.Context, in caseIDInput) (*mcp.Result, error) {
	pc, err := h.client.GetCase(ctx, in.CaseID)
	if err != nil {
		return failed(ctx, "get case", err)
	}
	return mcp.JSONResult(pc)
}

func (h *handlers) getCaseInvoices(ctx context.Context, in caseIDInput) (*mcp.Result, error) {
	resp, err := h.client.ListCaseInvoices(ctx, in.CaseID, in.options())
	if err != nil {
		return failed(ctx, "get case invoices", err)
	}
	return listResult("invoices", resp, in.Page)
}
