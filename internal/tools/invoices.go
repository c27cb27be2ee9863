package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

type listInvoicesInput struct {
	pageInput
	PatientID      cliniko.ID `json:"patient_id"`
	PractitionerID cliniko.ID `json:"practitioner_id"`
	IssuedAtFrom   string     `json:"issued_at_from"`
	IssuedAtTo     string     `json:"issued_at_to"`
	Status         string     `json:"status"`
}

type invoiceIDInput struct {
	InvoiceID cliniko.ID `json:"invoice_id"`
}

type updateInvoiceInput struct {
	InvoiceID cliniko.ID `json:"invoice_id"`
	cliniko.InvoiceUpdate
}

type patientPageInput struct {
	pageInput
	PatientID cliniko.ID `json:"patient_id"`
}

type listInvoiceItemsInput struct {
	pageInput
	InvoiceID cliniko.ID `json:"invoice_id"`
}

type createInvoiceItemInput struct {
	InvoiceID cliniko.ID `json:"invoice_id"`
	cliniko.InvoiceItemInput
}

type invoiceItemIDInput struct {
	InvoiceItemID cliniko.ID `json:"invoice_item_id"`
}

type updateInvoiceItemInput struct {
	InvoiceItemID cliniko.ID `json:"invoice_item_id"`
	cliniko.InvoiceItemInput
}

func invoiceStatusSchema(desc string) *jsonschema.Schema {
	return mcp.Enum(desc, cliniko.InvoiceStatuses...)
}

// invoiceItemProps describes an invoice line item.
func invoiceItemProps() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"description":         mcp.String("Line item description"),
		"unit_price":          mcp.Number("Price per unit"),
		"quantity":            mcp.Min(mcp.Number("Quantity (default 1)"), 0),
		"product_id":          idSchema("Product ID, to bill a stocked product"),
		"tax_id":              idSchema("Tax ID applied to the item"),
		"discount_percentage": mcp.Between(mcp.Number("Discount percentage"), 0, 100),
	}
}

const howToCreateInvoices = `HOW TO CREATE INVOICES IN CLINIKO

With this server:
1. Find the patient, practitioner and business (list_patients,
   list_practitioners, list_businesses)
2. Call create_invoice with patient_id and practitioner_id, and either
   appointment_ids to bill booked appointments or invoice_items for
   custom lines
3. Add or change lines later with create_invoice_item and
   update_invoice_item
4. Record payments against the invoice with create_payment

The Cliniko account decides whether an invoice write is accepted. If a
call is rejected, the error from Cliniko is returned as text.

In the Cliniko web interface:
- From an appointment: open the appointment and choose "Create Invoice"
- In bulk: Invoices > Bulk Invoice, pick a date range and appointments
- Manually: Invoices > New Invoice, pick patient and practitioner, add
  appointments or line items, set payment terms and save

To review what exists for a day, use display_invoices_for_date.`

func (h *handlers) registerInvoiceTools(b *mcp.Builder) {
	b.AddTool(&mcp.Tool{
		Name:        "list_invoices",
		Description: "List invoices with filtering options",
		Category:    mcp.CategoryInvoices,
		Keywords:    []string{"billing", "search"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"patient_id":      idSchema("Filter by patient ID"),
			"practitioner_id": idSchema("Filter by practitioner ID"),
			"issued_at_from":  mcp.String("Filter from date (YYYY-MM-DD)"),
			"issued_at_to":    mcp.String("Filter to date (YYYY-MM-DD)"),
			"status":          invoiceStatusSchema("Filter by status"),
		})),
		Handler: mcp.Typed(h.listInvoices),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_invoice",
		Description: "Get details of a specific invoice",
		Category:    mcp.CategoryInvoices,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"invoice_id": idSchema("Invoice ID"),
		}, "invoice_id"),
		Handler: mcp.Typed(h.getInvoice),
	})

	b.AddTool(&mcp.Tool{
		Name:        "create_invoice",
		Description: "Create an invoice for a patient, billing appointments or custom line items",
		Category:    mcp.CategoryInvoices,
		Keywords:    []string{"bill", "charge", "new"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"patient_id":      idSchema("Patient ID"),
			"practitioner_id": idSchema("Practitioner ID"),
			"business_id":     idSchema("Business ID"),
			"issue_date":      mcp.String("Issue date (YYYY-MM-DD). A date-time is truncated to its date."),
			"status":          invoiceStatusSchema("Initial status"),
			"appointment_ids": mcp.Array("Appointments to bill", idSchema("Appointment ID")),
			"notes":           mcp.String("Invoice notes"),
			"invoice_items": mcp.Array("Custom line items",
				mcp.Object(invoiceItemProps(), "description", "unit_price")),
		}, "patient_id", "practitioner_id"),
		Handler: mcp.Typed(h.createInvoice),
	})

	b.AddTool(&mcp.Tool{
		Name:        "update_invoice",
		Description: "Update an invoice's issue date, status or notes",
		Category:    mcp.CategoryInvoices,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"invoice_id": idSchema("Invoice ID"),
			"issue_date": mcp.String("Issue date (YYYY-MM-DD)"),
			"status":     invoiceStatusSchema("New status"),
			"notes":      mcp.String("Invoice notes"),
		}, "invoice_id"),
		Handler: mcp.Typed(h.updateInvoice),
	})

	b.AddTool(&mcp.Tool{
		Name:        "delete_invoice",
		Description: "Delete an invoice",
		Category:    mcp.CategoryInvoices,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"invoice_id": idSchema("Invoice ID"),
		}, "invoice_id"),
		Handler: mcp.Typed(h.deleteInvoice),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_patient_invoices",
		Description: "Get invoices for a specific patient",
		Category:    mcp.CategoryInvoices,
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"patient_id": idSchema("Patient ID"),
		}), "patient_id"),
		Handler: mcp.Typed(h.getPatientInvoices),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_appointment_invoices",
		Description: "Get invoices for a specific appointment",
		Category:    mcp.CategoryInvoices,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"appointment_id": idSchema("Appointment ID"),
		}, "appointment_id"),
		Handler: mcp.Typed(h.getAppointmentInvoices),
	})

	b.AddTool(&mcp.Tool{
		Name:        "how_to_create_invoices",
		Description: "Get instructions on how to create invoices in Cliniko",
		Category:    mcp.CategoryInvoices,
		Keywords:    []string{"help", "guide", "instructions"},
		InputSchema: mcp.Object(nil),
		Handler: func(context.Context, mcp.Args) (*mcp.Result, error) {
			return mcp.TextResult(howToCreateInvoices), nil
		},
	})

	b.AddTool(&mcp.Tool{
		Name:        "list_invoice_items",
		Description: "List items in an invoice",
		Category:    mcp.CategoryInvoices,
		Keywords:    []string{"line items"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"invoice_id": idSchema("Invoice ID"),
		}), "invoice_id"),
		Handler: mcp.Typed(h.listInvoiceItems),
	})

	b.AddTool(&mcp.Tool{
		Name:        "create_invoice_item",
		Description: "Add a line item to an invoice",
		Category:    mcp.CategoryInvoices,
		Keywords:    []string{"line items", "add"},
		InputSchema: mcp.Object(mcp.With(invoiceItemProps(), map[string]*jsonschema.Schema{
			"invoice_id": idSchema("Invoice ID"),
		}), "invoice_id", "description", "unit_price"),
		Handler: mcp.Typed(h.createInvoiceItem),
	})

	b.AddTool(&mcp.Tool{
		Name:        "update_invoice_item",
		Description: "Update an invoice line item",
		Category:    mcp.CategoryInvoices,
		Keywords:    []string{"line items", "edit"},
		InputSchema: mcp.Object(mcp.With(invoiceItemProps(), map[string]*jsonschema.Schema{
			"invoice_item_id": idSchema("Invoice item ID"),
		}), "invoice_item_id"),
		Handler: mcp.Typed(h.updateInvoiceItem),
	})

	b.AddTool(&mcp.Tool{
		Name:        "delete_invoice_item",
		Description: "Remove a line item from an invoice",
		Category:    mcp.CategoryInvoices,
		Keywords:    []string{"line items", "remove"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"invoice_item_id": idSchema("Invoice item ID"),
		}, "invoice_item_id"),
		Handler: mcp.Typed(h.deleteInvoiceItem),
	})
}

func invoiceNumber(inv cliniko.Invoice) string {
	if inv.InvoiceNumber != "" {
		return inv.InvoiceNumber
	}
	return inv.ID.String()
}

func refName(ref *cliniko.Ref) string {
	if ref == nil || ref.Name == "" {
		return "Unknown"
	}
	return ref.Name
}

// textWithData returns a text result that also carries v as Data.
func textWithData(text string, v any) *mcp.Result {
	res := mcp.TextResult(text)
	res.Data = v
	return res
}

func (h *handlers) listInvoices(ctx context.Context, in listInvoicesInput) (*mcp.Result, error) {
	resp, err := h.client.ListInvoices(ctx, cliniko.ListInvoicesOptions{
		Page:           in.Page,
		PerPage:        in.PerPage,
		PatientID:      in.PatientID,
		PractitionerID: in.PractitionerID,
		IssuedAtFrom:   in.IssuedAtFrom,
		IssuedAtTo:     in.IssuedAtTo,
		Status:         in.Status,
	})
	if err != nil {
		return failed(ctx, "list invoices", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d invoices", len(resp.Items))
	if resp.TotalEntries > 0 {
		fmt.Fprintf(&b, " (%d total)", resp.TotalEntries)
	}
	b.WriteString(":\n")
	for _, inv := range resp.Items {
		fmt.Fprintf(&b, "\n- Invoice #%s: %s - %s ($%.2f)", invoiceNumber(inv), refName(inv.Patient), inv.Status, float64(inv.Total))
	}
	return textWithData(b.String(), pageData("invoices", resp, in.Page)), nil
}

func (h *handlers) getInvoice(ctx context.Context, in invoiceIDInput) (*mcp.Result, error) {
	inv, err := h.client.GetInvoice(ctx, in.InvoiceID)
	if err != nil {
		return failed(ctx, "get invoice", err)
	}
	text := fmt.Sprintf("Invoice #%s:\n- Patient: %s\n- Practitioner: %s\n- Status: %s\n- Issue Date: %s\n- Total: $%.2f\n- Items: %d items",
		invoiceNumber(*inv), refName(inv.Patient), refName(inv.Practitioner), inv.Status, inv.IssuedAt, float64(inv.Total), len(inv.InvoiceItems))
	return textWithData(text, inv), nil
}

func (h *handlers) createInvoice(ctx context.Context, in cliniko.InvoiceInput) (*mcp.Result, error) {
	inv, err := h.client.CreateInvoice(ctx, in)
	if err != nil {
		return failed(ctx, "create invoice", err)
	}
	return mcp.JSONResult(inv)
}

func (h *handlers) updateInvoice(ctx context.Context, in updateInvoiceInput) (*mcp.Result, error) {
	inv, err := h.client.UpdateInvoice(ctx, in.InvoiceID, in.InvoiceUpdate)
	if err != nil {
		return failed(ctx, "update invoice", err)
	}
	return mcp.JSONResult(inv)
}

func (h *handlers) deleteInvoice(ctx context.Context, in invoiceIDInput) (*mcp.Result, error) {
	if err := h.client.DeleteInvoice(ctx, in.InvoiceID); err != nil {
		return failed(ctx, "delete invoice", err)
	}
	return mcp.TextResult(fmt.Sprintf("Invoice %s has been deleted successfully", in.InvoiceID)), nil
}

func (h *handlers) getPatientInvoices(ctx context.Context, in patientPageInput) (*mcp.Result, error) {
	resp, err := h.client.ListPatientInvoices(ctx, in.PatientID, in.options())
	if err != nil {
		return failed(ctx, "get patient invoices", err)
	}
	data := pageData("invoices", resp, in.Page)
	if len(resp.Items) == 0 {
		return textWithData(fmt.Sprintf("No invoices found for patient %s. Create one with create_invoice or in the Cliniko web interface.", in.PatientID), data), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d invoice(s) for patient %s:\n", len(resp.Items), in.PatientID)
	for _, inv := range resp.Items {
		fmt.Fprintf(&b, "\n- Invoice #%s: %s - %s ($%.2f)", invoiceNumber(inv), inv.IssuedAt, inv.Status, float64(inv.Total))
	}
	return textWithData(b.String(), data), nil
}

func (h *handlers) getAppointmentInvoices(ctx context.Context, in appointmentIDInput) (*mcp.Result, error) {
	resp, err := h.client.ListAppointmentInvoices(ctx, in.AppointmentID)
	if err != nil {
		return failed(ctx, "get appointment invoices", err)
	}
	data := pageData("invoices", resp, 1)
	if len(resp.Items) == 0 {
		return textWithData(fmt.Sprintf("No invoices found for appointment %s. Create one with create_invoice or in the Cliniko web interface.", in.AppointmentID), data), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d invoice(s) for appointment %s:\n", len(resp.Items), in.AppointmentID)
	for _, inv := range resp.Items {
		fmt.Fprintf(&b, "\n- Invoice #%s: %s ($%.2f)", invoiceNumber(inv), inv.Status, float64(inv.Total))
	}
	return textWithData(b.String(), data), nil
}

func (h *handlers) listInvoiceItems(ctx context.Context, in listInvoiceItemsInput) (*mcp.Result, error) {
	resp, err := h.client.ListInvoiceItems(ctx, in.InvoiceID, in.options())
	if err != nil {
		return failed(ctx, "list invoice items", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Invoice #%s has %d items:\n", in.InvoiceID, len(resp.Items))
	for _, item := range resp.Items {
		fmt.Fprintf(&b, "\n- %s: $%.2f x %g = $%.2f", item.Description, float64(item.UnitPrice), float64(item.Quantity), float64(item.TotalAmount))
	}
	return textWithData(b.String(), pageData("invoice_items", resp, in.Page)), nil
}

func (h *handlers) createInvoiceItem(ctx context.Context, in createInvoiceItemInput) (*mcp.Result, error) {
	item, err := h.client.CreateInvoiceItem(ctx, in.InvoiceID, in.InvoiceItemInput)
	if err != nil {
		return failed(ctx, "create invoice item", err)
	}
	return mcp.JSONResult(item)
}

func (h *handlers) updateInvoiceItem(ctx context.Context, in updateInvoiceItemInput) (*mcp.Result, error) {
	item, err := h.client.UpdateInvoiceItem(ctx, in.InvoiceItemID, in.InvoiceItemInput)
	if err != nil {
		return failed(ctx, "update invoice item", err)
	}
	return mcp.JSONResult(item)
}

func (h *handlers) deleteInvoiceItem(ctx context.Context, in invoiceItemIDInput) (*mcp.Result, error) {
	if err := h.client.DeleteInvoiceItem(ctx, in.InvoiceItemID); err != nil {
		return failed(ctx, "delete invoice item", err)
	}
	return mcp.TextResult(fmt.Sprintf("Invoice item %s has been deleted successfully", in.InvoiceItemID)), nil
}
