package cliniko

import (
	"context"
	"net/http"
	"strings"
)

// ListInvoicesOptions filters ListInvoices. Zero values are omitted.
type ListInvoicesOptions struct {
	Page           int
	PerPage        int
	PatientID      ID
	PractitionerID ID
	IssuedAtFrom   string
	IssuedAtTo     string
	Status         string
}

// InvoiceInput is the body for creating an invoice.
type InvoiceInput struct {
	PatientID      ID                 `json:"patient_id,omitempty"`
	PractitionerID ID                 `json:"practitioner_id,omitempty"`
	BusinessID     ID                 `json:"business_id,omitempty"`
	IssueDate      string             `json:"issue_date,omitempty"`
	Status         string             `json:"status,omitempty"`
	AppointmentIDs []ID               `json:"appointment_ids,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	InvoiceItems   []InvoiceItemInput `json:"invoice_items,omitempty"`
}

// InvoiceUpdate is the body for updating an invoice.
type InvoiceUpdate struct {
	IssueDate string `json:"issue_date,omitempty"`
	Status    string `json:"status,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// InvoiceItemInput is a line item, either nested in InvoiceInput or sent on
// its own.
type InvoiceItemInput struct {
	Description        string   `json:"description,omitempty"`
	UnitPrice          *float64 `json:"unit_price,omitempty"`
	Quantity           *float64 `json:"quantity,omitempty"`
	ProductID          ID       `json:"product_id,omitempty"`
	TaxID              ID       `json:"tax_id,omitempty"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
}

// DateOnly truncates an ISO-8601 date-time to its calendar date:
// "2024-03-15T10:00:00Z" becomes "2024-03-15". Values without a "T" are
// returned unchanged.
func DateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

func (c *Client) ListInvoices(ctx context.Context, opts ListInvoicesOptions) (*ListResponse[Invoice], error) {
	q := new(query).
		int("page", opts.Page).
		int("per_page", opts.PerPage).
		id("patient_id", opts.PatientID).
		id("practitioner_id", opts.PractitionerID).
		str("issued_at_from", opts.IssuedAtFrom).
		str("issued_at_to", opts.IssuedAtTo).
		str("status", opts.Status)
	return list[Invoice](ctx, c, "/invoices", "invoices", q)
}

func (c *Client) GetInvoice(ctx context.Context, id ID) (*Invoice, error) {
	path, err := resourcePath("/invoices", id, "")
	if err != nil {
		return nil, err
	}
	var inv Invoice
	if err := c.getJSON(ctx, path, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice creates an invoice. IssueDate is sent date-only.
func (c *Client) CreateInvoice(ctx context.Context, in InvoiceInput) (*Invoice, error) {
	in.IssueDate = DateOnly(in.IssueDate)
	var inv Invoice
	if err := c.sendJSON(ctx, http.MethodPost, "/invoices", in, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) UpdateInvoice(ctx context.Context, id ID, in InvoiceUpdate) (*Invoice, error) {
	path, err := resourcePath("/invoices", id, "")
	if err != nil {
		return nil, err
	}
	var inv Invoice
	if err := c.sendJSON(ctx, http.MethodPut, path, in, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) DeleteInvoice(ctx context.Context, id ID) error {
	path, err := resourcePath("/invoices", id, "")
	if err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ListPatientInvoices returns the invoices issued to a patient.
func (c *Client) ListPatientInvoices(ctx context.Context, patientID ID, opts PageOptions) (*ListResponse[Invoice], error) {
	path, err := resourcePath("/patients", patientID, "/invoices")
	if err != nil {
		return nil, err
	}
	return list[Invoice](ctx, c, path, "invoices", opts.query())
}

func (c *Client) ListInvoiceItems(ctx context.Context, invoiceID ID, opts PageOptions) (*ListResponse[InvoiceItem], error) {
	path, err := resourcePath("/invoices", invoiceID, "/invoice_items")
	if err != nil {
		return nil, err
	}
	return list[InvoiceItem](ctx, c, path, "invoice_items", opts.query())
}

func (c *Client) CreateInvoiceItem(ctx context.Context, invoiceID ID, in InvoiceItemInput) (*InvoiceItem, error) {
	path, err := resourcePath("/invoices", invoiceID, "/invoice_items")
	if err != nil {
		return nil, err
	}
	var item InvoiceItem
	if err := c.sendJSON(ctx, http.MethodPost, path, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateInvoiceItem(ctx context.Context, itemID ID, in InvoiceItemInput) (*InvoiceItem, error) {
	path, err := resourcePath("/invoice_items", itemID, "")
	if err != nil {
		return nil, err
	}
	var item InvoiceItem
	if err := c.sendJSON(ctx, http.MethodPut, path, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteInvoiceItem(ctx context.Context, itemID ID) error {
	path, err := resourcePath("/invoice_items", itemID, "")
	if err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}
