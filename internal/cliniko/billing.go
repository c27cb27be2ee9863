package cliniko

import (
	"context"
	"net/http"
)

// ListPaymentsOptions filters ListPayments. Zero values are omitted.
type ListPaymentsOptions struct {
	Page      int
	PerPage   int
	PatientID ID
	InvoiceID ID
}

// PaymentInput is the body for recording a payment.
type PaymentInput struct {
	InvoiceID     ID      `json:"invoice_id,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	PaidAt        string  `json:"paid_at,omitempty"`
	Reference     string  `json:"reference,omitempty"`
}

// ListProductsOptions filters ListProducts. Zero values are omitted.
type ListProductsOptions struct {
	Q       string
	Page    int
	PerPage int
}

// ProductInput is the writable subset of a product. UnitPrice is sent to
// the API as "price".
type ProductInput struct {
	Name        string
	ItemCode    string
	UnitPrice   *float64
	Description string
	TaxID       ID
}

// Payload renders the request body, renaming unit_price to price.
func (p ProductInput) Payload() map[string]any {
	out := make(map[string]any, 5)
	if p.Name != "" {
		out["name"] = p.Name
	}
	if p.ItemCode != "" {
		out["item_code"] = p.ItemCode
	}
	if p.UnitPrice != nil {
		out["price"] = *p.UnitPrice
	}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if p.TaxID != 0 {
		out["tax_id"] = p.TaxID
	}
	return out
}

// TaxInput is the body for creating a tax.
type TaxInput struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

func (c *Client) ListPayments(ctx context.Context, opts ListPaymentsOptions) (*ListResponse[Payment], error) {
	q := new(query).
		int("page", opts.Page).
		int("per_page", opts.PerPage).
		id("patient_id", opts.PatientID).
		id("invoice_id", opts.InvoiceID)
	return list[Payment](ctx, c, "/payments", "payments", q)
}

func (c *Client) GetPayment(ctx context.Context, id ID) (*Payment, error) {
	path, err := resourcePath("/payments", id, "")
	if err != nil {
		return nil, err
	}
	var p Payment
	if err := c.getJSON(ctx, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePayment(ctx context.Context, in PaymentInput) (*Payment, error) {
	var p Payment
	if err := c.sendJSON(ctx, http.MethodPost, "/payments", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePayment(ctx context.Context, id ID) error {
	path, err := resourcePath("/payments", id, "")
	if err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context, opts ListProductsOptions) (*ListResponse[Product], error) {
	q := new(query).str("q", opts.Q).int("page", opts.Page).int("per_page", opts.PerPage)
	return list[Product](ctx, c, "/products", "products", q)
}

func (c *Client) GetProduct(ctx context.Context, id ID) (*Product, error) {
	path, err := resourcePath("/products", id, "")
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.getJSON(ctx, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var p Product
	if err := c.sendJSON(ctx, http.MethodPost, "/products", in.Payload(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id ID, in ProductInput) (*Product, error) {
	path, err := resourcePath("/products", id, "")
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.sendJSON(ctx, http.MethodPut, path, in.Payload(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id ID) error {
	path, err := resourcePath("/products", id, "")
	if err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListTaxes(ctx context.Context, opts PageOptions) (*ListResponse[Tax], error) {
	return list[Tax](ctx, c, "/taxes", "taxes", opts.query())
}

func (c *Client) CreateTax(ctx context.Context, in TaxInput) (*Tax, error) {
	var t Tax
	if err := c.sendJSON(ctx, http.MethodPost, "/taxes", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
