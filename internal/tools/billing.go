package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

type listPaymentsInput struct {
	pageInput
	PatientID cliniko.ID `json:"patient_id"`
	InvoiceID cliniko.ID `json:"invoice_id"`
}

type paymentIDInput struct {
	PaymentID cliniko.ID `json:"payment_id"`
}

type listProductsInput struct {
	pageInput
	Q string `json:"q"`
}

type productIDInput struct {
	ProductID cliniko.ID `json:"product_id"`
}

type productFields struct {
	Name        string     `json:"name"`
	ItemCode    string     `json:"item_code"`
	UnitPrice   *float64   `json:"unit_price"`
	Description string     `json:"description"`
	TaxID       cliniko.ID `json:"tax_id"`
}

func (f productFields) input() cliniko.ProductInput {
	return cliniko.ProductInput{
		Name:        f.Name,
		ItemCode:    f.ItemCode,
		UnitPrice:   f.UnitPrice,
		Description: f.Description,
		TaxID:       f.TaxID,
	}
}

type updateProductInput struct {
	ProductID cliniko.ID `json:"product_id"`
	productFields
}

func positive(s *jsonschema.Schema) *jsonschema.Schema {
	zero := 0.0
	s.ExclusiveMinimum = &zero
	return s
}

func productProps() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"name":        mcp.String("Product name"),
		"item_code":   mcp.String("Item code or SKU"),
		"unit_price":  mcp.Min(mcp.Number("Price per unit"), 0),
		"description": mcp.String("Product description"),
		"tax_id":      idSchema("Tax applied to the product"),
	}
}

func (h *handlers) registerBillingTools(b *mcp.Builder) {
	b.AddTool(&mcp.Tool{
		Name:        "list_payments",
		Description: "List payments, optionally filtered by patient or invoice",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"receipts", "paid"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"patient_id": idSchema("Filter by patient ID"),
			"invoice_id": idSchema("Filter by invoice ID"),
		})),
		Handler: mcp.Typed(h.listPayments),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_payment",
		Description: "Get a specific payment by ID",
		Category:    mcp.CategoryBilling,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"payment_id": idSchema("Payment ID"),
		}, "payment_id"),
		Handler: mcp.Typed(h.getPayment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "create_payment",
		Description: "Record a payment against an invoice",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"pay", "receipt", "record"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"invoice_id":     idSchema("Invoice ID"),
			"amount":         positive(mcp.Number("Amount paid")),
			"payment_method": mcp.Enum("Payment method", cliniko.PaymentMethods...),
			"paid_at":        mcp.String("When the payment was made (ISO 8601)"),
			"reference":      mcp.String("Payment reference"),
		}, "invoice_id", "amount"),
		Handler: mcp.Typed(h.createPayment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "delete_payment",
		Description: "Delete a payment",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"refund", "remove"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"payment_id": idSchema("Payment ID"),
		}, "payment_id"),
		Handler: mcp.Typed(h.deletePayment),
	})

	b.AddTool(&mcp.Tool{
		Name:        "list_products",
		Description: "List or search stocked products",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"inventory", "stock", "items"},
		InputSchema: mcp.Object(mcp.With(mcp.PageProps(), map[string]*jsonschema.Schema{
			"q": mcp.String("Search query"),
		})),
		Handler: mcp.Typed(h.listProducts),
	})

	b.AddTool(&mcp.Tool{
		Name:        "get_product",
		Description: "Get a specific product by ID",
		Category:    mcp.CategoryBilling,
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"product_id": idSchema("Product ID"),
		}, "product_id"),
		Handler: mcp.Typed(h.getProduct),
	})

	b.AddTool(&mcp.Tool{
		Name:        "create_product",
		Description: "Create a product",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"inventory", "stock", "new"},
		InputSchema: mcp.Object(productProps(), "name", "unit_price"),
		Handler:     mcp.Typed(h.createProduct),
	})

	b.AddTool(&mcp.Tool{
		Name:        "update_product",
		Description: "Update a product. Only the fields given are changed.",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"inventory", "edit", "price"},
		InputSchema: mcp.Object(mcp.With(productProps(), map[string]*jsonschema.Schema{
			"product_id": idSchema("Product ID"),
		}), "product_id"),
		Handler: mcp.Typed(h.updateProduct),
	})

	b.AddTool(&mcp.Tool{
		Name:        "delete_product",
		Description: "Delete a product",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"inventory", "remove"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"product_id": idSchema("Product ID"),
		}, "product_id"),
		Handler: mcp.Typed(h.deleteProduct),
	})

	b.AddTool(&mcp.Tool{
		Name:        "list_taxes",
		Description: "List configured taxes",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"gst", "vat", "rates"},
		InputSchema: mcp.Object(mcp.PageProps()),
		Handler:     mcp.Typed(h.listTaxes),
	})

	b.AddTool(&mcp.Tool{
		Name:        "create_tax",
		Description: "Create a tax with a percentage rate",
		Category:    mcp.CategoryBilling,
		Keywords:    []string{"gst", "vat"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"name": mcp.String("Tax name"),
			"rate": mcp.Between(mcp.Number("Rate as a percentage"), 0, 100),
		}, "name", "rate"),
		Handler: mcp.Typed(h.createTax),
	})
}

func (h *handlers) listPayments(ctx context.Context, in listPaymentsInput) (*mcp.Result, error) {
	resp, err := h.client.ListPayments(ctx, cliniko.ListPaymentsOptions{
		Page:      in.Page,
		PerPage:   in.PerPage,
		PatientID: in.PatientID,
		InvoiceID: in.InvoiceID,
	})
	if err != nil {
		return failed(ctx, "list payments", err)
	}
	return listResult("payments", resp, in.Page)
}

func (h *handlers) getPayment(ctx context.Context, in paymentIDInput) (*mcp.Result, error) {
	p, err := h.client.GetPayment(ctx, in.PaymentID)
	if err != nil {
		return failed(ctx, "get payment", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) createPayment(ctx context.Context, in cliniko.PaymentInput) (*mcp.Result, error) {
	p, err := h.client.CreatePayment(ctx, in)
	if err != nil {
		return failed(ctx, "create payment", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) deletePayment(ctx context.Context, in paymentIDInput) (*mcp.Result, error) {
	if err := h.client.DeletePayment(ctx, in.PaymentID); err != nil {
		return failed(ctx, "delete payment", err)
	}
	return mcp.TextResult(fmt.Sprintf("Payment %s has been deleted successfully", in.PaymentID)), nil
}

func (h *handlers) listProducts(ctx context.Context, in listProductsInput) (*mcp.Result, error) {
	resp, err := h.client.ListProducts(ctx, cliniko.ListProductsOptions{Q: in.Q, Page: in.Page, PerPage: in.PerPage})
	if err != nil {
		return failed(ctx, "list products", err)
	}
	return listResult("products", resp, in.Page)
}

func (h *handlers) getProduct(ctx context.Context, in productIDInput) (*mcp.Result, error) {
	p, err := h.client.GetProduct(ctx, in.ProductID)
	if err != nil {
		return failed(ctx, "get product", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) createProduct(ctx context.Context, in productFields) (*mcp.Result, error) {
	p, err := h.client.CreateProduct(ctx, in.input())
	if err != nil {
		return failed(ctx, "create product", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) updateProduct(ctx context.Context, in updateProductInput) (*mcp.Result, error) {
	p, err := h.client.UpdateProduct(ctx, in.ProductID, in.input())
	if err != nil {
		return failed(ctx, "update product", err)
	}
	return mcp.JSONResult(p)
}

func (h *handlers) deleteProduct(ctx context.Context, in productIDInput) (*mcp.Result, error) {
	if err := h.client.DeleteProduct(ctx, in.ProductID); err != nil {
		return failed(ctx, "delete product", err)
	}
	return mcp.TextResult(fmt.Sprintf("Product %s has been deleted successfully", in.ProductID)), nil
}

func (h *handlers) listTaxes(ctx context.Context, in pageInput) (*mcp.Result, error) {
	resp, err := h.client.ListTaxes(ctx, in.options())
	if err != nil {
		return failed(ctx, "list taxes", err)
	}
	return listResult("taxes", resp, in.Page)
}

func (h *handlers) createTax(ctx context.Context, in cliniko.TaxInput) (*mcp.Result, error) {
	t, err := h.client.CreateTax(ctx, in)
	if err != nil {
		return failed(ctx, "create tax", err)
	}
	return mcp.JSONResult(t)
}
