package tools

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

func TestCreatePayment_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args string
	}{
		{"zero amount", `{"invoice_id": 200, "amount": 0}`},
		{"negative amount", `{"invoice_id": 200, "amount": -5}`},
		{"unknown method", `{"invoice_id": 200, "amount": 10, "payment_method": "bitcoin"}`},
		{"missing invoice", `{"amount": 10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.dispatcher.CallTool(context.Background(), "create_payment", tt.args)
			require.Error(t, err)
			assert.True(t, mcp.IsValidation(err))
		})
	}
}

func TestCreatePayment_SendsBody(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodPost, "/payments", http.StatusCreated, `{"id": 40, "amount": "60.00"}`)

	res := env.call(t, "create_payment", `{"invoice_id": 200, "amount": 60, "payment_method": "eft"}`)
	require.False(t, res.IsError, res.Text())

	body := env.stub.lastBody(t)
	assert.EqualValues(t, 200, body["invoice_id"])
	assert.EqualValues(t, 60, body["amount"])
	assert.Equal(t, "eft", body["payment_method"])
}

func TestListPayments_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/payments", http.StatusOK, `{"payments": [{"id": 40, "amount": 60}], "total_entries": 1, "links": {}}`)

	res := env.call(t, "list_payments", `{"invoice_id": 200}`)
	assert.Equal(t, []string{"200"}, env.stub.last(t).Query["invoice_id"])
	assert.Len(t, env.data(t, res)["payments"], 1)
}

func TestDeletePayment_Failure(t *testing.T) {
	env := newTestEnv(t)

	res := env.call(t, "delete_payment", `{"payment_id": 40}`)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "Failed to delete payment: Cliniko API error (404)")
}

func TestCreateProduct_SendsPrice(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodPost, "/products", http.StatusCreated, `{"id": 300, "name": "Foam Roller", "price": "45.00"}`)

	res := env.call(t, "create_product", `{"name": "Foam Roller", "unit_price": 45, "item_code": "FR-1", "tax_id": 30}`)
	require.False(t, res.IsError, res.Text())

	body := env.stub.lastBody(t)
	assert.EqualValues(t, 45, body["price"])
	assert.NotContains(t, body, "unit_price")
	assert.Equal(t, "FR-1", body["item_code"])
	assert.EqualValues(t, 30, body["tax_id"])
	assert.Contains(t, res.Text(), `"price": "45.00"`)
	assert.NotContains(t, res.Text(), `"unit_price"`)
}

func TestCreateProduct_RejectsNegativePrice(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dispatcher.CallTool(context.Background(), "create_product", `{"name": "Foam Roller", "unit_price": -1}`)
	assert.True(t, mcp.IsValidation(err))
}

func TestUpdateProduct_PartialBody(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodPut, "/products/300", http.StatusOK, `{"id": 300, "name": "Foam Roller XL"}`)

	env.call(t, "update_product", `{"product_id": 300, "name": "Foam Roller XL"}`)
	assert.Equal(t, map[string]any{"name": "Foam Roller XL"}, env.stub.lastBody(t))
}

func TestListProducts_Query(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/products", http.StatusOK, `{"products": [], "total_entries": 0, "links": {}}`)

	env.call(t, "list_products", `{"q": "roller"}`)
	assert.Equal(t, []string{"roller"}, env.stub.last(t).Query["q"])
}

func TestDeleteProduct_Message(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodDelete, "/products/300", http.StatusNoContent, "")

	res := env.call(t, "delete_product", `{"product_id": 300}`)
	assert.Equal(t, "Product 300 has been deleted successfully", res.Text())
}

func TestTaxes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("rate bounded", func(t *testing.T) {
		_, err := env.dispatcher.CallTool(context.Background(), "create_tax", `{"name": "GST", "rate": 101}`)
		assert.True(t, mcp.IsValidation(err))
	})

	t.Run("create", func(t *testing.T) {
		env.stub.on(http.MethodPost, "/taxes", http.StatusCreated, `{"id": 30, "name": "GST", "rate": "10.0"}`)
		res := env.call(t, "create_tax", `{"name": "GST", "rate": 10}`)
		require.False(t, res.IsError, res.Text())
		assert.Equal(t, map[string]any{"name": "GST", "rate": float64(10)}, env.stub.lastBody(t))
	})

	t.Run("list", func(t *testing.T) {
		env.stub.on(http.MethodGet, "/taxes", http.StatusOK, `{"taxes": [{"id": 30, "name": "GST", "rate": 10}], "total_entries": 1, "links": {}}`)
		res := env.call(t, "list_taxes", nil)
		assert.Len(t, env.data(t, res)["taxes"], 1)
	})
}

func TestPatientCases(t *testing.T) {
	env := newTestEnv(t)

	env.stub.on(http.MethodGet, "/patients/1/cases", http.StatusOK, `{"patient_cases": [{"id": 5, "name": "Knee"}], "total_entries": 1, "links": {}}`)
	res := env.call(t, "list_patient_cases", `{"patient_id": 1}`)
	assert.Len(t, env.data(t, res)["patient_cases"], 1)

	env.stub.on(http.MethodGet, "/cases/5", http.StatusOK, `{"id": 5, "name": "Knee"}`)
	res = env.call(t, "get_case", `{"case_id": 5}`)
	assert.Contains(t, res.Text(), `"name": "Knee"`)

	env.stub.on(http.MethodGet, "/cases/5/invoices", http.StatusOK, invoicePage)
	res = env.call(t, "get_case_invoices", `{"case_id": 5, "per_page": 20}`)
	assert.Equal(t, []string{"20"}, env.stub.last(t).Query["per_page"])
	assert.Len(t, env.data(t, res)["invoices"], 2)
}
