package cliniko

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remotePatient = `{"id": 1, "first_name": "Jane", "last_name": "Smith", "occupation": "Nurse", "notes": "prefers mornings", "patient_phone_numbers": [{"number": "0400 000 000", "phone_type": "Mobile"}], "address_1": "1 Test St"}`

func TestGetPatient_MarshalsAsReceived(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, remotePatient)
	c := newTestClient(t, api)

	p, err := c.GetPatient(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.FirstName)
	assert.JSONEq(t, remotePatient, string(p.Raw()))

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, remotePatient, string(out))
}

func TestListPatients_ItemsMarshalAsReceived(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"patients": [`+remotePatient+`], "total_entries": 1, "links": {}}`)
	c := newTestClient(t, api)

	resp, err := c.ListPatients(context.Background(), ListPatientsOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	out, err := json.Marshal(resp.Items)
	require.NoError(t, err)
	assert.JSONEq(t, `[`+remotePatient+`]`, string(out))

	var m []map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.NotContains(t, m[0], "archived")
	assert.NotContains(t, m[0], "links")
}

func TestCreateInvoice_EchoKeepsUnmodelledFields(t *testing.T) {
	body := `{"id": 7, "status": "draft", "reference": "REF-1", "invoice_items": [{"id": 1, "description": "Consult", "code": "C1"}]}`
	api := newFakeAPI(t, http.StatusCreated, body)
	c := newTestClient(t, api)

	inv, err := c.CreateInvoice(context.Background(), InvoiceInput{PatientID: 2})
	require.NoError(t, err)

	out, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestRecordBuiltInCode_MarshalsFromFields(t *testing.T) {
	out, err := json.Marshal(Tax{ID: 3, Name: "GST", Rate: 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 3, "name": "GST", "rate": 10, "links": {}}`, string(out))
}

func TestGetAvailableTimes_ItemsMarshalAsReceived(t *testing.T) {
	body := `{"available_times": [{"appointment_start": "2024-03-15T09:00:00Z", "practitioner_name": "Sarah"}], "total_entries": 1}`
	api := newFakeAPI(t, http.StatusOK, body)
	c := newTestClient(t, api)

	times, err := c.GetAvailableTimes(context.Background(), AvailableTimesOptions{BusinessID: 20, PractitionerID: 1})
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.Equal(t, "2024-03-15T09:00:00Z", times[0].StartsAt)

	out, err := json.Marshal(times[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"appointment_start": "2024-03-15T09:00:00Z", "practitioner_name": "Sarah"}`, string(out))
}
