package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/workflows"
)

type stubReply struct {
	status int
	body   string
}

type stubRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   []byte
}

// clinikoStub answers "METHOD /path" routes with canned replies and
// records every request. Unrouted requests get a 404.
type clinikoStub struct {
	*httptest.Server
	mu       sync.Mutex
	routes   map[string]stubReply
	requests []stubRequest
}

func newStub(t *testing.T) *clinikoStub {
	t.Helper()
	s := &clinikoStub{routes: map[string]stubReply{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, stubRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: data})
		reply, ok := s.routes[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if !ok {
			reply = stubReply{status: http.StatusNotFound, body: `{"errors":"not found"}`}
		}
		w.WriteHeader(reply.status)
		_, _ = io.WriteString(w, reply.body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *clinikoStub) on(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = stubReply{status: status, body: body}
}

func (s *clinikoStub) last(t *testing.T) stubRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests, "no request recorded")
	return s.requests[len(s.requests)-1]
}

func (s *clinikoStub) lastBody(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(s.last(t).Body, &m))
	return m
}

var fixedNow = time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	stub       *clinikoStub
	dispatcher *mcp.Dispatcher
	registry   *mcp.Registry
	logger     *logging.TestLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stub := newStub(t)
	c, err := cliniko.NewClient("test-key", cliniko.WithBaseURL(stub.URL))
	require.NoError(t, err)

	logger := logging.NewTestLogger()
	runner := workflows.NewRunner(c, workflows.Config{
		RequestInterval:   time.Nanosecond,
		DeleteInterval:    time.Nanosecond,
		RateLimitCooldown: time.Nanosecond,
	}, workflows.WithLogger(logger.Logger), workflows.WithClock(func() time.Time { return fixedNow }))

	reg, err := Build(c, Options{
		Runner: runner,
		Logger: logger.Logger,
		Now:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &testEnv{
		stub:       stub,
		dispatcher: mcp.NewDispatcher(reg, mcp.WithLogger(logger.Logger)),
		registry:   reg,
		logger:     logger,
	}
}

func (e *testEnv) call(t *testing.T, tool string, args any) *mcp.Result {
	t.Helper()
	res, err := e.dispatcher.CallTool(context.Background(), tool, args)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func (e *testEnv) data(t *testing.T, res *mcp.Result) map[string]any {
	t.Helper()
	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestBuild_RegistersEveryTool(t *testing.T) {
	env := newTestEnv(t)

	want := []string{
		"list_patients", "get_patient", "create_patient", "update_patient", "delete_patient",
		"list_appointments", "get_appointment", "create_appointment", "update_appointment",
		"cancel_appointment", "delete_appointment", "get_available_times",
		"list_practitioners", "get_practitioner", "list_appointment_types", "get_appointment_type",
		"list_businesses", "get_business",
		"list_invoices", "get_invoice", "create_invoice", "update_invoice", "delete_invoice",
		"get_patient_invoices", "get_appointment_invoices", "how_to_create_invoices",
		"list_invoice_items", "create_invoice_item", "update_invoice_item", "delete_invoice_item",
		"list_payments", "get_payment", "create_payment", "delete_payment",
		"list_products", "get_product", "create_product", "update_product", "delete_product",
		"list_taxes", "create_tax",
		"list_patient_cases", "get_case", "get_case_invoices",
		"generate_test_data", "cleanup_test_data", "generate_comprehensive_test_data",
		"cleanup_comprehensive_test_data", "demo_invoice_generation", "display_invoices_for_date",
		"search_tools",
	}
	assert.Equal(t, len(want), env.registry.Count())
	for _, name := range want {
		_, ok := env.registry.Tool(name)
		assert.True(t, ok, "missing tool %s", name)
	}
	assert.Len(t, env.registry.Resources(), 8)
	assert.Len(t, env.registry.ListByCategory(mcp.CategoryWorkflows), 6)
}

func TestListPatients_PageEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients", http.StatusOK, `{
		"patients": [{"id": 1, "first_name": "Jane", "last_name": "Smith"}],
		"total_entries": 31,
		"links": {"next": "https://x/v1/patients?page=2"}
	}`)

	res := env.call(t, "list_patients", `{"q": "smith", "per_page": 10}`)
	assert.False(t, res.IsError)

	req := env.stub.last(t)
	assert.Equal(t, []string{"smith"}, req.Query["q"])
	assert.Equal(t, []string{"10"}, req.Query["per_page"])

	data := env.data(t, res)
	assert.EqualValues(t, 31, data["total_entries"])
	assert.EqualValues(t, 1, data["page"])
	assert.Equal(t, true, data["has_more"])
	require.Len(t, data["patients"], 1)
}

const remotePatient = `{
	"id": 1,
	"first_name": "Jane",
	"last_name": "Smith",
	"occupation": "Nurse",
	"notes": "prefers mornings",
	"patient_phone_numbers": [{"number": "0400 000 000", "phone_type": "Mobile"}],
	"address_1": "1 Test St"
}`

func TestListPatients_ItemsPassThroughUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients", http.StatusOK, `{"patients": [`+remotePatient+`], "total_entries": 1, "links": {}}`)

	res := env.call(t, "list_patients", `{}`)
	require.False(t, res.IsError, res.Text())

	var out struct {
		Patients []json.RawMessage `json:"patients"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Text()), &out))
	require.Len(t, out.Patients, 1)
	assert.JSONEq(t, remotePatient, string(out.Patients[0]))

	patients := env.data(t, res)["patients"].([]any)
	assert.JSONEq(t, remotePatient, mustJSON(t, patients[0]))
}

func TestGetPatient_PassesThroughUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients/1", http.StatusOK, remotePatient)

	res := env.call(t, "get_patient", `{"patient_id": 1}`)
	require.False(t, res.IsError, res.Text())
	assert.JSONEq(t, remotePatient, res.Text())

	data := env.data(t, res)
	assert.Equal(t, "Nurse", data["occupation"])
	assert.Equal(t, "1 Test St", data["address_1"])
	assert.NotContains(t, data, "archived")
	assert.NotContains(t, data, "links")
}

func TestUpdatePatient_EchoPassesThroughUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodPut, "/patients/1", http.StatusOK, remotePatient)

	res := env.call(t, "update_patient", `{"patient_id": 1, "email": "jane@example.com"}`)
	require.False(t, res.IsError, res.Text())
	assert.JSONEq(t, remotePatient, res.Text())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestListPatients_EmptyPageHasEmptyArray(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients", http.StatusOK, `{"patients": [], "total_entries": 0, "links": {}}`)

	res := env.call(t, "list_patients", `{"page": 3}`)
	assert.Contains(t, res.Text(), `"patients": []`)
	data := env.data(t, res)
	assert.EqualValues(t, 3, data["page"])
	assert.Equal(t, false, data["has_more"])
}

func TestCreatePatient_RequiresNames(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dispatcher.CallTool(context.Background(), "create_patient", `{"first_name": "Jane"}`)
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))
}

func TestCreatePatient_SendsFields(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodPost, "/patients", http.StatusCreated, `{"id": 77, "first_name": "Jane", "last_name": "Smith"}`)

	res := env.call(t, "create_patient", `{"first_name": "Jane", "last_name": "Smith", "email": "jane@example.com"}`)
	assert.False(t, res.IsError)

	body := env.stub.lastBody(t)
	assert.Equal(t, "Jane", body["first_name"])
	assert.Equal(t, "jane@example.com", body["email"])
	assert.Contains(t, res.Text(), `"id": 77`)
}

func TestDeletePatient_Message(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodDelete, "/patients/9", http.StatusNoContent, "")

	res := env.call(t, "delete_patient", `{"patient_id": 9}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "Patient 9 has been archived successfully", res.Text())
}

func TestGetPatient_FailureIsErrorResult(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients/5", http.StatusUnprocessableEntity, `locked`)

	res := env.call(t, "get_patient", `{"patient_id": 5}`)
	assert.True(t, res.IsError)
	assert.Equal(t, "Failed to get patient: Cliniko API error (422): locked", res.Text())
	env.logger.AssertLogged(t, zapcore.InfoLevel, "tool call returned error result")
}

func TestGetPatient_RejectsNonPositiveID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dispatcher.CallTool(context.Background(), "get_patient", `{"patient_id": 0}`)
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))
}

func TestGetPatient_CancelledContextIsError(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := env.dispatcher.CallTool(ctx, "get_patient", `{"patient_id": 5}`)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestListPractitioners_FailureIsError(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/practitioners", http.StatusInternalServerError, `boom`)

	_, err := env.dispatcher.CallTool(context.Background(), "list_practitioners", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list practitioners")
	assert.Equal(t, http.StatusInternalServerError, cliniko.StatusCode(err))
}

func TestListBusinesses_NoArguments(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/businesses", http.StatusOK, `{"businesses": [{"id": 20, "name": "Main Clinic"}], "total_entries": 1, "links": {}}`)

	res := env.call(t, "list_businesses", nil)
	data := env.data(t, res)
	assert.EqualValues(t, 1, data["total_entries"])
	assert.Contains(t, res.Text(), "Main Clinic")
}

func TestCreateAppointment_RequiredFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dispatcher.CallTool(context.Background(), "create_appointment", `{"starts_at": "2024-03-15T10:00:00Z"}`)
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))

	env.stub.on(http.MethodPost, "/appointments", http.StatusCreated, `{"id": 500, "starts_at": "2024-03-15T10:00:00Z"}`)
	res := env.call(t, "create_appointment", `{
		"starts_at": "2024-03-15T10:00:00Z",
		"practitioner_id": 1,
		"appointment_type_id": 10,
		"business_id": 20,
		"patient_id": 3
	}`)
	assert.False(t, res.IsError)
	body := env.stub.lastBody(t)
	assert.EqualValues(t, 10, body["appointment_type_id"])
	assert.EqualValues(t, 3, body["patient_id"])
}

func TestCancelAppointment_SendsReason(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodPut, "/appointments/12/cancel", http.StatusOK, `{"id": 12, "status": "Cancelled"}`)

	res := env.call(t, "cancel_appointment", `{"appointment_id": 12, "cancellation_reason": "sick"}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "sick", env.stub.lastBody(t)["cancellation_reason"])
}

func TestGetAvailableTimes_EchoesQuery(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/available_times", http.StatusOK, `{"available_times": [{"appointment_start": "2024-03-15T09:00:00Z"}], "total_entries": 1}`)

	res := env.call(t, "get_available_times", `{"business_id": 20, "practitioner_id": 1, "from": "2024-03-15", "to": "2024-03-16"}`)
	require.False(t, res.IsError, res.Text())

	data := env.data(t, res)
	assert.EqualValues(t, 1, data["total"])
	assert.Equal(t, "2024-03-15", data["from"])
	assert.NotContains(t, data, "appointment_type_id")
}
