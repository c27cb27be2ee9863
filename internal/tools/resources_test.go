package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

func readJSON(t *testing.T, env *testEnv, uri string) map[string]any {
	t.Helper()
	contents, err := env.dispatcher.ReadResource(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, uri, contents.URI)
	assert.Equal(t, "application/json", contents.MIMEType)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(contents.Text), &m))
	return m
}

func TestReadPatient(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients/42", http.StatusOK, `{"id": 42, "first_name": "Jane", "last_name": "Smith"}`)

	m := readJSON(t, env, "patient://42")
	assert.EqualValues(t, 42, m["id"])
	assert.Equal(t, "Jane", m["first_name"])
}

func TestReadPatient_PassesThroughUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients/1", http.StatusOK, remotePatient)

	contents, err := env.dispatcher.ReadResource(context.Background(), "patient://1")
	require.NoError(t, err)
	assert.JSONEq(t, remotePatient, contents.Text)
}

func TestReadAppointmentList_ItemsPassThroughUnchanged(t *testing.T) {
	env := newTestEnv(t)
	appt := `{"id": 500, "starts_at": "2024-03-15T10:00:00Z", "telehealth_url": "https://meet.example.com/x", "did_not_arrive": false}`
	env.stub.on(http.MethodGet, "/appointments", http.StatusOK, `{"appointments": [`+appt+`], "total_entries": 1, "links": {}}`)

	m := readJSON(t, env, "appointments://list")
	appointments := m["appointments"].([]any)
	require.Len(t, appointments, 1)
	assert.JSONEq(t, appt, mustJSON(t, appointments[0]))
}

func TestReadPatient_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dispatcher.ReadResource(context.Background(), "patient://abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cliniko.ErrInvalidID))
}

func TestReadPatient_FetchFailure(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dispatcher.ReadResource(context.Background(), "patient://7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch patient")
	assert.Equal(t, http.StatusNotFound, cliniko.StatusCode(err))
}

func TestReadPatientList(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/patients", http.StatusOK, `{
		"patients": [{"id": 1, "first_name": "Jane", "last_name": "Smith"}],
		"total_entries": 150,
		"links": {"next": "https://x/v1/patients?page=2"}
	}`)

	m := readJSON(t, env, "patients://list")
	assert.Equal(t, []string{"100"}, env.stub.last(t).Query["per_page"])
	assert.EqualValues(t, 150, m["total_entries"])
	assert.Equal(t, true, m["has_more"])
	assert.Len(t, m["patients"], 1)
}

func TestReadTodaysAppointments(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/appointments", http.StatusOK, `{"appointments": [], "total_entries": 0, "links": {}}`)

	m := readJSON(t, env, "appointments://today")
	assert.Equal(t, "2024-03-13", m["date"])
	assert.Equal(t, []any{}, m["appointments"])

	q := env.stub.last(t).Query
	assert.Equal(t, []string{"2024-03-13T00:00:00Z"}, q["starts_at"])
	assert.Equal(t, []string{"2024-03-14T00:00:00Z"}, q["ends_at"])
}

func TestToday_UsesLocalMidnight(t *testing.T) {
	loc := time.FixedZone("AEST", 10*60*60)
	now := time.Date(2024, 3, 13, 23, 30, 0, 0, loc)

	start, end := today(now)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, loc), start)
	assert.Equal(t, "2024-03-12T14:00:00Z", start.UTC().Format(time.RFC3339))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestReadReferenceLists(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/practitioners", http.StatusOK, `{"practitioners": [{"id": 1, "first_name": "Sarah", "last_name": "Lee"}], "total_entries": 1, "links": {}}`)
	env.stub.on(http.MethodGet, "/businesses", http.StatusOK, `{"businesses": [{"id": 20, "name": "Main Clinic"}], "total_entries": 1, "links": {}}`)
	env.stub.on(http.MethodGet, "/appointment_types", http.StatusOK, `{"appointment_types": [], "total_entries": 0, "links": {}}`)

	assert.Len(t, readJSON(t, env, "practitioners://list")["practitioners"], 1)

	biz := readJSON(t, env, "businesses://list")
	assert.Len(t, biz["businesses"], 1)
	assert.NotContains(t, biz, "has_more")

	assert.Equal(t, []any{}, readJSON(t, env, "appointment-types://list")["appointment_types"])
}

func TestReadAppointment(t *testing.T) {
	env := newTestEnv(t)
	env.stub.on(http.MethodGet, "/appointments/500", http.StatusOK, `{"id": 500, "starts_at": "2024-03-15T10:00:00Z"}`)
	env.stub.on(http.MethodGet, "/appointments", http.StatusOK, `{"appointments": [{"id": 500}], "total_entries": 1, "links": {}}`)

	assert.Equal(t, "2024-03-15T10:00:00Z", readJSON(t, env, "appointment://500")["starts_at"])
	assert.EqualValues(t, 1, readJSON(t, env, "appointments://list")["total_entries"])
}

func TestReadResource_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.dispatcher.ReadResource(context.Background(), "invoices://list")
	var unknown *mcp.UnknownResourceError
	assert.True(t, errors.As(err, &unknown))
}
