package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

func TestGenerateTestData_CreatesPatientsAndAppointments(t *testing.T) {
	api := newFakeAPI()
	r, logger := newTestRunner(t, api)

	report, err := r.GenerateTestData(context.Background(), GenerateOptions{NumPatients: 3, NumAppointments: 5, DaysAhead: 7})
	require.NoError(t, err)

	assert.Equal(t, GenerateSummary{PatientsCreated: 3, AppointmentsCreated: 5}, report.Summary)
	assert.Empty(t, report.Errors)
	require.Len(t, api.createdPatients, 3)
	require.Len(t, api.createdAppointments, 5)

	for _, p := range report.PatientsCreated {
		assert.True(t, strings.HasSuffix(p.Email, "@"+DefaultTestDomain), p.Email)
	}

	for i, in := range api.createdAppointments {
		assert.Equal(t, cliniko.ID(1), in.PractitionerID, "first practitioner")
		assert.Equal(t, cliniko.ID(10), in.AppointmentTypeID)
		assert.Equal(t, cliniko.ID(20), in.BusinessID)
		assert.Equal(t, report.PatientsCreated[i%3].ID, in.PatientID, "patients are booked round-robin")
		assert.Equal(t, "Test appointment for "+report.PatientsCreated[i%3].Name, in.Notes)

		starts, err := time.Parse(time.RFC3339, in.StartsAt)
		require.NoError(t, err)
		assert.True(t, starts.After(fixedNow))
		assert.NotEqual(t, time.Saturday, starts.Weekday())
		assert.NotEqual(t, time.Sunday, starts.Weekday())
	}

	assert.Equal(t, "Sarah Lee", report.AppointmentsCreated[0].Practitioner)
	assert.Equal(t, "Initial Consult", report.AppointmentsCreated[0].Type)
	logger.AssertLogged(t, zapcore.InfoLevel, "generated test data")
}

func TestGenerateTestData_MissingReferenceData(t *testing.T) {
	api := newFakeAPI()
	api.businesses = nil
	r, _ := newTestRunner(t, api)

	report, err := r.GenerateTestData(context.Background(), GenerateOptions{NumPatients: 2, NumAppointments: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{msgNoReferenceData}, report.Errors)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Empty(t, api.createdPatients)
	assert.NotNil(t, report.PatientsCreated)
}

func TestGenerateTestData_ReferenceFetchFails(t *testing.T) {
	api := newFakeAPI()
	api.listErr["practitioners"] = errors.New("connection refused")
	r, _ := newTestRunner(t, api)

	report, err := r.GenerateTestData(context.Background(), GenerateOptions{NumPatients: 1})
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Failed to fetch required data: connection refused", report.Errors[0])
	assert.Empty(t, api.createdPatients)
}

func TestGenerateTestData_RateLimitedStepIsRecordedAndRunContinues(t *testing.T) {
	api := newFakeAPI()
	api.createPatientErrs = []error{rateLimited()}
	m, reader := newTestMetrics(t)
	r, logger := newTestRunner(t, api, WithMetrics(m))

	report, err := r.GenerateTestData(context.Background(), GenerateOptions{NumPatients: 3, NumAppointments: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.PatientsCreated)
	assert.Equal(t, 2, report.Summary.AppointmentsCreated)
	require.Len(t, report.Errors, 1)
	assert.True(t, strings.HasPrefix(report.Errors[0], "Failed to create patient "), report.Errors[0])
	assert.Contains(t, report.Errors[0], "Cliniko API error (429)")

	logger.AssertLogged(t, zapcore.WarnLevel, "rate limited")
	assert.Equal(t, int64(1), sumOf(t, reader, "mcp_cliniko.workflow.rate_limit_pauses"))
	assert.Equal(t, int64(1), sumOf(t, reader, "mcp_cliniko.workflow.step_errors"))
	assert.Equal(t, int64(4), sumOf(t, reader, "mcp_cliniko.workflow.records_created"))
	assert.Equal(t, int64(1), sumOf(t, reader, "mcp_cliniko.workflow.executions"))
}

func TestGenerateTestData_UnavailableSlotIsSkippedSilently(t *testing.T) {
	api := newFakeAPI()
	api.createAppointmentErrs = []error{
		&cliniko.APIError{StatusCode: 422, Body: `{"errors":{"base":["Practitioner is not available at this time"]}}`},
		&cliniko.APIError{StatusCode: 500, Body: "boom"},
	}
	r, _ := newTestRunner(t, api)

	report, err := r.GenerateTestData(context.Background(), GenerateOptions{NumPatients: 1, NumAppointments: 4})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.AppointmentsCreated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Failed to create appointment: Cliniko API error (500): boom", report.Errors[0])
}

func TestGenerateTestData_NoAppointmentsWithoutPatients(t *testing.T) {
	api := newFakeAPI()
	api.createPatientErrs = []error{errors.New("invalid")}
	r, _ := newTestRunner(t, api)

	report, err := r.GenerateTestData(context.Background(), GenerateOptions{NumPatients: 1, NumAppointments: 3})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.PatientsCreated)
	assert.Equal(t, 0, report.Summary.AppointmentsCreated)
	assert.Empty(t, api.createdAppointments)
	assert.Len(t, report.Errors, 1)
}

func TestGenerateTestData_CancelledContext(t *testing.T) {
	api := newFakeAPI()
	r, _ := newTestRunner(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.GenerateTestData(ctx, GenerateOptions{NumPatients: 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
	assert.Empty(t, api.createdPatients)
}

func TestGenerateComprehensiveTestData(t *testing.T) {
	api := newFakeAPI()
	r, _ := newTestRunner(t, api)

	report, err := r.GenerateComprehensiveTestData(context.Background(), ComprehensiveOptions{
		NumPatients:     2,
		NumProducts:     3,
		NumAppointments: 4,
		DaysAhead:       14,
		TestDomain:      "qa.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 9, report.Summary.TotalCreated)
	assert.Equal(t, 0, report.Summary.TotalErrors)
	assert.Equal(t, "qa.example.com", report.Metadata.TestDomain)
	assert.Equal(t, "2024-03-13T08:00:00Z", report.Metadata.GeneratedAt)

	require.Len(t, api.createdProducts, 3)
	for i, p := range api.createdProducts {
		assert.True(t, strings.HasSuffix(p.Name, TestProductSuffix), p.Name)
		assert.Equal(t, fmt.Sprintf("TEST-1710316800000-%d", i), p.ItemCode)
		require.NotNil(t, p.UnitPrice)
		assert.GreaterOrEqual(t, *p.UnitPrice, 50.0)
		assert.LessOrEqual(t, *p.UnitPrice, 350.0)
		assert.Equal(t, cliniko.ID(30), p.TaxID)
		assert.Equal(t, "Test product generated on 2024-03-13", p.Description)
	}

	for _, p := range report.Created.Patients {
		assert.True(t, strings.HasSuffix(p.Email, "@qa.example.com"), p.Email)
	}
	for _, a := range api.createdAppointments {
		assert.True(t, strings.HasPrefix(a.Notes, "Test appointment - "), a.Notes)
		assert.Contains(t, []cliniko.ID{1, 2}, a.PractitionerID)
	}
}

func TestGenerateComprehensiveTestData_MissingReferenceData(t *testing.T) {
	api := newFakeAPI()
	api.practitioners = nil
	r, _ := newTestRunner(t, api)

	report, err := r.GenerateComprehensiveTestData(context.Background(), ComprehensiveOptions{NumPatients: 1, NumProducts: 1})
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Missing required data")
	assert.Equal(t, DefaultTestDomain, report.Metadata.TestDomain)
	assert.Empty(t, api.createdProducts)
	assert.Empty(t, api.createdPatients)
}
