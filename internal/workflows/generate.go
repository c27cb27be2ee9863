package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

// GenerateOptions sizes a GenerateTestData run.
type GenerateOptions struct {
	NumPatients     int `json:"num_patients"`
	NumAppointments int `json:"num_appointments"`
	DaysAhead       int `json:"days_ahead"`
}

// PatientSummary identifies a patient touched by a workflow.
type PatientSummary struct {
	ID    cliniko.ID `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email,omitempty"`
}

// AppointmentSummary identifies an appointment created by a workflow.
type AppointmentSummary struct {
	ID           cliniko.ID `json:"id"`
	Patient      string     `json:"patient"`
	Practitioner string     `json:"practitioner"`
	StartsAt     string     `json:"starts_at"`
	Type         string     `json:"type"`
}

// ProductSummary identifies a product touched by a workflow.
type ProductSummary struct {
	ID    cliniko.ID `json:"id"`
	Name  string     `json:"name"`
	Code  string     `json:"code"`
	Price float64    `json:"price,omitempty"`
}

type GenerateSummary struct {
	PatientsCreated     int `json:"patients_created"`
	AppointmentsCreated int `json:"appointments_created"`
	Errors              int `json:"errors"`
}

// GenerateReport is the outcome of GenerateTestData.
type GenerateReport struct {
	Summary             GenerateSummary      `json:"summary"`
	PatientsCreated     []PatientSummary     `json:"patients_created"`
	AppointmentsCreated []AppointmentSummary `json:"appointments_created"`
	Errors              []string             `json:"errors"`
}

func (r *GenerateReport) finish() *GenerateReport {
	r.Summary = GenerateSummary{
		PatientsCreated:     len(r.PatientsCreated),
		AppointmentsCreated: len(r.AppointmentsCreated),
		Errors:              len(r.Errors),
	}
	return r
}

const msgNoReferenceData = "No practitioners, appointment types, or businesses found. Please set up these in Cliniko first."

// isSlotUnavailable matches the API's rejection of a taken slot, which the
// generators skip without reporting.
func isSlotUnavailable(err error) bool {
	return strings.Contains(err.Error(), "not available")
}

// GenerateTestData creates synthetic patients on the test domain and books
// appointments for them with the first practitioner, appointment type and
// business. Individual failures are collected in the report; only a failed
// reference lookup ends the run early.
func (r *Runner) GenerateTestData(ctx context.Context, opts GenerateOptions) (*GenerateReport, error) {
	start := r.now()
	defer func() { r.metrics.recordRun(ctx, "generate_test_data", r.now().Sub(start)) }()

	report := &GenerateReport{
		PatientsCreated:     []PatientSummary{},
		AppointmentsCreated: []AppointmentSummary{},
		Errors:              []string{},
	}

	ref, err := r.loadReferenceData(ctx, 10, false)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Errors = append(report.Errors, "Failed to fetch required data: "+err.Error())
		return report.finish(), nil
	}
	if !ref.complete() {
		report.Errors = append(report.Errors, msgNoReferenceData)
		return report.finish(), nil
	}

	th := r.requestThrottle()
	for i := 0; i < opts.NumPatients; i++ {
		name, in := syntheticPatient(r.now(), r.cfg.TestDomain)
		var created *cliniko.Patient
		err := r.step(ctx, th, "patient", func(ctx context.Context) error {
			var err error
			created, err = r.api.CreatePatient(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Errors = append(report.Errors, stepError("create patient "+name, err))
			continue
		}
		r.metrics.recordCreated(ctx, "patient")
		report.PatientsCreated = append(report.PatientsCreated, PatientSummary{ID: created.ID, Name: name, Email: *in.Email})
	}

	if len(report.PatientsCreated) == 0 {
		return report.finish(), nil
	}

	practitioner := ref.practitioners[0]
	apptType := ref.appointmentTypes[0]
	business := ref.businesses[0]
	for i := 0; i < opts.NumAppointments; i++ {
		patient := report.PatientsCreated[i%len(report.PatientsCreated)]
		in := cliniko.AppointmentInput{
			StartsAt:          appointmentSlot(r.now(), opts.DaysAhead).UTC().Format(time.RFC3339),
			PatientID:         patient.ID,
			PractitionerID:    practitioner.ID,
			AppointmentTypeID: apptType.ID,
			BusinessID:        business.ID,
			Notes:             "Test appointment for " + patient.Name,
		}
		var created *cliniko.Appointment
		err := r.step(ctx, th, "appointment", func(ctx context.Context) error {
			var err error
			created, err = r.api.CreateAppointment(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isSlotUnavailable(err) {
				report.Errors = append(report.Errors, stepError("create appointment", err))
			}
			continue
		}
		r.metrics.recordCreated(ctx, "appointment")
		report.AppointmentsCreated = append(report.AppointmentsCreated, AppointmentSummary{
			ID:           created.ID,
			Patient:      patient.Name,
			Practitioner: practitionerName(practitioner),
			StartsAt:     created.StartsAt,
			Type:         apptType.Name,
		})
	}

	r.logger.Info(ctx, "generated test data",
		zap.Int("patients", len(report.PatientsCreated)),
		zap.Int("appointments", len(report.AppointmentsCreated)),
		zap.Int("errors", len(report.Errors)),
	)
	return report.finish(), nil
}

// ComprehensiveOptions sizes a GenerateComprehensiveTestData run.
type ComprehensiveOptions struct {
	NumPatients     int    `json:"num_patients"`
	NumProducts     int    `json:"num_products"`
	NumAppointments int    `json:"num_appointments"`
	DaysAhead       int    `json:"days_ahead"`
	TestDomain      string `json:"test_domain"`
}

type ComprehensiveSummary struct {
	TotalCreated    int   `json:"total_created"`
	TotalErrors     int   `json:"total_errors"`
	ExecutionTimeMS int64 `json:"execution_time_ms"`
}

type ComprehensiveCreated struct {
	Patients     []PatientSummary     `json:"patients"`
	Appointments []AppointmentSummary `json:"appointments"`
	Products     []ProductSummary     `json:"products"`
}

type GenerationMetadata struct {
	TestDomain  string `json:"test_domain"`
	GeneratedAt string `json:"generated_at"`
}

// ComprehensiveReport is the outcome of GenerateComprehensiveTestData.
type ComprehensiveReport struct {
	Summary  ComprehensiveSummary `json:"summary"`
	Created  ComprehensiveCreated `json:"created"`
	Errors   []string             `json:"errors"`
	Metadata GenerationMetadata   `json:"metadata"`
}

func (r *ComprehensiveReport) finish(start, end time.Time) *ComprehensiveReport {
	r.Summary = ComprehensiveSummary{
		TotalCreated:    len(r.Created.Patients) + len(r.Created.Appointments) + len(r.Created.Products),
		TotalErrors:     len(r.Errors),
		ExecutionTimeMS: elapsedMillis(start, end),
	}
	return r
}

// GenerateComprehensiveTestData creates test products, then patients, then
// appointments spread over random practitioners, types and businesses.
func (r *Runner) GenerateComprehensiveTestData(ctx context.Context, opts ComprehensiveOptions) (*ComprehensiveReport, error) {
	start := r.now()
	defer func() { r.metrics.recordRun(ctx, "generate_comprehensive_test_data", r.now().Sub(start)) }()

	domain := opts.TestDomain
	if domain == "" {
		domain = r.cfg.TestDomain
	}
	report := &ComprehensiveReport{
		Created: ComprehensiveCreated{
			Patients:     []PatientSummary{},
			Appointments: []AppointmentSummary{},
			Products:     []ProductSummary{},
		},
		Errors:   []string{},
		Metadata: GenerationMetadata{TestDomain: domain, GeneratedAt: start.UTC().Format(time.RFC3339)},
	}

	ref, err := r.loadReferenceData(ctx, 20, true)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Errors = append(report.Errors, "Failed to fetch required data: "+err.Error())
		return report.finish(start, r.now()), nil
	}
	if !ref.complete() {
		report.Errors = append(report.Errors, "Missing required data: practitioners, appointment types, or businesses. Please configure Cliniko first.")
		return report.finish(start, r.now()), nil
	}

	th := r.requestThrottle()

	for i := 0; i < opts.NumProducts; i++ {
		in := syntheticProduct(r.now(), i, ref.taxes)
		var created *cliniko.Product
		err := r.step(ctx, th, "product", func(ctx context.Context) error {
			var err error
			created, err = r.api.CreateProduct(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Errors = append(report.Errors, stepError("create product", err))
			continue
		}
		r.metrics.recordCreated(ctx, "product")
		report.Created.Products = append(report.Created.Products, ProductSummary{
			ID:    created.ID,
			Name:  created.Name,
			Code:  in.ItemCode,
			Price: *in.UnitPrice,
		})
	}

	for i := 0; i < opts.NumPatients; i++ {
		name, in := syntheticPatient(r.now(), domain)
		var created *cliniko.Patient
		err := r.step(ctx, th, "patient", func(ctx context.Context) error {
			var err error
			created, err = r.api.CreatePatient(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Errors = append(report.Errors, stepError("create patient "+name, err))
			continue
		}
		r.metrics.recordCreated(ctx, "patient")
		report.Created.Patients = append(report.Created.Patients, PatientSummary{ID: created.ID, Name: name, Email: *in.Email})
	}

	patients := report.Created.Patients
	for i := 0; i < opts.NumAppointments && len(patients) > 0; i++ {
		patient := patients[randomIndex(len(patients))]
		practitioner := ref.practitioners[randomIndex(len(ref.practitioners))]
		apptType := ref.appointmentTypes[randomIndex(len(ref.appointmentTypes))]
		business := ref.businesses[randomIndex(len(ref.businesses))]

		in := cliniko.AppointmentInput{
			StartsAt:          appointmentSlot(r.now(), opts.DaysAhead).UTC().Format(time.RFC3339),
			PatientID:         patient.ID,
			PractitionerID:    practitioner.ID,
			AppointmentTypeID: apptType.ID,
			BusinessID:        business.ID,
			Notes:             fmt.Sprintf("Test appointment - %s", pick(treatmentTypes)),
		}
		var created *cliniko.Appointment
		err := r.step(ctx, th, "appointment", func(ctx context.Context) error {
			var err error
			created, err = r.api.CreateAppointment(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isSlotUnavailable(err) {
				report.Errors = append(report.Errors, stepError("create appointment", err))
			}
			continue
		}
		r.metrics.recordCreated(ctx, "appointment")
		report.Created.Appointments = append(report.Created.Appointments, AppointmentSummary{
			ID:           created.ID,
			Patient:      patient.Name,
			Practitioner: practitionerName(practitioner),
			StartsAt:     created.StartsAt,
			Type:         apptType.Name,
		})
	}

	report.finish(start, r.now())
	r.logger.Info(ctx, "generated comprehensive test data",
		zap.Int("created", report.Summary.TotalCreated),
		zap.Int("errors", report.Summary.TotalErrors),
	)
	return report, nil
}
