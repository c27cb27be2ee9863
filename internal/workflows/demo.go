package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

// Display formats shared by the demo and invoice display workflows.
const (
	FormatSummary  = "summary"
	FormatDetailed = "detailed"
	FormatJSON     = "json"
)

// DisplayFormats lists the accepted display formats.
var DisplayFormats = []string{FormatSummary, FormatDetailed, FormatJSON}

var (
	demoFirstNames = []string{"John", "Jane", "Bob", "Alice", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	demoLastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
)

const (
	demoStartHour       = 9
	demoSlotMinutes     = 30
	demoAppointmentNote = "Test appointment for invoice demo"
	demoInvoiceNote     = "Test invoice generated by invoice demo"
)

// ErrInvalidDate is returned for a target date not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("target_date must be a YYYY-MM-DD date")

// targetDate validates s, defaulting to the date of now when s is empty.
func targetDate(s string, now time.Time) (string, error) {
	if s == "" {
		return now.Format(time.DateOnly), nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return s, nil
}

func displayFormat(s string) string {
	switch s {
	case FormatSummary, FormatJSON:
		return s
	default:
		return FormatDetailed
	}
}

// DemoOptions configures DemoInvoiceGeneration.
type DemoOptions struct {
	TargetDate      string `json:"target_date"`
	NumPatients     int    `json:"num_patients"`
	NumAppointments int    `json:"num_appointments"`
	ClearExisting   bool   `json:"clear_existing"`
	CreateInvoices  bool   `json:"create_invoices"`
	DisplayFormat   string `json:"display_format"`
}

type DemoGenerated struct {
	Patients        int `json:"patients"`
	Appointments    int `json:"appointments"`
	InvoicesCreated int `json:"invoices_created"`
	InvoicesFound   int `json:"invoices_found"`
}

type DemoResults struct {
	TargetDate      string            `json:"target_date"`
	Phase           string            `json:"phase"`
	ClearedData     bool              `json:"cleared_data"`
	Generated       DemoGenerated     `json:"generated"`
	Invoices        []cliniko.Invoice `json:"invoices,omitempty"`
	Errors          []string          `json:"errors"`
	ExecutionTimeMS int64             `json:"execution_time_ms"`
	Display         string            `json:"display,omitempty"`
}

// DemoReport is the outcome of DemoInvoiceGeneration.
type DemoReport struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Results DemoResults `json:"results"`
}

// demoRun carries one demo's state between phases.
type demoRun struct {
	*Runner
	opts         DemoOptions
	results      *DemoResults
	ref          *referenceData
	patients     []*cliniko.Patient
	appointments []demoAppointment
}

// demoAppointment pairs a created appointment id with what was booked.
type demoAppointment struct {
	id cliniko.ID
	in cliniko.AppointmentInput
}

// DemoInvoiceGeneration clears earlier demo patients, creates patients and
// a day of half-hourly appointments on the target date, optionally invoices
// each appointment, and reports the invoices found per appointment. Only an
// invalid date or a cancelled ctx return an error; every other failure is
// reported with Success false.
func (r *Runner) DemoInvoiceGeneration(ctx context.Context, opts DemoOptions) (*DemoReport, error) {
	start := r.now()
	defer func() { r.metrics.recordRun(ctx, "demo_invoice_generation", r.now().Sub(start)) }()

	date, err := targetDate(opts.TargetDate, start)
	if err != nil {
		return nil, err
	}
	opts.TargetDate = date
	opts.DisplayFormat = displayFormat(opts.DisplayFormat)

	d := &demoRun{
		Runner:  r,
		opts:    opts,
		results: &DemoResults{TargetDate: date, Errors: []string{}},
	}

	runErr := d.run(ctx)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	d.results.ExecutionTimeMS = elapsedMillis(start, r.now())

	if runErr != nil {
		d.results.Errors = append(d.results.Errors, runErr.Error())
		r.logger.Warn(ctx, "invoice demo failed", zap.String("phase", d.results.Phase), zap.Error(runErr))
		return &DemoReport{
			Success: false,
			Message: "Demo failed: " + runErr.Error(),
			Results: *d.results,
		}, nil
	}

	if opts.DisplayFormat != FormatJSON {
		d.results.Display = renderDemoSummary(d.results, opts)
	}
	if opts.DisplayFormat == FormatSummary {
		d.results.Invoices = nil
	}

	g := d.results.Generated
	msg := fmt.Sprintf("Demo complete. Created %d patients and %d appointments.", g.Patients, g.Appointments)
	if opts.CreateInvoices {
		msg = fmt.Sprintf("Demo complete. Created %d patients, %d appointments and %d invoices.", g.Patients, g.Appointments, g.InvoicesCreated)
	} else if g.InvoicesFound == 0 {
		msg += " Create invoices with create_invoice or in the Cliniko web interface."
	}
	r.logger.Info(ctx, "invoice demo complete",
		zap.String("target_date", date),
		zap.Int("patients", g.Patients),
		zap.Int("appointments", g.Appointments),
		zap.Int("invoices_found", g.InvoicesFound),
	)
	return &DemoReport{Success: true, Message: msg, Results: *d.results}, nil
}

func (d *demoRun) run(ctx context.Context) error {
	if d.opts.ClearExisting {
		d.results.Phase = "Clearing existing test data"
		d.clear(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	d.results.Phase = "Fetching reference data"
	ref, err := d.loadReferenceData(ctx, 20, false)
	if err != nil {
		return err
	}
	if !ref.complete() {
		return ErrMissingReferenceData
	}
	d.ref = ref

	d.results.Phase = "Generating test patients"
	if err := d.createPatients(ctx); err != nil {
		return err
	}
	if len(d.patients) == 0 {
		return ErrNoPatientsCreated
	}

	d.results.Phase = "Generating test appointments"
	if err := d.createAppointments(ctx); err != nil {
		return err
	}

	if d.opts.CreateInvoices {
		d.results.Phase = "Creating invoices"
		if err := d.createInvoices(ctx); err != nil {
			return err
		}
	}

	d.results.Phase = "Checking for invoices"
	return d.checkInvoices(ctx)
}

// clear deletes patients from earlier runs: those on the test domain or
// with the demo surname marker. Failures are skipped.
func (d *demoRun) clear(ctx context.Context) {
	resp, err := d.api.ListPatients(ctx, cliniko.ListPatientsOptions{PerPage: listPageSize})
	if err != nil {
		d.logger.Warn(ctx, "could not list test patients to clear", zap.Error(err))
		return
	}

	th := d.deleteThrottle()
	for _, p := range resp.Items {
		if !hasTestEmail(p, d.cfg.TestDomain) && !strings.Contains(p.LastName, TestSurnameMarker) {
			continue
		}
		id := p.ID
		err := d.step(ctx, th, "patient", func(ctx context.Context) error { return d.api.DeletePatient(ctx, id) })
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Debug(ctx, "skipping test patient that could not be deleted", zap.Stringer("patient_id", id), zap.Error(err))
			continue
		}
		d.metrics.recordDeleted(ctx, "patient")
	}
	d.results.ClearedData = true
}

func (d *demoRun) createPatients(ctx context.Context) error {
	th := d.requestThrottle()
	for i := 0; i < d.opts.NumPatients; i++ {
		first := demoFirstNames[i%len(demoFirstNames)]
		last := demoLastNames[i%len(demoLastNames)]
		ts := d.now().UnixMilli()
		in := cliniko.PatientInput{
			FirstName:   ptr(first),
			LastName:    ptr(fmt.Sprintf("%s%s_%d", last, TestSurnameMarker, ts)),
			Email:       ptr(fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), ts, d.cfg.TestDomain)),
			DateOfBirth: ptr(fmt.Sprintf("1980-01-%02d", i+1)),
		}

		var created *cliniko.Patient
		err := d.step(ctx, th, "patient", func(ctx context.Context) error {
			var err error
			created, err = d.api.CreatePatient(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.results.Errors = append(d.results.Errors, stepError(fmt.Sprintf("create patient %d", i+1), err))
			continue
		}
		d.metrics.recordCreated(ctx, "patient")
		d.patients = append(d.patients, created)
	}
	d.results.Generated.Patients = len(d.patients)
	return nil
}

// demoStartsAt returns the i-th half-hourly slot from 09:00 UTC on date.
func demoStartsAt(date string, i int) string {
	minutes := i * demoSlotMinutes
	return fmt.Sprintf("%sT%02d:%02d:00Z", date, demoStartHour+minutes/60, minutes%60)
}

func (d *demoRun) createAppointments(ctx context.Context) error {
	th := d.requestThrottle()
	ref := d.ref
	for i := 0; i < d.opts.NumAppointments; i++ {
		in := cliniko.AppointmentInput{
			StartsAt:          demoStartsAt(d.opts.TargetDate, i),
			PatientID:         d.patients[i%len(d.patients)].ID,
			PractitionerID:    ref.practitioners[i%len(ref.practitioners)].ID,
			AppointmentTypeID: ref.appointmentTypes[i%len(ref.appointmentTypes)].ID,
			BusinessID:        ref.businesses[0].ID,
			Notes:             demoAppointmentNote,
		}

		var created *cliniko.Appointment
		err := d.step(ctx, th, "appointment", func(ctx context.Context) error {
			var err error
			created, err = d.api.CreateAppointment(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.results.Errors = append(d.results.Errors, stepError(fmt.Sprintf("create appointment %d", i+1), err))
			continue
		}
		d.metrics.recordCreated(ctx, "appointment")
		d.appointments = append(d.appointments, demoAppointment{id: created.ID, in: in})
	}
	d.results.Generated.Appointments = len(d.appointments)
	return nil
}

func (d *demoRun) createInvoices(ctx context.Context) error {
	th := d.requestThrottle()
	for _, a := range d.appointments {
		in := cliniko.InvoiceInput{
			PatientID:      a.in.PatientID,
			PractitionerID: a.in.PractitionerID,
			BusinessID:     a.in.BusinessID,
			IssueDate:      d.opts.TargetDate,
			AppointmentIDs: []cliniko.ID{a.id},
			Notes:          demoInvoiceNote,
		}
		err := d.step(ctx, th, "invoice", func(ctx context.Context) error {
			_, err := d.api.CreateInvoice(ctx, in)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.results.Errors = append(d.results.Errors, stepError(fmt.Sprintf("create invoice for appointment %s", a.id), err))
			continue
		}
		d.metrics.recordCreated(ctx, "invoice")
		d.results.Generated.InvoicesCreated++
	}
	return nil
}

// checkInvoices looks up the invoices of each created appointment. Lookup
// failures, usually 404s, are skipped.
func (d *demoRun) checkInvoices(ctx context.Context) error {
	th := d.deleteThrottle()
	d.results.Invoices = []cliniko.Invoice{}
	for _, a := range d.appointments {
		var resp *cliniko.ListResponse[cliniko.Invoice]
		err := d.step(ctx, th, "invoice_lookup", func(ctx context.Context) error {
			var err error
			resp, err = d.api.ListAppointmentInvoices(ctx, a.id)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Debug(ctx, "no invoices for appointment", zap.Stringer("appointment_id", a.id), zap.Error(err))
			continue
		}
		d.results.Invoices = append(d.results.Invoices, resp.Items...)
	}
	d.results.Generated.InvoicesFound = len(d.results.Invoices)
	return nil
}

// DisplayOptions configures DisplayInvoicesForDate.
type DisplayOptions struct {
	TargetDate    string `json:"target_date"`
	DisplayFormat string `json:"display_format"`
}

type DisplayResults struct {
	TargetDate    string            `json:"target_date"`
	InvoiceCount  int               `json:"invoice_count"`
	DisplayFormat string            `json:"display_format,omitempty"`
	TotalValue    *float64          `json:"total_value,omitempty"`
	Invoices      []cliniko.Invoice `json:"invoices,omitempty"`
	Display       string            `json:"display,omitempty"`
	Note          string            `json:"note,omitempty"`
}

// DisplayReport is the outcome of DisplayInvoicesForDate.
type DisplayReport struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Results *DisplayResults `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// DisplayInvoicesForDate lists the invoices issued on a date and renders
// them in the requested format.
func (r *Runner) DisplayInvoicesForDate(ctx context.Context, opts DisplayOptions) (*DisplayReport, error) {
	start := r.now()
	defer func() { r.metrics.recordRun(ctx, "display_invoices_for_date", r.now().Sub(start)) }()

	if opts.TargetDate == "" {
		return nil, fmt.Errorf("%w: target_date is required", ErrInvalidDate)
	}
	date, err := targetDate(opts.TargetDate, start)
	if err != nil {
		return nil, err
	}
	format := displayFormat(opts.DisplayFormat)

	resp, err := r.api.ListInvoices(ctx, cliniko.ListInvoicesOptions{
		IssuedAtFrom: date,
		IssuedAtTo:   date,
		PerPage:      listPageSize,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &DisplayReport{
			Success: false,
			Message: "Failed to fetch invoices: " + err.Error(),
			Error:   err.Error(),
		}, nil
	}

	invoices := resp.Items
	if len(invoices) == 0 {
		return &DisplayReport{
			Success: false,
			Message: fmt.Sprintf("No invoices found for %s. Create invoices with create_invoice or in the Cliniko web interface.", date),
			Results: &DisplayResults{
				TargetDate:    date,
				DisplayFormat: format,
				Note:          "No invoice was issued on this date.",
			},
		}, nil
	}

	if format == FormatJSON {
		return &DisplayReport{
			Success: true,
			Message: fmt.Sprintf("Found %d invoices", len(invoices)),
			Results: &DisplayResults{TargetDate: date, InvoiceCount: len(invoices), Invoices: invoices},
		}, nil
	}

	total := totalValue(invoices)
	return &DisplayReport{
		Success: true,
		Message: fmt.Sprintf("Displayed %d invoices totaling $%.2f", len(invoices), total),
		Results: &DisplayResults{
			TargetDate:    date,
			InvoiceCount:  len(invoices),
			DisplayFormat: format,
			TotalValue:    &total,
			Display:       renderInvoices(invoices, format),
		},
	}, nil
}
