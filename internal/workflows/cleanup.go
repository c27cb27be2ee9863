package workflows

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

// CleanupOptions selects the patients CleanupTestData removes.
type CleanupOptions struct {
	TestDomain string `json:"test_domain"`
	DryRun     bool   `json:"dry_run"`
}

type CleanupSummary struct {
	PatientsFound   int  `json:"patients_found"`
	PatientsDeleted int  `json:"patients_deleted"`
	Errors          int  `json:"errors"`
	DryRun          bool `json:"dry_run"`
}

// CleanupReport is the outcome of CleanupTestData.
type CleanupReport struct {
	Summary         CleanupSummary   `json:"summary"`
	PatientsFound   []PatientSummary `json:"patients_found"`
	PatientsDeleted []PatientSummary `json:"patients_deleted"`
	Errors          []string         `json:"errors"`
}

func summarizePatient(p cliniko.Patient) PatientSummary {
	return PatientSummary{ID: p.ID, Name: p.FullName(), Email: p.Email}
}

// CleanupTestData deletes every patient, within the first ten pages, whose
// email is on the test domain. A failed deletion is recorded and the loop
// moves on; a failed listing fails the run.
func (r *Runner) CleanupTestData(ctx context.Context, opts CleanupOptions) (*CleanupReport, error) {
	start := r.now()
	defer func() { r.metrics.recordRun(ctx, "cleanup_test_data", r.now().Sub(start)) }()

	domain := opts.TestDomain
	if domain == "" {
		domain = r.cfg.TestDomain
	}

	patients, err := r.scanPatients(ctx, func(p cliniko.Patient) bool { return hasTestEmail(p, domain) })
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	report := &CleanupReport{
		PatientsFound:   make([]PatientSummary, 0, len(patients)),
		PatientsDeleted: []PatientSummary{},
		Errors:          []string{},
	}
	for _, p := range patients {
		report.PatientsFound = append(report.PatientsFound, summarizePatient(p))
	}

	if !opts.DryRun {
		th := r.deleteThrottle()
		for _, p := range patients {
			id := p.ID
			err := r.step(ctx, th, "patient", func(ctx context.Context) error {
				return r.api.DeletePatient(ctx, id)
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.logger.Warn(ctx, "failed to delete test patient", zap.Stringer("patient_id", id), zap.Error(err))
				report.Errors = append(report.Errors, stepError(fmt.Sprintf("delete patient %s", id), err))
				continue
			}
			r.metrics.recordDeleted(ctx, "patient")
			report.PatientsDeleted = append(report.PatientsDeleted, summarizePatient(p))
		}
	}

	report.Summary = CleanupSummary{
		PatientsFound:   len(report.PatientsFound),
		PatientsDeleted: len(report.PatientsDeleted),
		Errors:          len(report.Errors),
		DryRun:          opts.DryRun,
	}
	r.logger.Info(ctx, "cleaned up test patients",
		zap.Int("found", report.Summary.PatientsFound),
		zap.Int("deleted", report.Summary.PatientsDeleted),
		zap.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

// ComprehensiveCleanupOptions selects what CleanupComprehensiveTestData
// removes. DeleteAllTestData turns every category on.
type ComprehensiveCleanupOptions struct {
	DeletePatients     bool   `json:"delete_patients"`
	DeleteAppointments bool   `json:"delete_appointments"`
	DeleteInvoices     bool   `json:"delete_invoices"`
	DeleteProducts     bool   `json:"delete_products"`
	DeleteAllTestData  bool   `json:"delete_all_test_data"`
	TestDomain         string `json:"test_domain"`
	DryRun             bool   `json:"dry_run"`
}

func (o ComprehensiveCleanupOptions) normalize() ComprehensiveCleanupOptions {
	if o.DeleteAllTestData {
		o.DeletePatients = true
		o.DeleteAppointments = true
		o.DeleteInvoices = true
		o.DeleteProducts = true
	}
	return o
}

// AppointmentRecord identifies an appointment found by cleanup.
type AppointmentRecord struct {
	ID      cliniko.ID `json:"id"`
	Patient string     `json:"patient"`
	Date    string     `json:"date"`
}

// InvoiceRecord identifies an invoice found by cleanup.
type InvoiceRecord struct {
	ID      cliniko.ID `json:"id"`
	Patient string     `json:"patient"`
	Number  string     `json:"number,omitempty"`
	Total   float64    `json:"total"`
}

type CleanupRecords struct {
	Patients     []PatientSummary    `json:"patients"`
	Appointments []AppointmentRecord `json:"appointments"`
	Invoices     []InvoiceRecord     `json:"invoices"`
	Products     []ProductSummary    `json:"products"`
}

func newCleanupRecords() CleanupRecords {
	return CleanupRecords{
		Patients:     []PatientSummary{},
		Appointments: []AppointmentRecord{},
		Invoices:     []InvoiceRecord{},
		Products:     []ProductSummary{},
	}
}

func (c CleanupRecords) total() int {
	return len(c.Patients) + len(c.Appointments) + len(c.Invoices) + len(c.Products)
}

type ComprehensiveCleanupSummary struct {
	TotalDeleted    int   `json:"total_deleted"`
	TotalFound      int   `json:"total_found"`
	ExecutionTimeMS int64 `json:"execution_time_ms"`
	DryRun          bool  `json:"dry_run"`
}

type CleanupMetadata struct {
	TestDomain string `json:"test_domain"`
	CleanupAt  string `json:"cleanup_at"`
	DryRun     bool   `json:"dry_run"`
}

// ComprehensiveCleanupReport is the outcome of CleanupComprehensiveTestData.
type ComprehensiveCleanupReport struct {
	Summary  ComprehensiveCleanupSummary `json:"summary"`
	Deleted  CleanupRecords              `json:"deleted"`
	Found    CleanupRecords              `json:"found"`
	Errors   []string                    `json:"errors"`
	Metadata CleanupMetadata             `json:"metadata"`
}

// comprehensiveCleanup carries one run's state.
type comprehensiveCleanup struct {
	*Runner
	opts     ComprehensiveCleanupOptions
	report   *ComprehensiveCleanupReport
	th       *Throttle
	patients map[cliniko.ID]string
}

// remove deletes one record unless the run is dry. It reports whether the
// record was deleted and returns an error only when ctx ended.
func (c *comprehensiveCleanup) remove(ctx context.Context, kind string, id cliniko.ID, fn func(context.Context, cliniko.ID) error) (bool, error) {
	if c.opts.DryRun {
		return false, nil
	}
	err := c.step(ctx, c.th, kind, func(ctx context.Context) error { return fn(ctx, id) })
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.report.Errors = append(c.report.Errors, stepError(fmt.Sprintf("delete %s %s", kind, id), err))
		return false, nil
	}
	c.metrics.recordDeleted(ctx, kind)
	return true, nil
}

func (c *comprehensiveCleanup) patientName(ref *cliniko.Ref) string {
	if name, ok := c.patients[ref.RefID()]; ok {
		return name
	}
	if ref != nil && ref.Name != "" {
		return ref.Name
	}
	return "Unknown"
}

// CleanupComprehensiveTestData finds generated records and deletes them in
// dependency order: appointments, invoices and products first, patients
// last. Test patients are those with an email on the test domain. With
// DryRun set only the found lists are filled.
func (r *Runner) CleanupComprehensiveTestData(ctx context.Context, opts ComprehensiveCleanupOptions) (*ComprehensiveCleanupReport, error) {
	start := r.now()
	defer func() { r.metrics.recordRun(ctx, "cleanup_comprehensive_test_data", r.now().Sub(start)) }()

	opts = opts.normalize()
	if opts.TestDomain == "" {
		opts.TestDomain = r.cfg.TestDomain
	}

	c := &comprehensiveCleanup{
		Runner: r,
		opts:   opts,
		report: &ComprehensiveCleanupReport{
			Deleted:  newCleanupRecords(),
			Found:    newCleanupRecords(),
			Errors:   []string{},
			Metadata: CleanupMetadata{TestDomain: opts.TestDomain, CleanupAt: start.UTC().Format(time.RFC3339), DryRun: opts.DryRun},
		},
		th:       r.deleteThrottle(),
		patients: map[cliniko.ID]string{},
	}

	if err := c.run(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.report.Errors = append(c.report.Errors, "Critical error: "+err.Error())
	}

	rep := c.report
	rep.Summary = ComprehensiveCleanupSummary{
		TotalFound:      rep.Found.total(),
		ExecutionTimeMS: elapsedMillis(start, r.now()),
		DryRun:          opts.DryRun,
	}
	if !opts.DryRun {
		rep.Summary.TotalDeleted = rep.Deleted.total()
	}
	r.logger.Info(ctx, "comprehensive cleanup finished",
		zap.Int("found", rep.Summary.TotalFound),
		zap.Int("deleted", rep.Summary.TotalDeleted),
		zap.Int("errors", len(rep.Errors)),
		zap.Bool("dry_run", opts.DryRun),
	)
	return rep, nil
}

func (c *comprehensiveCleanup) run(ctx context.Context) error {
	opts := c.opts

	var testPatients []cliniko.Patient
	if opts.DeletePatients || opts.DeleteAppointments || opts.DeleteInvoices {
		var err error
		testPatients, err = c.scanPatients(ctx, func(p cliniko.Patient) bool { return hasTestEmail(p, opts.TestDomain) })
		if err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}
		for _, p := range testPatients {
			c.patients[p.ID] = p.FullName()
		}
	}

	if opts.DeleteAppointments {
		if err := c.cleanAppointments(ctx); err != nil {
			return err
		}
	}
	if opts.DeleteInvoices {
		if err := c.cleanInvoices(ctx, testPatients); err != nil {
			return err
		}
	}
	if opts.DeleteProducts {
		if err := c.cleanProducts(ctx); err != nil {
			return err
		}
	}
	if opts.DeletePatients {
		for _, p := range testPatients {
			info := summarizePatient(p)
			c.report.Found.Patients = append(c.report.Found.Patients, info)
			ok, err := c.remove(ctx, "patient", p.ID, c.api.DeletePatient)
			if err != nil {
				return err
			}
			if ok {
				c.report.Deleted.Patients = append(c.report.Deleted.Patients, info)
			}
		}
	}
	return nil
}

// cleanAppointments removes upcoming appointments that belong to a test
// patient or carry a test marker in their notes.
func (c *comprehensiveCleanup) cleanAppointments(ctx context.Context) error {
	resp, err := c.api.ListAppointments(ctx, cliniko.ListAppointmentsOptions{
		PerPage:  listPageSize,
		StartsAt: c.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}
	for _, a := range resp.Items {
		_, ownedByTestPatient := c.patients[a.Patient.RefID()]
		if !ownedByTestPatient && !isTestAppointment(a) {
			continue
		}
		info := AppointmentRecord{ID: a.ID, Patient: c.patientName(a.Patient), Date: a.StartsAt}
		c.report.Found.Appointments = append(c.report.Found.Appointments, info)
		ok, err := c.remove(ctx, "appointment", a.ID, c.api.DeleteAppointment)
		if err != nil {
			return err
		}
		if ok {
			c.report.Deleted.Appointments = append(c.report.Deleted.Appointments, info)
		}
	}
	return nil
}

// cleanInvoices removes the invoices of each test patient.
func (c *comprehensiveCleanup) cleanInvoices(ctx context.Context, patients []cliniko.Patient) error {
	for _, p := range patients {
		resp, err := c.api.ListPatientInvoices(ctx, p.ID, cliniko.PageOptions{PerPage: listPageSize})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.report.Errors = append(c.report.Errors, stepError(fmt.Sprintf("list invoices for patient %s", p.ID), err))
			continue
		}
		for _, inv := range resp.Items {
			info := InvoiceRecord{ID: inv.ID, Patient: p.FullName(), Number: inv.InvoiceNumber, Total: float64(inv.Total)}
			c.report.Found.Invoices = append(c.report.Found.Invoices, info)
			ok, err := c.remove(ctx, "invoice", inv.ID, c.api.DeleteInvoice)
			if err != nil {
				return err
			}
			if ok {
				c.report.Deleted.Invoices = append(c.report.Deleted.Invoices, info)
			}
		}
	}
	return nil
}

// cleanProducts removes products created by the comprehensive generator.
func (c *comprehensiveCleanup) cleanProducts(ctx context.Context) error {
	resp, err := c.api.ListProducts(ctx, cliniko.ListProductsOptions{PerPage: listPageSize})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	for _, p := range resp.Items {
		if !isTestProduct(p) {
			continue
		}
		code := p.ItemCode
		if code == "" {
			code = "N/A"
		}
		info := ProductSummary{ID: p.ID, Name: p.Name, Code: code}
		c.report.Found.Products = append(c.report.Found.Products, info)
		ok, err := c.remove(ctx, "product", p.ID, c.api.DeleteProduct)
		if err != nil {
			return err
		}
		if ok {
			c.report.Deleted.Products = append(c.report.Deleted.Products, info)
		}
	}
	return nil
}
