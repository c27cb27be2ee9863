package workflows

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
)

// API is the subset of the Cliniko client the workflows drive.
type API interface {
	ListPatients(ctx context.Context, opts cliniko.ListPatientsOptions) (*cliniko.ListResponse[cliniko.Patient], error)
	CreatePatient(ctx context.Context, in cliniko.PatientInput) (*cliniko.Patient, error)
	DeletePatient(ctx context.Context, id cliniko.ID) error

	ListAppointments(ctx context.Context, opts cliniko.ListAppointmentsOptions) (*cliniko.ListResponse[cliniko.Appointment], error)
	CreateAppointment(ctx context.Context, in cliniko.AppointmentInput) (*cliniko.Appointment, error)
	DeleteAppointment(ctx context.Context, id cliniko.ID) error
	ListAppointmentInvoices(ctx context.Context, id cliniko.ID) (*cliniko.ListResponse[cliniko.Invoice], error)

	ListPractitioners(ctx context.Context, opts cliniko.PageOptions) (*cliniko.ListResponse[cliniko.Practitioner], error)
	ListAppointmentTypes(ctx context.Context, opts cliniko.PageOptions) (*cliniko.ListResponse[cliniko.AppointmentType], error)
	ListBusinesses(ctx context.Context) (*cliniko.ListResponse[cliniko.Business], error)

	ListInvoices(ctx context.Context, opts cliniko.ListInvoicesOptions) (*cliniko.ListResponse[cliniko.Invoice], error)
	ListPatientInvoices(ctx context.Context, patientID cliniko.ID, opts cliniko.PageOptions) (*cliniko.ListResponse[cliniko.Invoice], error)
	CreateInvoice(ctx context.Context, in cliniko.InvoiceInput) (*cliniko.Invoice, error)
	DeleteInvoice(ctx context.Context, id cliniko.ID) error

	ListProducts(ctx context.Context, opts cliniko.ListProductsOptions) (*cliniko.ListResponse[cliniko.Product], error)
	CreateProduct(ctx context.Context, in cliniko.ProductInput) (*cliniko.Product, error)
	DeleteProduct(ctx context.Context, id cliniko.ID) error
	ListTaxes(ctx context.Context, opts cliniko.PageOptions) (*cliniko.ListResponse[cliniko.Tax], error)
}

var _ API = (*cliniko.Client)(nil)

// Defaults used when a Config field is left zero.
const (
	DefaultRequestInterval   = time.Second
	DefaultDeleteInterval    = 500 * time.Millisecond
	DefaultRateLimitCooldown = 5 * time.Second
	DefaultTestDomain        = "test.cliniko.com"
)

const (
	// maxPatientPages bounds the patient scan of the cleanup workflows.
	maxPatientPages = 10
	listPageSize    = 100
)

// Config holds the fixed delays and the email domain that marks test data.
type Config struct {
	RequestInterval   time.Duration
	DeleteInterval    time.Duration
	RateLimitCooldown time.Duration
	TestDomain        string
}

func (c Config) withDefaults() Config {
	if c.RequestInterval == 0 {
		c.RequestInterval = DefaultRequestInterval
	}
	if c.DeleteInterval == 0 {
		c.DeleteInterval = DefaultDeleteInterval
	}
	if c.RateLimitCooldown == 0 {
		c.RateLimitCooldown = DefaultRateLimitCooldown
	}
	if c.TestDomain == "" {
		c.TestDomain = DefaultTestDomain
	}
	return c
}

// Runner executes the batch and demo workflows against an API. Each run
// issues its calls sequentially; nothing is rolled back on failure.
type Runner struct {
	api     API
	cfg     Config
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner returns a Runner using cfg, with defaults for zero fields.
func NewRunner(api API, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		api:    api,
		cfg:    cfg.withDefaults(),
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

func (r *Runner) requestThrottle() *Throttle {
	return NewThrottle(r.cfg.RequestInterval, r.cfg.RateLimitCooldown)
}

func (r *Runner) deleteThrottle() *Throttle {
	return NewThrottle(r.cfg.DeleteInterval, r.cfg.RateLimitCooldown)
}

// step waits for th, runs fn and, when fn hit the rate limit, pauses for the
// cooldown. It returns fn's error unchanged; callers check ctx.Err() to tell a
// failed step from a cancelled run.
func (r *Runner) step(ctx context.Context, th *Throttle, kind string, fn func(context.Context) error) error {
	if err := th.Wait(ctx); err != nil {
		return err
	}
	err := fn(ctx)
	if err == nil {
		return nil
	}
	r.metrics.recordFailed(ctx, kind)

	paused, sleepErr := th.Backoff(ctx, err)
	if paused {
		r.metrics.recordRateLimited(ctx)
		r.logger.Warn(ctx, "rate limited, pausing before next call",
			zap.String("kind", kind),
			zap.Duration("cooldown", r.cfg.RateLimitCooldown),
		)
	}
	if sleepErr != nil {
		return sleepErr
	}
	return err
}

// referenceData is what appointments are booked against.
type referenceData struct {
	practitioners    []cliniko.Practitioner
	appointmentTypes []cliniko.AppointmentType
	businesses       []cliniko.Business
	taxes            []cliniko.Tax
}

func (d *referenceData) complete() bool {
	return len(d.practitioners) > 0 && len(d.appointmentTypes) > 0 && len(d.businesses) > 0
}

// loadReferenceData fetches practitioners, appointment types and businesses,
// plus taxes when withTaxes is set.
func (r *Runner) loadReferenceData(ctx context.Context, perPage int, withTaxes bool) (*referenceData, error) {
	out := &referenceData{}

	practitioners, err := r.api.ListPractitioners(ctx, cliniko.PageOptions{PerPage: perPage})
	if err != nil {
		return nil, err
	}
	out.practitioners = practitioners.Items

	types, err := r.api.ListAppointmentTypes(ctx, cliniko.PageOptions{PerPage: perPage})
	if err != nil {
		return nil, err
	}
	out.appointmentTypes = types.Items

	businesses, err := r.api.ListBusinesses(ctx)
	if err != nil {
		return nil, err
	}
	out.businesses = businesses.Items

	if withTaxes {
		taxes, err := r.api.ListTaxes(ctx, cliniko.PageOptions{})
		if err != nil {
			return nil, err
		}
		out.taxes = taxes.Items
	}
	return out, nil
}

// scanPatients pages through up to maxPatientPages of patients and returns
// those keep accepts.
func (r *Runner) scanPatients(ctx context.Context, keep func(cliniko.Patient) bool) ([]cliniko.Patient, error) {
	var out []cliniko.Patient
	for page := 1; page <= maxPatientPages; page++ {
		resp, err := r.api.ListPatients(ctx, cliniko.ListPatientsOptions{Page: page, PerPage: listPageSize})
		if err != nil {
			return out, err
		}
		for _, p := range resp.Items {
			if keep(p) {
				out = append(out, p)
			}
		}
		if !resp.HasMore() {
			break
		}
	}
	return out, nil
}

// hasTestEmail reports whether p's email is on domain. A leading "@" on
// domain is ignored.
func hasTestEmail(p cliniko.Patient, domain string) bool {
	if p.Email == "" || domain == "" {
		return false
	}
	email := strings.ToLower(p.Email)
	domain = strings.ToLower(strings.TrimPrefix(domain, "@"))
	return strings.HasSuffix(email, "@"+domain)
}

func practitionerName(p cliniko.Practitioner) string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func elapsedMillis(start, end time.Time) int64 {
	return end.Sub(start).Milliseconds()
}
