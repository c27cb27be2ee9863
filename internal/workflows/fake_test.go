package workflows

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
)

// fakeAPI is an in-memory Cliniko account.
type fakeAPI struct {
	mu     sync.Mutex
	nextID cliniko.ID

	patients      []cliniko.Patient
	appointments  []cliniko.Appointment
	invoices      []cliniko.Invoice
	products      []cliniko.Product
	practitioners []cliniko.Practitioner
	apptTypes     []cliniko.AppointmentType
	businesses    []cliniko.Business
	taxes         []cliniko.Tax

	// appointmentInvoices are returned by ListAppointmentInvoices.
	appointmentInvoices map[cliniko.ID][]cliniko.Invoice

	// Queued errors, consumed one per call.
	createPatientErrs     []error
	createAppointmentErrs []error
	deletePatientErrs     map[cliniko.ID]error

	listErr map[string]error

	createdPatients     []cliniko.PatientInput
	createdAppointments []cliniko.AppointmentInput
	createdInvoices     []cliniko.InvoiceInput
	createdProducts     []cliniko.ProductInput
	invoiceQueries      []cliniko.ListInvoicesOptions

	// deletions records "kind:id" in call order.
	deletions []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:              1000,
		practitioners:       []cliniko.Practitioner{{ID: 1, FirstName: "Sarah", LastName: "Lee"}, {ID: 2, FirstName: "Tom", LastName: "Ng"}},
		apptTypes:           []cliniko.AppointmentType{{ID: 10, Name: "Initial Consult", Duration: 30}},
		businesses:          []cliniko.Business{{ID: 20, Name: "Main Clinic"}},
		taxes:               []cliniko.Tax{{ID: 30, Name: "GST", Rate: 10}},
		appointmentInvoices: map[cliniko.ID][]cliniko.Invoice{},
		deletePatientErrs:   map[cliniko.ID]error{},
		listErr:             map[string]error{},
	}
}

func rateLimited() error {
	return &cliniko.APIError{StatusCode: http.StatusTooManyRequests, Body: "Too Many Requests"}
}

func (f *fakeAPI) id() cliniko.ID {
	f.nextID++
	return f.nextID
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func page[T any](items []T, page, perPage int) *cliniko.ListResponse[T] {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	out := &cliniko.ListResponse[T]{Items: []T{}, TotalEntries: len(items)}
	lo := (page - 1) * perPage
	if lo >= len(items) {
		return out
	}
	hi := min(lo+perPage, len(items))
	out.Items = append(out.Items, items[lo:hi]...)
	if hi < len(items) {
		out.Links.Next = fmt.Sprintf("https://api.example/v1/list?page=%d", page+1)
	}
	return out
}

func (f *fakeAPI) ListPatients(_ context.Context, opts cliniko.ListPatientsOptions) (*cliniko.ListResponse[cliniko.Patient], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr["patients"]; err != nil {
		return nil, err
	}
	return page(f.patients, opts.Page, opts.PerPage), nil
}

func (f *fakeAPI) CreatePatient(_ context.Context, in cliniko.PatientInput) (*cliniko.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := pop(&f.createPatientErrs); err != nil {
		return nil, err
	}
	f.createdPatients = append(f.createdPatients, in)
	p := cliniko.Patient{ID: f.id(), FirstName: str(in.FirstName), LastName: str(in.LastName), Email: str(in.Email)}
	f.patients = append(f.patients, p)
	return &p, nil
}

func (f *fakeAPI) DeletePatient(_ context.Context, id cliniko.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deletePatientErrs[id]; err != nil {
		return err
	}
	f.deletions = append(f.deletions, "patient:"+id.String())
	for i, p := range f.patients {
		if p.ID == id {
			f.patients = append(f.patients[:i], f.patients[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) ListAppointments(_ context.Context, opts cliniko.ListAppointmentsOptions) (*cliniko.ListResponse[cliniko.Appointment], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr["appointments"]; err != nil {
		return nil, err
	}
	return page(f.appointments, opts.Page, opts.PerPage), nil
}

func (f *fakeAPI) CreateAppointment(_ context.Context, in cliniko.AppointmentInput) (*cliniko.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := pop(&f.createAppointmentErrs); err != nil {
		return nil, err
	}
	f.createdAppointments = append(f.createdAppointments, in)
	a := cliniko.Appointment{
		ID:           f.id(),
		StartsAt:     in.StartsAt,
		Notes:        in.Notes,
		Patient:      &cliniko.Ref{ID: in.PatientID},
		Practitioner: &cliniko.Ref{ID: in.PractitionerID},
		Business:     &cliniko.Ref{ID: in.BusinessID},
	}
	f.appointments = append(f.appointments, a)
	return &a, nil
}

func (f *fakeAPI) DeleteAppointment(_ context.Context, id cliniko.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletions = append(f.deletions, "appointment:"+id.String())
	return nil
}

func (f *fakeAPI) ListAppointmentInvoices(_ context.Context, id cliniko.ID) (*cliniko.ListResponse[cliniko.Invoice], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.appointmentInvoices[id]
	if !ok {
		return nil, &cliniko.APIError{StatusCode: http.StatusNotFound, Body: "Not Found"}
	}
	return &cliniko.ListResponse[cliniko.Invoice]{Items: items, TotalEntries: len(items)}, nil
}

func (f *fakeAPI) ListPractitioners(context.Context, cliniko.PageOptions) (*cliniko.ListResponse[cliniko.Practitioner], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr["practitioners"]; err != nil {
		return nil, err
	}
	return &cliniko.ListResponse[cliniko.Practitioner]{Items: f.practitioners, TotalEntries: len(f.practitioners)}, nil
}

func (f *fakeAPI) ListAppointmentTypes(context.Context, cliniko.PageOptions) (*cliniko.ListResponse[cliniko.AppointmentType], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &cliniko.ListResponse[cliniko.AppointmentType]{Items: f.apptTypes, TotalEntries: len(f.apptTypes)}, nil
}

func (f *fakeAPI) ListBusinesses(context.Context) (*cliniko.ListResponse[cliniko.Business], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &cliniko.ListResponse[cliniko.Business]{Items: f.businesses, TotalEntries: len(f.businesses)}, nil
}

func (f *fakeAPI) ListInvoices(_ context.Context, opts cliniko.ListInvoicesOptions) (*cliniko.ListResponse[cliniko.Invoice], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoiceQueries = append(f.invoiceQueries, opts)
	if err := f.listErr["invoices"]; err != nil {
		return nil, err
	}
	return page(f.invoices, opts.Page, opts.PerPage), nil
}

func (f *fakeAPI) ListPatientInvoices(_ context.Context, patientID cliniko.ID, _ cliniko.PageOptions) (*cliniko.ListResponse[cliniko.Invoice], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &cliniko.ListResponse[cliniko.Invoice]{Items: []cliniko.Invoice{}}
	for _, inv := range f.invoices {
		if inv.Patient.RefID() == patientID {
			out.Items = append(out.Items, inv)
		}
	}
	out.TotalEntries = len(out.Items)
	return out, nil
}

func (f *fakeAPI) CreateInvoice(_ context.Context, in cliniko.InvoiceInput) (*cliniko.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdInvoices = append(f.createdInvoices, in)
	inv := cliniko.Invoice{ID: f.id(), Patient: &cliniko.Ref{ID: in.PatientID}, IssuedAt: in.IssueDate, Status: cliniko.InvoiceStatusDraft}
	f.invoices = append(f.invoices, inv)
	for _, apptID := range in.AppointmentIDs {
		f.appointmentInvoices[apptID] = append(f.appointmentInvoices[apptID], inv)
	}
	return &inv, nil
}

func (f *fakeAPI) DeleteInvoice(_ context.Context, id cliniko.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletions = append(f.deletions, "invoice:"+id.String())
	return nil
}

func (f *fakeAPI) ListProducts(_ context.Context, opts cliniko.ListProductsOptions) (*cliniko.ListResponse[cliniko.Product], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(f.products, opts.Page, opts.PerPage), nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, in cliniko.ProductInput) (*cliniko.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdProducts = append(f.createdProducts, in)
	p := cliniko.Product{ID: f.id(), Name: in.Name, ItemCode: in.ItemCode, Description: in.Description}
	if in.UnitPrice != nil {
		p.UnitPrice = cliniko.Amount(*in.UnitPrice)
	}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id cliniko.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletions = append(f.deletions, "product:"+id.String())
	return nil
}

func (f *fakeAPI) ListTaxes(context.Context, cliniko.PageOptions) (*cliniko.ListResponse[cliniko.Tax], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &cliniko.ListResponse[cliniko.Tax]{Items: f.taxes, TotalEntries: len(f.taxes)}, nil
}

// fixedNow is a Wednesday morning.
var fixedNow = time.Date(2024, time.March, 13, 8, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		RequestInterval:   time.Nanosecond,
		DeleteInterval:    time.Nanosecond,
		RateLimitCooldown: time.Nanosecond,
	}
}

func newTestRunner(t *testing.T, api API, opts ...Option) (*Runner, *logging.TestLogger) {
	t.Helper()
	logger := logging.NewTestLogger()
	opts = append([]Option{WithLogger(logger.Logger), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewRunner(api, testConfig(), opts...), logger
}
