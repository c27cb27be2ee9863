package workflows

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Pallinder/go-randomdata"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

// Australian sample data.
var (
	firstNames = []string{
		"James", "Emma", "Oliver", "Charlotte", "William", "Olivia", "Jack", "Amelia", "Noah", "Mia",
		"Thomas", "Isla", "Lucas", "Grace", "Henry", "Sophia", "Alexander", "Chloe", "Oscar", "Ava",
		"Ethan", "Zoe", "Mason", "Lily", "Logan", "Emily", "Jackson", "Hannah", "Sebastian", "Ruby",
	}
	lastNames = []string{
		"Smith", "Jones", "Williams", "Brown", "Wilson", "Taylor", "Johnson", "White", "Martin", "Anderson",
		"Thompson", "Nguyen", "Thomas", "Walker", "Harris", "Lee", "Ryan", "Robinson", "Kelly", "King",
		"Davis", "Miller", "Garcia", "Rodriguez", "Martinez", "Chen", "Liu", "Singh", "Kumar", "Patel",
	}
	suburbs = []string{
		"Sydney", "Melbourne", "Brisbane", "Perth", "Adelaide", "Gold Coast", "Newcastle", "Canberra", "Wollongong", "Geelong",
		"Hobart", "Townsville", "Cairns", "Darwin", "Toowoomba", "Ballarat", "Bendigo", "Albury", "Mackay", "Rockhampton",
	}
	states      = []string{"NSW", "VIC", "QLD", "WA", "SA", "TAS", "ACT", "NT"}
	streetNames = []string{
		"George", "King", "Queen", "Elizabeth", "Collins", "Bourke", "Swanston", "Pitt", "Market", "Park",
		"William", "Spring", "Flinders", "Russell", "Lonsdale", "Chapel", "High", "Main", "Church", "Station",
	}
	streetTypes = []string{
		"Street", "Road", "Avenue", "Drive", "Place", "Court", "Parade", "Crescent", "Lane", "Way",
		"Boulevard", "Terrace", "Circuit", "Close", "Grove", "Highway", "Plaza", "Square", "Walk", "Rise",
	}
	treatmentTypes = []string{
		"General Consultation", "Follow-up Visit", "Health Assessment", "Vaccination",
		"Physical Examination", "Blood Test Review", "Prescription Renewal", "Wound Care",
		"Mental Health Consultation", "Preventive Care Check", "Chronic Disease Management",
		"Minor Procedure", "Health Education", "Care Plan Review", "Telehealth Consultation",
	}
	productNames = []string{
		"Standard Consultation", "Extended Consultation", "Brief Consultation",
		"Medicare Bulk Bill", "Private Consultation", "Telehealth Consultation",
		"Health Assessment", "Care Plan Development", "Mental Health Plan",
		"Vaccination Service", "Blood Test", "ECG Test", "Spirometry Test",
		"Wound Dressing", "Injection Administration",
	}
	titles = []string{"Mr", "Ms", "Mrs", "Dr", ""}
	sexes  = []string{"Male", "Female", "Other"}
)

const (
	// TestProductSuffix marks generated products by name.
	TestProductSuffix = " - TEST"
	// TestItemCodePrefix marks generated products by item code.
	TestItemCodePrefix = "TEST-"
	// TestSurnameMarker marks demo patients by surname.
	TestSurnameMarker = "_TEST"
)

func pick(list []string) string {
	return randomdata.StringSample(list...)
}

// randomIndex returns an index in [0, n).
func randomIndex(n int) int {
	return randomdata.Number(n)
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// medicareNumber returns ten digits with no leading zero.
func medicareNumber() string {
	return strconv.Itoa(randomdata.Number(1, 10)) + randomdata.StringNumberExt(1, "", 9)
}

// mobileNumber returns an Australian mobile, "04" and eight digits.
func mobileNumber() string {
	return "04" + randomdata.StringNumberExt(1, "", 8)
}

// dateOfBirth returns a YYYY-MM-DD date for someone aged 18 to 80 at now.
func dateOfBirth(now time.Time) string {
	oldest := now.AddDate(-80, 0, 0)
	youngest := now.AddDate(-18, 0, 0)
	d := randomdata.FullDateInRange(oldest.Format(randomdata.DateInputLayout), youngest.Format(randomdata.DateInputLayout))
	t, err := time.Parse(randomdata.DateOutputLayout, d)
	if err != nil {
		return youngest.Format(time.DateOnly)
	}
	return t.Format(time.DateOnly)
}

// testEmail builds a lower-case address on domain from the patient's names,
// with a random separator and sometimes a numeric suffix.
func testEmail(first, last, domain string) string {
	sep := randomdata.StringSample(".", "_", "")
	suffix := ""
	if randomdata.Number(10) >= 7 {
		suffix = strconv.Itoa(randomdata.Number(100))
	}
	return fmt.Sprintf("%s%s%s%s@%s", strings.ToLower(first), sep, strings.ToLower(last), suffix, domain)
}

// fillAddress sets a random street address on in.
func fillAddress(in *cliniko.PatientInput) {
	unit := ""
	if randomdata.Number(10) >= 7 {
		unit = fmt.Sprintf("Unit %d, ", randomdata.Number(1, 21))
	}
	in.AddressLine1 = ptr(fmt.Sprintf("%s%d %s %s", unit, randomdata.Number(1, 501), pick(streetNames), pick(streetTypes)))
	if randomdata.Number(10) >= 8 {
		in.AddressLine2 = ptr(fmt.Sprintf("Suite %d", randomdata.Number(1, 101)))
	}
	in.Suburb = ptr(pick(suburbs))
	in.State = ptr(pick(states))
	in.Postcode = ptr(strconv.Itoa(randomdata.Number(1000, 10000)))
	in.Country = ptr("Australia")
}

// syntheticPatient returns a random Australian patient whose email is on
// domain, and the name it was given.
func syntheticPatient(now time.Time, domain string) (string, cliniko.PatientInput) {
	first, last := pick(firstNames), pick(lastNames)
	in := cliniko.PatientInput{
		Title:                   ptr(pick(titles)),
		FirstName:               ptr(first),
		LastName:                ptr(last),
		DateOfBirth:             ptr(dateOfBirth(now)),
		Sex:                     ptr(pick(sexes)),
		Email:                   ptr(testEmail(first, last, domain)),
		PhoneNumber:             ptr(mobileNumber()),
		MedicareNumber:          ptr(medicareNumber()),
		MedicareReferenceNumber: ptr(strconv.Itoa(randomdata.Number(1, 10))),
	}
	fillAddress(&in)
	return first + " " + last, in
}

// syntheticProduct returns the i-th test product of a run. The product is
// taxed with a random tax when taxes is non-empty.
func syntheticProduct(now time.Time, i int, taxes []cliniko.Tax) cliniko.ProductInput {
	price := float64(randomdata.Number(50, 351))
	in := cliniko.ProductInput{
		Name:        pick(productNames) + TestProductSuffix,
		ItemCode:    fmt.Sprintf("%s%d-%d", TestItemCodePrefix, now.UnixMilli(), i),
		UnitPrice:   &price,
		Description: "Test product generated on " + now.Format(time.DateOnly),
	}
	if len(taxes) > 0 {
		in.TaxID = taxes[randomIndex(len(taxes))].ID
	}
	return in
}

// appointmentSlot returns a weekday business-hours start between one and
// daysAhead days after now, on a 15-minute boundary from 09:00 to 16:45.
// Weekend dates roll forward to Monday.
func appointmentSlot(now time.Time, daysAhead int) time.Time {
	if daysAhead < 1 {
		daysAhead = 1
	}
	day := now.AddDate(0, 0, randomdata.Number(1, daysAhead+1))
	start := time.Date(day.Year(), day.Month(), day.Day(),
		9+randomdata.Number(8), 15*randomdata.Number(4), 0, 0, now.Location())
	for start.Weekday() == time.Saturday || start.Weekday() == time.Sunday {
		start = start.AddDate(0, 0, 1)
	}
	return start
}

// isTestProduct reports whether p was made by the comprehensive generator.
func isTestProduct(p cliniko.Product) bool {
	return strings.Contains(p.Name, "TEST") ||
		strings.Contains(p.ItemCode, "TEST") ||
		strings.Contains(p.Description, "Test product")
}

// isTestAppointment reports whether a's notes mark it as generated.
func isTestAppointment(a cliniko.Appointment) bool {
	return strings.Contains(a.Notes, "TEST") || strings.Contains(a.Notes, "Test")
}
