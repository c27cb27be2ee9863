package workflows

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

const ruleWidth = 60

func invoiceNumber(inv cliniko.Invoice) string {
	if inv.InvoiceNumber != "" {
		return inv.InvoiceNumber
	}
	return inv.ID.String()
}

func refName(ref *cliniko.Ref, fallback string) string {
	if ref == nil || ref.Name == "" {
		return fallback
	}
	return ref.Name
}

func totalValue(invoices []cliniko.Invoice) float64 {
	var total float64
	for _, inv := range invoices {
		total += float64(inv.Total)
	}
	return total
}

// renderInvoices formats invoices as plain text. The summary format shows
// number, patient, total and status; the detailed format adds practitioner,
// issue date, payment terms, line items and notes.
func renderInvoices(invoices []cliniko.Invoice, format string) string {
	var b strings.Builder
	if format == FormatSummary {
		b.WriteString("Invoice Summary:\n")
	} else {
		b.WriteString("Detailed Invoices:\n")
	}
	b.WriteString(strings.Repeat("-", ruleWidth))
	b.WriteString("\n")

	for i, inv := range invoices {
		if format == FormatSummary {
			fmt.Fprintf(&b, "\nInvoice %d: #%s\n", i+1, invoiceNumber(inv))
			fmt.Fprintf(&b, "  Patient: %s\n", refName(inv.Patient, "Unknown"))
			fmt.Fprintf(&b, "  Total: $%.2f\n", float64(inv.Total))
			fmt.Fprintf(&b, "  Status: %s\n", inv.Status)
			continue
		}

		fmt.Fprintf(&b, "\nInvoice %d:\n", i+1)
		fmt.Fprintf(&b, "  Number: #%s\n", invoiceNumber(inv))
		fmt.Fprintf(&b, "  Patient: %s\n", refName(inv.Patient, "Unknown"))
		fmt.Fprintf(&b, "  Practitioner: %s\n", refName(inv.Practitioner, "Unknown"))
		fmt.Fprintf(&b, "  Issue Date: %s\n", inv.IssuedAt)
		fmt.Fprintf(&b, "  Status: %s\n", inv.Status)
		if inv.PaymentTerms > 0 {
			fmt.Fprintf(&b, "  Payment Terms: %d days\n", inv.PaymentTerms)
		} else {
			b.WriteString("  Payment Terms: Not specified\n")
		}
		fmt.Fprintf(&b, "  Total: $%.2f\n", float64(inv.Total))
		if len(inv.InvoiceItems) > 0 {
			b.WriteString("  Items:\n")
			for _, item := range inv.InvoiceItems {
				fmt.Fprintf(&b, "    - %s: $%.2f x %g\n", item.Description, float64(item.UnitPrice), float64(item.Quantity))
			}
		}
		if inv.Notes != "" {
			fmt.Fprintf(&b, "  Notes: %s\n", inv.Notes)
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", ruleWidth))
	fmt.Fprintf(&b, "\nTotal Invoice Value: $%.2f\n", totalValue(invoices))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// renderDemoSummary formats the outcome of a demo run. The detailed format
// also lists the invoices found.
func renderDemoSummary(res *DemoResults, opts DemoOptions) string {
	var b strings.Builder
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "  Test data cleared: %s\n", yesNo(res.ClearedData))
	fmt.Fprintf(&b, "  Patients created: %d/%d\n", res.Generated.Patients, opts.NumPatients)
	fmt.Fprintf(&b, "  Appointments created: %d/%d\n", res.Generated.Appointments, opts.NumAppointments)
	if opts.CreateInvoices {
		fmt.Fprintf(&b, "  Invoices created: %d/%d\n", res.Generated.InvoicesCreated, res.Generated.Appointments)
	}
	fmt.Fprintf(&b, "  Invoices found: %d\n", res.Generated.InvoicesFound)
	fmt.Fprintf(&b, "  Execution time: %.2f seconds\n", float64(res.ExecutionTimeMS)/1000)
	fmt.Fprintf(&b, "  Target date: %s\n", res.TargetDate)

	if opts.DisplayFormat == FormatDetailed && len(res.Invoices) > 0 {
		b.WriteString("\n")
		b.WriteString(renderInvoices(res.Invoices, FormatDetailed))
	}
	if res.Generated.InvoicesFound == 0 {
		b.WriteString("\nNext steps:\n")
		b.WriteString("  1. Create invoices with create_invoice, or from each appointment in the Cliniko web interface\n")
		fmt.Fprintf(&b, "  2. Run display_invoices_for_date for %s to view them\n", res.TargetDate)
	}
	return b.String()
}
