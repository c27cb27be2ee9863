package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/workflows"
)

func (h *handlers) registerWorkflowTools(b *mcp.Builder) {
	domain := h.runner.Config().TestDomain

	b.AddTool(&mcp.Tool{
		Name:        "generate_test_data",
		Description: "Generate synthetic test data for Cliniko (Australian healthcare data)",
		Category:    mcp.CategoryWorkflows,
		Keywords:    []string{"seed", "fake", "synthetic", "populate"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"num_patients":     mcp.Default(mcp.Between(mcp.Integer("Number of patients to create"), 1, 50), 10),
			"num_appointments": mcp.Default(mcp.Between(mcp.Integer("Number of appointments to create"), 0, 100), 20),
			"days_ahead":       mcp.Default(mcp.Between(mcp.Integer("Schedule appointments up to this many days ahead"), 1, 30), 7),
		}),
		Handler: mcp.Typed(h.generateTestData),
	})

	b.AddTool(&mcp.Tool{
		Name:        "cleanup_test_data",
		Description: "Remove test patients whose email is on the test domain",
		Category:    mcp.CategoryWorkflows,
		Keywords:    []string{"clean", "purge", "reset", "remove"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"test_domain": mcp.Default(mcp.String("Email domain marking test patients"), domain),
			"dry_run":     mcp.Default(mcp.Boolean("Only report what would be deleted"), false),
		}),
		Handler: mcp.Typed(h.cleanupTestData),
	})

	b.AddTool(&mcp.Tool{
		Name:        "generate_comprehensive_test_data",
		Description: "Generate comprehensive synthetic test data across all Cliniko categories",
		Category:    mcp.CategoryWorkflows,
		Keywords:    []string{"seed", "fake", "synthetic", "products"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"num_patients":     mcp.Default(mcp.Between(mcp.Integer("Number of patients to create"), 1, 50), 10),
			"num_products":     mcp.Default(mcp.Between(mcp.Integer("Number of products to create"), 0, 20), 5),
			"num_appointments": mcp.Default(mcp.Between(mcp.Integer("Number of appointments to create"), 0, 100), 20),
			"days_ahead":       mcp.Default(mcp.Between(mcp.Integer("Schedule appointments up to this many days ahead"), 1, 30), 7),
			"test_domain":      mcp.Default(mcp.String("Email domain for generated patients"), domain),
		}),
		Handler: mcp.Typed(h.generateComprehensiveTestData),
	})

	b.AddTool(&mcp.Tool{
		Name:        "cleanup_comprehensive_test_data",
		Description: "Clean up all test data with granular control and dry-run option",
		Category:    mcp.CategoryWorkflows,
		Keywords:    []string{"clean", "purge", "reset", "remove"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"delete_patients":      mcp.Default(mcp.Boolean("Delete test patients"), true),
			"delete_appointments":  mcp.Default(mcp.Boolean("Delete test appointments"), true),
			"delete_invoices":      mcp.Default(mcp.Boolean("Delete invoices of test patients"), false),
			"delete_products":      mcp.Default(mcp.Boolean("Delete test products"), true),
			"delete_all_test_data": mcp.Default(mcp.Boolean("Delete every category above"), false),
			"test_domain":          mcp.Default(mcp.String("Email domain marking test patients"), domain),
			"dry_run":              mcp.Default(mcp.Boolean("Only report what would be deleted"), false),
		}),
		Handler: mcp.Typed(h.cleanupComprehensiveTestData),
	})

	b.AddTool(&mcp.Tool{
		Name:        "demo_invoice_generation",
		Description: "Create demo patients and appointments for a date and report their invoices",
		Category:    mcp.CategoryWorkflows,
		Keywords:    []string{"demo", "invoices", "walkthrough"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"target_date":      mcp.String("Date for the demo appointments (YYYY-MM-DD, default today)"),
			"num_patients":     mcp.Default(mcp.Between(mcp.Integer("Number of demo patients"), 1, 10), 5),
			"num_appointments": mcp.Default(mcp.Between(mcp.Integer("Number of demo appointments"), 1, 20), 10),
			"clear_existing":   mcp.Default(mcp.Boolean("Remove earlier demo patients first"), true),
			"create_invoices":  mcp.Default(mcp.Boolean("Create one invoice per appointment"), false),
			"display_format":   mcp.Default(mcp.Enum("Report format", workflows.DisplayFormats...), workflows.FormatDetailed),
		}),
		Handler: mcp.Typed(h.demoInvoiceGeneration),
	})

	b.AddTool(&mcp.Tool{
		Name:        "display_invoices_for_date",
		Description: "Display the invoices issued on a date",
		Category:    mcp.CategoryWorkflows,
		Keywords:    []string{"invoices", "report", "day"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"target_date":    mcp.String("Issue date (YYYY-MM-DD)"),
			"display_format": mcp.Default(mcp.Enum("Report format", workflows.DisplayFormats...), workflows.FormatDetailed),
		}, "target_date"),
		Handler: mcp.Typed(h.displayInvoicesForDate),
	})
}

// reportResult renders a workflow report as JSON, preceded by its display
// text when there is one.
func reportResult(display string, report any) (*mcp.Result, error) {
	res, err := mcp.JSONResult(report)
	if err != nil || display == "" {
		return res, err
	}
	res.Content = append([]mcp.Content{{Type: "text", Text: display}}, res.Content...)
	return res, nil
}

func (h *handlers) generateTestData(ctx context.Context, in workflows.GenerateOptions) (*mcp.Result, error) {
	report, err := h.runner.GenerateTestData(ctx, in)
	if err != nil {
		return failed(ctx, "generate test data", err)
	}
	return mcp.JSONResult(report)
}

func (h *handlers) cleanupTestData(ctx context.Context, in workflows.CleanupOptions) (*mcp.Result, error) {
	report, err := h.runner.CleanupTestData(ctx, in)
	if err != nil {
		return failed(ctx, "clean up test data", err)
	}
	return mcp.JSONResult(report)
}

func (h *handlers) generateComprehensiveTestData(ctx context.Context, in workflows.ComprehensiveOptions) (*mcp.Result, error) {
	report, err := h.runner.GenerateComprehensiveTestData(ctx, in)
	if err != nil {
		return failed(ctx, "generate comprehensive test data", err)
	}
	return mcp.JSONResult(report)
}

func (h *handlers) cleanupComprehensiveTestData(ctx context.Context, in workflows.ComprehensiveCleanupOptions) (*mcp.Result, error) {
	report, err := h.runner.CleanupComprehensiveTestData(ctx, in)
	if err != nil {
		return failed(ctx, "clean up comprehensive test data", err)
	}
	return mcp.JSONResult(report)
}

func (h *handlers) demoInvoiceGeneration(ctx context.Context, in workflows.DemoOptions) (*mcp.Result, error) {
	report, err := h.runner.DemoInvoiceGeneration(ctx, in)
	if err != nil {
		return failed(ctx, "run invoice demo", err)
	}
	res, err := reportResult(report.Results.Display, report)
	if err == nil && !report.Success {
		res.IsError = true
	}
	return res, err
}

func (h *handlers) displayInvoicesForDate(ctx context.Context, in workflows.DisplayOptions) (*mcp.Result, error) {
	report, err := h.runner.DisplayInvoicesForDate(ctx, in)
	if err != nil {
		return failed(ctx, "display invoices", err)
	}
	var display string
	if report.Results != nil {
		display = report.Results.Display
	}
	res, err := reportResult(display, report)
	if err == nil && report.Error != "" {
		res.IsError = true
	}
	return res, err
}
