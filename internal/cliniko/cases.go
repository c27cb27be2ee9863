package cliniko

import "context"

func (c *Client) ListPatientCases(ctx context.Context, patientID ID, opts PageOptions) (*ListResponse[PatientCase], error) {
	path, err := resourcePath("/patients", patientID, "/cases")
	if err != nil {
		return nil, err
	}
	return list[PatientCase](ctx, c, path, "patient_cases", opts.query())
}

func (c *Client) GetCase(ctx context.Context, id ID) (*PatientCase, error) {
	path, err := resourcePath("/cases", id, "")
	if err != nil {
		return nil, err
	}
	var pc PatientCase
	if err := c.getJSON(ctx, path, &pc); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (c *Client) ListCaseInvoices(ctx context.Context, id ID, opts PageOptions) (*ListResponse[Invoice], error) {
	path, err := resourcePath("/cases", id, "/invoices")
	if err != nil {
		return nil, err
	}
	return list[Invoice](ctx, c, path, "invoices", opts.query())
}
