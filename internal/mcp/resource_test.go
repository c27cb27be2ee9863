package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTemplate(t *testing.T) {
	tests := []struct {
		template string
		uri      string
		want     map[string]string
		match    bool
	}{
		{"patient://{id}", "patient://42", map[string]string{"id": "42"}, true},
		{"patient://{id}", "patients://list", nil, false},
		{"patient://{id}", "patient://42/extra", nil, false},
		{"patient://{id}", "xpatient://42", nil, false},
		{"patients://list", "patients://list", map[string]string{}, true},
		{"patients://list", "patients://listing", nil, false},
		{"appointment-types://list", "appointment-types://list", map[string]string{}, true},
		{"cliniko://patients/{patient_id}/cases/{case_id}", "cliniko://patients/7/cases/99",
			map[string]string{"patient_id": "7", "case_id": "99"}, true},
		{"a.b://{x}", "aXb://1", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.template+" "+tt.uri, func(t *testing.T) {
			p, err := compileTemplate(tt.template)
			require.NoError(t, err)

			params, ok := p.match(tt.uri)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, params)
			}
		})
	}
}

func TestDispatcher_ReadResource(t *testing.T) {
	var gotParams map[string]string
	reg, err := NewBuilder().
		AddResource(&Resource{
			URITemplate: "patient://{id}",
			Name:        "Patient",
			MIMEType:    "application/json",
			Handler: func(_ context.Context, _ string, params map[string]string) (*ResourceContents, error) {
				gotParams = params
				return &ResourceContents{Text: `{"id": 42}`}, nil
			},
		}).
		AddResource(&Resource{
			URITemplate: "patients://list",
			Name:        "Patients",
			MIMEType:    "application/json",
			Handler:     okResource,
		}).
		Build()
	require.NoError(t, err)
	d := NewDispatcher(reg)

	c, err := d.ReadResource(context.Background(), "patient://42")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "42"}, gotParams)
	assert.Equal(t, "patient://42", c.URI, "missing URI is filled in")
	assert.Equal(t, "application/json", c.MIMEType, "missing MIME type comes from the resource")
	assert.JSONEq(t, `{"id": 42}`, c.Text)

	_, err = d.ReadResource(context.Background(), "patients://list")
	require.NoError(t, err)

	_, err = d.ReadResource(context.Background(), "invoice://1")
	var unknown *UnknownResourceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "invoice://1", unknown.URI)
}

func TestDispatcher_ReadResourceFirstMatchWins(t *testing.T) {
	first := func(_ context.Context, uri string, _ map[string]string) (*ResourceContents, error) {
		return &ResourceContents{URI: uri, Text: "first"}, nil
	}
	second := func(_ context.Context, uri string, _ map[string]string) (*ResourceContents, error) {
		return &ResourceContents{URI: uri, Text: "second"}, nil
	}
	reg, err := NewBuilder().
		AddResource(&Resource{URITemplate: "appointments://{scope}", Handler: first}).
		AddResource(&Resource{URITemplate: "appointments://today", Handler: second}).
		Build()
	require.NoError(t, err)

	c, err := NewDispatcher(reg).ReadResource(context.Background(), "appointments://today")
	require.NoError(t, err)
	assert.Equal(t, "first", c.Text)
}

func TestDispatcher_ReadResourceHandlerError(t *testing.T) {
	boom := errors.New("boom")
	reg, err := NewBuilder().AddResource(&Resource{
		URITemplate: "appointment://{id}",
		Handler: func(context.Context, string, map[string]string) (*ResourceContents, error) {
			return nil, boom
		},
	}).Build()
	require.NoError(t, err)

	_, err = NewDispatcher(reg).ReadResource(context.Background(), "appointment://1")
	assert.ErrorIs(t, err, boom)
}
