package http

import "github.com/fyrsmithlabs/mcp-cliniko/internal/telemetry"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version,omitempty"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version,omitempty"`
	Tools     int            `json:"tools"`
	Resources int            `json:"resources"`
	Counts    map[string]int `json:"counts"`
}
