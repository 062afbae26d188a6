// Package calcsvc talks to the external string-calculation service and turns
// its loosely-typed responses into the strict circuit shape the compliance
// core works with. The service owns the physics; this package owns the
// boundary.
package calcsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yalicar/string-compliance-iq/internal/faults"
	"github.com/yalicar/string-compliance-iq/internal/normative"
)

// RawRecord is one circuit record exactly as the calculation service sent
// it. Keys are not trusted until NormalizeAll has run.
type RawRecord map[string]any

// Response is the calculation service's reply for one project/stage run.
type Response struct {
	Records             []RawRecord
	HasProjectOverrides bool
}

// Client is an HTTP client for the calculation service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a Client against the given base URL. The timeout bounds
// the whole request including body read.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "calc_client")),
	}
}

type calcPayload struct {
	Results             []RawRecord `json:"results"`
	HasProjectOverrides bool        `json:"has_project_overrides"`
}

// Calculate requests a calculation run for one project stage under the given
// standard. Any failure to reach or decode the service is a TransportError;
// per-circuit failures arrive inside the records and are handled downstream.
func (c *Client) Calculate(ctx context.Context, projectID uuid.UUID, stage string, std normative.Standard) (*Response, error) {
	url := fmt.Sprintf("%s/calculate/%s/%s/%s", c.baseURL, std, stage, projectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, faults.Transport("build calculation request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, faults.Transport("call calculation service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, faults.Transport("call calculation service",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body))
	}

	var payload calcPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, faults.Transport("decode calculation response", err)
	}

	c.logger.Info("calculation completed",
		slog.String("project_id", projectID.String()),
		slog.String("stage", stage),
		slog.String("norm_standard", string(std)),
		slog.Int("record_count", len(payload.Results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &Response{
		Records:             payload.Results,
		HasProjectOverrides: payload.HasProjectOverrides,
	}, nil
}
