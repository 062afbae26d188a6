package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yalicar/string-compliance-iq/internal/faults"
)

// RenderClient hands fully assembled markup to the external PDF rendering
// service and passes the binary result through untouched.
type RenderClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewRenderClient(baseURL string, timeout time.Duration, logger *slog.Logger) *RenderClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "render_client")),
	}
}

type renderRequest struct {
	HTML     string `json:"html"`
	Filename string `json:"filename"`
}

// RenderPDF posts the markup and returns the rendered PDF bytes. Any failure
// is a TransportError; the caller still holds the markup and can retry.
func (c *RenderClient) RenderPDF(ctx context.Context, html, filename string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{HTML: html, Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-pdf", bytes.NewReader(body))
	if err != nil {
		return nil, faults.Transport("build render request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, faults.Transport("call render service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, faults.Transport("call render service",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg))
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Transport("read rendered document", err)
	}

	c.logger.Info("report rendered",
		slog.String("filename", filename),
		slog.Int("pdf_bytes", len(pdf)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return pdf, nil
}
