// Package clustalo provides a client for the EBI Clustal Omega REST
// service used to align isoform protein sequences.
package clustalo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the EBI Clustal Omega REST endpoint.
const DefaultBaseURL = "https://www.ebi.ac.uk/Tools/services/rest/clustalo"

// Job status values reported by the service.
const (
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
	StatusError    = "ERROR"
	StatusFailure  = "FAILURE"
	StatusNotFound = "NOT_FOUND"
)

// Client submits alignment jobs to the EBI Clustal Omega service and
// polls for their results.
type Client struct {
	baseURL      string
	email        string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewClient creates a Clustal Omega client. The EBI service requires a
// contact email on every submission. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL, email string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		email:   email,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		pollInterval: 10 * time.Second,
		logger:       zap.NewNop(),
	}
}

// SetLogger sets the logger for job lifecycle messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetPollInterval overrides the status polling interval.
func (c *Client) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

// Submit submits sequences in FASTA format and returns the job ID.
func (c *Client) Submit(ctx context.Context, fastaSequences string) (string, error) {
	form := url.Values{
		"email":    {c.email},
		"sequence": {fastaSequences},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit alignment job: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read submit response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit alignment job: EBI error %d: %s", resp.StatusCode, string(body))
	}

	// The service returns the job ID as plain text.
	jobID := strings.TrimSpace(string(body))
	c.logger.Info("submitted alignment job", zap.String("job_id", jobID))
	return jobID, nil
}

// Status returns the current status of a job.
func (c *Client) Status(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+jobID, nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("check job %s status: %w", jobID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("check job %s status: EBI error %d: %s", jobID, resp.StatusCode, string(body))
	}

	return strings.TrimSpace(string(body)), nil
}

// Result retrieves the aligned sequences for a finished job in FASTA
// format.
func (c *Client) Result(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/result/"+jobID+"/fa", nil)
	if err != nil {
		return "", fmt.Errorf("build result request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch job %s result: %w", jobID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read result response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch job %s result: EBI error %d: %s", jobID, resp.StatusCode, string(body))
	}

	return string(body), nil
}

// Align submits sequences, polls until the job finishes, and returns the
// aligned FASTA. The context bounds the overall wait; terminal failure
// states abort immediately.
func (c *Client) Align(ctx context.Context, fastaSequences string) (string, error) {
	jobID, err := c.Submit(ctx, fastaSequences)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, jobID)
		if err != nil {
			return "", err
		}
		c.logger.Debug("alignment job status",
			zap.String("job_id", jobID),
			zap.String("status", status))

		switch status {
		case StatusFinished:
			return c.Result(ctx, jobID)
		case StatusError, StatusFailure, StatusNotFound:
			return "", fmt.Errorf("alignment job %s failed with status %s", jobID, status)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("alignment job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}
