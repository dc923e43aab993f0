// Package xena provides a client for UCSC Xena data hubs, covering the
// queries the expression pipeline needs: cohort samples, dataset fields,
// expression values, and phenotype field codes.
package xena

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultHost is the public hub carrying both TCGA and GTEx data.
const DefaultHost = "https://kidsfirst.xenahubs.net"

// Client issues queries against a Xena hub. Hubs expose a single /data
// endpoint taking a query expression and returning JSON.
type Client struct {
	host       string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Xena hub client. An empty host selects the public
// TCGA/GTEx hub.
func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		host: host,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for query outcome messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// post sends a query expression to the hub's /data endpoint and returns
// the raw JSON response.
func (c *Client) post(ctx context.Context, query string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/data",
		strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("build hub request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query hub: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read hub response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query hub: error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// CohortSamples returns the sample IDs of a cohort.
func (c *Client) CohortSamples(ctx context.Context, cohort string) ([]string, error) {
	query := fmt.Sprintf(
		`(map :value (query {:select [:value] :from [:dataset] :join [:field [:= :dataset.id :field.dataset_id] :code [:= :field.id :code.field_id]] :where [:and [:= :cohort %s] [:= :field.name "sampleID"]]}))`,
		encodeString(cohort))

	body, err := c.post(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cohort samples: %w", err)
	}

	var samples []string
	if err := json.Unmarshal(body, &samples); err != nil {
		return nil, fmt.Errorf("decode cohort samples: %w", err)
	}

	c.logger.Info("fetched cohort samples",
		zap.String("cohort", cohort),
		zap.Int("count", len(samples)))

	return samples, nil
}

// DatasetField returns the field names (row identifiers) of a dataset.
func (c *Client) DatasetField(ctx context.Context, dataset string) ([]string, error) {
	query := fmt.Sprintf(
		`(map :name (query {:select [:field.name] :from [:dataset] :join [:field [:= :dataset.id :field.dataset_id]] :where [:= :dataset.name %s]}))`,
		encodeString(dataset))

	body, err := c.post(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset fields: %w", err)
	}

	var fields []string
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode dataset fields: %w", err)
	}

	return fields, nil
}

// DatasetFetch returns the values of the given fields for the given
// samples, one row per field in request order. Missing values come back
// as JSON null and are mapped to NaN so callers can drop them before
// aggregation.
func (c *Client) DatasetFetch(ctx context.Context, dataset string, samples, fields []string) ([][]float64, error) {
	query := fmt.Sprintf(
		`(fetch [{:table %s :columns %s :samples %s}])`,
		encodeString(dataset), encodeStrings(fields), encodeStrings(samples))

	body, err := c.post(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset fetch: %w", err)
	}

	var raw [][]*float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset fetch: %w", err)
	}

	rows := make([][]float64, len(raw))
	for i, row := range raw {
		rows[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				rows[i][j] = math.NaN()
			} else {
				rows[i][j] = *v
			}
		}
	}

	c.logger.Info("fetched dataset values",
		zap.String("dataset", dataset),
		zap.Int("fields", len(fields)),
		zap.Int("samples", len(samples)))

	return rows, nil
}

// FieldCodes returns the categorical code list for each requested field
// of a phenotype dataset. Codes arrive tab-joined; the decoded value of
// a cell holding integer k is codes[k].
func (c *Client) FieldCodes(ctx context.Context, dataset string, fields []string) (map[string][]string, error) {
	query := fmt.Sprintf(
		`(query {:select [:field.name :code.value] :from [:dataset] :join [:field [:= :dataset.id :field.dataset_id] :code [:= :field.id :code.field_id]] :where [:and [:= :dataset.name %s] [:in :field.name %s]]})`,
		encodeString(dataset), encodeStrings(fields))

	body, err := c.post(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("field codes: %w", err)
	}

	var entries []struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode field codes: %w", err)
	}

	codes := make(map[string][]string, len(entries))
	for _, e := range entries {
		codes[e.Name] = strings.Split(e.Code, "\t")
	}

	return codes, nil
}

// encodeString quotes a string for a hub query expression.
func encodeString(s string) string {
	return fmt.Sprintf("%q", s)
}

// encodeStrings renders a string vector for a hub query expression.
func encodeStrings(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(encodeString(s))
	}
	b.WriteByte(']')
	return b.String()
}
