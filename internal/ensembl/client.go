// Package ensembl provides a client for the Ensembl REST API.
package ensembl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Ensembl REST endpoint.
const DefaultBaseURL = "https://rest.ensembl.org"

// Client calls the Ensembl REST API for gene and sequence lookups.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an Ensembl REST client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for request outcome messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Transcript is one protein-coding transcript of a gene as reported by
// the lookup endpoint.
type Transcript struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Biotype     string `json:"biotype"`
	IsCanonical int    `json:"is_canonical"`
}

// lookupResponse is the expanded gene lookup payload.
type lookupResponse struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	Transcripts []Transcript `json:"Transcript"`
}

// LookupTranscripts fetches the transcripts of a gene and returns the
// protein-coding ones.
func (c *Client) LookupTranscripts(ctx context.Context, geneID string) ([]Transcript, error) {
	url := fmt.Sprintf("%s/lookup/id/%s?expand=1&content-type=application/json", c.baseURL, geneID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup gene %s: %w", geneID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("lookup gene %s: Ensembl REST error %d: %s", geneID, resp.StatusCode, string(body))
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	var coding []Transcript
	for _, t := range lookup.Transcripts {
		if t.Biotype == "protein_coding" {
			coding = append(coding, t)
		}
	}

	c.logger.Info("fetched transcripts",
		zap.String("gene", geneID),
		zap.Int("total", len(lookup.Transcripts)),
		zap.Int("protein_coding", len(coding)))

	return coding, nil
}

// sequenceRequest is the batch sequence POST body.
type sequenceRequest struct {
	IDs []string `json:"ids"`
}

// sequenceResponse is one entry of the batch sequence payload.
type sequenceResponse struct {
	Query string `json:"query"`
	Seq   string `json:"seq"`
}

// ProteinSequences fetches the protein sequence for each transcript ID,
// returning a map keyed by the queried ID.
func (c *Client) ProteinSequences(ctx context.Context, ids []string) (map[string]string, error) {
	url := fmt.Sprintf("%s/sequence/id?type=protein", c.baseURL)

	body, err := json.Marshal(sequenceRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encode sequence request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sequence request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch protein sequences: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch protein sequences: Ensembl REST error %d: %s", resp.StatusCode, string(respBody))
	}

	var entries []sequenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode sequence response: %w", err)
	}

	sequences := make(map[string]string, len(entries))
	for _, e := range entries {
		sequences[e.Query] = e.Seq
	}

	c.logger.Info("fetched protein sequences",
		zap.Int("requested", len(ids)),
		zap.Int("returned", len(sequences)))

	return sequences, nil
}
