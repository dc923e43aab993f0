package xena

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCohortSamples(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"TCGA TARGET GTEx KidsFirst"`)
		assert.Contains(t, string(body), "sampleID")
		fmt.Fprint(w, `["sample-1","sample-2","sample-3"]`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	samples, err := client.CohortSamples(context.Background(), DefaultCohort)
	require.NoError(t, err)
	assert.Equal(t, []string{"sample-1", "sample-2", "sample-3"}, samples)
}

func TestDatasetFetch_NullsBecomeNaN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[1.5,null,2.5],[null,0.0,3.5]]`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	rows, err := client.DatasetFetch(context.Background(), "ds",
		[]string{"s1", "s2", "s3"}, []string{"f1", "f2"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1.5, rows[0][0])
	assert.True(t, math.IsNaN(rows[0][1]))
	assert.Equal(t, 2.5, rows[0][2])
	assert.True(t, math.IsNaN(rows[1][0]))
}

func TestFieldCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"_study","code":"GTEX\tTCGA\tTARGET"}]`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	codes, err := client.FieldCodes(context.Background(), "pheno", []string{"_study"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GTEX", "TCGA", "TARGET"}, codes["_study"])
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CohortSamples(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

// hubStub simulates the subset of hub queries ExpressionTable issues.
func hubStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query := string(body)

		switch {
		case strings.Contains(query, "sampleID"):
			// Cohort samples
			fmt.Fprint(w, `["s1","s2","s3"]`)
		case strings.Contains(query, "(map :name"):
			// Available dataset fields, with version suffixes
			fmt.Fprint(w, `["ENST00000311936.8","ENST00000556131.1","ENST00000999999.1"]`)
		case strings.Contains(query, "(fetch") && strings.Contains(query, "rsem"):
			// Expression values: one row per transcript field
			fmt.Fprint(w, `[[1.0,2.0,null],[4.0,5.0,6.0]]`)
		case strings.Contains(query, "(fetch") && strings.Contains(query, "phenotype"):
			// Coded metadata rows: _study then main_category
			fmt.Fprint(w, `[[0,1,null],[0,1,0]]`)
		case strings.Contains(query, ":code.value"):
			fmt.Fprint(w, `[{"name":"_study","code":"GTEX\tTCGA"},{"name":"main_category","code":"Lung\tBrain"}]`)
		default:
			t.Errorf("unexpected hub query: %s", query)
			http.Error(w, "unexpected query", http.StatusBadRequest)
		}
	}))
}

func TestExpressionTable(t *testing.T) {
	server := hubStub(t)
	defer server.Close()

	client := NewClient(server.URL)
	labels := map[string]string{
		"ENST00000311936": "Isoform_1",
		"ENST00000556131": "Isoform_2",
		"ENST00000000404": "Isoform_2", // not in hub dataset, skipped
	}

	table, err := client.ExpressionTable(context.Background(), TableConfig{
		Cohort:           DefaultCohort,
		Dataset:          DefaultDataset,
		PhenotypeDataset: DefaultPhenotypeDataset,
	}, labels)
	require.NoError(t, err)

	// Fields are sorted: ENST00000311936.8 first, ENST00000556131.1 second.
	// s3 has no study code, so only s1 (GTEX/Lung) and s2 (TCGA/Brain)
	// survive; the null value for ENST00000311936/s3 is dropped anyway.
	require.Len(t, table, 4)

	assert.Equal(t, "GTEX", table[0].Study)
	assert.Equal(t, "Lung", table[0].CancerType)
	assert.Equal(t, "Isoform_1", table[0].Protein)
	assert.Equal(t, "ENST00000311936", table[0].Transcript)
	assert.Equal(t, 1.0, table[0].Value)

	assert.Equal(t, "TCGA", table[1].Study)
	assert.Equal(t, "Brain", table[1].CancerType)
	assert.Equal(t, 2.0, table[1].Value)

	assert.Equal(t, "Isoform_2", table[2].Protein)
	assert.Equal(t, 4.0, table[2].Value)
	assert.Equal(t, 5.0, table[3].Value)
}

func TestExpressionTable_NoTranscriptsFound(t *testing.T) {
	server := hubStub(t)
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ExpressionTable(context.Background(), DefaultTableConfig(),
		map[string]string{"ENST00000000000": "Isoform_1"})
	assert.Error(t, err)
}

func TestExpressionTable_NoTranscriptsRequested(t *testing.T) {
	client := NewClient("")
	_, err := client.ExpressionTable(context.Background(), DefaultTableConfig(), nil)
	assert.Error(t, err)
}

func TestStripVersion(t *testing.T) {
	assert.Equal(t, "ENST00000311936", stripVersion("ENST00000311936.8"))
	assert.Equal(t, "ENST00000311936", stripVersion("ENST00000311936"))
}
