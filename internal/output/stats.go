package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/lindelab/isoviz/internal/expression"
)

// statsColumns is the header of the boxplot stats table.
var statsColumns = []string{
	"study",
	"cancer_type",
	"protein",
	"transcript",
	"median",
	"q1",
	"q3",
	"lowerfence",
	"upperfence",
	"outliers",
	"marker_color",
}

// WriteStatsCSV writes one row per boxplot group in record order.
// Outlier values are encoded as a JSON array in a single column.
func WriteStatsCSV(w io.Writer, records []expression.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statsColumns); err != nil {
		return fmt.Errorf("write stats header: %w", err)
	}

	for _, r := range records {
		outliers := r.Outliers
		if outliers == nil {
			outliers = []float64{}
		}
		encoded, err := json.Marshal(outliers)
		if err != nil {
			return fmt.Errorf("encode outliers for %s: %w", r, err)
		}

		row := []string{
			r.Study,
			r.CancerType,
			r.Protein,
			r.Transcript,
			formatFloat(r.Median),
			formatFloat(r.Q1),
			formatFloat(r.Q3),
			formatFloat(r.LowerFence),
			formatFloat(r.UpperFence),
			string(encoded),
			r.Color,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write stats row %s: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadStatsCSV reads a boxplot stats table written by WriteStatsCSV.
func ReadStatsCSV(r io.Reader) ([]expression.Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read stats header: %w", err)
	}
	if len(header) != len(statsColumns) {
		return nil, fmt.Errorf("stats table has %d columns, want %d", len(header), len(statsColumns))
	}

	var records []expression.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read stats row: %w", err)
		}

		rec := expression.Record{
			GroupKey: expression.GroupKey{
				Study:      row[0],
				CancerType: row[1],
				Protein:    row[2],
				Transcript: row[3],
			},
			Color: row[10],
		}

		floats := []*float64{&rec.Median, &rec.Q1, &rec.Q3, &rec.LowerFence, &rec.UpperFence}
		for i, dst := range floats {
			v, err := strconv.ParseFloat(row[4+i], 64)
			if err != nil {
				return nil, fmt.Errorf("parse stats value %q: %w", row[4+i], err)
			}
			*dst = v
		}

		var outliers []float64
		if err := json.Unmarshal([]byte(row[9]), &outliers); err != nil {
			return nil, fmt.Errorf("parse outliers %q: %w", row[9], err)
		}
		if len(outliers) > 0 {
			rec.Outliers = outliers
		}

		records = append(records, rec)
	}

	return records, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
