// Package zscore adds per-column standard scores to a table.
package zscore

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
)

// Prefix names the derived column: z_score_<column>.
const Prefix = "z_score_"

// Scores returns (v-mean)/sd for values using the sample standard deviation.
// A column with zero, undefined or non-finite deviation scores all zeros.
func Scores(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) < 2 {
		return out
	}
	mean, sd := stat.MeanStdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / sd
	}
	return out
}

// Apply appends a z_score_ column for every listed column. Cells that are
// not numeric count as 0.
func Apply(t *table.Table, columns []string) error {
	if err := t.Require(columns...); err != nil {
		return err
	}
	values := make([]float64, t.Len())
	for _, c := range columns {
		cells, err := t.Column(c)
		if err != nil {
			return err
		}
		for r, cell := range cells {
			values[r] = 0
			if v, ok := model.ToFloat(cell); ok {
				values[r] = v
			}
		}
		z := Scores(values)
		name := Prefix + c
		if !t.Has(name) {
			t.AddColumn(name)
		}
		for r, v := range z {
			t.Set(r, name, model.FormatFloat(v))
		}
	}
	return nil
}
