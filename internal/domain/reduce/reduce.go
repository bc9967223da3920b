// Package reduce holds the matrix transforms applied to the feature matrix:
// standard scaling, a linear principal component projection and a seeded
// non-linear neighbourhood embedding.
package reduce

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Projection is the output of a Reducer.
type Projection struct {
	// Coords has one row per input row and one column per component.
	Coords *mat.Dense
	// Loadings has one row per component and one column per input feature.
	// Nil for reducers without linear loadings.
	Loadings *mat.Dense
	// Variance is the variance explained by each component, when known.
	Variance []float64
}

// Reducer maps an N×M matrix to N×k. Output is deterministic for a fixed
// configuration.
type Reducer interface {
	Reduce(ctx context.Context, x mat.Matrix) (Projection, error)
}

func checkShape(x mat.Matrix) (int, int, error) {
	r, c := x.Dims()
	if r < 2 || c < 1 {
		return r, c, fmt.Errorf("%w: %d rows x %d columns", ErrInsufficientData, r, c)
	}
	return r, c, nil
}

// StandardScale centers every column and divides by its population standard
// deviation. Constant columns become all zeros.
func StandardScale(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		mean, sd := stat.PopMeanStdDev(col, nil)
		for i, v := range col {
			if sd == 0 || math.IsNaN(sd) {
				out.Set(i, j, 0)
				continue
			}
			out.Set(i, j, (v-mean)/sd)
		}
	}
	return out
}
