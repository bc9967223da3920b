package reduce

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects onto the leading principal components.
type PCA struct {
	// Components is the number of components kept, capped at min(rows, columns).
	Components int
}

// Reduce implements Reducer. Each component is signed so that its
// largest-magnitude loading is positive.
func (p PCA) Reduce(ctx context.Context, x mat.Matrix) (Projection, error) {
	rows, cols, err := checkShape(x)
	if err != nil {
		return Projection{}, err
	}
	if err := ctx.Err(); err != nil {
		return Projection{}, err
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return Projection{}, fmt.Errorf("%w: principal components of %dx%d", ErrDecomposition, rows, cols)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	_, avail := vecs.Dims()
	k := min(max(p.Components, 1), rows, cols, avail)

	loadings := mat.NewDense(k, cols, nil)
	for j := 0; j < k; j++ {
		sign := 1.0
		big := 0.0
		for f := 0; f < cols; f++ {
			if v := vecs.At(f, j); math.Abs(v) > math.Abs(big) {
				big = v
			}
		}
		if big < 0 {
			sign = -1
		}
		for f := 0; f < cols; f++ {
			loadings.Set(j, f, sign*vecs.At(f, j))
		}
	}

	centered := mat.DenseCopyOf(x)
	col := make([]float64, rows)
	for f := 0; f < cols; f++ {
		mat.Col(col, f, centered)
		mean := stat.Mean(col, nil)
		for i := range col {
			centered.Set(i, f, col[i]-mean)
		}
	}

	var coords mat.Dense
	coords.Mul(centered, loadings.T())

	return Projection{Coords: &coords, Loadings: loadings, Variance: append([]float64(nil), vars[:k]...)}, nil
}
