package reduce

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Default embedding configuration constants.
const (
	defaultEmbeddingComponents = 2
	defaultNeighbors           = 15
	defaultEpochs              = 200
	defaultSeed                = 42

	// Curve parameters of the low-dimensional similarity for a minimum
	// distance of 0.1 and spread of 1.
	curveA = 1.577
	curveB = 0.8951

	negativeSamples = 5
	gradientClip    = 4.0
	initSpread      = 10.0
	sigmaSearchIter = 64
	sigmaTolerance  = 1e-5
)

// NeighborEmbedding is a neighbourhood-preserving non-linear embedding: a
// fuzzy k-nearest-neighbour graph of the input laid out in few dimensions
// by seeded stochastic gradient descent.
type NeighborEmbedding struct {
	Components int
	Neighbors  int
	Epochs     int
	Seed       int64
}

// NewNeighborEmbedding returns an embedding with the default parameters.
func NewNeighborEmbedding() NeighborEmbedding {
	return NeighborEmbedding{
		Components: defaultEmbeddingComponents,
		Neighbors:  defaultNeighbors,
		Epochs:     defaultEpochs,
		Seed:       defaultSeed,
	}
}

type edge struct {
	i, j   int
	weight float64
}

// Reduce implements Reducer.
func (e NeighborEmbedding) Reduce(ctx context.Context, x mat.Matrix) (Projection, error) {
	n, _, err := checkShape(x)
	if err != nil {
		return Projection{}, err
	}
	dims := max(e.Components, 1)
	k := min(max(e.Neighbors, 2), n) - 1
	epochs := max(e.Epochs, 1)

	points := make([][]float64, n)
	for i := range points {
		points[i] = mat.Row(nil, i, x)
	}
	graph := fuzzyGraph(points, k)

	rng := rand.New(rand.NewSource(e.Seed)) //nolint:gosec // deterministic layout
	y := make([][]float64, n)
	for i := range y {
		y[i] = make([]float64, dims)
		for d := range y[i] {
			y[i][d] = (rng.Float64()*2 - 1) * initSpread
		}
	}

	diff := make([]float64, dims)
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return Projection{}, err
		}
		alpha := 1 - float64(epoch)/float64(epochs)
		for _, ed := range graph {
			if rng.Float64() > ed.weight {
				continue
			}
			yi, yj := y[ed.i], y[ed.j]
			floats.SubTo(diff, yi, yj)
			d2 := floats.Dot(diff, diff)
			if d2 > 0 {
				coef := -2 * curveA * curveB * math.Pow(d2, curveB-1) / (1 + curveA*math.Pow(d2, curveB))
				for d := range diff {
					g := clip(coef*diff[d]) * alpha
					yi[d] += g
					yj[d] -= g
				}
			}
			for s := 0; s < negativeSamples; s++ {
				other := rng.Intn(n)
				if other == ed.i {
					continue
				}
				yk := y[other]
				floats.SubTo(diff, yi, yk)
				d2 := floats.Dot(diff, diff)
				coef := 0.0
				if d2 > 0 {
					coef = 2 * curveB / ((0.001 + d2) * (1 + curveA*math.Pow(d2, curveB)))
				}
				for d := range diff {
					g := gradientClip
					if coef > 0 {
						g = clip(coef * diff[d])
					}
					yi[d] += g * alpha
				}
			}
		}
	}

	coords := mat.NewDense(n, dims, nil)
	for i, row := range y {
		coords.SetRow(i, row)
	}
	return Projection{Coords: coords}, nil
}

// fuzzyGraph builds the symmetric weighted k-nearest-neighbour graph.
func fuzzyGraph(points [][]float64, k int) []edge {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			dist[i][j], dist[j][i] = d, d
		}
	}

	weights := make(map[[2]int]float64)
	target := math.Log2(float64(k))
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		order = order[:0]
		for j := 0; j < n; j++ {
			if j != i {
				order = append(order, j)
			}
		}
		sort.SliceStable(order, func(a, b int) bool { return dist[i][order[a]] < dist[i][order[b]] })
		nbrs := order[:k]

		rho := 0.0
		for _, j := range nbrs {
			if dist[i][j] > 0 {
				rho = dist[i][j]
				break
			}
		}
		sigma := findSigma(dist[i], nbrs, rho, target)
		for _, j := range nbrs {
			w := math.Exp(-math.Max(0, dist[i][j]-rho) / sigma)
			weights[[2]int{i, j}] = w
		}
	}

	var edges []edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := weights[[2]int{i, j}], weights[[2]int{j, i}]
			if w := a + b - a*b; w > 0 {
				edges = append(edges, edge{i: i, j: j, weight: w})
			}
		}
	}
	return edges
}

// findSigma searches the bandwidth whose neighbour weights sum to target.
func findSigma(dist []float64, nbrs []int, rho, target float64) float64 {
	lo, hi, mid := 0.0, math.Inf(1), 1.0
	for iter := 0; iter < sigmaSearchIter; iter++ {
		sum := 0.0
		for _, j := range nbrs {
			sum += math.Exp(-math.Max(0, dist[j]-rho) / mid)
		}
		if math.Abs(sum-target) < sigmaTolerance {
			break
		}
		if sum > target {
			hi = mid
			mid = (lo + hi) / 2
		} else {
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}
	}
	return math.Max(mid, 1e-3)
}

func clip(v float64) float64 {
	return math.Max(-gradientClip, math.Min(gradientClip, v))
}
