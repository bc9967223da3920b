package reduce_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/kabaddi/internal/domain/reduce"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScale(t *testing.T) {
	Convey("Given a matrix with a varying and a constant column", t, func() {
		x := mat.NewDense(4, 2, []float64{
			1, 5,
			2, 5,
			3, 5,
			4, 5,
		})

		Convey("When scaling", func() {
			s := reduce.StandardScale(x)

			Convey("Then columns have zero mean and unit population deviation", func() {
				col := mat.Col(nil, 0, s)
				sum, sq := 0.0, 0.0
				for _, v := range col {
					sum += v
					sq += v * v
				}
				So(sum, ShouldAlmostEqual, 0, 1e-12)
				So(sq/4, ShouldAlmostEqual, 1, 1e-12)
			})

			Convey("And the constant column is all zeros", func() {
				So(mat.Col(nil, 1, s), ShouldResemble, []float64{0, 0, 0, 0})
			})
		})
	})
}

func TestPCA(t *testing.T) {
	ctx := context.Background()

	Convey("Given points along the direction (1, 2)", t, func() {
		x := mat.NewDense(5, 2, []float64{
			-2, -4,
			-1, -2,
			0, 0,
			1, 2,
			2, 4,
		})

		Convey("When reducing to five components", func() {
			p, err := reduce.PCA{Components: 5}.Reduce(ctx, x)

			Convey("Then components are capped by the matrix shape", func() {
				So(err, ShouldBeNil)
				r, c := p.Coords.Dims()
				So(r, ShouldEqual, 5)
				So(c, ShouldEqual, 2)
				lr, lc := p.Loadings.Dims()
				So(lr, ShouldEqual, 2)
				So(lc, ShouldEqual, 2)
			})

			Convey("And the first loading follows the data with a positive sign", func() {
				So(p.Loadings.At(0, 0), ShouldAlmostEqual, 1/math.Sqrt(5), 1e-9)
				So(p.Loadings.At(0, 1), ShouldAlmostEqual, 2/math.Sqrt(5), 1e-9)
				So(p.Coords.At(4, 0), ShouldAlmostEqual, math.Sqrt(20), 1e-9)
				So(p.Coords.At(4, 1), ShouldAlmostEqual, 0, 1e-9)
			})

			Convey("And explained variance is ordered", func() {
				So(p.Variance[0], ShouldBeGreaterThan, p.Variance[1])
			})
		})

		Convey("When only one row is given", func() {
			_, err := reduce.PCA{Components: 5}.Reduce(ctx, mat.NewDense(1, 2, []float64{1, 2}))
			So(errors.Is(err, reduce.ErrInsufficientData), ShouldBeTrue)
		})
	})
}

func TestNeighborEmbedding(t *testing.T) {
	ctx := context.Background()

	Convey("Given two well separated clusters", t, func() {
		data := make([]float64, 0, 12*3)
		for i := 0; i < 6; i++ {
			f := float64(i) * 0.01
			data = append(data, f, f, f)
		}
		for i := 0; i < 6; i++ {
			f := 10 + float64(i)*0.01
			data = append(data, f, f, f)
		}
		x := mat.NewDense(12, 3, data)
		e := reduce.NewNeighborEmbedding()
		e.Neighbors = 5
		e.Epochs = 100

		Convey("When embedding twice with the same seed", func() {
			a, errA := e.Reduce(ctx, x)
			b, errB := e.Reduce(ctx, x)

			Convey("Then the layouts are identical and two-dimensional", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				r, c := a.Coords.Dims()
				So(r, ShouldEqual, 12)
				So(c, ShouldEqual, 2)
				So(mat.Equal(a.Coords, b.Coords), ShouldBeTrue)
				So(a.Loadings, ShouldBeNil)
			})

			Convey("And every coordinate is finite", func() {
				for i := 0; i < 12; i++ {
					for j := 0; j < 2; j++ {
						v := a.Coords.At(i, j)
						So(math.IsNaN(v) || math.IsInf(v, 0), ShouldBeFalse)
					}
				}
			})
		})

		Convey("When the seed changes", func() {
			a, _ := e.Reduce(ctx, x)
			e.Seed = 7
			b, _ := e.Reduce(ctx, x)
			So(mat.Equal(a.Coords, b.Coords), ShouldBeFalse)
		})

		Convey("When there are fewer rows than neighbours", func() {
			p, err := e.Reduce(ctx, mat.NewDense(2, 1, []float64{0, 1}))
			So(err, ShouldBeNil)
			r, _ := p.Coords.Dims()
			So(r, ShouldEqual, 2)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.Reduce(cctx, x)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

var _ reduce.Reducer = reduce.PCA{}
var _ reduce.Reducer = reduce.NeighborEmbedding{}
