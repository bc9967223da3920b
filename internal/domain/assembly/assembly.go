package assembly

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/reduce"
	"github.com/okian/kabaddi/internal/domain/table"
	"github.com/okian/kabaddi/pkg/logger"
)

// Join keys and suffixes for colliding right-hand columns.
var (
	JoinKeys = []string{"player_name", "season"}

	contributionSuffix = "_contribution"
	statsSuffix        = "_stats"
)

// identifiers are never features, with or without a join suffix.
var identifiers = map[string]bool{
	"player_name":   true,
	"role":          true,
	"season":        true,
	"team_name":     true,
	"player_id":     true,
	"position_name": true,
	"team_id":       true,
}

// IsIdentifier reports whether column names an identifier.
func IsIdentifier(column string) bool {
	if identifiers[column] {
		return true
	}
	for _, s := range []string{contributionSuffix, statsSuffix} {
		if base, ok := strings.CutSuffix(column, s); ok && identifiers[base] {
			return true
		}
	}
	return false
}

// Result is the output of Assemble.
type Result struct {
	// Features is the joined table, numeric gaps filled with 0, plus dim columns when reduced.
	Features *table.Table
	// FeatureColumns are the columns fed to the reducers, in table order.
	FeatureColumns []string
	// Importance ranks FeatureColumns by the magnitude of their first linear
	// loading. Nil when the linear reducer has no loadings.
	Importance *table.Table
	// Reduced is false when there was too little data to reduce.
	Reduced bool
}

// Assembler builds the feature matrix.
type Assembler struct {
	linear    reduce.Reducer
	embedding reduce.Reducer
	normalize func(string) string
	logger    logger.Logger
}

// New creates an Assembler with a five-component PCA and the default embedding.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		linear:    reduce.PCA{Components: 5},
		embedding: reduce.NewNeighborEmbedding(),
		normalize: func(s string) string { return strings.ToLower(strings.TrimSpace(s)) },
		logger:    logger.Get().Named("assembly"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Join left-joins role success, contribution and z-scored player statistics
// on (player_name, season). Every input is schema-checked before its join.
func (a *Assembler) Join(roleSuccess, contribution, playerStats *table.Table) (*table.Table, error) {
	if err := playerStats.Require(JoinKeys...); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	stats := playerStats.Clone(playerStats.Name)
	if err := stats.Map("player_name", a.normalize); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	joined, err := table.LeftJoin("team_building_features", roleSuccess, contribution, JoinKeys, contributionSuffix)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	joined, err = table.LeftJoin("team_building_features", joined, stats, JoinKeys, statsSuffix)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return joined, nil
}

// FeatureColumns returns every non-identifier column whose non-empty cells are all numeric.
func FeatureColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if IsIdentifier(c) {
			continue
		}
		numeric := true
		for r := range t.Rows {
			v := strings.TrimSpace(t.Value(r, c))
			if v == "" {
				continue
			}
			if _, ok := model.ToFloat(v); !ok {
				numeric = false
				break
			}
		}
		if numeric {
			out = append(out, c)
		}
	}
	return out
}

// Matrix builds the rows×len(columns) matrix, missing cells as 0.
func Matrix(t *table.Table, columns []string) *mat.Dense {
	x := mat.NewDense(max(t.Len(), 1), max(len(columns), 1), nil)
	for r := range t.Rows {
		for j, c := range columns {
			x.Set(r, j, t.FloatOrZero(r, c))
		}
	}
	return x
}

// Assemble joins the inputs, scales the feature matrix, reduces it and ranks
// features. Too little data skips the reduction; the joined table is still
// returned.
func (a *Assembler) Assemble(ctx context.Context, roleSuccess, contribution, playerStats *table.Table) (Result, error) {
	joined, err := a.Join(roleSuccess, contribution, playerStats)
	if err != nil {
		return Result{}, err
	}
	cols := FeatureColumns(joined)
	for r := range joined.Rows {
		for _, c := range cols {
			if strings.TrimSpace(joined.Value(r, c)) == "" {
				joined.Set(r, c, "0")
			}
		}
	}
	res := Result{Features: joined, FeatureColumns: cols}

	if joined.Len() < 2 || len(cols) == 0 {
		a.logger.Warn(ctx, "too little data to reduce; skipping reduction",
			logger.Int("rows", joined.Len()), logger.Int("features", len(cols)))
		return res, nil
	}

	x := reduce.StandardScale(Matrix(joined, cols))

	linear, err := a.linear.Reduce(ctx, x)
	if errors.Is(err, reduce.ErrInsufficientData) {
		a.logger.Warn(ctx, "linear reduction skipped", logger.Error(err))
		return res, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("assemble: linear reduction: %w", err)
	}
	embedded, err := a.embedding.Reduce(ctx, x)
	if errors.Is(err, reduce.ErrInsufficientData) {
		a.logger.Warn(ctx, "embedding skipped", logger.Error(err))
		return res, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("assemble: embedding: %w", err)
	}

	_, dims := embedded.Coords.Dims()
	for d := 0; d < dims; d++ {
		name := fmt.Sprintf("dim%d", d+1)
		for r := range joined.Rows {
			joined.Set(r, name, model.FormatFloat(embedded.Coords.At(r, d)))
		}
	}
	res.Reduced = true
	if linear.Loadings == nil {
		a.logger.Warn(ctx, "linear reducer returned no loadings; features not ranked")
	} else {
		res.Importance = Importance(cols, linear.Loadings)
	}

	fields := []logger.Field{
		logger.Int("rows", joined.Len()),
		logger.Int("features", len(cols)),
		logger.Int("dims", dims),
	}
	if len(linear.Variance) > 0 {
		fields = append(fields, logger.Float64("first_component_variance", linear.Variance[0]))
	}
	a.logger.Info(ctx, "feature matrix reduced", fields...)
	return res, nil
}

// Importance ranks features by |first loading|, descending; ties keep column
// order. Nil loadings rank every feature at 0.
func Importance(columns []string, loadings *mat.Dense) *table.Table {
	type ranked struct {
		feature string
		loading float64
	}
	rows := make([]ranked, len(columns))
	for j, c := range columns {
		rows[j] = ranked{feature: c}
		if loadings != nil {
			rows[j].loading = math.Abs(loadings.At(0, j))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].loading > rows[j].loading })

	out := table.New("team_building_attributes", "feature", "pca_loading")
	for _, r := range rows {
		out.Append(r.feature, model.FormatFloat(r.loading))
	}
	return out
}
