package table

import (
	"strings"

	"github.com/okian/kabaddi/internal/domain/model"
)

const keySep = "\x1f"

// JoinKey canonicalizes a key cell: trimmed, and numbers in one form so
// "3" and "3.0" match.
func JoinKey(v string) string {
	v = strings.TrimSpace(v)
	if f, ok := model.ToFloat(v); ok {
		return model.FormatFloat(f)
	}
	return v
}

func compositeKey(row []string, idx []int) string {
	parts := make([]string, len(idx))
	for i, j := range idx {
		parts[i] = JoinKey(row[j])
	}
	return strings.Join(parts, keySep)
}

// LeftJoin keeps every left row, repeating it once per matching right row.
// Right columns that collide with left columns get suffix appended.
func LeftJoin(name string, left, right *Table, keys []string, suffix string) (*Table, error) {
	return join(name, left, right, keys, suffix, true)
}

// InnerJoin keeps only left rows with at least one matching right row.
func InnerJoin(name string, left, right *Table, keys []string, suffix string) (*Table, error) {
	return join(name, left, right, keys, suffix, false)
}

func join(name string, left, right *Table, keys []string, suffix string, keepUnmatched bool) (*Table, error) {
	if err := left.Require(keys...); err != nil {
		return nil, err
	}
	if err := right.Require(keys...); err != nil {
		return nil, err
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	columns := append([]string(nil), left.Columns...)
	var rightIdx []int
	for j, c := range right.Columns {
		if isKey[c] {
			continue
		}
		out := c
		if left.Has(c) {
			out = c + suffix
		}
		columns = append(columns, out)
		rightIdx = append(rightIdx, j)
	}

	leftKeys := make([]int, len(keys))
	rightKeys := make([]int, len(keys))
	for i, k := range keys {
		leftKeys[i] = left.Index(k)
		rightKeys[i] = right.Index(k)
	}

	matches := make(map[string][]int, len(right.Rows))
	for r, row := range right.Rows {
		k := compositeKey(row, rightKeys)
		matches[k] = append(matches[k], r)
	}

	out := New(name, columns...)
	for _, row := range left.Rows {
		hits := matches[compositeKey(row, leftKeys)]
		if len(hits) == 0 {
			if keepUnmatched {
				out.Append(row...)
			}
			continue
		}
		for _, r := range hits {
			cells := make([]string, 0, len(columns))
			cells = append(cells, row...)
			for _, j := range rightIdx {
				cells = append(cells, right.Rows[r][j])
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return out, nil
}
