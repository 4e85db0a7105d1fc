package table

import (
	"io"

	sorted "github.com/tobshub/go-sortedmap"

	"github.com/poorlydb/poorlydb/internal/types"
	"github.com/poorlydb/poorlydb/pkg"
)

// Join performs an equality-based inner join with the other table. Every
// field of both tables is first renamed to <table-name>.<column-name>;
// join_on pairs those qualified names, compared in order with a
// short-circuit on the first unequal pair. Right-side rows are grouped by
// join key through a sorted map, and each matching group is merged into
// the left row field by field. Post-join conditions are coerced to the
// runtime type of the field they name.
//
// A missing comparison operand orders as "less" (and therefore never
// matches); it is logged rather than treated as a hard failure.
func (t *Table) Join(other *Table, columns []string, conditions types.ColumnSet, join_on []types.JoinPair) ([]types.ColumnSet, error) {
	// lock both tables in lexicographic name order so concurrent joins
	// naming the same pair in reverse cannot deadlock
	first, second := t, other
	if other.Name < t.Name {
		first, second = other, t
	}
	first.locker.RLock()
	defer first.locker.RUnlock()
	if first != second {
		second.locker.RLock()
		defer second.locker.RUnlock()
	}

	left_rows, err := t.prefixedRows()
	if err != nil {
		return nil, err
	}
	right_rows, err := other.prefixedRows()
	if err != nil {
		return nil, err
	}

	groups := groupByJoinKey(right_rows, join_on)

	selected := []types.ColumnSet{}
	for _, left := range left_rows {
		group := matchingGroup(groups, left, join_on)
		if group == nil {
			continue
		}

		merged := types.ColumnSet{}
		for k, v := range left {
			merged[k] = v
		}
		for _, right := range group {
			for k, v := range right {
				merged[k] = v
			}
		}

		ok, err := t.matchesCoerced(merged, conditions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		projected, err := t.project(merged, columns)
		if err != nil {
			return nil, err
		}
		selected = append(selected, projected)
	}
	return selected, nil
}

// prefixedRows collects every live row with fields renamed to
// <table-name>.<column-name>. Caller holds the lock.
func (t *Table) prefixedRows() ([]types.ColumnSet, error) {
	rows := []types.ColumnSet{}
	r, err := t.sectionReader()
	if err != nil {
		return nil, err
	}
	for {
		entry, err := t.nextRow(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		prefixed := types.ColumnSet{}
		for k, v := range entry.row {
			prefixed[t.Name+"."+k] = v
		}
		rows = append(rows, prefixed)
	}
	return rows, nil
}

// groupByJoinKey orders rows by their join key and splits runs of equal
// keys into groups.
func groupByJoinKey(rows []types.ColumnSet, join_on []types.JoinPair) [][]types.ColumnSet {
	m := sorted.New[int, types.ColumnSet](len(rows), func(a, b types.ColumnSet) bool {
		return lessByJoinKey(a, b, join_on)
	})
	for i, row := range rows {
		m.Insert(i, row)
	}

	groups := [][]types.ColumnSet{}
	iter_ch, err := m.IterCh()
	if err != nil {
		// empty map
		return groups
	}
	for rec := range iter_ch.Records() {
		row := rec.Val
		if n := len(groups); n > 0 && equalJoinKey(groups[n-1][0], row, join_on) {
			groups[n-1] = append(groups[n-1], row)
			continue
		}
		groups = append(groups, []types.ColumnSet{row})
	}
	return groups
}

// lessByJoinKey orders two right-side rows pair by pair in join_on order.
func lessByJoinKey(a, b types.ColumnSet, join_on []types.JoinPair) bool {
	for _, pair := range join_on {
		av, a_ok := a[pair.Right]
		bv, b_ok := b[pair.Right]
		if !a_ok || !b_ok {
			pkg.WarnLog("join comparison operand missing:", pair.Right)
			return !a_ok && b_ok
		}
		c, ok := av.Compare(bv)
		if !ok {
			pkg.WarnLog("join comparison across mismatched types:", pair.Right)
			return true
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

func equalJoinKey(a, b types.ColumnSet, join_on []types.JoinPair) bool {
	for _, pair := range join_on {
		if a[pair.Right] != b[pair.Right] {
			return false
		}
	}
	return true
}

// matchingGroup finds the right-side group whose key equals the left
// row's join key. Comparison short-circuits on the first unequal pair; a
// missing operand never matches.
func matchingGroup(groups [][]types.ColumnSet, left types.ColumnSet, join_on []types.JoinPair) []types.ColumnSet {
	for _, group := range groups {
		right := group[0]
		equal := true
		for _, pair := range join_on {
			lv, l_ok := left[pair.Left]
			rv, r_ok := right[pair.Right]
			if !l_ok || !r_ok {
				pkg.WarnLog("join comparison operand missing:", pair.Left, pair.Right)
				equal = false
				break
			}
			if lv != rv {
				equal = false
				break
			}
		}
		if equal {
			return group
		}
	}
	return nil
}

// matchesCoerced evaluates post-join conditions: each condition value is
// coerced to the runtime type of the merged field it names.
func (t *Table) matchesCoerced(row, conditions types.ColumnSet) (bool, error) {
	result := true
	for column, value := range conditions {
		row_value, ok := row[column]
		if !ok {
			return false, types.ColumnNotFoundError(column, t.Name)
		}
		value, err := value.Coerce(row_value.Type)
		if err != nil {
			return false, err
		}
		result = result && row_value == value
	}
	return result, nil
}
