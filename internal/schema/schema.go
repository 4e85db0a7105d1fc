package schema

import (
	"sort"
	"unicode"

	"github.com/poorlydb/poorlydb/internal/types"
	"github.com/poorlydb/poorlydb/pkg"
)

type Kind int

const (
	KindPoorly Kind = iota
	KindSqlite
)

func (k Kind) String() string {
	if k == KindSqlite {
		return "sqlite"
	}
	return "poorly"
}

func ParseKind(s string) (Kind, bool) {
	switch s {
	case "poorly":
		return KindPoorly, true
	case "sqlite":
		return KindSqlite, true
	}
	return 0, false
}

// Schema is the declared shape of one database: table name -> ordered
// column list. Column lists are sorted by name when a table is created and
// that order is permanent; it is the physical row layout.
type Schema struct {
	Name   string
	Kind   Kind
	Tables pkg.Map[string, types.Columns]
}

func New(name string) *Schema {
	return &Schema{Name: name, Kind: KindPoorly, Tables: pkg.Map[string, types.Columns]{}}
}

func (s *Schema) CreateTable(table_name string, columns types.Columns) error {
	if err := validateName(table_name); err != nil {
		return err
	}
	if len(columns) == 0 {
		return types.NoColumnsError()
	}
	if s.Tables.Has(table_name) {
		return types.TableExistsError(table_name)
	}

	cols := make(types.Columns, len(columns))
	copy(cols, columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })

	for i, col := range cols {
		if err := validateName(col.Name); err != nil {
			return err
		}
		if i > 0 && col.Name == cols[i-1].Name {
			return types.ColumnExistsError(col.Name, table_name)
		}
	}

	s.Tables.Set(table_name, cols)
	return nil
}

func (s *Schema) DropTable(name string) error {
	if !s.Tables.Has(name) {
		return types.TableNotFoundError(name)
	}
	s.Tables.Delete(name)
	return nil
}

// AlterTable renames columns. Order and types are preserved; only names
// change. Rename entries that match no column are an error.
func (s *Schema) AlterTable(table string, rename map[string]string) error {
	if !s.Tables.Has(table) {
		return types.TableNotFoundError(table)
	}

	left := make(map[string]string, len(rename))
	for k, v := range rename {
		left[k] = v
	}

	old_columns := s.Tables.Get(table)
	new_columns := make(types.Columns, 0, len(old_columns))
	for _, col := range old_columns {
		name := col.Name
		if new_name, ok := left[name]; ok {
			if err := validateName(new_name); err != nil {
				return err
			}
			delete(left, name)
			name = new_name
		}
		for _, prev := range new_columns {
			if prev.Name == name {
				return types.ColumnExistsError(name, table)
			}
		}
		new_columns = append(new_columns, types.Column{Name: name, Type: col.Type})
	}

	if len(left) > 0 {
		missing := make([]string, 0, len(left))
		for k := range left {
			missing = append(missing, k)
		}
		sort.Strings(missing)
		return types.ColumnNotFoundError(missing[0], table)
	}

	s.Tables.Set(table, new_columns)
	return nil
}

// TableNames lists declared tables in ascending order, independent of
// which tables are currently open.
func (s *Schema) TableNames() []string {
	return pkg.SortedKeys(s.Tables)
}

func validateName(name string) error {
	if len(name) == 0 {
		return types.InvalidNameError(name)
	}
	for _, c := range name {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			return types.InvalidNameError(name)
		}
	}
	return nil
}
