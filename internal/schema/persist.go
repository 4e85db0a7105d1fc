package schema

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/poorlydb/poorlydb/internal/types"
	"github.com/poorlydb/poorlydb/pkg"
)

// FileName is the schema file inside a database directory.
const FileName = ".schema"

// Persistence format, line oriented:
//
//	<database-name>:<kind>
//	<table-name>#<col1>:<type1>,<col2>:<type2>,...
//
// Column order on disk is the canonical order and is preserved on load.
// A file that does not match this grammar is corrupt state; the caller
// treats the returned error as unrecoverable.

// Load reads the schema file from a database directory.
func Load(dir string) (*Schema, error) {
	f, err := os.Open(path.Join(dir, FileName))
	if err != nil {
		return nil, errors.Wrap(err, "schema file not found")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, errors.New("schema file is empty")
	}
	header := scanner.Text()
	name, kind_name, ok := strings.Cut(header, ":")
	if !ok {
		return nil, corruptErr(header)
	}
	kind, ok := ParseKind(kind_name)
	if !ok {
		return nil, corruptErr(header)
	}

	tables := pkg.Map[string, types.Columns]{}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		table, raw_columns, ok := strings.Cut(line, "#")
		if !ok {
			return nil, corruptErr(line)
		}
		columns := types.Columns{}
		for _, raw_column := range strings.Split(raw_columns, ",") {
			column, type_name, ok := strings.Cut(raw_column, ":")
			if !ok {
				return nil, corruptErr(line)
			}
			data_type, err := types.ParseDataType(type_name)
			if err != nil {
				return nil, corruptErr(line)
			}
			columns = append(columns, types.Column{Name: column, Type: data_type})
		}
		tables.Set(table, columns)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading schema file")
	}

	return &Schema{Name: name, Kind: kind, Tables: tables}, nil
}

// Dump writes the schema file into a database directory.
func (s *Schema) Dump(dir string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s\n", s.Name, s.Kind)
	for _, table := range s.TableNames() {
		parts := []string{}
		for _, col := range s.Tables.Get(table) {
			parts = append(parts, fmt.Sprintf("%s:%s", col.Name, col.Type))
		}
		fmt.Fprintf(&b, "%s#%s\n", table, strings.Join(parts, ","))
	}

	if err := os.WriteFile(path.Join(dir, FileName), []byte(b.String()), 0644); err != nil {
		return errors.Wrap(err, "writing schema file")
	}
	return nil
}

func corruptErr(line string) error {
	return errors.Errorf("schema file corrupted at %q", line)
}
