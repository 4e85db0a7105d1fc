package table

import (
	"encoding/binary"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/poorlydb/poorlydb/internal/types"
	"github.com/poorlydb/poorlydb/pkg"
)

// serial_size is the byte width of the persisted next-serial counter at
// the start of every table file.
const serial_size = 4

// Table is one binary file of rows. File layout:
//
//	[4-byte little-endian next-serial][row]*
//
// where each row is [1-byte tombstone flag][encoded values in column
// order]. A tombstone of 1 marks a logically deleted row that stays on
// disk until the file is dropped.
//
// All reads go through positionless ReadAt via section readers, so
// selects can share the read lock; mutations take the write lock.
type Table struct {
	Name string

	columns types.Columns
	serials []bool
	serial  uint32
	file    *os.File
	locker  sync.RWMutex
}

type method int

const (
	methodNone method = iota
	methodInsert
	methodUpdate
	methodSelect
	methodDelete
)

// Open opens or creates the backing file for a table inside a database
// directory. An empty file gets an initial zero counter; otherwise the
// counter is read back.
func Open(name string, columns types.Columns, dir string) (*Table, error) {
	pkg.InfoLog("opening table", name)
	f, err := os.OpenFile(path.Join(dir, name), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, types.IoError(err, "opening table "+name)
	}

	t := &Table{Name: name, file: f}
	t.setColumns(columns)

	var buf [serial_size]byte
	_, err = f.ReadAt(buf[:], 0)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		if _, err := f.WriteAt(buf[:], 0); err != nil {
			f.Close()
			return nil, types.IoError(err, "initializing table "+name)
		}
	case err != nil:
		f.Close()
		return nil, types.IoError(err, "reading serial counter of "+name)
	default:
		t.serial = binary.LittleEndian.Uint32(buf[:])
		pkg.DebugLog("read serial", t.serial, "from table", name)
	}

	return t, nil
}

func (t *Table) GetLocker() *sync.RWMutex { return &t.locker }

// Columns returns the column list in canonical (file layout) order.
func (t *Table) Columns() types.Columns {
	t.locker.RLock()
	defer t.locker.RUnlock()
	return t.columns
}

// SetColumns swaps the column list after a schema alter. Renames keep the
// order and types, so the file layout is unchanged.
func (t *Table) SetColumns(columns types.Columns) {
	t.locker.Lock()
	defer t.locker.Unlock()
	t.setColumns(columns)
}

func (t *Table) setColumns(columns types.Columns) {
	t.columns = columns
	t.serials = make([]bool, len(columns))
	for i, col := range columns {
		t.serials[i] = col.Type == types.TypeSerial
	}
}

// Insert coerces values against the declared columns, assigns serial
// columns, persists the bumped counter and appends the row. The returned
// set is the stored row image, assigned serials included.
func (t *Table) Insert(values types.ColumnSet) (types.ColumnSet, error) {
	t.locker.Lock()
	defer t.locker.Unlock()
	return t.insert(values)
}

func (t *Table) insert(values types.ColumnSet) (types.ColumnSet, error) {
	values, err := t.checkAndCoerce(values, methodInsert)
	if err != nil {
		return nil, err
	}

	row := []byte{0} // not deleted
	for i, col := range t.columns {
		if t.serials[i] {
			value := types.NewSerial(t.serial)
			values[col.Name] = value
			row = append(row, value.Bytes()...)
			continue
		}
		value, ok := values[col.Name]
		if !ok {
			return nil, types.IncompleteDataError(col.Name, t.Name)
		}
		row = append(row, value.Bytes()...)
	}

	// the counter must be durable before the row that consumed it
	if err := t.bumpSerial(); err != nil {
		return nil, err
	}
	if _, err := t.file.Seek(0, io.SeekEnd); err != nil {
		return nil, types.IoError(err, "seeking end of "+t.Name)
	}
	if _, err := t.file.Write(row); err != nil {
		return nil, types.IoError(err, "appending row to "+t.Name)
	}
	return values, nil
}

func (t *Table) bumpSerial() error {
	t.serial++
	var buf [serial_size]byte
	binary.LittleEndian.PutUint32(buf[:], t.serial)
	if _, err := t.file.WriteAt(buf[:], 0); err != nil {
		return types.IoError(err, "updating serial counter of "+t.Name)
	}
	return nil
}

// Select runs a sequential scan over all live rows in insertion order.
// Conditions are AND-ed equality tests; an empty projection means all
// columns.
func (t *Table) Select(columns []string, conditions types.ColumnSet) ([]types.ColumnSet, error) {
	t.locker.RLock()
	defer t.locker.RUnlock()

	conditions, err := t.checkAndCoerce(conditions, methodSelect)
	if err != nil {
		return nil, err
	}

	selected := []types.ColumnSet{}
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

		ok, err := t.matches(entry.row, conditions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		projected, err := t.project(entry.row, columns)
		if err != nil {
			return nil, err
		}
		selected = append(selected, projected)
	}
	return selected, nil
}

// Update is copy-on-write: a matching row whose image actually changes is
// re-inserted at the end of the file (serials reassigned on the way) and
// the original offset is tombstoned. Encoded row width varies with string
// values, so rewriting in place is not an option. The scan is bounded by
// the file size captured before the first append, so replacement rows are
// never revisited within the same call.
func (t *Table) Update(set, conditions types.ColumnSet) ([]types.ColumnSet, error) {
	t.locker.Lock()
	defer t.locker.Unlock()

	set, err := t.checkAndCoerce(set, methodUpdate)
	if err != nil {
		return nil, err
	}
	conditions, err = t.checkAndCoerce(conditions, methodNone)
	if err != nil {
		return nil, err
	}

	updated := []types.ColumnSet{}
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

		ok, err := t.matches(entry.row, conditions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		changed := false
		for column, value := range set {
			old_value, ok := entry.row[column]
			if !ok {
				return nil, types.ColumnNotFoundError(column, t.Name)
			}
			if old_value != value {
				changed = true
			}
			entry.row[column] = value
		}
		if !changed {
			continue
		}

		for i, col := range t.columns {
			if t.serials[i] {
				delete(entry.row, col.Name)
			}
		}
		image, err := t.insert(entry.row)
		if err != nil {
			return nil, err
		}
		if err := t.tombstoneAt(entry.offset); err != nil {
			return nil, err
		}
		updated = append(updated, image)
	}
	return updated, nil
}

// Delete tombstones every live row matching the conditions and returns
// the pre-deletion images.
func (t *Table) Delete(conditions types.ColumnSet) ([]types.ColumnSet, error) {
	t.locker.Lock()
	defer t.locker.Unlock()

	conditions, err := t.checkAndCoerce(conditions, methodDelete)
	if err != nil {
		return nil, err
	}

	deleted := []types.ColumnSet{}
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

		ok, err := t.matches(entry.row, conditions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := t.tombstoneAt(entry.offset); err != nil {
			return nil, err
		}
		deleted = append(deleted, entry.row)
	}
	return deleted, nil
}

// Drop truncates the backing file. Removing the schema entry is the
// caller's separate, preceding responsibility.
func (t *Table) Drop() error {
	t.locker.Lock()
	defer t.locker.Unlock()
	if err := t.file.Truncate(0); err != nil {
		return types.IoError(err, "truncating "+t.Name)
	}
	t.serial = 0
	return nil
}

func (t *Table) Close() error {
	t.locker.Lock()
	defer t.locker.Unlock()
	return t.file.Close()
}

type row_entry struct {
	row    types.ColumnSet
	offset int64 // absolute file offset of the tombstone byte
}

func (t *Table) sectionReader() (*io.SectionReader, error) {
	stat, err := t.file.Stat()
	if err != nil {
		return nil, types.IoError(err, "stat "+t.Name)
	}
	return io.NewSectionReader(t.file, serial_size, stat.Size()-serial_size), nil
}

// nextRow reads forward, skipping tombstoned rows. Returns io.EOF once
// the section is exhausted.
func (t *Table) nextRow(r *io.SectionReader) (*row_entry, error) {
	for {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, types.IoError(err, "scanning "+t.Name)
		}

		var deleted [1]byte
		if _, err := io.ReadFull(r, deleted[:]); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, types.IoError(err, "reading row flag in "+t.Name)
		}

		row := types.ColumnSet{}
		for _, col := range t.columns {
			value, err := types.ReadValue(col.Type, r)
			if err != nil {
				return nil, types.IoError(err, "reading row in "+t.Name)
			}
			row[col.Name] = value
		}

		if deleted[0] == 0 {
			return &row_entry{row: row, offset: serial_size + pos}, nil
		}
	}
}

func (t *Table) tombstoneAt(offset int64) error {
	if _, err := t.file.WriteAt([]byte{1}, offset); err != nil {
		return types.IoError(err, "tombstoning row in "+t.Name)
	}
	return nil
}

// checkAndCoerce matches a column set against the declared columns:
// unknown columns are rejected, restricted columns (serial on writes) are
// rejected, and every value is coerced to its column's type and validated.
func (t *Table) checkAndCoerce(set types.ColumnSet, m method) (types.ColumnSet, error) {
	left := make(map[string]bool, len(set))
	for name := range set {
		left[name] = true
	}

	coerced := types.ColumnSet{}
	for _, col := range t.columns {
		value, ok := set[col.Name]
		if !ok {
			continue
		}
		if err := checkRestrictions(col.Type, m); err != nil {
			return nil, err
		}
		value, err := value.Coerce(col.Type)
		if err != nil {
			return nil, err
		}
		if err := value.Validate(); err != nil {
			return nil, err
		}
		coerced[col.Name] = value
		delete(left, col.Name)
	}

	if len(left) > 0 {
		unknown := make([]string, 0, len(left))
		for name := range left {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, types.ColumnNotFoundError(unknown[0], t.Name)
	}
	return coerced, nil
}

func checkRestrictions(data_type types.DataType, m method) error {
	if m == methodNone {
		return nil
	}
	if data_type == types.TypeSerial && (m == methodInsert || m == methodUpdate) {
		return types.InvalidOperationError("Cannot insert to or update serial column")
	}
	return nil
}

// matches evaluates AND-ed equality conditions. A condition column absent
// from the row is a schema mismatch, not a non-match.
func (t *Table) matches(row, conditions types.ColumnSet) (bool, error) {
	result := true
	for column, value := range conditions {
		row_value, ok := row[column]
		if !ok {
			return false, types.ColumnNotFoundError(column, t.Name)
		}
		result = result && row_value == value
	}
	return result, nil
}

func (t *Table) project(row types.ColumnSet, columns []string) (types.ColumnSet, error) {
	for _, column := range columns {
		if _, ok := row[column]; !ok {
			return nil, types.ColumnNotFoundError(column, t.Name)
		}
	}
	if len(columns) == 0 {
		return row, nil
	}
	projected := types.ColumnSet{}
	for _, column := range columns {
		projected[column] = row[column]
	}
	return projected, nil
}
