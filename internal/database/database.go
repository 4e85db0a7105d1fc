package database

import (
	"os"
	"path"
	"sync"

	"github.com/poorlydb/poorlydb/internal/schema"
	"github.com/poorlydb/poorlydb/internal/table"
	"github.com/poorlydb/poorlydb/internal/types"
	"github.com/poorlydb/poorlydb/pkg"
)

// DefaultDb is the reserved database every engine bootstraps. It cannot
// be dropped.
const DefaultDb = "poorly"

// Database owns the schema and the opened table handles of one database
// directory. Tables open lazily on first reference and stay cached for
// the database's lifetime; the cache is unbounded by design. The schema
// is flushed after every mutation and again on Close, so there is no
// reliance on teardown side effects.
type Database struct {
	Name   string
	Path   string
	Schema *schema.Schema

	tables pkg.Map[string, *table.Table]
	locker sync.RWMutex
}

// Open loads an existing database directory under root. A schema file
// that fails to parse is corrupt state; callers treat that error as
// unrecoverable.
func Open(name, root string) (*Database, error) {
	pkg.InfoLog("opening database", name)
	dir := path.Join(root, name)
	if _, err := os.Stat(dir); err != nil {
		return nil, types.DatabaseNotFoundError(name)
	}
	s, err := schema.Load(dir)
	if err != nil {
		return nil, err
	}
	return &Database{Name: name, Path: dir, Schema: s, tables: pkg.Map[string, *table.Table]{}}, nil
}

// Create makes a new database directory under root with an empty schema.
func Create(name, root string) error {
	pkg.InfoLog("creating database", name, "at", root)
	dir := path.Join(root, name)
	if _, err := os.Stat(dir); err == nil {
		return types.DatabaseExistsError(name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.IoError(err, "creating database "+name)
	}
	if err := schema.New(name).Dump(dir); err != nil {
		return types.IoError(err, "writing initial schema of "+name)
	}
	return nil
}

func (d *Database) GetLocker() *sync.RWMutex { return &d.locker }

// GetTable returns the cached handle for a declared table, opening it on
// first reference.
func (d *Database) GetTable(name string) (*table.Table, error) {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.getTable(name)
}

func (d *Database) getTable(name string) (*table.Table, error) {
	if !d.Schema.Tables.Has(name) {
		return nil, types.TableNotFoundError(name)
	}
	if !d.tables.Has(name) {
		t, err := table.Open(name, d.Schema.Tables.Get(name), d.Path)
		if err != nil {
			return nil, err
		}
		d.tables.Set(name, t)
	}
	return d.tables.Get(name), nil
}

func (d *Database) CreateTable(name string, columns types.Columns) error {
	d.locker.Lock()
	defer d.locker.Unlock()
	if err := d.Schema.CreateTable(name, columns); err != nil {
		return err
	}
	return d.flush()
}

// DropTable removes the schema entry, truncates the backing file and
// discards the cached handle.
func (d *Database) DropTable(name string) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	t, err := d.getTable(name)
	if err != nil {
		return err
	}
	if err := d.Schema.DropTable(name); err != nil {
		return err
	}
	if err := t.Drop(); err != nil {
		return err
	}
	if err := t.Close(); err != nil {
		pkg.ErrorLog("closing dropped table", name, err)
	}
	d.tables.Delete(name)
	return d.flush()
}

// AlterTable renames columns in the schema and refreshes the column list
// of an already-open handle.
func (d *Database) AlterTable(name string, rename map[string]string) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if err := d.Schema.AlterTable(name, rename); err != nil {
		return err
	}
	if d.tables.Has(name) {
		d.tables.Get(name).SetColumns(d.Schema.Tables.Get(name))
	}
	return d.flush()
}

// TableNames lists the declared tables, open or not.
func (d *Database) TableNames() (names []string) {
	pkg.RLockWrap(d, func() { names = d.Schema.TableNames() })
	return
}

// Drop deletes the whole database directory. The reserved default
// database is protected.
func (d *Database) Drop() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.Name == DefaultDb {
		return types.CannotDropDefaultDbError()
	}
	d.closeTables()
	if err := os.RemoveAll(d.Path); err != nil {
		return types.IoError(err, "dropping database "+d.Name)
	}
	return nil
}

// Flush persists the schema now.
func (d *Database) Flush() (err error) {
	pkg.LockWrap(d, func() { err = d.flush() })
	return
}

func (d *Database) flush() error {
	if err := d.Schema.Dump(d.Path); err != nil {
		return types.IoError(err, "flushing schema of "+d.Name)
	}
	return nil
}

// Close flushes the schema and closes every open table handle. Safe to
// call on every exit path.
func (d *Database) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	err := d.flush()
	d.closeTables()
	return err
}

func (d *Database) closeTables() {
	for _, name := range d.tables.Keys() {
		if err := d.tables.Get(name).Close(); err != nil {
			pkg.ErrorLog("closing table", name, err)
		}
	}
	d.tables = pkg.Map[string, *table.Table]{}
}
