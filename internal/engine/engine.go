package engine

import (
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/pkg/errors"

	"github.com/poorlydb/poorlydb/internal/database"
	"github.com/poorlydb/poorlydb/internal/table"
	"github.com/poorlydb/poorlydb/internal/types"
	"github.com/poorlydb/poorlydb/pkg"
)

// Engine is the single entry point for queries. It owns the cache of
// opened databases under one root directory; databases open lazily and
// stay cached for the engine's lifetime. Execute is safe for concurrent
// callers: the cache has its own lock and every table guards itself with
// a reader/writer lock.
type Engine struct {
	path      string
	databases pkg.Map[string, *database.Database]
	locker    sync.RWMutex
}

func Open(root string) (*Engine, error) {
	pkg.InfoLog("opening server folder at", root)
	if stat, err := os.Stat(root); err == nil && !stat.IsDir() {
		return nil, errors.Errorf("server folder %s is not a directory", root)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, types.IoError(err, "creating server folder "+root)
	}
	return &Engine{path: root, databases: pkg.Map[string, *database.Database]{}}, nil
}

// Init idempotently ensures the reserved default database exists.
func (e *Engine) Init() error {
	if _, err := os.Stat(path.Join(e.path, database.DefaultDb)); err == nil {
		return nil
	}
	return database.Create(database.DefaultDb, e.path)
}

// Execute routes a query to the owning database/table. Mutation-only
// kinds normalize to an empty row list on success.
func (e *Engine) Execute(q types.Query) ([]types.ColumnSet, error) {
	switch q.Kind {
	case types.QuerySelect:
		t, err := e.getTable(q.Db, q.Table)
		if err != nil {
			return nil, err
		}
		return t.Select(q.Columns, q.Conditions)

	case types.QueryInsert:
		t, err := e.getTable(q.Db, q.Table)
		if err != nil {
			return nil, err
		}
		row, err := t.Insert(q.Values)
		if err != nil {
			return nil, err
		}
		return []types.ColumnSet{row}, nil

	case types.QueryUpdate:
		t, err := e.getTable(q.Db, q.Table)
		if err != nil {
			return nil, err
		}
		return t.Update(q.Set, q.Conditions)

	case types.QueryDelete:
		t, err := e.getTable(q.Db, q.Table)
		if err != nil {
			return nil, err
		}
		return t.Delete(q.Conditions)

	case types.QueryJoin:
		t1, err := e.getTable(q.Db, q.Table)
		if err != nil {
			return nil, err
		}
		t2, err := e.getTable(q.Db, q.Table2)
		if err != nil {
			return nil, err
		}
		return t1.Join(t2, q.Columns, q.Conditions, q.JoinOn)

	case types.QueryCreate:
		d, err := e.getDatabase(q.Db)
		if err != nil {
			return nil, err
		}
		return noRows(d.CreateTable(q.Table, q.ColumnDefs))

	case types.QueryDrop:
		d, err := e.getDatabase(q.Db)
		if err != nil {
			return nil, err
		}
		return noRows(d.DropTable(q.Table))

	case types.QueryAlter:
		d, err := e.getDatabase(q.Db)
		if err != nil {
			return nil, err
		}
		return noRows(d.AlterTable(q.Table, q.Rename))

	case types.QueryCreateDb:
		return noRows(e.CreateDb(q.Table))

	case types.QueryDropDb:
		return noRows(e.DropDb(q.Table))

	case types.QueryShowTables:
		return e.showTables(q.Db)
	}

	return nil, types.InvalidOperationError(fmt.Sprintf("unknown query kind %q", string(q.Kind)))
}

func noRows(err error) ([]types.ColumnSet, error) {
	if err != nil {
		return nil, err
	}
	return []types.ColumnSet{}, nil
}

func (e *Engine) CreateDb(name string) error {
	return database.Create(name, e.path)
}

func (e *Engine) DropDb(name string) error {
	d, err := e.getDatabase(name)
	if err != nil {
		return err
	}
	if err := d.Drop(); err != nil {
		return err
	}

	e.locker.Lock()
	e.databases.Delete(name)
	e.locker.Unlock()

	pkg.InfoLog("database", name, "dropped")
	return nil
}

// showTables returns a single synthetic row whose keys are the declared
// table names. The generic row-list shape is kept deliberately so
// existing clients keep working; the values are placeholders.
func (e *Engine) showTables(db string) ([]types.ColumnSet, error) {
	d, err := e.getDatabase(db)
	if err != nil {
		return nil, err
	}
	row := types.ColumnSet{}
	for _, name := range d.TableNames() {
		row[name] = types.NewString("table")
	}
	return []types.ColumnSet{row}, nil
}

func (e *Engine) getDatabase(name string) (*database.Database, error) {
	e.locker.Lock()
	defer e.locker.Unlock()

	if !e.databases.Has(name) {
		d, err := database.Open(name, e.path)
		if err != nil {
			return nil, err
		}
		e.databases.Set(name, d)
	}
	return e.databases.Get(name), nil
}

func (e *Engine) getTable(db, name string) (*table.Table, error) {
	d, err := e.getDatabase(db)
	if err != nil {
		return nil, err
	}
	return d.GetTable(name)
}

// Close flushes and closes every open database. Must be called on every
// exit path; schema persistence does not rely on teardown side effects.
func (e *Engine) Close() error {
	e.locker.Lock()
	defer e.locker.Unlock()

	var first_err error
	for _, name := range e.databases.Keys() {
		if err := e.databases.Get(name).Close(); err != nil && first_err == nil {
			first_err = err
		}
	}
	e.databases = pkg.Map[string, *database.Database]{}
	return first_err
}
