package conn_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	. "github.com/poorlydb/poorlydb/internal/conn"
	"github.com/poorlydb/poorlydb/internal/engine"
	"gotest.tools/assert"
)

func reqEncode(t *testing.T, req map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(req)
	assert.NilError(t, err)
	return raw
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(t.TempDir())
	assert.NilError(t, err)
	assert.NilError(t, e.Init())
	t.Cleanup(func() { e.Close() })

	res := CreateTableReqHandler(e, reqEncode(t, map[string]any{
		"table": "products",
		"columns": []map[string]string{
			{"name": "id", "type": "serial"},
			{"name": "name", "type": "string"},
			{"name": "price", "type": "float"},
		},
	}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	return e
}

func insertProduct(t *testing.T, e *engine.Engine, name string, price float64) Response {
	t.Helper()
	res := InsertReqHandler(e, reqEncode(t, map[string]any{
		"table":  "products",
		"values": map[string]any{"name": name, "price": price},
	}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	return res
}

func TestCreateTableReqHandler(t *testing.T) {
	e := newTestEngine(t)

	t.Run("duplicate table", func(t *testing.T) {
		res := CreateTableReqHandler(e, reqEncode(t, map[string]any{
			"table":   "products",
			"columns": []map[string]string{{"name": "id", "type": "serial"}},
		}))
		assert.Equal(t, res.Status, http.StatusConflict, res.Message)
	})

	t.Run("bad datatype", func(t *testing.T) {
		res := CreateTableReqHandler(e, reqEncode(t, map[string]any{
			"table":   "orders",
			"columns": []map[string]string{{"name": "id", "type": "blob"}},
		}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
		assert.ErrorContains(t, fmt.Errorf(res.Message), "Invalid datatype")
	})
}

func TestInsertReqHandler(t *testing.T) {
	e := newTestEngine(t)

	t.Run("simple insert", func(t *testing.T) {
		res := insertProduct(t, e, "apple", 1.5)
		assert.Equal(t, res.Message, "Created new row in table products")

		data := res.Data.(map[string]any)
		assert.Equal(t, data["id"], uint32(0), "assigned serial is returned")
	})

	t.Run("table not found", func(t *testing.T) {
		res := InsertReqHandler(e, reqEncode(t, map[string]any{
			"table":  "ghosts",
			"values": map[string]any{"name": "boo"},
		}))
		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
	})

	t.Run("incomplete data", func(t *testing.T) {
		res := InsertReqHandler(e, reqEncode(t, map[string]any{
			"table":  "products",
			"values": map[string]any{"name": "pear"},
		}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
		assert.ErrorContains(t, fmt.Errorf(res.Message), "Incomplete data")
	})
}

func TestSelectReqHandler(t *testing.T) {
	e := newTestEngine(t)
	insertProduct(t, e, "apple", 1.5)
	insertProduct(t, e, "pear", 2.0)

	t.Run("select all", func(t *testing.T) {
		res := SelectReqHandler(e, reqEncode(t, map[string]any{"table": "products"}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, res.Message, "Found 2 rows in table products")
	})

	t.Run("filtered", func(t *testing.T) {
		res := SelectReqHandler(e, reqEncode(t, map[string]any{
			"table": "products",
			"where": map[string]any{"name": "apple"},
		}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)

		rows := res.Data.([]map[string]any)
		assert.Equal(t, len(rows), 1)
		assert.Equal(t, rows[0]["price"], 1.5)
	})

	t.Run("unknown column", func(t *testing.T) {
		res := SelectReqHandler(e, reqEncode(t, map[string]any{
			"table": "products",
			"where": map[string]any{"weight": 1},
		}))
		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
	})
}

func TestUpdateReqHandler(t *testing.T) {
	e := newTestEngine(t)
	insertProduct(t, e, "apple", 1.23)

	res := UpdateReqHandler(e, reqEncode(t, map[string]any{
		"table": "products",
		"set":   map[string]any{"price": 123.45},
		"where": map[string]any{"name": "apple"},
	}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Updated 1 rows in table products")
}

func TestDeleteReqHandler(t *testing.T) {
	e := newTestEngine(t)
	insertProduct(t, e, "apple", 1.5)

	res := DeleteReqHandler(e, reqEncode(t, map[string]any{
		"table": "products",
		"where": map[string]any{"name": "apple"},
	}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Deleted 1 rows in table products")

	res = DeleteReqHandler(e, reqEncode(t, map[string]any{
		"table": "products",
		"where": map[string]any{"name": "apple"},
	}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Deleted 0 rows in table products")
}

func TestShowTablesReqHandler(t *testing.T) {
	e := newTestEngine(t)

	res := ShowTablesReqHandler(e, reqEncode(t, map[string]any{}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	rows := res.Data.([]map[string]any)
	assert.Equal(t, len(rows), 1)
	assert.Equal(t, rows[0]["products"], "table")
}

func TestDbReqHandlers(t *testing.T) {
	e := newTestEngine(t)

	res := CreateDbReqHandler(e, reqEncode(t, map[string]any{"name": "analytics"}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	res = CreateDbReqHandler(e, reqEncode(t, map[string]any{"name": "analytics"}))
	assert.Equal(t, res.Status, http.StatusConflict, res.Message)

	res = DropDbReqHandler(e, reqEncode(t, map[string]any{"name": "analytics"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = DropDbReqHandler(e, reqEncode(t, map[string]any{"name": "ghost"}))
	assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
}

func TestActionHandlerUnknownAction(t *testing.T) {
	e := newTestEngine(t)
	res := ActionHandler(e, "vacuum", []byte("{}"))
	assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
}
