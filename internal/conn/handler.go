package conn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/poorlydb/poorlydb/internal/database"
	"github.com/poorlydb/poorlydb/internal/engine"
	"github.com/poorlydb/poorlydb/internal/types"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__poorly_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func errorResponse(err error) Response {
	var engine_err *types.Error
	if errors.As(err, &engine_err) {
		return NewErrorResponse(engine_err.Status(), engine_err.Error())
	}
	return NewErrorResponse(http.StatusBadRequest, err.Error())
}

// decodeJSON decodes with UseNumber so integral values survive as Int
// instead of collapsing to Float.
func decodeJSON(raw []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	return decoder.Decode(v)
}

func orDefaultDb(db string) string {
	if db == "" {
		return database.DefaultDb
	}
	return db
}

type SelectRequest struct {
	Db      string         `json:"db"`
	Table   string         `json:"table"`
	Columns []string       `json:"columns"`
	Where   map[string]any `json:"where"`
}

func SelectReqHandler(e *engine.Engine, raw []byte) Response {
	var req SelectRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	where, err := types.ColumnSetFromNative(req.Where)
	if err != nil {
		return errorResponse(err)
	}

	rows, err := e.Execute(types.Query{
		Kind:       types.QuerySelect,
		Db:         orDefaultDb(req.Db),
		Table:      req.Table,
		Columns:    req.Columns,
		Conditions: where,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(
		http.StatusOK,
		fmt.Sprintf("Found %d rows in table %s", len(rows), req.Table),
		types.NativeRows(rows),
	)
}

type InsertRequest struct {
	Db     string         `json:"db"`
	Table  string         `json:"table"`
	Values map[string]any `json:"values"`
}

func InsertReqHandler(e *engine.Engine, raw []byte) Response {
	var req InsertRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	values, err := types.ColumnSetFromNative(req.Values)
	if err != nil {
		return errorResponse(err)
	}

	rows, err := e.Execute(types.Query{
		Kind:   types.QueryInsert,
		Db:     orDefaultDb(req.Db),
		Table:  req.Table,
		Values: values,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(
		http.StatusCreated,
		fmt.Sprintf("Created new row in table %s", req.Table),
		types.NativeRows(rows)[0],
	)
}

type UpdateRequest struct {
	Db    string         `json:"db"`
	Table string         `json:"table"`
	Set   map[string]any `json:"set"`
	Where map[string]any `json:"where"`
}

func UpdateReqHandler(e *engine.Engine, raw []byte) Response {
	var req UpdateRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	set, err := types.ColumnSetFromNative(req.Set)
	if err != nil {
		return errorResponse(err)
	}
	where, err := types.ColumnSetFromNative(req.Where)
	if err != nil {
		return errorResponse(err)
	}

	rows, err := e.Execute(types.Query{
		Kind:       types.QueryUpdate,
		Db:         orDefaultDb(req.Db),
		Table:      req.Table,
		Set:        set,
		Conditions: where,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(
		http.StatusOK,
		fmt.Sprintf("Updated %d rows in table %s", len(rows), req.Table),
		types.NativeRows(rows),
	)
}

type DeleteRequest struct {
	Db    string         `json:"db"`
	Table string         `json:"table"`
	Where map[string]any `json:"where"`
}

func DeleteReqHandler(e *engine.Engine, raw []byte) Response {
	var req DeleteRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	where, err := types.ColumnSetFromNative(req.Where)
	if err != nil {
		return errorResponse(err)
	}

	rows, err := e.Execute(types.Query{
		Kind:       types.QueryDelete,
		Db:         orDefaultDb(req.Db),
		Table:      req.Table,
		Conditions: where,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(
		http.StatusOK,
		fmt.Sprintf("Deleted %d rows in table %s", len(rows), req.Table),
		types.NativeRows(rows),
	)
}

type ColumnDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CreateTableRequest struct {
	Db      string      `json:"db"`
	Table   string      `json:"table"`
	Columns []ColumnDef `json:"columns"`
}

func CreateTableReqHandler(e *engine.Engine, raw []byte) Response {
	var req CreateTableRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	columns := types.Columns{}
	for _, def := range req.Columns {
		data_type, err := types.ParseDataType(def.Type)
		if err != nil {
			return errorResponse(err)
		}
		columns = append(columns, types.Column{Name: def.Name, Type: data_type})
	}

	_, err := e.Execute(types.Query{
		Kind:       types.QueryCreate,
		Db:         orDefaultDb(req.Db),
		Table:      req.Table,
		ColumnDefs: columns,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created table %s", req.Table), nil)
}

type DropTableRequest struct {
	Db    string `json:"db"`
	Table string `json:"table"`
}

func DropTableReqHandler(e *engine.Engine, raw []byte) Response {
	var req DropTableRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	_, err := e.Execute(types.Query{
		Kind:  types.QueryDrop,
		Db:    orDefaultDb(req.Db),
		Table: req.Table,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Dropped table %s", req.Table), nil)
}

type AlterTableRequest struct {
	Db     string            `json:"db"`
	Table  string            `json:"table"`
	Rename map[string]string `json:"rename"`
}

func AlterTableReqHandler(e *engine.Engine, raw []byte) Response {
	var req AlterTableRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	_, err := e.Execute(types.Query{
		Kind:   types.QueryAlter,
		Db:     orDefaultDb(req.Db),
		Table:  req.Table,
		Rename: req.Rename,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Altered table %s", req.Table), nil)
}

type CreateDbRequest struct {
	Name string `json:"name"`
}

func CreateDbReqHandler(e *engine.Engine, raw []byte) Response {
	var req CreateDbRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	_, err := e.Execute(types.Query{Kind: types.QueryCreateDb, Table: req.Name})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created database %s", req.Name), nil)
}

type DropDbRequest struct {
	Name string `json:"name"`
}

func DropDbReqHandler(e *engine.Engine, raw []byte) Response {
	var req DropDbRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	_, err := e.Execute(types.Query{Kind: types.QueryDropDb, Table: req.Name})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Dropped database %s", req.Name), nil)
}

type ShowTablesRequest struct {
	Db string `json:"db"`
}

func ShowTablesReqHandler(e *engine.Engine, raw []byte) Response {
	var req ShowTablesRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	db := orDefaultDb(req.Db)
	rows, err := e.Execute(types.Query{Kind: types.QueryShowTables, Db: db})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(
		http.StatusOK,
		fmt.Sprintf("Found %d tables in database %s", len(rows[0]), db),
		types.NativeRows(rows),
	)
}

type JoinOn struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type JoinRequest struct {
	Db      string         `json:"db"`
	Table   string         `json:"table"`
	Table2  string         `json:"table2"`
	On      []JoinOn       `json:"on"`
	Columns []string       `json:"columns"`
	Where   map[string]any `json:"where"`
}

func JoinReqHandler(e *engine.Engine, raw []byte) Response {
	var req JoinRequest
	if err := decodeJSON(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	where, err := types.ColumnSetFromNative(req.Where)
	if err != nil {
		return errorResponse(err)
	}

	join_on := make([]types.JoinPair, 0, len(req.On))
	for _, pair := range req.On {
		join_on = append(join_on, types.JoinPair{Left: pair.Left, Right: pair.Right})
	}

	rows, err := e.Execute(types.Query{
		Kind:       types.QueryJoin,
		Db:         orDefaultDb(req.Db),
		Table:      req.Table,
		Table2:     req.Table2,
		Columns:    req.Columns,
		Conditions: where,
		JoinOn:     join_on,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(
		http.StatusOK,
		fmt.Sprintf("Found %d rows joining %s and %s", len(rows), req.Table, req.Table2),
		types.NativeRows(rows),
	)
}
