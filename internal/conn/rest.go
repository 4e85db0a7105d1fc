package conn

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/poorlydb/poorlydb/internal/types"
	"github.com/poorlydb/poorlydb/pkg"
)

// REST routes mirror the websocket actions. Conditions ride in query
// params as strings and lean on the coercion layer to reach the declared
// column types; bodies are JSON.
func (s *Server) RegisterRestRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/{db}", s.restAuth(s.restShowTables))
	mux.HandleFunc("POST /api/{db}", s.restAuth(s.restCreateDb))
	mux.HandleFunc("DELETE /api/{db}", s.restAuth(s.restDropDb))
	mux.HandleFunc("GET /api/{db}/{table}", s.restAuth(s.restSelect))
	mux.HandleFunc("POST /api/{db}/{table}", s.restAuth(s.restInsert))
	mux.HandleFunc("PUT /api/{db}/{table}", s.restAuth(s.restUpdate))
	mux.HandleFunc("DELETE /api/{db}/{table}", s.restAuth(s.restDelete))
	mux.HandleFunc("POST /api/{db}/create/{table}", s.restAuth(s.restCreateTable))
	mux.HandleFunc("DELETE /api/{db}/drop/{table}", s.restAuth(s.restDropTable))
	mux.HandleFunc("PUT /api/{db}/alter/{table}", s.restAuth(s.restAlterTable))
}

func (s *Server) restAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, _ := r.BasicAuth()
		if !s.Validate(username, password) {
			writeRestResponse(w, NewErrorResponse(http.StatusUnauthorized, "Invalid auth"))
			return
		}
		next(w, r)
	}
}

func writeRestResponse(w http.ResponseWriter, res Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		pkg.ErrorLog("writing rest response", err)
	}
}

// conditionsFromQuery splits query params into a projection (the reserved
// "columns" key, comma-joined) and string-valued conditions.
func conditionsFromQuery(values url.Values) ([]string, types.ColumnSet) {
	columns := []string{}
	conditions := types.ColumnSet{}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if key == "columns" {
			columns = append(columns, pkg.Filter(vals, func(v string) bool { return v != "" })...)
			continue
		}
		conditions[key] = types.NewString(vals[0])
	}
	return columns, conditions
}

func readRestBody(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return decodeJSON(body, v)
}

func (s *Server) restSelect(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	columns, conditions := conditionsFromQuery(r.URL.Query())

	rows, err := s.Engine.Execute(types.Query{
		Kind:       types.QuerySelect,
		Db:         r.PathValue("db"),
		Table:      table,
		Columns:    columns,
		Conditions: conditions,
	})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(
		http.StatusOK,
		fmt.Sprintf("Found %d rows in table %s", len(rows), table),
		types.NativeRows(rows),
	))
}

func (s *Server) restInsert(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	var body map[string]any
	if err := readRestBody(r, &body); err != nil {
		writeRestResponse(w, NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}
	values, err := types.ColumnSetFromNative(body)
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}

	rows, err := s.Engine.Execute(types.Query{
		Kind:   types.QueryInsert,
		Db:     r.PathValue("db"),
		Table:  table,
		Values: values,
	})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(
		http.StatusCreated,
		fmt.Sprintf("Created new row in table %s", table),
		types.NativeRows(rows)[0],
	))
}

func (s *Server) restUpdate(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	_, conditions := conditionsFromQuery(r.URL.Query())

	var body map[string]any
	if err := readRestBody(r, &body); err != nil {
		writeRestResponse(w, NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}
	set, err := types.ColumnSetFromNative(body)
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}

	rows, err := s.Engine.Execute(types.Query{
		Kind:       types.QueryUpdate,
		Db:         r.PathValue("db"),
		Table:      table,
		Set:        set,
		Conditions: conditions,
	})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(
		http.StatusOK,
		fmt.Sprintf("Updated %d rows in table %s", len(rows), table),
		types.NativeRows(rows),
	))
}

func (s *Server) restDelete(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	_, conditions := conditionsFromQuery(r.URL.Query())

	rows, err := s.Engine.Execute(types.Query{
		Kind:       types.QueryDelete,
		Db:         r.PathValue("db"),
		Table:      table,
		Conditions: conditions,
	})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(
		http.StatusOK,
		fmt.Sprintf("Deleted %d rows in table %s", len(rows), table),
		types.NativeRows(rows),
	))
}

func (s *Server) restCreateTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	var defs []ColumnDef
	if err := readRestBody(r, &defs); err != nil {
		writeRestResponse(w, NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}
	columns := types.Columns{}
	for _, def := range defs {
		data_type, err := types.ParseDataType(def.Type)
		if err != nil {
			writeRestResponse(w, errorResponse(err))
			return
		}
		columns = append(columns, types.Column{Name: def.Name, Type: data_type})
	}

	_, err := s.Engine.Execute(types.Query{
		Kind:       types.QueryCreate,
		Db:         r.PathValue("db"),
		Table:      table,
		ColumnDefs: columns,
	})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(http.StatusCreated, fmt.Sprintf("Created table %s", table), nil))
}

func (s *Server) restDropTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	_, err := s.Engine.Execute(types.Query{
		Kind:  types.QueryDrop,
		Db:    r.PathValue("db"),
		Table: table,
	})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(http.StatusOK, fmt.Sprintf("Dropped table %s", table), nil))
}

func (s *Server) restAlterTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	var rename map[string]string
	if err := readRestBody(r, &rename); err != nil {
		writeRestResponse(w, NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	_, err := s.Engine.Execute(types.Query{
		Kind:   types.QueryAlter,
		Db:     r.PathValue("db"),
		Table:  table,
		Rename: rename,
	})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(http.StatusOK, fmt.Sprintf("Altered table %s", table), nil))
}

func (s *Server) restShowTables(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	rows, err := s.Engine.Execute(types.Query{Kind: types.QueryShowTables, Db: db})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(
		http.StatusOK,
		fmt.Sprintf("Found %d tables in database %s", len(rows[0]), db),
		types.NativeRows(rows),
	))
}

func (s *Server) restCreateDb(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	_, err := s.Engine.Execute(types.Query{Kind: types.QueryCreateDb, Table: db})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(http.StatusCreated, fmt.Sprintf("Created database %s", db), nil))
}

func (s *Server) restDropDb(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("db")
	_, err := s.Engine.Execute(types.Query{Kind: types.QueryDropDb, Table: db})
	if err != nil {
		writeRestResponse(w, errorResponse(err))
		return
	}
	writeRestResponse(w, NewResponse(http.StatusOK, fmt.Sprintf("Dropped database %s", db), nil))
}
