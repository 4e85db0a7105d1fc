package conn_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poorlydb/poorlydb/internal/auth"
	. "github.com/poorlydb/poorlydb/internal/conn"
	"gotest.tools/assert"
)

func newRestServer(t *testing.T, user *auth.User) *httptest.Server {
	t.Helper()
	e := newTestEngine(t)

	mux := http.NewServeMux()
	NewServer(e, user).RegisterRestRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url string, body any) Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NilError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	assert.NilError(t, err)
	raw_res, err := http.DefaultClient.Do(req)
	assert.NilError(t, err)
	defer raw_res.Body.Close()

	var res Response
	assert.NilError(t, json.NewDecoder(raw_res.Body).Decode(&res))
	assert.Equal(t, res.Status, raw_res.StatusCode, "body status must match the HTTP status")
	return res
}

func TestRestRoundTrip(t *testing.T) {
	server := newRestServer(t, nil)
	base := server.URL + "/api/poorly"

	res := doRequest(t, http.MethodPost, base+"/products",
		map[string]any{"name": "apple", "price": 1.5})
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	res = doRequest(t, http.MethodGet, base+"/products?name=apple", nil)
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	rows := res.Data.([]any)
	assert.Equal(t, len(rows), 1)
	assert.Equal(t, rows[0].(map[string]any)["price"], 1.5)

	res = doRequest(t, http.MethodPut, base+"/products?name=apple",
		map[string]any{"price": 9.9})
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Updated 1 rows in table products")

	res = doRequest(t, http.MethodDelete, base+"/products?name=apple", nil)
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Deleted 1 rows in table products")
}

func TestRestTableAndDbRoutes(t *testing.T) {
	server := newRestServer(t, nil)
	base := server.URL + "/api"

	res := doRequest(t, http.MethodPost, base+"/poorly/create/orders",
		[]map[string]string{{"name": "id", "type": "serial"}})
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	res = doRequest(t, http.MethodPut, base+"/poorly/alter/orders",
		map[string]string{"id": "order_id"})
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = doRequest(t, http.MethodGet, base+"/poorly", nil)
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	row := res.Data.([]any)[0].(map[string]any)
	assert.Equal(t, row["orders"], "table")
	assert.Equal(t, row["products"], "table")

	res = doRequest(t, http.MethodDelete, base+"/poorly/drop/orders", nil)
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = doRequest(t, http.MethodPost, base+"/analytics", nil)
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	res = doRequest(t, http.MethodDelete, base+"/analytics", nil)
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = doRequest(t, http.MethodDelete, base+"/poorly", nil)
	assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
}

func TestRestAuth(t *testing.T) {
	server := newRestServer(t, auth.NewUser("root", "hunter2"))

	res := doRequest(t, http.MethodGet, server.URL+"/api/poorly", nil)
	assert.Equal(t, res.Status, http.StatusUnauthorized, res.Message)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/poorly", nil)
	assert.NilError(t, err)
	req.SetBasicAuth("root", "hunter2")
	raw_res, err := http.DefaultClient.Do(req)
	assert.NilError(t, err)
	defer raw_res.Body.Close()
	assert.Equal(t, raw_res.StatusCode, http.StatusOK)
}
