package schema_test

import (
	"os"
	"path"
	"testing"

	. "github.com/poorlydb/poorlydb/internal/schema"
	"github.com/poorlydb/poorlydb/internal/types"
	"gotest.tools/assert"
)

func testColumns() types.Columns {
	return types.Columns{
		{Name: "name", Type: types.TypeString},
		{Name: "id", Type: types.TypeSerial},
		{Name: "price", Type: types.TypeFloat},
	}
}

func TestCreateTable(t *testing.T) {
	t.Run("columns are sorted by name", func(t *testing.T) {
		s := New("test")
		assert.NilError(t, s.CreateTable("products", testColumns()))

		got := s.Tables.Get("products")
		want := types.Columns{
			{Name: "id", Type: types.TypeSerial},
			{Name: "name", Type: types.TypeString},
			{Name: "price", Type: types.TypeFloat},
		}
		assert.DeepEqual(t, got, want)
	})

	t.Run("no columns", func(t *testing.T) {
		s := New("test")
		assert.ErrorContains(t, s.CreateTable("products", nil), "without columns")
	})

	t.Run("already exists", func(t *testing.T) {
		s := New("test")
		assert.NilError(t, s.CreateTable("products", testColumns()))
		assert.ErrorContains(t, s.CreateTable("products", testColumns()), "already exists")
	})

	t.Run("duplicate column", func(t *testing.T) {
		s := New("test")
		err := s.CreateTable("products", types.Columns{
			{Name: "id", Type: types.TypeSerial},
			{Name: "id", Type: types.TypeInt},
		})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("invalid names", func(t *testing.T) {
		s := New("test")
		assert.ErrorContains(t, s.CreateTable("pro ducts", testColumns()), "cannot be used")
		err := s.CreateTable("products", types.Columns{{Name: "bad-name", Type: types.TypeInt}})
		assert.ErrorContains(t, err, "cannot be used")
	})
}

func TestAlterTable(t *testing.T) {
	t.Run("rename keeps order and types", func(t *testing.T) {
		s := New("test")
		assert.NilError(t, s.CreateTable("products", testColumns()))
		assert.NilError(t, s.AlterTable("products", map[string]string{"price": "cost"}))

		got := s.Tables.Get("products")
		want := types.Columns{
			{Name: "id", Type: types.TypeSerial},
			{Name: "name", Type: types.TypeString},
			{Name: "cost", Type: types.TypeFloat},
		}
		assert.DeepEqual(t, got, want)
	})

	t.Run("unknown column", func(t *testing.T) {
		s := New("test")
		assert.NilError(t, s.CreateTable("products", testColumns()))
		err := s.AlterTable("products", map[string]string{"weight": "mass"})
		assert.ErrorContains(t, err, "Column weight not found")
	})

	t.Run("rename collision", func(t *testing.T) {
		s := New("test")
		assert.NilError(t, s.CreateTable("products", testColumns()))
		err := s.AlterTable("products", map[string]string{"price": "name"})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("table not found", func(t *testing.T) {
		s := New("test")
		err := s.AlterTable("ghosts", map[string]string{"a": "b"})
		assert.ErrorContains(t, err, "Table ghosts not found")
	})
}

func TestDropTable(t *testing.T) {
	s := New("test")
	assert.NilError(t, s.CreateTable("products", testColumns()))
	assert.NilError(t, s.DropTable("products"))
	assert.ErrorContains(t, s.DropTable("products"), "not found")
}

func TestDumpLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := New("test")
	assert.NilError(t, s.CreateTable("products", testColumns()))
	assert.NilError(t, s.CreateTable("orders", types.Columns{
		{Name: "id", Type: types.TypeSerial},
		{Name: "product_id", Type: types.TypeInt},
	}))
	assert.NilError(t, s.Dump(dir))

	loaded, err := Load(dir)
	assert.NilError(t, err)
	assert.Equal(t, loaded.Name, "test")
	assert.Equal(t, loaded.Kind, KindPoorly)
	assert.DeepEqual(t, loaded.Tables, s.Tables)
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()

	raw := []byte("test:poorly\nproducts%id-serial\n")
	assert.NilError(t, os.WriteFile(path.Join(dir, FileName), raw, 0644))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "corrupted")
}
