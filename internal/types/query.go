package types

// QueryKind names one of the closed set of operations the engine executes.
type QueryKind string

const (
	QuerySelect     QueryKind = "select"
	QueryInsert     QueryKind = "insert"
	QueryUpdate     QueryKind = "update"
	QueryDelete     QueryKind = "delete"
	QueryCreate     QueryKind = "create"
	QueryCreateDb   QueryKind = "createDb"
	QueryDrop       QueryKind = "drop"
	QueryDropDb     QueryKind = "dropDb"
	QueryAlter      QueryKind = "alter"
	QueryShowTables QueryKind = "showTables"
	QueryJoin       QueryKind = "join"
)

// JoinPair is one equality test of a join: a fully qualified left column
// name against a fully qualified right column name. Order matters: pairs
// are compared in sequence and comparison short-circuits on the first
// unequal pair.
type JoinPair struct {
	Left  string
	Right string
}

// Query is the engine's whole API surface. Front-ends translate their wire
// formats into a Query and render the resulting rows back out; nothing else
// crosses the boundary.
type Query struct {
	Kind QueryKind
	Db   string

	Table  string // from/into/table, or the database name for CreateDb/DropDb
	Table2 string // join only

	Columns    []string  // projection; empty means all columns
	ColumnDefs Columns   // Create only
	Values     ColumnSet // Insert only
	Set        ColumnSet // Update only
	Conditions ColumnSet

	Rename map[string]string // Alter only
	JoinOn []JoinPair        // Join only
}
