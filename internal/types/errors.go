package types

import (
	"fmt"
	"net/http"
)

type ErrorCode int

const (
	ErrTableNotFound ErrorCode = iota
	ErrTableExists
	ErrDatabaseNotFound
	ErrDatabaseExists
	ErrCannotDropDefaultDb
	ErrColumnNotFound
	ErrColumnExists
	ErrNoColumns
	ErrInvalidName
	ErrInvalidEmail
	ErrInvalidValue
	ErrIncompleteData
	ErrInvalidDataType
	ErrInvalidOperation
	ErrIo
)

// Error is the engine's error value. Every failure the engine can return
// carries a code so transport layers can map it to a status without
// string-matching messages.
type Error struct {
	Code  ErrorCode
	msg   string
	cause error
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.cause }

// Status maps the error to an HTTP-ish status code for the front-ends.
func (e *Error) Status() int {
	switch e.Code {
	case ErrTableNotFound, ErrDatabaseNotFound, ErrColumnNotFound:
		return http.StatusNotFound
	case ErrTableExists, ErrDatabaseExists, ErrColumnExists:
		return http.StatusConflict
	case ErrIo:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

func TableNotFoundError(table string) *Error {
	return newError(ErrTableNotFound, "Table %s not found", table)
}

func TableExistsError(table string) *Error {
	return newError(ErrTableExists, "Table %s already exists", table)
}

func DatabaseNotFoundError(db string) *Error {
	return newError(ErrDatabaseNotFound, "Database %s not found", db)
}

func DatabaseExistsError(db string) *Error {
	return newError(ErrDatabaseExists, "Database %s already exists", db)
}

func CannotDropDefaultDbError() *Error {
	return newError(ErrCannotDropDefaultDb, "Cannot drop default database")
}

func ColumnNotFoundError(column, table string) *Error {
	return newError(ErrColumnNotFound, "Column %s not found in table %s", column, table)
}

func ColumnExistsError(column, table string) *Error {
	return newError(ErrColumnExists, "Column %s already exists in table %s", column, table)
}

func NoColumnsError() *Error {
	return newError(ErrNoColumns, "Can't create a table without columns")
}

func InvalidNameError(name string) *Error {
	return newError(ErrInvalidName, "Name %s cannot be used for a table or a column", name)
}

func InvalidEmailError() *Error {
	return newError(ErrInvalidEmail, "Invalid email format")
}

func InvalidValueError(value TypedValue, to DataType) *Error {
	return newError(ErrInvalidValue, "Invalid value %q for datatype %s", value.String(), to)
}

func IncompleteDataError(column, table string) *Error {
	return newError(ErrIncompleteData, "Incomplete data - missing %s for table %s", column, table)
}

func InvalidDataTypeError(name string) *Error {
	return newError(ErrInvalidDataType, "Invalid datatype: %s", name)
}

func InvalidOperationError(msg string) *Error {
	return newError(ErrInvalidOperation, "Invalid operation: %s", msg)
}

func IoError(err error, context string) *Error {
	return &Error{Code: ErrIo, msg: fmt.Sprintf("IO Error: %s: %s", context, err), cause: err}
}
