package conn

import (
	"fmt"
	"net/http"

	"github.com/poorlydb/poorlydb/internal/engine"
)

type RequestAction string

const (
	// row actions
	RequestActionSelect RequestAction = "select"
	RequestActionInsert RequestAction = "insert"
	RequestActionUpdate RequestAction = "update"
	RequestActionDelete RequestAction = "delete"
	RequestActionJoin   RequestAction = "join"

	// table actions
	RequestActionCreate     RequestAction = "create"
	RequestActionDrop       RequestAction = "drop"
	RequestActionAlter      RequestAction = "alter"
	RequestActionShowTables RequestAction = "showTables"

	// database actions
	RequestActionCreateDb RequestAction = "createDb"
	RequestActionDropDb   RequestAction = "dropDb"
)

func (action RequestAction) IsReadOnly() bool {
	return action == RequestActionSelect || action == RequestActionJoin ||
		action == RequestActionShowTables
}

func ActionHandler(e *engine.Engine, action RequestAction, raw []byte) Response {
	switch action {
	case RequestActionSelect:
		return SelectReqHandler(e, raw)
	case RequestActionInsert:
		return InsertReqHandler(e, raw)
	case RequestActionUpdate:
		return UpdateReqHandler(e, raw)
	case RequestActionDelete:
		return DeleteReqHandler(e, raw)
	case RequestActionJoin:
		return JoinReqHandler(e, raw)
	case RequestActionCreate:
		return CreateTableReqHandler(e, raw)
	case RequestActionDrop:
		return DropTableReqHandler(e, raw)
	case RequestActionAlter:
		return AlterTableReqHandler(e, raw)
	case RequestActionShowTables:
		return ShowTablesReqHandler(e, raw)
	case RequestActionCreateDb:
		return CreateDbReqHandler(e, raw)
	case RequestActionDropDb:
		return DropDbReqHandler(e, raw)
	default:
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", action))
	}
}
