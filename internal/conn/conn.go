package conn

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/poorlydb/poorlydb/pkg"
)

type WsRequest struct {
	Action RequestAction `json:"action"`
	ReqId  int           `json:"__poorly_req_id__"` // used in clients
}

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type ConnRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

const maxConnAttempts = 3

// HandleConnection upgrades to a websocket and serves one request per
// message. Credentials come either from the upgrade URL's query params or
// from the first messages on the socket; unauthenticated requests are not
// dispatched.
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog("ws upgrade error", err)
		return
	}
	defer conn.Close()
	defer pkg.InfoLog("connection closed from", conn.RemoteAddr())
	pkg.InfoLog("connection opened from", conn.RemoteAddr())

	query := r.URL.Query()
	is_authed := s.Validate(query.Get("username"), query.Get("password"))

	attempts := 0
	for {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("conn read error", err)
			}
			return
		}

		if !is_authed {
			if attempts == maxConnAttempts {
				pkg.ErrorLog("max connection attempts reached")
				return
			}
			attempts++

			var cr ConnRequest
			if err := json.Unmarshal(buf, &cr); err != nil {
				conn.WriteJSON(NewErrorResponse(http.StatusBadRequest, err.Error()))
				return
			}
			if !s.Validate(cr.Username, cr.Password) {
				conn.WriteJSON(NewErrorResponse(http.StatusUnauthorized, "Invalid auth"))
				continue
			}
			is_authed = true
			conn.WriteJSON(NewResponse(http.StatusOK, "connected", nil))
			continue
		}

		var req WsRequest
		if err := json.Unmarshal(buf, &req); err != nil {
			pkg.ErrorLog("parsing request", err)
			continue
		}

		res := ActionHandler(s.Engine, req.Action, buf)
		res.ReqId = req.ReqId

		if err := conn.WriteJSON(res); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}
	}
}
