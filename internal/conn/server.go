package conn

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/poorlydb/poorlydb/internal/auth"
	"github.com/poorlydb/poorlydb/internal/engine"
	"github.com/poorlydb/poorlydb/pkg"
)

// Server serves the engine over websocket and REST on one port. With a
// nil User every connection is accepted.
type Server struct {
	Engine *engine.Engine
	User   *auth.User
}

func NewServer(e *engine.Engine, user *auth.User) *Server {
	return &Server{Engine: e, User: user}
}

func (s *Server) Validate(username, password string) bool {
	if s.User == nil {
		return true
	}
	return username == s.User.Name && s.User.ValidateUser(password)
}

// Listen blocks until SIGINT/SIGTERM, then shuts the HTTP server down and
// closes the engine so schemas are flushed on the way out.
func (s *Server) Listen(port int) {
	exit := make(chan os.Signal, 2)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", s.HandleConnection)
	s.RegisterRestRoutes(mux)

	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			pkg.FatalLog(err)
		}
	}()

	pkg.InfoLog("poorlydb listening on port", port)
	<-exit
	pkg.DebugLog("Shutting down...")
	server.Shutdown(context.Background())
	if err := s.Engine.Close(); err != nil {
		pkg.ErrorLog("closing engine", err)
	}
}
