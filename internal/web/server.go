// Package web exposes the pipeline to browser based viewers: live values over a
// websocket, commands, and export downloads.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sleepywoodpecker/gsr-logger/internal/export"
	"sleepywoodpecker/gsr-logger/internal/pipeline"
)

// PushInterval is how often websocket clients receive a snapshot.
const PushInterval = 200 * time.Millisecond

// Controller is the pipeline surface the server drives.
type Controller interface {
	Connect(ctx context.Context) <-chan struct{}
	Start(now time.Time)
	Stop(now time.Time)
	Reset(now time.Time)
	ExportCSV() (export.File, bool, error)
	ExportJSON() (export.File, error)
	Snapshot() pipeline.Snapshot
}

type Server struct {
	httpServer *http.Server
	controller Controller
	logger     *zap.Logger
	baseCtx    context.Context
	upgrader   websocket.Upgrader
	now        func() time.Time
}

// New creates a Server. Stream connections it opens live as long as ctx.
func New(ctx context.Context, addr string, controller Controller, logger *zap.Logger) *Server {
	s := &Server{
		controller: controller,
		logger:     logger,
		baseCtx:    ctx,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		now:        time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /connect", s.handleCommand)
	mux.HandleFunc("POST /start", s.handleCommand)
	mux.HandleFunc("POST /stop", s.handleCommand)
	mux.HandleFunc("POST /reset", s.handleCommand)
	mux.HandleFunc("GET /export/csv", s.handleExportCSV)
	mux.HandleFunc("GET /export/json", s.handleExportJSON)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// run executes a named command. Unknown names report false.
func (s *Server) run(command string) bool {
	switch command {
	case "connect":
		s.controller.Connect(s.baseCtx)
	case "start":
		s.controller.Start(s.now())
	case "stop":
		s.controller.Stop(s.now())
	case "reset":
		s.controller.Reset(s.now())
	default:
		return false
	}
	s.logger.Info("[web] command", zap.String("command", command))
	return true
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !s.run(r.URL.Path[1:]) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(formatStatus(s.controller.Snapshot()))
	if err != nil {
		s.logger.Warn("[web] error encoding status", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, ok, err := s.controller.ExportCSV()
	if err != nil {
		s.logger.Warn("[web] csv export failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeFile(w, f)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	f, err := s.controller.ExportJSON()
	if err != nil {
		s.logger.Warn("[web] json export failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeFile(w, f)
}

func writeFile(w http.ResponseWriter, f export.File) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Body)))
	w.Write(f.Body)
}

// handleWebSocket pushes a snapshot every PushInterval and runs the commands the
// client sends back on the same connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("[web] websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(PushInterval)
		defer ticker.Stop()

		for {
			if err := conn.WriteJSON(formatStatus(s.controller.Snapshot())); err != nil {
				return
			}
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	for {
		var cmd CommandJSON
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if !s.run(cmd.Command) {
			s.logger.Warn("[web] unknown websocket command", zap.String("command", cmd.Command))
		}
	}
}
