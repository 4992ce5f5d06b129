package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const clientQueueSize = 64

// Server broadcasts annotations to websocket viewers and serves a status
// endpoint. One Server per process.
type Server struct {
	emitter  *Emitter
	log      *slog.Logger
	session  uuid.UUID
	started  time.Time
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewServer wires a broadcast server to an emitter.
func NewServer(emitter *Emitter) *Server {
	return &Server{
		emitter: emitter,
		log:     slog.With("component", "telemetry"),
		session: uuid.New(),
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Handler returns the route table: /ws for the annotation stream, /status
// for liveness.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	return r
}

// Run pumps annotations to connected clients until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-s.emitter.Annotations():
			payload, err := json.Marshal(a)
			if err != nil {
				continue
			}
			s.broadcast(payload)
		}
	}
}

// ListenAndServe serves the route table and runs the pump. Blocks until ctx
// is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", "addr", addr, "session", s.session)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// broadcast fans a payload out to every client, dropping it for clients
// whose queue is full. A slow viewer must never stall the loop.
func (s *Server) broadcast(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	ch := make(chan []byte, clientQueueSize)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()
	s.log.Info("viewer connected", "remote", conn.RemoteAddr())

	// Read pump: viewers never send payload, but the read is what detects a
	// closed connection. Removing the client closes ch and ends the write
	// loop below without waiting for the next broadcast.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.removeClient(conn)
				return
			}
		}
	}()

	for payload := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	s.removeClient(conn)
}

// removeClient unregisters a viewer and closes its queue. Idempotent; the
// queue is only ever closed under the same lock broadcast sends under.
func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	if ch, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(ch)
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	viewers := len(s.clients)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session": s.session.String(),
		"uptime":  time.Since(s.started).String(),
		"viewers": viewers,
		"dropped": s.emitter.Dropped(),
	})
}
