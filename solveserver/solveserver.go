// Package solveserver exposes the Sudoku solver over HTTP and
// WebSocket. HTTP solves run synchronously on the request goroutine;
// WebSocket solves go through the asyncsolver pool and are pushed to
// the client when each search completes, keeping the connection
// responsive during long solves.
package solveserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sudokusolver/asyncsolver"
	"sudokusolver/sudoku"
)

// Config holds server configuration.
type Config struct {
	Addr          string // listen address, default ":8080"
	Workers       int    // solve pool workers, default NumCPU (see asyncsolver)
	ClientBacklog int    // per-connection outbound queue, default 16
	Logger        *logrus.Logger
}

// Server serves solve and validate requests.
type Server struct {
	config     Config
	log        *logrus.Logger
	pool       *asyncsolver.Pool
	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader

	mu         sync.Mutex
	clients    map[int64]*wsClient // pool request ID -> waiting connection
	requestIDs map[int64]int64     // pool request ID -> caller's ID
	conns      map[*wsClient]struct{}
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

type wsClient struct {
	conn *websocket.Conn
	send chan solveResponse
	done chan struct{}
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// New creates a server with defaults applied.
func New(config Config) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ClientBacklog <= 0 {
		config.ClientBacklog = 16
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	s := &Server{
		config:     config,
		log:        config.Logger,
		pool:       asyncsolver.NewPool(asyncsolver.Config{Workers: config.Workers}),
		clients:    make(map[int64]*wsClient),
		requestIDs: make(map[int64]int64),
		conns:      make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/solve", s.handleSolve)
	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins listening and launches the solve pool and the result
// dispatcher. It returns once the listener is bound, so Addr is valid
// immediately after.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already running")
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if err := s.pool.Start(ctx); err != nil {
		ln.Close()
		return err
	}
	s.running = true

	s.wg.Add(1)
	go s.dispatchResults()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("http server stopped")
		}
	}()

	s.log.WithField("addr", ln.Addr().String()).Info("solve server listening")
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully: no new connections, pending
// solves completed and delivered, then the pool drained.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	s.pool.Stop() // closes Results, ends the dispatcher
	s.wg.Wait()

	// Shutdown does not cover hijacked websocket connections; close
	// them so their reader and writer goroutines exit.
	s.mu.Lock()
	for client := range s.conns {
		client.close()
		client.conn.Close()
	}
	s.conns = make(map[*wsClient]struct{})
	s.mu.Unlock()

	s.cancel()
	return err
}

// ---- JSON shapes ----

type gridPayload struct {
	Grid [9][9]int `json:"grid"`
}

type solveRequest struct {
	ID   int64     `json:"id,omitempty"`
	Grid [9][9]int `json:"grid"`
}

type solveResponse struct {
	ID         int64      `json:"id,omitempty"`
	Solved     bool       `json:"solved"`
	Grid       *[9][9]int `json:"grid,omitempty"`
	Nodes      int64      `json:"nodes,omitempty"`
	DurationMs int64      `json:"durationMs,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---- HTTP handlers ----

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req gridPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, solveResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	grid := sudoku.Grid(req.Grid)
	if !sudoku.IsWellFormed(&grid) {
		writeJSON(w, http.StatusBadRequest, solveResponse{Error: sudoku.ErrMalformedCell.Error()})
		return
	}
	if !sudoku.Validate(&grid) {
		writeJSON(w, http.StatusUnprocessableEntity, solveResponse{Error: sudoku.ErrInvalidGrid.Error()})
		return
	}

	stats, ok := sudoku.SolveContext(r.Context(), &grid)
	resp := solveResponse{
		Solved:     ok,
		Nodes:      stats.Nodes,
		DurationMs: stats.Duration.Milliseconds(),
	}
	if ok {
		out := [9][9]int(grid)
		resp.Grid = &out
	} else {
		resp.Error = sudoku.ErrUnsolvable.Error()
	}
	writeJSON(w, http.StatusOK, resp)

	s.log.WithFields(logrus.Fields{
		"solved": ok,
		"nodes":  stats.Nodes,
		"dur":    stats.Duration.Round(time.Millisecond),
	}).Debug("solve request")
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req gridPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, validateResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	grid := sudoku.Grid(req.Grid)
	if !sudoku.IsWellFormed(&grid) {
		writeJSON(w, http.StatusBadRequest, validateResponse{Error: sudoku.ErrMalformedCell.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: sudoku.Validate(&grid)})
}

// ---- WebSocket ----

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan solveResponse, s.config.ClientBacklog),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[client] = struct{}{}
	s.mu.Unlock()

	go s.clientWriter(client)
	s.clientReader(client)
}

// sendToClient queues a response unless the connection is gone.
func sendToClient(client *wsClient, resp solveResponse) bool {
	select {
	case client.send <- resp:
		return true
	case <-client.done:
		return false
	}
}

// clientReader consumes solve requests until the connection drops.
func (s *Server) clientReader(client *wsClient) {
	defer func() {
		client.close()
		client.conn.Close()
		s.dropClient(client)
	}()

	for {
		var req solveRequest
		if err := client.conn.ReadJSON(&req); err != nil {
			return
		}

		grid := sudoku.Grid(req.Grid)
		if !sudoku.IsWellFormed(&grid) {
			sendToClient(client, solveResponse{ID: req.ID, Error: sudoku.ErrMalformedCell.Error()})
			continue
		}
		if !sudoku.Validate(&grid) {
			sendToClient(client, solveResponse{ID: req.ID, Error: sudoku.ErrInvalidGrid.Error()})
			continue
		}

		// Submit and registration happen under one lock: the dispatcher
		// takes the same lock to look up the pool ID, so a worker that
		// finishes instantly still finds the client registered.
		s.mu.Lock()
		poolID, err := s.pool.Submit(grid)
		if err != nil {
			s.mu.Unlock()
			sendToClient(client, solveResponse{ID: req.ID, Error: err.Error()})
			continue
		}
		s.clients[poolID] = client
		s.requestIDs[poolID] = req.ID
		s.mu.Unlock()
	}
}

// clientWriter is the single writer for a connection; gorilla
// connections do not allow concurrent writes.
func (s *Server) clientWriter(client *wsClient) {
	defer func() {
		client.close()
		client.conn.Close()
	}()
	for {
		select {
		case resp := <-client.send:
			if err := client.conn.WriteJSON(resp); err != nil {
				return
			}
		case <-client.done:
			return
		}
	}
}

// dispatchResults routes pool completions back to the waiting
// connections.
func (s *Server) dispatchResults() {
	defer s.wg.Done()
	for res := range s.pool.Results() {
		s.mu.Lock()
		client := s.clients[res.ID]
		reqID := s.requestIDs[res.ID]
		delete(s.clients, res.ID)
		delete(s.requestIDs, res.ID)
		s.mu.Unlock()
		if client == nil {
			continue
		}

		resp := solveResponse{
			ID:         reqID,
			Solved:     res.Solved,
			Nodes:      res.Stats.Nodes,
			DurationMs: res.Stats.Duration.Milliseconds(),
		}
		if res.Solved {
			out := [9][9]int(res.Grid)
			resp.Grid = &out
		} else if res.Err != nil {
			resp.Error = res.Err.Error()
		}

		select {
		case client.send <- resp:
		case <-client.done:
		default:
			s.log.Warn("dropping result for slow websocket client")
		}
	}
}

func (s *Server) dropClient(client *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, client)
	for id, c := range s.clients {
		if c == client {
			delete(s.clients, id)
			delete(s.requestIDs, id)
		}
	}
}
