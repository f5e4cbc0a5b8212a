package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"echocore/pkg/types"
)

// Importer is the queue surface the HTTP layer drives.
type Importer interface {
	Enqueue(names []string) int
	Clear()
	Status() types.QueueStatus
}

// Gateway is the realtime surface the HTTP layer drives. Narrow interface
// to avoid tight coupling to the gateway implementation.
type Gateway interface {
	BroadcastToRoom(room, event string, payload any)
	BroadcastToUser(userID int64, event string, payload any)
	BroadcastAll(event string, payload any)
	NotifyNewSessionDetected(userID int64, session any, excludeToken string)
	Stats() map[string]int
}

// HealthChecker reports backing-store liveness for /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server exposes the service API consumed by the main application backend.
// No business logic lives here, only HTTP handling and JSON serialization.
type Server struct {
	importer Importer
	gateway  Gateway
	health   HealthChecker
	logger   *zap.Logger
	router   *http.ServeMux
	started  time.Time
}

func NewServer(importer Importer, gateway Gateway, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		importer: importer,
		gateway:  gateway,
		health:   health,
		logger:   logger,
		router:   http.NewServeMux(),
		started:  time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/import", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleImport))))
	s.router.Handle("/api/import/clear", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleImportClear))))
	s.router.Handle("/api/import/status", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleImportStatus))))
	s.router.Handle("/api/notify", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleNotify))))
	s.router.Handle("/api/broadcast", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleBroadcast))))
	s.router.Handle("/api/sessions/alert", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleSessionAlert))))
	s.router.Handle("/api/stats", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleStats))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

// ServeHTTP implements http.Handler for integration with the outer server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Request/Response types for JSON serialization
type ImportRequest struct {
	Names []string `json:"names"`
}

type ImportResponse struct {
	Accepted int               `json:"accepted"`
	Status   types.QueueStatus `json:"status"`
}

type NotifyRequest struct {
	UserID  int64           `json:"user_id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type BroadcastRequest struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type SessionAlertRequest struct {
	UserID       int64           `json:"user_id"`
	Session      json.RawMessage `json:"session"`
	ExcludeToken string          `json:"exclude_token"`
}

type HealthResponse struct {
	Status        string         `json:"status"`
	Timestamp     time.Time      `json:"timestamp"`
	Database      string         `json:"database"`
	Connections   map[string]int `json:"connections"`
	Goroutines    int            `json:"goroutines"`
	UptimeSeconds int64          `json:"uptime_seconds"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// POST /api/import - queue artist names for import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.Names) == 0 {
		s.sendError(w, "At least one artist name is required", http.StatusBadRequest)
		return
	}

	accepted := s.importer.Enqueue(req.Names)
	if accepted == 0 {
		s.sendError(w, "No valid artist names provided", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ImportResponse{
		Accepted: accepted,
		Status:   s.importer.Status(),
	})
}

// POST /api/import/clear - drop pending queue entries
func (s *Server) handleImportClear(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	s.importer.Clear()
	json.NewEncoder(w).Encode(s.importer.Status())
}

// GET /api/import/status - current queue snapshot
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	json.NewEncoder(w).Encode(s.importer.Status())
}

// POST /api/notify - deliver an event to every connection of one user
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 {
		s.sendError(w, "User ID is required", http.StatusBadRequest)
		return
	}
	event := req.Event
	if event == "" {
		event = types.EventNewNotification
	}

	s.gateway.BroadcastToUser(req.UserID, event, req.Payload)
	json.NewEncoder(w).Encode(map[string]string{"message": "Notification dispatched"})
}

// POST /api/broadcast - deliver an event to a room, or to everyone when
// no room is named
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Event == "" {
		s.sendError(w, "Event name is required", http.StatusBadRequest)
		return
	}
	if req.Room != "" && !types.IsValidRoomName(req.Room) {
		s.sendError(w, "Invalid room name", http.StatusBadRequest)
		return
	}

	if req.Room == "" {
		s.gateway.BroadcastAll(req.Event, req.Payload)
	} else {
		s.gateway.BroadcastToRoom(req.Room, req.Event, req.Payload)
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Broadcast dispatched"})
}

// POST /api/sessions/alert - warn a user's other devices about a new login
func (s *Server) handleSessionAlert(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req SessionAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 {
		s.sendError(w, "User ID is required", http.StatusBadRequest)
		return
	}

	s.gateway.NotifyNewSessionDetected(req.UserID, req.Session, req.ExcludeToken)
	json.NewEncoder(w).Encode(map[string]string{"message": "Session alert dispatched"})
}

// GET /api/stats - connection and room counters
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	json.NewEncoder(w).Encode(s.gateway.Stats())
}

// GET /health - component health with database connectivity check
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "healthy"
	if err := s.health.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		dbStatus = "error: " + err.Error()
		s.logger.Warn("health check failed", zap.Error(err))
	}

	response := HealthResponse{
		Status:        status,
		Timestamp:     time.Now(),
		Database:      dbStatus,
		Connections:   s.gateway.Stats(),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}

	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	if r.Method == http.MethodOptions {
		// CORS preflight handled by middleware
		w.WriteHeader(http.StatusOK)
		return false
	}
	s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
