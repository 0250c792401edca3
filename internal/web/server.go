package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"batch-image-processor/internal/action"
	"batch-image-processor/internal/batch"
	"batch-image-processor/internal/config"
	"batch-image-processor/internal/logger"
	"batch-image-processor/internal/statistics"
)

//go:embed index.html
var indexHTML []byte

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.Mutex

	engine    *batch.Engine
	registry  *action.Registry
	selection *action.Selection

	// Current operation state
	operationMutex sync.RWMutex
	isRunning      bool
	cancel         context.CancelFunc
	progress       float64
	status         string
	lastError      string
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// BatchRequest starts a run. Empty fields fall back to the server config.
type BatchRequest struct {
	Directories []string `json:"directories"`
	Extensions  []string `json:"extensions,omitempty"`
	ReportPath  string   `json:"report_path,omitempty"`
	SaveReport  *bool    `json:"save_report,omitempty"`
	Workers     int      `json:"workers,omitempty"`
}

type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

type ActionInfo struct {
	action.Descriptor
	Enabled bool `json:"enabled"`
}

type DirectoryInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	IsDirectory  bool   `json:"is_directory"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewServer(cfg *config.Config, log *logrus.Logger, registry *action.Registry) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		engine:    batch.NewEngine(registry, log),
		registry:  registry,
		selection: action.NewSelection(registry),
	}
	s.engine.SetNotifier(batch.NotifierFuncs{
		Progress: s.onProgress,
		Status:   s.onStatus,
	})

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/actions", s.handleListActions).Methods("GET")
	api.HandleFunc("/actions/{name}", s.handleToggleAction).Methods("POST")
	api.HandleFunc("/batch", s.handleStartBatch).Methods("POST")
	api.HandleFunc("/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/report", s.handleReport).Methods("GET")
	api.HandleFunc("/directories", s.handleListDirectories).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

// Handler returns the HTTP handler serving the API and the UI.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Engine returns the batch engine driven by the server.
func (s *Server) Engine() *batch.Engine {
	return s.engine
}

func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://%s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop cancels a running batch and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.operationMutex.RLock()
	cancel := s.cancel
	s.operationMutex.RUnlock()
	if cancel != nil {
		cancel()
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	running := s.isRunning
	progress := s.progress
	status := s.status
	lastError := s.lastError
	s.operationMutex.RUnlock()

	stats := s.engine.Statistics()
	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":    running,
			"state":      s.engine.State().String(),
			"run_id":     s.engine.Report().RunID(),
			"progress":   progress,
			"status":     status,
			"last_error": lastError,
			"statistics": statsData(stats),
		},
	})
}

func statsData(stats *statistics.Statistics) interface{} {
	if stats == nil {
		return nil
	}
	return map[string]interface{}{
		"summary": stats.GetSummary(),
		"actions": stats.GetActionBreakdown(),
		"counts":  stats.Snapshot(),
	}
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	visible := s.registry.Visible()
	out := make([]ActionInfo, 0, len(visible))
	for _, a := range visible {
		d := a.Describe()
		out = append(out, ActionInfo{Descriptor: d, Enabled: s.selection.Enabled(d.Name)})
	}
	s.writeJSON(w, APIResponse{Success: true, Data: out})
}

func (s *Server) handleToggleAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.selection.SetEnabled(name, req.Enabled); err != nil {
		switch {
		case errors.Is(err, action.ErrUnknownAction):
			s.writeError(w, err.Error(), http.StatusNotFound)
		default:
			s.writeError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	logger.WithAction(s.log, name).WithField("enabled", req.Enabled).Info("Action toggled")
	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    ActionInfo{Descriptor: mustDescribe(s.registry, name), Enabled: req.Enabled},
	})
}

func mustDescribe(reg *action.Registry, name string) action.Descriptor {
	a, _ := reg.Lookup(name)
	return a.Describe()
}

func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	opts := s.batchOptions(req)
	if len(opts.Directories) == 0 {
		s.writeError(w, "At least one directory is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.operationMutex.Lock()
	if s.isRunning {
		s.operationMutex.Unlock()
		cancel()
		s.writeError(w, "Batch already in progress", http.StatusConflict)
		return
	}
	s.isRunning = true
	s.cancel = cancel
	s.progress = 0
	s.status = ""
	s.lastError = ""
	s.operationMutex.Unlock()

	go s.runBatchAsync(ctx, opts)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Batch started",
		Data:    map[string]interface{}{"actions": opts.Actions},
	})
}

func (s *Server) batchOptions(req BatchRequest) batch.Options {
	opts := batch.Options{
		Directories: trimAll(req.Directories),
		Extensions:  trimAll(req.Extensions),
		Actions:     s.selection.IDs(),
		ReportPath:  req.ReportPath,
		SaveReport:  s.cfg.Report.Enabled,
		Workers:     req.Workers,
	}
	if len(opts.Directories) == 0 {
		opts.Directories = s.cfg.Directories
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = s.cfg.Extensions
	}
	if opts.ReportPath == "" {
		opts.ReportPath = s.cfg.Report.Path
	}
	if req.SaveReport != nil {
		opts.SaveReport = *req.SaveReport
	}
	if opts.Workers <= 0 {
		opts.Workers = s.cfg.Performance.WorkerThreads
	}
	return opts
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	running := s.isRunning
	cancel := s.cancel
	s.operationMutex.RUnlock()

	if !running || cancel == nil {
		s.writeJSON(w, APIResponse{Success: true, Message: "No batch is running"})
		return
	}
	cancel()

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Stop requested",
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := s.engine.Report().Encode(w); err != nil {
		s.log.WithError(err).Error("Failed to encode report")
	}
}

func (s *Server) handleListDirectories(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}

	path = filepath.Clean(path)
	if strings.Contains(path, "..") {
		s.writeError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to read directory: %v", err), http.StatusInternalServerError)
		return
	}

	directories := make([]DirectoryInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		directories = append(directories, DirectoryInfo{
			Path:         filepath.Join(path, entry.Name()),
			Name:         entry.Name(),
			IsDirectory:  true,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		})
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    directories,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) runBatchAsync(ctx context.Context, opts batch.Options) {
	s.broadcastWSMessage("batch_started", map[string]interface{}{
		"directories": opts.Directories,
		"extensions":  opts.Extensions,
		"actions":     opts.Actions,
	})

	err := s.engine.Run(ctx, opts)

	s.operationMutex.Lock()
	s.isRunning = false
	s.cancel = nil
	if err != nil {
		s.lastError = err.Error()
	}
	s.operationMutex.Unlock()

	rep := s.engine.Report()
	if err != nil {
		s.log.WithError(err).Warn("Batch did not complete")
		s.broadcastWSMessage("batch_error", map[string]interface{}{
			"error":  err.Error(),
			"run_id": rep.RunID(),
		})
		return
	}

	s.broadcastWSMessage("batch_completed", map[string]interface{}{
		"run_id":       rep.RunID(),
		"failed_files": rep.FailedFiles(),
		"report_path":  s.engine.ReportPath(),
		"statistics":   s.engine.Statistics().GetSummary(),
	})
}

func (s *Server) onProgress(percent float64) {
	s.operationMutex.Lock()
	s.progress = percent
	s.operationMutex.Unlock()
	s.broadcastWSMessage("progress", map[string]interface{}{"percent": percent})
}

func (s *Server) onStatus(message string) {
	s.operationMutex.Lock()
	s.status = message
	s.operationMutex.Unlock()
	s.broadcastWSMessage("status", map[string]interface{}{"message": message})
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	// gorilla connections allow one concurrent writer.
	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			delete(s.wsClients, conn)
			conn.Close()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
