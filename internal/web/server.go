package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tiku/internal/bank"
	"tiku/internal/models"
	"tiku/internal/session"
)

// ProgressEvent 推送给前端的进度事件
type ProgressEvent struct {
	Type    string `json:"type"` // batch, empty, error, saved, quit
	Message string `json:"message"`
	Batch   int    `json:"batch"`
	Added   int    `json:"added"`
	Total   int    `json:"total"`
	Time    string `json:"time"`
}

// Status 当前状态
type Status struct {
	Batches   int    `json:"batches"`
	Total     int    `json:"total"`
	LastAdded int    `json:"lastAdded"`
	Message   string `json:"message"`
	Finished  bool   `json:"finished"`
}

// Server 只读的进度查看服务，不会修改题库
type Server struct {
	mu         sync.RWMutex
	bank       *bank.Bank
	status     *Status
	sseClients map[chan ProgressEvent]bool
	sseMu      sync.RWMutex
	httpServer *http.Server
}

// NewServer 创建服务器
func NewServer(b *bank.Bank) *Server {
	return &Server{
		bank: b,
		status: &Status{
			Total:   b.Size(),
			Message: "就绪",
		},
		sseClients: make(map[chan ProgressEvent]bool),
	}
}

// Handler 构建路由
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/questions", s.handleQuestions)
	r.Get("/api/events", s.handleSSE)
	return r
}

// Start 在后台启动服务器
func (s *Server) Start(port int) {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: s.Handler(),
	}
	go func() {
		slog.Info("进度页面已启动", "url", fmt.Sprintf("http://localhost:%d/api/status", port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("进度页面启动失败", "err", err)
		}
	}()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Publish 会话事件回调
func (s *Server) Publish(event session.Event) {
	s.mu.Lock()
	s.status.Total = event.Total
	s.status.Message = event.Message
	switch event.Type {
	case "batch":
		s.status.Batches = event.Batch
		s.status.LastAdded = event.Added
	case "quit":
		s.status.Finished = true
	}
	s.mu.Unlock()

	s.sendSSEEvent(ProgressEvent{
		Type:    event.Type,
		Message: event.Message,
		Batch:   event.Batch,
		Added:   event.Added,
		Total:   event.Total,
		Time:    event.Time.Format(time.RFC3339),
	})
}

// handleStatus 获取状态
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := *s.status
	s.mu.RUnlock()

	writeJSON(w, status)
}

// handleQuestions 返回题库快照，支持 ?limit=N
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	records := s.bank.Snapshot()

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			http.Error(w, "limit 参数无效", http.StatusBadRequest)
			return
		}
		if limit < len(records) {
			records = records[:limit]
		}
	}
	if records == nil {
		records = []models.Question{}
	}

	writeJSON(w, records)
}

// handleSSE SSE事件流
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan ProgressEvent, 100)

	s.sseMu.Lock()
	s.sseClients[clientChan] = true
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		close(clientChan)
		s.sseMu.Unlock()
	}()

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"message\":\"SSE连接成功\"}\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// sendSSEEvent 向所有SSE客户端发送事件
func (s *Server) sendSSEEvent(event ProgressEvent) {
	s.sseMu.RLock()
	defer s.sseMu.RUnlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// 通道满了，跳过
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
