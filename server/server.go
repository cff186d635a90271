// Package server exposes the print pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/AlexStarov/labelprint/label"
	"github.com/AlexStarov/labelprint/pipeline"
)

// Runner runs one print job for a registered label type.
type Runner interface {
	Run(ctx context.Context, name string) (*pipeline.Result, error)
}

// Config holds the listen address and request limits.
type Config struct {
	Address string
	// MaxPrints bounds concurrent pipeline runs; values below 1 mean 1.
	MaxPrints int
	// PagesDir, when set, is served under /pages/.
	PagesDir string
}

// Server answers print requests.
type Server struct {
	runner   Runner
	cfg      Config
	prints   *semaphore.Weighted
	logger   *zap.Logger
	mu       sync.Mutex
	running  bool
	listener net.Listener
	http     *http.Server
	wg       sync.WaitGroup
}

// New creates a server. A nil logger discards output.
func New(runner Runner, cfg Config, logger *zap.Logger) *Server {
	if cfg.MaxPrints < 1 {
		cfg.MaxPrints = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		runner: runner,
		cfg:    cfg,
		prints: semaphore.NewWeighted(int64(cfg.MaxPrints)),
		logger: logger.Named("server"),
	}
}

type meta struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Length int `json:"length"`
	RowLen int `json:"rowlen"`
}

type printResponse struct {
	OK             bool   `json:"ok"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	ZPLPath        string `json:"zplPath,omitempty"`
	Meta           *meta  `json:"meta,omitempty"`
	UseWindowPrint bool   `json:"useWindowPrint,omitempty"`
}

type labelInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Page     string `json:"page"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Document bool   `json:"document"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/print", s.handlePrint)
	mux.HandleFunc("GET /api/labels", s.handleLabels)
	if s.cfg.PagesDir != "" {
		mux.Handle("GET /pages/", http.StripPrefix("/pages/", http.FileServer(http.Dir(s.cfg.PagesDir))))
	}
	return mux
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("type")
	if name == "" {
		name = label.DefaultName
	}

	t, err := label.Lookup(name)
	if err != nil {
		s.logger.Warn("Rejected print request", zap.String("type", name))
		writeJSON(w, http.StatusBadRequest, printResponse{Error: err.Error()})
		return
	}
	if t.Class == label.ClassDocument {
		writeJSON(w, http.StatusOK, printResponse{OK: true, Message: "Use browser print dialog", UseWindowPrint: true})
		return
	}

	if err := s.prints.Acquire(r.Context(), 1); err != nil {
		s.logger.Warn("Gave up waiting for printer", zap.String("type", name), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, printResponse{Error: "printer busy"})
		return
	}
	defer s.prints.Release(1)

	res, err := s.runner.Run(r.Context(), name)
	if err != nil {
		s.logger.Error("Print failed", zap.String("type", name), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, printResponse{Error: err.Error()})
		return
	}
	if res.DumpErr != nil {
		s.logger.Warn("Failed to save ZPL copy", zap.String("job", res.JobID), zap.Error(res.DumpErr))
	}

	s.logger.Info("Printed",
		zap.String("job", res.JobID),
		zap.String("type", res.LabelType),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Int("length", res.Length),
	)
	writeJSON(w, http.StatusOK, printResponse{
		OK:      true,
		Message: "Printed",
		ZPLPath: res.ZPLPath,
		Meta:    &meta{Width: res.Width, Height: res.Height, Length: res.Length, RowLen: res.RowLen},
	})
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	types := label.Types()
	out := make([]labelInfo, 0, len(types))
	for _, t := range types {
		out = append(out, labelInfo{
			Name:     t.Name,
			Title:    t.Title,
			Page:     t.Page,
			Width:    t.Width,
			Height:   t.Height,
			Document: t.Class == label.ClassDocument,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		s.logger.Error("Failed to start server", zap.String("address", s.cfg.Address), zap.Error(err))
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.http = &http.Server{Handler: s.Handler()}
	s.running = true
	s.logger.Info("Server listening", zap.String("address", listener.Addr().String()))
	return nil
}

func (s *Server) serve() error {
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server stopped", zap.Error(err))
		return err
	}
	return nil
}

// Start listens and blocks until Stop is called.
func (s *Server) Start() error {
	if err := s.listen(); err != nil {
		return err
	}
	return s.serve()
}

// StartAsync listens and serves in the background.
func (s *Server) StartAsync() error {
	if err := s.listen(); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.serve()
	}()
	return nil
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop waits for in-flight requests until ctx expires, then closes the rest.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server not running")
	}
	s.running = false
	srv := s.http
	s.mu.Unlock()

	s.logger.Info("Stopping server")
	err := srv.Shutdown(ctx)
	if err != nil {
		_ = srv.Close()
	}
	s.wg.Wait()
	s.logger.Info("Server stopped")
	return err
}
