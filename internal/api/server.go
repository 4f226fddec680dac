package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fruzzinn/phishwatch/internal/config"
	"github.com/fruzzinn/phishwatch/internal/detector"
	"github.com/fruzzinn/phishwatch/internal/monitoring"
	"github.com/fruzzinn/phishwatch/internal/scan"
	"github.com/fruzzinn/phishwatch/internal/storage"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config       *config.Config
	router       http.Handler
	httpServer   *http.Server
	detector     *detector.Detector
	orchestrator *scan.Orchestrator
	pgStore      *storage.PostgresStore
	redisStore   *storage.RedisStore
	metrics      *monitoring.Metrics
	logger       *zap.Logger
}

func NewServer(
	cfg *config.Config,
	det *detector.Detector,
	orch *scan.Orchestrator,
	ps *storage.PostgresStore,
	rs *storage.RedisStore,
	m *monitoring.Metrics,
	l *zap.Logger,
) *Server {
	s := &Server{
		config:       cfg,
		detector:     det,
		orchestrator: orch,
		pgStore:      ps,
		redisStore:   rs,
		metrics:      m,
		logger:       l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
