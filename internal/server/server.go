package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	agriassistant "github.com/menta2k/agri-assistant"
	"github.com/menta2k/agri-assistant/pkg/presenter"
	"github.com/menta2k/agri-assistant/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds the settings for the web interface
type Config struct {
	ListenAddr     string
	MaxUploadBytes int64
	// MaxSessions bounds the number of browser sessions kept in memory
	MaxSessions int
}

// Server serves the soil analysis and pest identifier views plus a JSON API
type Server struct {
	assistant *agriassistant.Assistant
	sessions  *sessionStore
	logger    *zap.Logger
	cfg       Config
	engine    *gin.Engine
}

// New creates the HTTP server
func New(assistant *agriassistant.Assistant, cfg Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 100
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatPh": presenter.FormatPh,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		assistant: assistant,
		logger:    logger,
		cfg:       cfg,
		sessions: newSessionStore(cfg.MaxSessions, func() *session {
			return &session{
				soil: assistant.NewSoilPresenter(),
				pest: assistant.NewPestPresenter(),
			}
		}),
	}

	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())
	engine.MaxMultipartMemory = cfg.MaxUploadBytes
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/soil")
	})
	engine.GET("/healthz", s.handleHealth)

	for _, kind := range []types.AnalysisKind{types.KindSoil, types.KindPest} {
		base := "/" + string(kind)
		engine.GET(base, s.handleView(kind))
		engine.POST(base+"/image", s.handleSelect(kind))
		engine.POST(base+"/analyze", s.handleAnalyze(kind))
		engine.POST("/api"+base, s.handleAPI(kind))
	}

	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", s.cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": agriassistant.Version,
		"model":   s.assistant.Model(),
	})
}

// requestLogger logs every request through zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
