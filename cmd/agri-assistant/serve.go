package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	agriassistant "github.com/menta2k/agri-assistant"
	"github.com/menta2k/agri-assistant/internal/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Serves the Soil Analysis and Pest Identifier views in the browser, plus a
JSON API at /api/soil and /api/pest.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides config and AGRI_LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	assistant, err := agriassistant.New(ctx, agriassistant.Options{
		APIKey:         cfg.Gemini.APIKey,
		Model:          cfg.Gemini.Model,
		BaseURL:        cfg.Gemini.BaseURL,
		PreviewSize:    cfg.Preview.MaxSize,
		PreviewQuality: cfg.Preview.Quality,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(assistant, server.Config{
		ListenAddr:     cfg.Server.ListenAddr,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MaxSessions:    cfg.Server.MaxSessions,
	}, logger.Named("http"))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received shutdown signal")
		return nil
	})

	logger.Info("agri-assistant ready",
		zap.String("addr", cfg.Server.ListenAddr),
		zap.String("model", assistant.Model()),
		zap.String("version", agriassistant.Version),
	)
	return g.Wait()
}
