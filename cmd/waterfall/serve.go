package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigwatch/waterfall/internal/config"
	"github.com/sigwatch/waterfall/internal/pipeline"
	"github.com/sigwatch/waterfall/internal/server"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signal ingestion and waterfall rendering pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		serve(serveConfigPath)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "waterfall.yaml", "path to the pipeline config file")
}

func serve(cfgPath string) {
	logger, startupCloser := setupLogger("info", "json", "stdout")
	if startupCloser != nil {
		defer startupCloser.Close()
	}
	logger.Info("waterfall starting", "version", version)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	if startupCloser != nil {
		_ = startupCloser.Close()
		startupCloser = nil
	}
	logger, logCloser := setupLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if logCloser != nil {
		defer logCloser.Close()
	}

	p := pipeline.New(cfg, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	p.Start(ctx)

	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(cfg.Server, p.State(), p.Queue(), p.Reader(), logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("observability server error", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			logger.Info("SIGHUP received, reloading config parameters")
			reloadParameters(cfgPath, p, logger)
		}
	}()

	logger.Info("waterfall ready", "wire_addr", cfg.Wire.Host, "wire_port", cfg.Wire.Port)

	<-quit
	logger.Info("shutdown signal received")
	stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("observability server shutdown error", "error", err)
		}
	}

	p.Stop()
	logger.Info("waterfall stopped")
}

// reloadParameters re-reads the config file and republishes its UI and
// Detection parameter groups through State.SetParameter, notifying any
// registered observers. Wire, FFT, and Queue settings require a restart and
// are left untouched.
func reloadParameters(cfgPath string, p *pipeline.Pipeline, logger *slog.Logger) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("reload: failed to load config", "path", cfgPath, "error", err)
		return
	}

	st := p.State()
	st.SetParameter("UI", "spectum_left_freq(MHz)", cfg.UI.SpectrumLeftFreqMHz)
	st.SetParameter("UI", "spectum_right_freq(MHz)", cfg.UI.SpectrumRightFreqMHz)
	st.SetParameter("Detection", "conf_threshold", cfg.Detection.ConfThreshold)
	st.SetParameter("Detection", "iou_threshold", cfg.Detection.IOUThreshold)
	logger.Info("reload: parameters applied")
}
