package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaos-io/nobg/config"
	"github.com/chaos-io/nobg/handler"
	"github.com/chaos-io/nobg/rembg"
	"github.com/chaos-io/nobg/segment"
	"github.com/chaos-io/nobg/session"
	"github.com/chaos-io/nobg/util"
	nhttp "github.com/chaos-io/nobg/util/http"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, cfgErr := config.New()

	if err := util.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer util.Sync()

	if cfgErr != nil {
		util.Logger.Error("config file ignored, using defaults and environment", zap.Error(cfgErr))
	}

	util.Logger.Info("starting nobg server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 没有 key 时服务仍然启动，/remove 返回 500
	if cfg.RemoveBG.APIKey == "" {
		util.Logger.Error("REMOVE_BG_API_KEY is not set, /remove will fail until it is configured")
	}
	remover := rembg.NewRemoveBG(cfg.RemoveBG.APIKey, cfg.RemoveBG.Endpoint, cfg.RemoveBG.Timeout, nil)

	opts := segment.Options{
		Threshold:  cfg.Segment.Threshold,
		Mode:       segment.Mode(cfg.Segment.Mode),
		Resolution: segment.Resolution(cfg.Segment.Resolution),
	}
	if err := opts.Validate(); err != nil {
		util.Logger.Fatal("invalid segment config", zap.Error(err))
	}

	gate := segment.NewGate(newSegmenter(cfg))
	gate.Start(ctx)
	local := rembg.NewLocal(gate, cfg.Canvas.MaxDim, opts)

	store := session.NewStore()
	if err := store.StartJanitor(cfg.Session.JanitorSpec, cfg.Session.IdleTTL); err != nil {
		util.Logger.Fatal("failed to start session janitor", zap.Error(err))
	}
	defer store.Stop()

	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(handler.RouterOptions{
		Remove:    handler.NewRemoveHandler(remover, cfg.Upload.MaxSize),
		Segment:   handler.NewSegmentHandler(local, cfg.Upload.MaxSize),
		Session:   handler.NewSessionHandler(store, local, cfg.Upload.MaxSize),
		StaticDir: cfg.Server.StaticDir,
		Build:     handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		util.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	util.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("server shutdown", zap.Error(err))
	}
}

func newSegmenter(cfg *config.Config) segment.Segmenter {
	if cfg.Segment.Endpoint == "" {
		util.Logger.Warn("segment.endpoint is not set, using the image's own alpha channel as mask")
		return segment.NewAlphaMatte()
	}
	util.Logger.Info("using remote segmenter", zap.String("endpoint", cfg.Segment.Endpoint))
	return segment.NewRemote(cfg.Segment.Endpoint, cfg.Segment.HealthURL,
		nhttp.NewHTTPClientWithTimeout(cfg.Segment.Timeout))
}
