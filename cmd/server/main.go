package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dbdesign/internal/api"
	"dbdesign/internal/config"
	"dbdesign/internal/logger"
	"dbdesign/internal/typemap"
)

func main() {
	cfg, err := config.Load("dbdesign.json", os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	vocab := typemap.Default()
	if cfg.VocabularyFile != "" {
		if vocab, err = typemap.Load(cfg.VocabularyFile); err != nil {
			lg.Fatal("vocabulary", zap.Error(err))
		}
	}
	if logger.ParseLevel(cfg.LogLevel) > zap.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	storage := api.NewStorage(cfg.MigrationsDir, cfg.ModelsDir, cfg.DBURL, vocab, lg)
	storage.VocabularyFile = cfg.VocabularyFile
	srv := api.NewServer(":"+cfg.Port, api.NewRouter(storage, cfg.PublicDir))

	go func() {
		lg.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("migrations", cfg.MigrationsDir),
			zap.Bool("apply", cfg.DBURL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown", zap.Error(err))
	}
}
