package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/atomexec/internal/api"
	"github.com/Harshitk-cp/atomexec/internal/config"
	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/evaluator"
	"github.com/Harshitk-cp/atomexec/internal/service"
	"github.com/Harshitk-cp/atomexec/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	policy, err := domain.ParseMergeControl(config.DefaultMergePolicy())
	if err != nil {
		logger.Fatal("invalid DEFAULT_MERGE_POLICY", zap.Error(err))
	}

	as := store.NewAtomSpace()

	// Evaluator families; a nil family is reported as not compiled in.
	var scripting domain.ScriptingProvider
	if config.ScriptingEnabled() {
		registry := evaluator.NewRegistry(logger)
		evaluator.RegisterBuiltins(registry)
		scripting = registry
	}

	var dynamic domain.DynamicEvaluator
	if config.DynamicEnabled() {
		goEval, err := evaluator.Instance()
		if err != nil {
			logger.Fatal("failed to start dynamic evaluator", zap.Error(err))
		}
		if dir := config.DynamicScriptDir(); dir != "" {
			if err := goEval.LoadDir(dir); err != nil {
				logger.Fatal("failed to load scripts", zap.String("dir", dir), zap.Error(err))
			}
		}
		dynamic = goEval
	}

	var native domain.NativeProcedureLoader
	if config.NativeEnabled() {
		native = evaluator.NewDLLoader(logger)
		if native == nil {
			logger.Warn("ENABLE_NATIVE set but binary was built without cgo")
		}
	}

	dispatcher := service.NewDispatcher(scripting, dynamic, native, logger)
	for family, ok := range dispatcher.Features() {
		logger.Info("evaluator family", zap.String("family", string(family)), zap.Bool("enabled", ok))
	}

	app := api.NewApp(as, dispatcher, api.Options{
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		APIKey:         config.APIKey(),
		MergePolicy:    policy,
	}, logger)
	defer app.Close()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
