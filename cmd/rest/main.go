package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"bitbraniac-be/internal/bootstrap"
	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/model"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/server"
	"bitbraniac-be/internal/tracer"
	"bitbraniac-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(ctx, cfg.App.TracingEnabled, cfg.App.TracingEndpoint, sysLogger)

	// 3. Initialize Database
	gormDB, err := database.NewGormDB(database.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.Connection,
	})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	defer database.Close(gormDB)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(gormDB, model.All()...); err != nil {
			log.Panicf("Auto-migration failed: %v", err)
		}
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger)
	if err != nil {
		log.Panicf("Unable to build container: %v", err)
	}
	defer container.Close()

	// 5. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Panicf("Unable to start activity consumer: %v", err)
	}

	// 6. Run Server until a signal arrives
	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		sysLogger.Info("SERVER", "Shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return shutdownTracer(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sysLogger.Error("SERVER", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
