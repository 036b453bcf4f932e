package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/exam_scheduler/internal/config"
	"github.com/examstack/exam_scheduler/internal/events"
	"github.com/examstack/exam_scheduler/internal/httpserver"
	"github.com/examstack/exam_scheduler/internal/jobs"
	"github.com/examstack/exam_scheduler/internal/models"
	"github.com/examstack/exam_scheduler/internal/repo"
	"github.com/examstack/exam_scheduler/internal/service"
	"github.com/examstack/exam_scheduler/pkg/db"
	"github.com/examstack/exam_scheduler/pkg/logging"
	loggingmw "github.com/examstack/exam_scheduler/pkg/middleware/logging"
	"github.com/examstack/exam_scheduler/pkg/tokens"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := models.AutoMigrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.AuthEventsTopic)
		defer producer.Close()
	}

	gormRepo := repo.GormRepo{DB: gdb}
	refreshSvc := &service.RefreshTokenService{
		Repo:    gormRepo,
		TTLDays: cfg.RefreshTTLDays,
	}
	sessionSvc := &service.SessionService{
		Repo:    gormRepo,
		Codec:   tokens.NewAccessCodec(cfg.JWTSecret, cfg.AccessTTL),
		Refresh: refreshSvc,
		Events:  producer,
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Sessions: sessionSvc,
			Tokens:   refreshSvc,
		},
	})

	sweepCtx, stopSweep := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go jobs.SweepRefreshTokens(sweepCtx, refreshSvc, cfg.SweepInterval, logger)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
