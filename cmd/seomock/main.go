package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"seo-assistant/cmd/internal/auth"
	"seo-assistant/cmd/internal/logger"
	"seo-assistant/cmd/seomock/repositories"
	"seo-assistant/cmd/seomock/router"
	"seo-assistant/cmd/seomock/services"
	"seo-assistant/config"
)

//go:generate swag init -g main.go -o docs --parseDependency

// @title           SEO Assistant API (local stand-in)
// @version         1.0
// @description     In-memory implementation of the SEO assistant session and job API
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	subject := flag.String("subject", "dev-user", "subject of the printed dev token")
	flag.Parse()

	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level, nil)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	jwt, err := auth.NewJWTManager(cfg.Mock.JWTSecret, cfg.Mock.JWTIssuer, 0)
	if err != nil {
		logger.Log.Errorf("jwt: %v", err)
		os.Exit(1)
	}
	token, err := jwt.Sign(*subject)
	if err != nil {
		logger.Log.Errorf("sign dev token: %v", err)
		os.Exit(1)
	}
	fmt.Printf("dev token for %q (export SEO_API_TOKEN):\n%s\n", *subject, token)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var suggester services.Suggester
	if cfg.Mock.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiSuggester(ctx, cfg.Mock.GeminiAPIKey, cfg.Mock.GeminiModel)
		if err != nil {
			logger.Log.Errorf("suggester: %v", err)
			os.Exit(1)
		}
		suggester = gemini
		logger.InfoWithFields("suggestions generated by gemini", logger.Fields{"model": cfg.Mock.GeminiModel})
	}

	db := repositories.NewDatabase()
	worker := services.NewJobWorker(db, cfg.Mock.JobDelay, suggester)
	svc := services.NewSessionService(db, worker)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           router.WithCORS(router.New(svc, jwt), cfg.Mock.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.InfoWithFields("seomock listening", logger.Fields{
		"addr":      cfg.Mock.Addr,
		"job_delay": cfg.Mock.JobDelay.String(),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorf("server: %v", err)
		stop()
		<-workerDone
		os.Exit(1)
	}
	<-workerDone
}
