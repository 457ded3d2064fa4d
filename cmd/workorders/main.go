package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"workorders/internal/amqp"
	"workorders/internal/cache"
	"workorders/internal/cli"
	apphttp "workorders/internal/http"
	applog "workorders/internal/log"
	"workorders/internal/services"
	"workorders/internal/settings"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	mgr := settings.NewManager(repo, cfg.APITimeout, logger)
	current, err := mgr.Load(context.Background(), settings.Settings{
		APIBaseURL:      cfg.APIBaseURL,
		TemplateBaseURL: cfg.TemplateBaseURL,
	})
	if err != nil {
		logger.Error("Failed to load client settings", applog.FieldError, err.Error())
		os.Exit(1)
	}

	// Publishing is optional: without a broker, submits still reach the backend.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to connect to AMQP, task events disabled", applog.FieldError, err.Error())
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Publishing task events", "exchange", cfg.AMQPExchange)
		}
	}

	forms := services.NewFormService(mgr, services.FormOptions{
		TTL:       cfg.FormTTL,
		MaxForms:  cfg.FormCacheSize,
		Publisher: publisher,
		Logger:    logger,
	})

	caches := cache.NewManager(logger)
	caches.Register(forms.Forms())

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Forms:         forms,
		Settings:      mgr,
		Pingers:       map[string]apphttp.Pinger{"sqlite": repo},
		Cache:         caches,
		Logger:        logger,
		StatisticsTTL: cfg.StatisticsTTL,
	})
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = cfg.APITimeout + 15*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	caches.StartCleanup(5 * time.Minute)

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		caches.Stop()
	})

	logger.Info("Starting workorders server",
		"port", cfg.Port,
		applog.FieldBaseURL, current.APIBaseURL,
		"open_form_ttl", cfg.FormTTL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
