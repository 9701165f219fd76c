package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/database"
	"github.com/SankarSivan/Healthcare/pkg/common/kafka"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
	"github.com/SankarSivan/Healthcare/pkg/dashboard"
	"github.com/SankarSivan/Healthcare/pkg/gateway/middleware"
	"github.com/SankarSivan/Healthcare/pkg/gateway/routes"
	"github.com/SankarSivan/Healthcare/pkg/observability/metrics"
	"github.com/SankarSivan/Healthcare/pkg/storage"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	source, err := admissions.NewSource(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize dataset source")
	}
	defer database.Close()

	opts := []dashboard.Option{}
	if cfg.CacheEnabled {
		cache, err := storage.NewSnapshotCacheFromConfig(cfg)
		if err != nil {
			logger.Log.WithError(err).Warn("Dashboard cache disabled")
		} else {
			opts = append(opts, dashboard.WithCache(cache))
			defer database.CloseRedis()
		}
	}

	if cfg.DatasetPushDown {
		opts = append(opts, dashboard.WithPushDown())
	}
	if cfg.EventsEnabled {
		producer := kafka.NewProducer(cfg.DatasetEventsTopic)
		defer producer.Close()
		opts = append(opts, dashboard.WithPublisher(producer))
	}

	service := dashboard.NewService(source, opts...)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*time.Minute)
	if _, err := service.Reload(loadCtx); err != nil {
		// The API answers 503 until a reload succeeds.
		logger.Log.WithError(err).Error("Initial dataset load failed")
	}
	cancelLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.EventsEnabled {
		consumer := kafka.NewConsumer(cfg.DatasetEventsTopic, cfg.KafkaGroupID)
		defer consumer.Close()
		go func() {
			err := consumer.Consume(ctx, []string{models.EventDatasetImported}, func(ctx context.Context, event models.Event) error {
				logger.Log.WithField("event_id", event.ID).Info("Dataset import announced, reloading")
				metrics.ObserveImportEvent(event.Data)
				_, err := service.Reload(ctx)
				return err
			})
			if err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Error("Dataset event consumer stopped")
			}
		}()
	}

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	routes.NewDashboardHandler(service).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      handlers.CompressHandler(middleware.CORS(router)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":   cfg.ServerHost,
			"port":   cfg.ServerPort,
			"source": source.Name(),
		}).Info("Dashboard Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Dashboard Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Dashboard Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
