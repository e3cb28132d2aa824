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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"droneanalytics/packages/auth"
	"droneanalytics/packages/cache"
	"droneanalytics/packages/cors"
	"droneanalytics/packages/flights"
	"droneanalytics/packages/handlers"
	"droneanalytics/packages/mongodb"
	"droneanalytics/packages/parsing/geoGet"
	"droneanalytics/packages/parsing/geoIndex"
	"droneanalytics/packages/parsing/geoSearch"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Подключение к MongoDB
	client, err := mongodb.Connect(ctx, cfg.Mongo, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}()

	store := mongodb.NewFlightStore(mongodb.GetCollection(client, cfg.Mongo.Database, cfg.Mongo.FlightsCollection), log)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	set, resolver := loadRegions(ctx, client)

	var geo handlers.RegionsGeo
	if set != nil {
		var geoCache geoGet.Cache
		if cfg.Redis.Enabled {
			redisCache, err := cache.NewRedis(cfg.Redis, log)
			if err != nil {
				log.Warn("Redis unavailable, serving region geometry without cache", zap.Error(err))
			} else {
				defer redisCache.Close()
				geoCache = redisCache
			}
		}
		geo = geoGet.NewService(set, geoCache, log)
	}

	pipeline := flights.NewPipeline(
		flights.NewBuilder(resolver, cfg.Parsing.CoordinatePrecision, log),
		cfg.Parsing.Workers,
		log,
	)

	router := gin.New()
	router.Use(gin.Recovery(), cors.CORS(cfg.CORS))
	handlers.RegisterRoutes(router, handlers.Dependencies{
		Store:    store,
		Pipeline: pipeline,
		Geo:      geo,
		Auth:     auth.New(cfg.Auth, log),
		Config:   cfg,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server started", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// loadRegions загружает границы регионов выбранным способом.
// Без регионов сервер работает, но регионы вылета и посадки не заполняются.
func loadRegions(ctx context.Context, client *mongo.Client) (*geoIndex.Set, geoSearch.Resolver) {
	var (
		set      *geoIndex.Set
		resolver geoSearch.Resolver
		err      error
	)

	switch cfg.Regions.Backend {
	case "mongo":
		collection := mongodb.GetCollection(client, cfg.Mongo.Database, cfg.Mongo.RegionsCollection)
		set, err = geoIndex.LoadCollection(ctx, collection, log)
		if err == nil {
			resolver = geoSearch.NewMongoResolver(collection, cfg.Mongo.Timeout)
		}
	default:
		set, err = geoIndex.LoadDir(cfg.Regions.Dir, log)
		if err == nil {
			resolver = geoSearch.NewMemoryResolver(set)
		}
	}

	if err != nil {
		log.Error("Regions not loaded", zap.String("backend", cfg.Regions.Backend), zap.Error(err))
		return nil, nil
	}

	if cfg.Regions.CacheSize > 0 {
		resolver = geoSearch.NewCachedResolver(resolver, cfg.Regions.CacheSize, log)
	}
	return set, resolver
}
