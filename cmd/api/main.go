package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "area-resolver-api/docs"
	"area-resolver-api/internal/cache"
	"area-resolver-api/internal/config"
	"area-resolver-api/internal/handler"
	"area-resolver-api/internal/metrics"
	"area-resolver-api/internal/models"
	"area-resolver-api/internal/repository"
	"area-resolver-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Area Resolver API
//	@version		1.0
//	@description	Resolves the administrative district containing a coordinate.
//	@BasePath		/

func main() {
	_ = godotenv.Load(".env")

	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	setupLogger(config.LogLevel, config.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Boundary backends
	router := repository.NewSourceRouter().Register(models.LayerKindArcGIS, repository.NewArcGISClient(
		repository.WithQueryTimeout(config.QueryTimeout),
		repository.WithBulkTimeout(config.BulkTimeout),
	))

	var searchService handler.AreaSearchService
	if config.DBSource != "" {
		conn, err := pgxpool.New(ctx, config.DBSource)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to db")
		}
		defer conn.Close()

		repo := repository.NewRepository(conn)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("cannot create schema")
		}
		router.Register(models.LayerKindPostGIS, repo)
		searchService = service.NewAreaSearchService(repo)
	} else {
		log.Info().Msg("db_source not set, postgis layers and area search disabled")
	}

	var areaCache service.AreaCache
	if config.RedisAddress != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", config.RedisAddress).Msg("redis ping failed, cache disabled")
		} else {
			areaCache = cache.NewRedisCache(rc, config.CacheTTL)
		}
	}

	// Initialize layers
	resolver := service.NewAreaResolver(config.Layers, router,
		service.WithLogger(log.Logger),
		service.WithThresholds(config.NearEdgeMeters, config.AlternativeRadiusMeters),
		service.WithFallbackTimeout(config.BulkTimeout),
	)
	areaService := service.NewAreaService(resolver, areaCache)

	areaHandler := handler.NewAreaHandler(areaService)
	areaSearchHandler := handler.NewAreaSearchHandler(searchService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/area", areaHandler.ResolveArea)
	r.GET("/areas", areaSearchHandler.SearchAreas)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	layerNames := make([]string, 0, len(config.Layers))
	for _, l := range config.Layers {
		layerNames = append(layerNames, l.Name+"("+l.KindOrDefault()+")")
	}
	log.Info().Str("addr", config.ServerAddress).Strs("layers", layerNames).Msg("starting server")

	srv := &http.Server{Addr: config.ServerAddress, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func setupLogger(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
