package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"couponocr/pkg/cache"
	"couponocr/pkg/coupon"
	"couponocr/pkg/dataset"
	"couponocr/pkg/ocr"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	// `./couponocr migrate` creates the tables and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if cfg.DatabaseDSN == "" {
			log.Fatal().Msg("DB_DSN is not set")
		}
		db, err := openDB(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database")
		}
		if err := migrateDB(db); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		fmt.Println("migration completed")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := coupon.LoadRegistry(cfg.RegistryFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load registry")
	}
	pool, err := coupon.InitializePool(registry.Profiles, ocr.TesseractFactory{})
	if err != nil {
		log.Fatal().Err(err).Msg("ocr worker pool")
	}

	var db *gorm.DB
	if cfg.DatabaseDSN != "" {
		if db, err = initDB(cfg); err != nil {
			log.Fatal().Err(err).Msg("database")
		}
	}

	s := &server{
		cfg:      cfg,
		registry: registry,
		pool:     pool,
		pipeline: newPipeline(cfg, registry, pool, ocr.TesseractFactory{}),
		dataset:  openDataset(ctx, cfg, db),
		cache:    openCache(ctx, cfg),
		now:      time.Now,
	}
	if db != nil {
		s.audit = gormAudit{db: db}
	}

	accessLog := io.Writer(os.Stdout)
	if cfg.AccessLogFile != "" {
		f, err := os.OpenFile(cfg.AccessLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal().Err(err).Msg("open access log")
		}
		defer f.Close()
		accessLog = f
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(s, accessLog),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Int("workers", pool.Len()).Msg("coupon ocr server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := pool.Close(); err != nil {
		log.Error().Err(err).Msg("close ocr workers")
	}
	if r, ok := s.cache.(*cache.Redis); ok {
		r.Close()
	}
}

func setupLogging(cfg *Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

func newPipeline(cfg *Config, registry *coupon.Registry, pool *coupon.Pool, factory ocr.WorkerFactory) *coupon.Pipeline {
	var decoder coupon.BarcodeDecoder
	if cfg.BarcodeFallback {
		decoder = coupon.ZXingDecoder{}
	}
	return &coupon.Pipeline{
		Classifier: coupon.NewClassifier(registry, factory, coupon.ClassifierOptions{
			ProbeTimeout: cfg.FieldTimeout,
			Parallel:     cfg.ClassifyParallel,
			Concurrency:  cfg.ClassifyConcurrency,
		}),
		Extractor: coupon.NewExtractor(registry, pool, coupon.ExtractorOptions{
			FieldTimeout: cfg.FieldTimeout,
			Barcode:      decoder,
		}),
	}
}

// openDataset prefers the JSON file, then the coupons table.
func openDataset(ctx context.Context, cfg *Config, db *gorm.DB) dataset.Dataset {
	switch {
	case cfg.CouponDataset != "":
		d, err := dataset.OpenFile(cfg.CouponDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("coupon dataset")
		}
		go func() {
			if err := d.Watch(ctx); err != nil {
				log.Error().Err(err).Msg("dataset watch stopped")
			}
		}()
		return d
	case db != nil:
		return dataset.NewGormDataset(db)
	}
	log.Warn().Msg("no coupon dataset configured, /check reports every barcode as unknown")
	return dataset.Empty{}
}

func openCache(ctx context.Context, cfg *Config) cache.Cache {
	if cfg.CacheTTL <= 0 {
		return cache.Nop{}
	}
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	r, err := cache.NewRedis(pingCtx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-process cache")
		return cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
	}
	return r
}

func newRouter(s *server, accessLog io.Writer) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(accessLog), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.CORSOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.ExposeHeaders = []string{"X-Request-ID"}
	r.Use(cors.New(corsCfg))

	s.setupRoutes(r)
	return r
}
