package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/chatscope/chatscope/internal/api"
	"github.com/chatscope/chatscope/internal/db"
	"github.com/chatscope/chatscope/internal/fetch"
	"github.com/chatscope/chatscope/internal/logger"
	"github.com/chatscope/chatscope/internal/pipeline"
	"github.com/chatscope/chatscope/internal/ratelimit"
	"github.com/chatscope/chatscope/internal/storage"
	"github.com/chatscope/chatscope/internal/tokenizer"
)

var version string

func main() {
	// Start pprof debug server if enabled (for memory/CPU profiling)
	if os.Getenv("ENABLE_PPROF") == "true" {
		go startPprofServer()
	}

	// Initialize OpenTelemetry (sends traces to Honeycomb)
	// Configured via env vars: OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_HEADERS
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		logger.Warn("failed to configure OpenTelemetry", "error", err)
		// Non-fatal: continue without tracing if OTEL env vars not set
	} else {
		defer otelShutdown()
	}

	// Load configuration from environment
	config := loadConfig()

	// Initialize database connection. The server runs stateless when no
	// DATABASE_URL is set: analyses still work, summaries are not stored.
	var database *db.DB
	if config.DatabaseURL != "" {
		database, err = db.Connect(config.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer database.Close()
	} else {
		logger.Info("no DATABASE_URL set, running without persistence")
	}

	// Initialize S3/MinIO object storage, also optional
	var store *storage.S3Storage
	if config.S3Config.Endpoint != "" {
		store, err = storage.NewS3Storage(config.S3Config)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
	} else {
		logger.Info("no S3_ENDPOINT set, running without object storage")
	}

	pool := tokenizer.NewPool(config.TokenizerWorkers)
	analyzer := pipeline.New(pool)
	fetcher := fetch.NewClient(config.FetchTimeout)

	limiter := ratelimit.NewInMemoryRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	defer limiter.Stop()

	// Create API server
	server := api.NewServer(database, store, fetcher, analyzer, limiter, version)
	router := server.SetupRoutes()

	// Wrap router with OpenTelemetry HTTP instrumentation
	handler := otelhttp.NewHandler(router, "chatscope-backend")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", config.Port, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

type Config struct {
	Port         int
	DatabaseURL  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	FetchTimeout     time.Duration
	TokenizerWorkers int
	RateLimitRPS     float64
	RateLimitBurst   int

	S3Config storage.S3Config
}

func loadConfig() Config {
	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	// HTTP timeout configuration (defaults to 30s; analyses can take a while
	// on long conversations, so WriteTimeout bounds the whole pipeline run)
	readTimeout := 30 * time.Second
	if rt := os.Getenv("HTTP_READ_TIMEOUT"); rt != "" {
		if parsed, err := time.ParseDuration(rt); err == nil {
			readTimeout = parsed
		}
	}

	writeTimeout := 60 * time.Second
	if wt := os.Getenv("HTTP_WRITE_TIMEOUT"); wt != "" {
		if parsed, err := time.ParseDuration(wt); err == nil {
			writeTimeout = parsed
		}
	}

	fetchTimeout := 15 * time.Second
	if ft := os.Getenv("FETCH_TIMEOUT"); ft != "" {
		if parsed, err := time.ParseDuration(ft); err == nil {
			fetchTimeout = parsed
		}
	}

	tokenizerWorkers := 4
	if tw := os.Getenv("TOKENIZER_WORKERS"); tw != "" {
		if parsed, err := strconv.Atoi(tw); err == nil && parsed > 0 {
			tokenizerWorkers = parsed
		}
	}

	rateLimitRPS := 1.0
	if rl := os.Getenv("RATE_LIMIT_RPS"); rl != "" {
		if parsed, err := strconv.ParseFloat(rl, 64); err == nil && parsed > 0 {
			rateLimitRPS = parsed
		}
	}

	rateLimitBurst := 5
	if rb := os.Getenv("RATE_LIMIT_BURST"); rb != "" {
		if parsed, err := strconv.Atoi(rb); err == nil && parsed > 0 {
			rateLimitBurst = parsed
		}
	}

	var s3Config storage.S3Config
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		accessKeyID := os.Getenv("AWS_ACCESS_KEY_ID")
		if accessKeyID == "" {
			logger.Fatal("missing required env var", "var", "AWS_ACCESS_KEY_ID")
		}
		secretAccessKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if secretAccessKey == "" {
			logger.Fatal("missing required env var", "var", "AWS_SECRET_ACCESS_KEY")
		}
		bucketName := os.Getenv("BUCKET_NAME")
		if bucketName == "" {
			logger.Fatal("missing required env var", "var", "BUCKET_NAME")
		}
		s3Config = storage.S3Config{
			Endpoint:        endpoint,
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			BucketName:      bucketName,
			UseSSL:          os.Getenv("S3_USE_SSL") != "false", // Default true
		}
	}

	return Config{
		Port:         port,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,

		FetchTimeout:     fetchTimeout,
		TokenizerWorkers: tokenizerWorkers,
		RateLimitRPS:     rateLimitRPS,
		RateLimitBurst:   rateLimitBurst,

		S3Config: s3Config,
	}
}

// startPprofServer starts a pprof debug server on localhost:6060.
// Only accessible locally (127.0.0.1); proxy the port for remote debugging.
func startPprofServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/allocs", pprof.Handler("allocs"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))
	mux.Handle("/debug/pprof/mutex", pprof.Handler("mutex"))

	addr := "127.0.0.1:6060"
	logger.Info("pprof debug server starting", "addr", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("pprof server failed", "error", err)
	}
}
