package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/config"
	dbKdbai "github.com/kailas-cloud/kdbai-mcp/internal/db/kdbai"
	dbRedis "github.com/kailas-cloud/kdbai-mcp/internal/db/redis"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/kdbai-mcp/internal/logger"
	"github.com/kailas-cloud/kdbai-mcp/internal/metrics"
	"github.com/kailas-cloud/kdbai-mcp/internal/repository/embcache"
	"github.com/kailas-cloud/kdbai-mcp/internal/repository/embconfig"
	bm25Emb "github.com/kailas-cloud/kdbai-mcp/internal/transport/bm25"
	chiTransport "github.com/kailas-cloud/kdbai-mcp/internal/transport/chi"
	mcpTransport "github.com/kailas-cloud/kdbai-mcp/internal/transport/mcp"
	openaiEmb "github.com/kailas-cloud/kdbai-mcp/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/kdbai-mcp/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/kdbai-mcp/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/kdbai-mcp/internal/usecase/health"
	queryuc "github.com/kailas-cloud/kdbai-mcp/internal/usecase/query"
	"github.com/kailas-cloud/kdbai-mcp/internal/version"
)

type serveFlags struct {
	transport string
	host      string
	port      int
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := config.GetEnv()
			cfg, err := loadConfig(cmd, env)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, f)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, env, cfg)
		},
	}
	cmd.Flags().StringVar(&f.transport, "transport", "", "transport: stdio or streamable-http")
	cmd.Flags().StringVar(&f.host, "host", "", "listen host for streamable-http")
	cmd.Flags().IntVar(&f.port, "port", 0, "listen port for streamable-http")
	return cmd
}

func loadConfig(cmd *cobra.Command, env string) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFile(path) //nolint:wrapcheck // config errors carry the path
	}
	return config.Load(env) //nolint:wrapcheck // config errors carry the path
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f serveFlags) {
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = f.transport
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = f.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
}

func run(ctx context.Context, env string, cfg config.Config) error {
	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:  cfg.Logging.Level,
		Stderr: cfg.Server.Transport == config.TransportStdio,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kdbai-mcp server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("transport", cfg.Server.Transport),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("db_endpoint", cfg.Database.Endpoint()),
		zap.String("db_username", cfg.Database.Username),
		logpkg.Secret("db_password", cfg.Database.Password),
		zap.String("database", cfg.Database.DatabaseName),
	)

	if cfg.Server.Transport == config.TransportStreamableHTTP {
		if err := checkPort(cfg.Server.Addr()); err != nil {
			logger.Error("MCP port is not available",
				zap.String("addr", cfg.Server.Addr()),
				zap.Error(err),
				zap.String("hint", fmt.Sprintf("try --port %d or stop the service using port %d",
					cfg.Server.Port+1, cfg.Server.Port)),
			)
			return err
		}
	}

	store, err := dbKdbai.NewClient(dbKdbai.Config{
		Endpoint:       cfg.Database.Endpoint(),
		Username:       cfg.Database.Username,
		Password:       cfg.Database.Password,
		RequestTimeout: time.Duration(cfg.Database.RequestTimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create database client: %w", err)
	}
	defer store.Close()

	if err := waitForDatabase(ctx, store, cfg.Database, logger); err != nil {
		logger.Error("KDB.AI MCP server cannot function without a KDB.AI connection", zap.Error(err))
		return err
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterToolMetrics()
	metrics.RegisterHTTPMetrics()

	healthOpts := []healthuc.Option{}

	var wrap embeddinguc.Wrapper
	if cfg.Cache.Enabled() {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		defer cache.Close()
		if err := cache.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("cache not ready: %w", err)
		}
		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		wrap = func(name string, p domain.Provider) domain.Provider {
			return embcache.New(p, name, cache, ttl, metrics.EmbeddingCacheTotal, logger)
		}
		healthOpts = append(healthOpts, healthuc.WithComponent("cache", cache.Ping))
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs), zap.Duration("ttl", ttl))
	}

	providers := embeddinguc.NewRegistry(wrap, logger)
	for name, pc := range cfg.Embedding.Providers {
		providers.Register(name, providerFactory(name, pc, logger))
	}
	logger.Info("Embedding providers registered", zap.Strings("providers", providers.Names()))

	configs := embconfig.New(cfg.Database.EmbeddingCSVPath, logger)
	builder := queryuc.NewBuilder(configs, providers, request.Weights{
		Vector: cfg.Database.VectorWeight,
		Sparse: cfg.Database.SparseWeight,
	})
	querySvc := queryuc.New(store, builder, queryuc.Defaults{
		Database: cfg.Database.DatabaseName,
		N:        cfg.Database.K,
	}, logger)
	catalogSvc := cataloguc.New(store, cfg.Database.DatabaseName, logger)

	server := mcpTransport.NewServer(mcpTransport.Config{
		Name:    cfg.Server.Name,
		Version: version.Version,
	}, querySvc, catalogSvc, logger)

	switch cfg.Server.Transport {
	case config.TransportStdio:
		logger.Info("Serving MCP over stdio")
		if err := server.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err //nolint:wrapcheck // already wrapped by the transport
		}
		logger.Info("Server stopped")
		return nil
	default:
		healthOpts = append(healthOpts,
			healthuc.WithComponent("embedding", providers.HealthCheck),
			healthuc.WithComponent("embedding_config", func(ctx context.Context) error {
				_, err := configs.Entries(ctx)
				return err //nolint:wrapcheck // reported as a check result
			}),
		)
		health := healthuc.New(store, healthOpts...)
		router := chiTransport.NewServer(server.Handler(), health, cfg.Server.APIKeys, logger).Router()
		return serveHTTP(ctx, cfg.Server, router, logger)
	}
}

func serveHTTP(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr), zap.String("mcp_path", chiTransport.PathMCP))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// checkPort verifies addr can be bound before any other startup work.
func checkPort(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port check %s: %w", addr, err)
	}
	return ln.Close() //nolint:wrapcheck // closing a probe listener
}

// waitForDatabase makes retry+1 readiness attempts, each bounded by the
// readiness timeout.
func waitForDatabase(ctx context.Context, store *dbKdbai.Client, cfg config.DatabaseConfig, logger *zap.Logger) error {
	attempts := cfg.Retry + 1
	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = store.WaitForReady(ctx, timeout); err == nil {
			logger.Info("KDB.AI connectivity check succeeded",
				zap.String("endpoint", cfg.Endpoint()), zap.Int("attempt", attempt))
			return nil
		}
		logger.Warn("KDB.AI connectivity check failed",
			zap.String("endpoint", cfg.Endpoint()),
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("database %s not ready after %d attempts: %w", cfg.Endpoint(), attempts, err)
}

// providerFactory builds the embedding provider named in the embedding CSV.
func providerFactory(name string, pc config.ProviderConfig, logger *zap.Logger) embeddinguc.Factory {
	timeout := time.Duration(pc.TimeoutSec) * time.Second
	switch pc.Type {
	case config.ProviderOpenAI:
		return func() (domain.Provider, error) {
			return openaiEmb.NewEmbedder(&openaiEmb.Config{
				APIKey:       pc.APIKey,
				BaseURL:      pc.BaseURL,
				DefaultModel: pc.DefaultModel,
				Dimensions:   pc.Dimensions,
				Provider:     name,
				Logger:       logger,
			}), nil
		}
	case config.ProviderBM25:
		return func() (domain.Provider, error) {
			e, err := bm25Emb.NewEmbedder(&bm25Emb.Config{
				Endpoint:         pc.BaseURL,
				Token:            pc.APIKey,
				Language:         pc.Language,
				AverageWordCount: pc.AverageWordCount,
				Timeout:          timeout,
				Logger:           logger,
			})
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", name, err)
			}
			return e, nil
		}
	case config.ProviderHashing:
		return func() (domain.Provider, error) {
			return embeddinguc.NewHashingTokenizer(pc.VocabularySize), nil
		}
	default:
		return func() (domain.Provider, error) {
			return nil, fmt.Errorf("%w: %s has type %q", domain.ErrUnknownProvider, name, pc.Type)
		}
	}
}
