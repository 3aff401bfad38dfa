package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/longkey1/kitlend/internal/server"
)

type serveOptions struct {
	addr string
}

var serveOpts = &serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lending HTTP API",
	Long: `Serve the lending HTTP API.

GET responses are cached for server.cache_ttl, in Redis when
server.redis_addr is set and in memory otherwise. A zero TTL disables
the cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveOpts)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveOpts.addr, "addr", "a", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, opts *serveOptions) error {
	service, cfg, logger, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cache, closeCache, err := newCache(ctx, cfg.Server.CacheTTL, cfg.Server.RedisAddr)
	if err != nil {
		return err
	}
	defer closeCache()

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	handler := server.NewHandler(service, cache, cfg.Server.CacheTTL, logger)
	serverCfg := server.DefaultConfig(addr, handler.Routes())
	serverCfg.Logger = logger
	logger.Info("starting", zap.String("backend", cfg.Backend), zap.Duration("cache_ttl", cfg.Server.CacheTTL))
	return server.Run(ctx, serverCfg, nil)
}

func newCache(ctx context.Context, ttl time.Duration, redisAddr string) (server.Cache, func(), error) {
	switch {
	case ttl <= 0:
		return nil, func() {}, nil
	case redisAddr != "":
		cache, err := server.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return cache, func() { _ = cache.Close() }, nil
	default:
		return server.NewMemoryCache(), func() {}, nil
	}
}
