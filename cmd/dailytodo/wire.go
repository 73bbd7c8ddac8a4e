package main

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/backend/local"
	"github.com/sandeepkv93/dailytodo/internal/backend/remote"
	"github.com/sandeepkv93/dailytodo/internal/config"
	"github.com/sandeepkv93/dailytodo/internal/gateway"
	"github.com/sandeepkv93/dailytodo/internal/identity"
	"github.com/sandeepkv93/dailytodo/internal/storage"
)

type dependencies struct {
	gateway  *gateway.Gateway
	identity *identity.Provider
	closers  []func() error
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// wire builds the storage stack. Neither a broken database nor an unreachable
// remote store stops startup; both degrade to what is available.
func wire(ctx context.Context, cfg config.RuntimeConfig, logger *log.Logger) (*dependencies, error) {
	deps := &dependencies{}

	var store storage.KeyValueStore
	repo, err := storage.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		logger.WithError(err).Warn("local database unavailable; using memory store")
		store = storage.NewMemoryStore()
	} else {
		store = repo
		deps.closers = append(deps.closers, repo.Close)
	}

	var rb backend.Backend
	if cfg.RemoteConfigured() {
		rb = wireRemote(ctx, cfg, logger, deps)
	}

	deps.gateway = gateway.New(local.New(store), rb, logger)
	deps.identity = identity.NewProvider(store, logger)
	return deps, nil
}

func wireRemote(ctx context.Context, cfg config.RuntimeConfig, logger *log.Logger, deps *dependencies) backend.Backend {
	client, err := remote.NewTableClient(cfg.TablesConnection, cfg.TableName)
	if err != nil {
		logger.WithError(err).Warn("remote store misconfigured; running local only")
		return nil
	}
	ensureCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
	defer cancel()
	if err := remote.EnsureTable(ensureCtx, client); err != nil {
		logger.WithError(err).Warn("remote table not ensured; saves will retry")
	}

	var rb backend.Backend = remote.NewTableBackend(client, cfg.RemoteTimeout)
	if cfg.RedisURL == "" {
		return rb
	}
	rc := redis.NewClient(parseRedisOptions(cfg.RedisURL))
	deps.closers = append(deps.closers, rc.Close)
	logger.WithField("ttl", cfg.CacheTTL).Debug("remote snapshot cache enabled")
	return remote.NewCache(rb, rc, cfg.CacheTTL)
}

// parseRedisOptions accepts a redis:// URL or the "host:port,password=...,ssl=true" form.
func parseRedisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
