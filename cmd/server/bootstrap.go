package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"promogen-go/internal/cache"
	"promogen-go/internal/config"
	"promogen-go/internal/credential"
	"promogen-go/internal/credential/adapter"
)

// buildCredentialStore constructs the credential backend named by the
// configuration. The returned close func is always non-nil.
func buildCredentialStore(ctx context.Context, cfg *config.Config) (credential.AdminStore, func(), error) {
	switch cfg.Credentials.Backend {
	case "redis":
		store := adapter.NewRedisStore(
			cfg.Credentials.RedisAddr,
			cfg.Credentials.RedisPassword,
			cfg.Credentials.RedisDB,
			cfg.Credentials.RedisPrefix,
		)
		if err := store.Initialize(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		log.Info("Credential store: redis")
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		store, err := adapter.NewPostgresStore(cfg.Credentials.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.Initialize(initCtx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		log.Info("Credential store: postgres")
		return store, func() { _ = store.Close() }, nil
	default:
		log.Info("Credential store: memory")
		return adapter.NewMemoryStore(), func() {}, nil
	}
}

func buildDecrypter(cfg *config.Config) (credential.Decrypter, error) {
	if cfg.Credentials.SecretKey == "" {
		return credential.PassthroughDecrypter{}, nil
	}
	return credential.NewSecretBox(cfg.Credentials.SecretKey)
}

func buildCacheKV(ctx context.Context, cfg *config.Config) (cache.KV, func(), error) {
	if cfg.Cache.Backend == "redis" {
		kv := cache.NewRedisKV(
			cfg.Cache.RedisAddr,
			cfg.Cache.RedisPassword,
			cfg.Cache.RedisDB,
			cfg.Cache.RedisPrefix,
		)
		if err := kv.Initialize(ctx); err != nil {
			_ = kv.Close()
			return nil, nil, err
		}
		log.Info("Response cache: redis")
		return kv, func() { _ = kv.Close() }, nil
	}
	log.Info("Response cache: memory")
	return cache.NewMemoryKV(), func() {}, nil
}

// buildDirectSource picks where the direct path gets its credentials.
// When a managed gateway fronts provider calls, the direct path is the
// emergency fallback and runs on the operator's own key. Without a
// managed gateway this process is the execution engine itself, so the
// direct path draws from the per-organization pool.
func buildDirectSource(cfg *config.Config, store credential.Store) credential.Source {
	if cfg.Gateway.BaseURL != "" && cfg.Provider.FallbackAPIKey != "" {
		return &credential.StaticSource{Cred: &credential.Credential{
			ID:        "operator-fallback",
			Provider:  cfg.Provider.Name,
			SecretRef: credential.PlainRef(cfg.Provider.FallbackAPIKey),
			IsDefault: true,
			Status:    credential.StatusValid,
			IsActive:  true,
			CreatedAt: time.Now(),
		}}
	}
	return credential.NewPool(store, cfg.Provider.Name)
}
