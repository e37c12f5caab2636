package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goTeam/session"
)

// openStorage returns the token storage selected by cfg and a function that
// releases it.
func openStorage(cfg cliConfig) (session.TokenStorage, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage {
	case storageMemory:
		return session.NewMemoryStorage(), noop, nil
	case storageRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		return session.NewRedisStorage(rdb, cfg.RedisPrefix, cfg.StorageKey, 0), rdb.Close, nil
	default:
		return session.NewFileStorage(cfg.StateDir, cfg.StorageKey), noop, nil
	}
}
