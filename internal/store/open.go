package store

import (
	"context"
	"fmt"

	"github.com/dshills/docmodel/internal/config"
)

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemoryStore(), nil
	case config.BackendRedis:
		return DialRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
