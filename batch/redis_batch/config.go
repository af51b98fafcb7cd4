package redis_batch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnConfig holds Redis connection parameters.
type ConnConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

func (c *ConnConfig) WithDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:6379"
	}
}

// SourceConfig configures token export from Redis hashes: every key
// matching KeyPattern is expected to hold DocField and TokenField.
type SourceConfig struct {
	KeyPattern string `json:"key_pattern"`
	DocField   string `json:"doc_field"`
	TokenField string `json:"token_field"`
	ScanCount  int    `json:"scan_count"`
}

func (c *SourceConfig) WithDefaults() {
	if c.KeyPattern == "" {
		c.KeyPattern = "token:*"
	}
	if c.DocField == "" {
		c.DocField = "doc_id"
	}
	if c.TokenField == "" {
		c.TokenField = "token"
	}
	if c.ScanCount <= 0 {
		c.ScanCount = 500
	}
}

// SinkConfig configures result import into Redis. Weights land in one
// hash per document (WeightPrefix + doc_id, field = token); word counts
// land in a single hash keyed by token.
type SinkConfig struct {
	WeightPrefix string `json:"weight_prefix"`
	WordCountKey string `json:"word_count_key"`
	Replace      bool   `json:"replace"`
	BatchSize    int    `json:"batch_size"`
}

func (c *SinkConfig) WithDefaults() {
	if c.WeightPrefix == "" {
		c.WeightPrefix = "tfidf:weight:"
	}
	if c.WordCountKey == "" {
		c.WordCountKey = "tfidf:wordcount"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1000
	}
}

func openRedis(ctx context.Context, cfg ConnConfig) (*redis.Client, error) {
	cfg.WithDefaults()
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
