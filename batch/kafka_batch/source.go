// Package kafka_batch reads a bounded batch of token records from a
// Kafka topic. The pipeline is batch-only, so the reader drains until it
// hits MaxRecords or sits idle for IdleTimeout, whichever comes first.
package kafka_batch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/bibassitoula/Impatient/tfidf"
)

// SourceConfig configures the bounded Kafka read. Messages are JSON
// TokenOccurrence values.
type SourceConfig struct {
	Brokers     []string `json:"brokers"`
	Topic       string   `json:"topic"`
	GroupID     string   `json:"group_id"`
	MaxRecords  int      `json:"max_records"`
	IdleTimeout string   `json:"idle_timeout"`
}

func (c *SourceConfig) WithDefaults() {
	if c.GroupID == "" {
		c.GroupID = "impatient-tfidf"
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = 1_000_000
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "5s"
	}
}

func (c SourceConfig) idleTimeout() time.Duration {
	d, err := time.ParseDuration(c.IdleTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ExportTokens drains the topic into memory. Messages that fail to
// decode are kept as zero records so the pipeline accounts for them as
// malformed input instead of silently skipping them.
func ExportTokens(ctx context.Context, cfg SourceConfig) ([]tfidf.TokenOccurrence, error) {
	cfg.WithDefaults()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	idle := cfg.idleTimeout()
	var out []tfidf.TokenOccurrence
	for len(out) < cfg.MaxRecords {
		fetchCtx, cancel := context.WithTimeout(ctx, idle)
		msg, err := reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		var rec tfidf.TokenOccurrence
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			log.Warnf("[KafkaSource] undecodable message at offset %d: %v", msg.Offset, err)
			rec = tfidf.TokenOccurrence{}
		}
		out = append(out, rec)

		if cfg.GroupID != "" {
			if err := reader.CommitMessages(ctx, msg); err != nil {
				return nil, err
			}
		}
	}
	log.Infof("[KafkaSource] fetched %d token records from %s", len(out), cfg.Topic)
	return out, nil
}
