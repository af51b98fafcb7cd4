package batch

import (
	"fmt"
	"strings"
)

const FlowVersionV1 = "v1"

// ValidateFlowConfig validates v1 flow schema and required fields.
func ValidateFlowConfig(cfg FlowConfig) error {
	cfg.withDefaults()

	if strings.TrimSpace(cfg.Version) != FlowVersionV1 {
		return fmt.Errorf("unsupported version: %q (expected %q)", cfg.Version, FlowVersionV1)
	}

	switch cfg.Source.Type {
	case "file":
		if len(cfg.Source.FileConfig.Inputs) == 0 {
			return fmt.Errorf("source.file_config.inputs is required for file source")
		}
		mode := cfg.Source.FileConfig.Mode
		if mode != "tokens" && mode != "docs" {
			return fmt.Errorf("unsupported source.file_config.mode: %s", mode)
		}
	case "mysql":
		if cfg.Source.DB.User == "" || cfg.Source.DB.Database == "" {
			return fmt.Errorf("source.db.user and source.db.database are required for mysql source")
		}
		if strings.TrimSpace(cfg.Source.MySQLConfig.Table) == "" {
			return fmt.Errorf("source.mysql_config.table is required for mysql source")
		}
	case "redis":
		if strings.TrimSpace(cfg.Source.RedisConfig.KeyPattern) == "" {
			return fmt.Errorf("source.redis_config.key_pattern is required for redis source")
		}
	case "kafka":
		if len(cfg.Source.KafkaConfig.Brokers) == 0 {
			return fmt.Errorf("source.kafka_config.brokers is required for kafka source")
		}
		if strings.TrimSpace(cfg.Source.KafkaConfig.Topic) == "" {
			return fmt.Errorf("source.kafka_config.topic is required for kafka source")
		}
	default:
		return fmt.Errorf("unsupported source.type: %s", cfg.Source.Type)
	}

	switch cfg.Sink.Type {
	case "file":
		if cfg.Sink.FileConfig.WeightPath == cfg.Sink.FileConfig.WordCountPath {
			return fmt.Errorf("sink.file_config weight_path and word_count_path must differ")
		}
	case "mysql":
		if cfg.Sink.DB.User == "" || cfg.Sink.DB.Database == "" {
			return fmt.Errorf("sink.db.user and sink.db.database are required for mysql sink")
		}
		if cfg.Sink.MySQLConfig.WeightTable == cfg.Sink.MySQLConfig.WordCountTable {
			return fmt.Errorf("sink.mysql_config weight and word-count tables must differ")
		}
	case "redis":
		// defaults always valid
	default:
		return fmt.Errorf("unsupported sink.type: %s", cfg.Sink.Type)
	}

	return nil
}
