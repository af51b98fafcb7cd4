// Package batch orchestrates end-to-end TF-IDF runs: export the token
// stream from a configured source, run the dataflow, import both result
// relations into a configured sink.
package batch

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/bibassitoula/Impatient/batch/file_batch"
	"github.com/bibassitoula/Impatient/batch/kafka_batch"
	"github.com/bibassitoula/Impatient/batch/mysql_batch"
	"github.com/bibassitoula/Impatient/batch/redis_batch"
)

// DBConfig defines MySQL connection parameters.
type DBConfig struct {
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	User     string            `json:"user"`
	Password string            `json:"password"`
	Database string            `json:"database"`
	Params   map[string]string `json:"params"`
}

func (c DBConfig) dsn() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	params := map[string]string{
		"parseTime": "true",
		"charset":   "utf8mb4",
	}
	for k, v := range c.Params {
		params[k] = v
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.User,
		c.Password,
		host,
		port,
		c.Database,
		strings.Join(parts, "&"),
	)
}

func openDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.User == "" {
		return nil, fmt.Errorf("db user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("db database is required")
	}
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenForApp opens a MySQL connection for advanced/custom flows.
func OpenForApp(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	return openDB(ctx, cfg)
}

// Unified source/sink config aliases exposed by batch package.
type FileSourceConfig = file_batch.SourceConfig
type FileSinkConfig = file_batch.SinkConfig
type MySQLSourceConfig = mysql_batch.SourceConfig
type MySQLSinkConfig = mysql_batch.SinkConfig
type RedisConnConfig = redis_batch.ConnConfig
type RedisSourceConfig = redis_batch.SourceConfig
type RedisSinkConfig = redis_batch.SinkConfig
type KafkaSourceConfig = kafka_batch.SourceConfig

// RunInfo identifies one batch run. It is created once by RunFlow and
// passed down immutable; components never consult global run state.
type RunInfo struct {
	FlowName  string
	RunID     string
	StartedAt time.Time
}

func newRunInfo(flowName string) RunInfo {
	if flowName == "" {
		flowName = "tfidf"
	}
	return RunInfo{
		FlowName:  flowName,
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
}
