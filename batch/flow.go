package batch

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bibassitoula/Impatient/batch/file_batch"
	"github.com/bibassitoula/Impatient/batch/kafka_batch"
	"github.com/bibassitoula/Impatient/batch/mysql_batch"
	"github.com/bibassitoula/Impatient/batch/redis_batch"
	"github.com/bibassitoula/Impatient/metrics"
	"github.com/bibassitoula/Impatient/tfidf"
)

// FlowConfig describes a source -> compute -> sink TF-IDF job.
type FlowConfig struct {
	Version string            `json:"version"`
	Name    string            `json:"name"`
	Source  FlowSourceConfig  `json:"source"`
	Compute FlowComputeConfig `json:"compute"`
	Sink    FlowSinkConfig    `json:"sink"`
}

type FlowSourceConfig struct {
	Type        string            `json:"type"`
	DB          DBConfig          `json:"db"`
	Redis       RedisConnConfig   `json:"redis"`
	FileConfig  FileSourceConfig  `json:"file_config"`
	MySQLConfig MySQLSourceConfig `json:"mysql_config"`
	RedisConfig RedisSourceConfig `json:"redis_config"`
	KafkaConfig KafkaSourceConfig `json:"kafka_config"`
}

type FlowComputeConfig struct {
	Workers     int    `json:"workers"`
	Partitions  int    `json:"partitions"`
	Retries     int    `json:"retries"`
	MetricsAddr string `json:"metrics_addr"`
}

type FlowSinkConfig struct {
	Type        string          `json:"type"`
	DB          DBConfig        `json:"db"`
	Redis       RedisConnConfig `json:"redis"`
	FileConfig  FileSinkConfig  `json:"file_config"`
	MySQLConfig MySQLSinkConfig `json:"mysql_config"`
	RedisConfig RedisSinkConfig `json:"redis_config"`
}

func (c *FlowConfig) withDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = "file"
	}
	if c.Sink.Type == "" {
		c.Sink.Type = "file"
	}
	if c.Compute.Workers <= 0 {
		c.Compute.Workers = 16
	}
	if c.Compute.Partitions <= 0 {
		c.Compute.Partitions = 8
	}
	if c.Compute.Retries < 0 {
		c.Compute.Retries = 2
	}
	c.Source.FileConfig.WithDefaults()
	c.Source.MySQLConfig.WithDefaults()
	c.Source.RedisConfig.WithDefaults()
	c.Source.KafkaConfig.WithDefaults()
	c.Sink.FileConfig.WithDefaults()
	c.Sink.MySQLConfig.WithDefaults()
	c.Sink.RedisConfig.WithDefaults()
}

// FlowBenchmarkResult captures per-stage wall times of one flow run.
type FlowBenchmarkResult struct {
	SourceDuration  time.Duration
	ComputeDuration time.Duration
	SinkDuration    time.Duration
	TotalDuration   time.Duration
	Stats           tfidf.Stats
}

// RunFlow executes source -> compute -> sink defined by FlowConfig.
func RunFlow(ctx context.Context, cfg FlowConfig) error {
	_, err := runFlowInternal(ctx, cfg, false)
	return err
}

// RunFlowBenchmark executes a config-driven flow and reports stage
// durations plus the run counters.
func RunFlowBenchmark(ctx context.Context, cfg FlowConfig) (FlowBenchmarkResult, error) {
	return runFlowInternal(ctx, cfg, true)
}

func runFlowInternal(ctx context.Context, cfg FlowConfig, collectDur bool) (FlowBenchmarkResult, error) {
	var bench FlowBenchmarkResult
	started := time.Now()

	cfg.withDefaults()
	if err := ValidateFlowConfig(cfg); err != nil {
		return bench, err
	}

	run := newRunInfo(cfg.Name)
	log.Infof("[Flow] start flow=%s run=%s source=%s sink=%s", run.FlowName, run.RunID, cfg.Source.Type, cfg.Sink.Type)

	m, stopMetrics, err := startMetrics(cfg.Compute.MetricsAddr)
	if err != nil {
		return bench, err
	}
	defer stopMetrics()

	sSource := time.Now()
	tokens, err := exportTokens(ctx, cfg.Source)
	if err != nil {
		return bench, err
	}
	if collectDur {
		bench.SourceDuration = time.Since(sSource)
	}
	if m != nil {
		m.RecordsReadTotal.Add(float64(len(tokens)))
	}

	params := tfidf.Params{
		Workers:    cfg.Compute.Workers,
		Partitions: cfg.Compute.Partitions,
		Retries:    cfg.Compute.Retries,
	}
	if m != nil {
		params.Observer = m
	}

	sCompute := time.Now()
	res, err := RunCompute(ctx, tokens, params)
	if collectDur {
		bench.ComputeDuration = time.Since(sCompute)
	}
	if err != nil {
		if m != nil {
			m.RunsTotal.WithLabelValues("error").Inc()
		}
		log.Errorf("[Flow] run=%s compute failed: %v", run.RunID, err)
		return bench, err
	}
	if m != nil {
		m.RecordsDroppedTotal.WithLabelValues("malformed").Add(float64(res.Stats.MalformedDropped))
		m.RecordsDroppedTotal.WithLabelValues("join_mismatch").Add(float64(res.Stats.JoinMismatches))
	}
	bench.Stats = res.Stats
	log.Infof("[Flow] run=%s computed %d weights over %d documents (%d malformed, %d join mismatches)",
		run.RunID, len(res.Weights), res.Stats.NDocs, res.Stats.MalformedDropped, res.Stats.JoinMismatches)

	sSink := time.Now()
	if err := importResult(ctx, cfg.Sink, res); err != nil {
		if m != nil {
			m.RunsTotal.WithLabelValues("error").Inc()
		}
		return bench, err
	}
	if collectDur {
		bench.SinkDuration = time.Since(sSink)
	}

	if m != nil {
		m.RunsTotal.WithLabelValues("ok").Inc()
	}
	if collectDur {
		bench.TotalDuration = time.Since(started)
	}
	log.Infof("[Flow] run=%s done in %s", run.RunID, time.Since(started))
	return bench, nil
}

func exportTokens(ctx context.Context, src FlowSourceConfig) ([]tfidf.TokenOccurrence, error) {
	switch src.Type {
	case "file":
		return file_batch.ExportTokens(src.FileConfig)
	case "mysql":
		db, err := openDB(ctx, src.DB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return mysql_batch.ExportTokens(ctx, db, src.MySQLConfig)
	case "redis":
		return redis_batch.ExportTokens(ctx, src.Redis, src.RedisConfig)
	case "kafka":
		return kafka_batch.ExportTokens(ctx, src.KafkaConfig)
	default:
		return nil, errors.New("unsupported source type: " + src.Type)
	}
}

func importResult(ctx context.Context, sink FlowSinkConfig, res *tfidf.Result) error {
	switch sink.Type {
	case "file":
		return file_batch.ImportResult(sink.FileConfig, res)
	case "mysql":
		db, err := openDB(ctx, sink.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		return mysql_batch.ImportResult(ctx, db, sink.MySQLConfig, res)
	case "redis":
		return redis_batch.ImportResult(ctx, sink.Redis, sink.RedisConfig, res)
	default:
		return errors.New("unsupported sink type: " + sink.Type)
	}
}

// startMetrics serves a scrape endpoint for the duration of the run when
// an address is configured. Without one, no collectors are created.
func startMetrics(addr string) (*metrics.Metrics, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}
	m := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("[Flow] metrics server: %v", err)
		}
	}()
	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return m, stop, nil
}
