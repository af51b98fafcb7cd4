package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bibassitoula/Impatient/batch"
)

var (
	configPath string
	logLevel   string
	timeout    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tfidf",
		Short: "Impatient is a batch TF-IDF computation engine",
		Long: `Impatient computes TF-IDF weights over a corpus of documents with a
data-parallel dataflow: per-document term counts, per-term document
frequencies and the corpus document count are computed in parallel over
one token stream, then recombined with a broadcast join and a
co-partitioned grouping join before the weight transform.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("bad log level %q: %w", logLevel, err)
			}
			log.SetLevel(lvl)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Flow config file path (JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Hour, "Overall run timeout")

	rootCmd.AddCommand(runCmd(), checkCmd(), benchCmd(), prepareCmd(), validateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadFlowConfig() (batch.FlowConfig, error) {
	var cfg batch.FlowConfig
	if configPath == "" {
		return cfg, fmt.Errorf("--config is required")
	}
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse flow config: %w", err)
	}
	return cfg, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the flow defined by --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFlowConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := batch.RunFlow(ctx, cfg); err != nil {
				return err
			}
			fmt.Println("flow done")
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the flow config schema only",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFlowConfig()
			if err != nil {
				return err
			}
			if err := batch.ValidateFlowConfig(cfg); err != nil {
				return err
			}
			fmt.Println("config check pass")
			return nil
		},
	}
}

func benchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Execute the flow and report per-stage durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFlowConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			result, err := batch.RunFlowBenchmark(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Printf("source=%s compute=%s sink=%s total=%s docs=%d records=%d\n",
				result.SourceDuration, result.ComputeDuration, result.SinkDuration,
				result.TotalDuration, result.Stats.NDocs, result.Stats.InputRecords)
			return nil
		},
	}
}

func dbConfigFromFlags(cmd *cobra.Command) batch.DBConfig {
	host, _ := cmd.Flags().GetString("db-host")
	port, _ := cmd.Flags().GetInt("db-port")
	user, _ := cmd.Flags().GetString("db-user")
	password, _ := cmd.Flags().GetString("db-password")
	database, _ := cmd.Flags().GetString("db-name")
	return batch.DBConfig{Host: host, Port: port, User: user, Password: password, Database: database}
}

func addDBFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-host", "127.0.0.1", "MySQL host")
	cmd.Flags().Int("db-port", 3306, "MySQL port")
	cmd.Flags().String("db-user", "root", "MySQL user")
	cmd.Flags().String("db-password", "", "MySQL password")
	cmd.Flags().String("db-name", "", "MySQL database")
}

func prepareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Create a synthetic corpus table for benchmarking",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			db, err := batch.OpenForApp(ctx, dbConfigFromFlags(cmd))
			if err != nil {
				return err
			}
			defer db.Close()

			table, _ := cmd.Flags().GetString("table")
			docs, _ := cmd.Flags().GetInt64("docs")
			perDoc, _ := cmd.Flags().GetInt64("tokens-per-doc")
			vocab, _ := cmd.Flags().GetInt64("vocabulary")
			if err := batch.PrepareSyntheticCorpus(ctx, db, batch.PrepareConfig{
				SourceTable:  table,
				Docs:         docs,
				TokensPerDoc: perDoc,
				Vocabulary:   vocab,
			}); err != nil {
				return err
			}
			fmt.Println("prepare done")
			return nil
		},
	}
	addDBFlags(cmd)
	cmd.Flags().String("table", "corpus_tokens", "Source table to create")
	cmd.Flags().Int64("docs", 10000, "Number of synthetic documents")
	cmd.Flags().Int64("tokens-per-doc", 200, "Tokens per document")
	cmd.Flags().Int64("vocabulary", 5000, "Distinct token count")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Cross-check the word-count sink table against the source table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			db, err := batch.OpenForApp(ctx, dbConfigFromFlags(cmd))
			if err != nil {
				return err
			}
			defer db.Close()

			source, _ := cmd.Flags().GetString("source-table")
			target, _ := cmd.Flags().GetString("wordcount-table")
			if err := batch.ValidateWordCounts(ctx, db, batch.ValidateConfig{
				SourceTable:    source,
				WordCountTable: target,
			}); err != nil {
				return err
			}
			fmt.Println("validation pass")
			return nil
		},
	}
	addDBFlags(cmd)
	cmd.Flags().String("source-table", "corpus_tokens", "Token source table")
	cmd.Flags().String("wordcount-table", "word_counts", "Word-count sink table")
	return cmd
}
