package mysql_batch

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bibassitoula/Impatient/tfidf"
)

// ImportResult writes both output relations into MySQL inside one
// transaction: the whole import is visible atomically or not at all.
func ImportResult(ctx context.Context, db *sql.DB, cfg SinkConfig, res *tfidf.Result) error {
	cfg.WithDefaults()

	weightTable, err := quoteIdentifier(cfg.WeightTable)
	if err != nil {
		return err
	}
	wcTable, err := quoteIdentifier(cfg.WordCountTable)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  token VARCHAR(255) NOT NULL,
  doc_id VARCHAR(255) NOT NULL,
  weight DOUBLE NOT NULL,
  PRIMARY KEY (token, doc_id)
)`, weightTable)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  token VARCHAR(255) NOT NULL,
  count BIGINT NOT NULL,
  PRIMARY KEY (token)
)`, wcTable)); err != nil {
		return err
	}

	if cfg.Replace {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, weightTable)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, wcTable)); err != nil {
			return err
		}
	}

	if err := insertWeights(ctx, tx, weightTable, res.Weights, cfg.BatchSize); err != nil {
		return err
	}
	if err := insertWordCounts(ctx, tx, wcTable, res.WordCounts, cfg.BatchSize); err != nil {
		return err
	}

	return tx.Commit()
}

func insertWeights(ctx context.Context, tx *sql.Tx, table string, rows []tfidf.TfIdfRecord, batchSize int) error {
	values := make([]string, 0, batchSize)
	args := make([]interface{}, 0, batchSize*3)
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		sqlStr := fmt.Sprintf(
			"INSERT INTO %s (token, doc_id, weight) VALUES %s ON DUPLICATE KEY UPDATE weight=VALUES(weight)",
			table, strings.Join(values, ","),
		)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		values = values[:0]
		args = args[:0]
		return nil
	}
	for _, r := range rows {
		values = append(values, "(?, ?, ?)")
		args = append(args, r.Token, r.DocID, r.Weight)
		if len(values) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func insertWordCounts(ctx context.Context, tx *sql.Tx, table string, rows []tfidf.WordCountRecord, batchSize int) error {
	values := make([]string, 0, batchSize)
	args := make([]interface{}, 0, batchSize*2)
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		sqlStr := fmt.Sprintf(
			"INSERT INTO %s (token, count) VALUES %s ON DUPLICATE KEY UPDATE count=VALUES(count)",
			table, strings.Join(values, ","),
		)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		values = values[:0]
		args = args[:0]
		return nil
	}
	for _, r := range rows {
		values = append(values, "(?, ?)")
		args = append(args, r.Token, r.Count)
		if len(values) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
