package mysql_batch

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bibassitoula/Impatient/tfidf"
)

// ExportTokens reads the source table in PK-range shards, Parallel
// shards at a time, and returns the token records. Shard boundaries come
// from the PK min/max so each worker scans a disjoint range.
func ExportTokens(ctx context.Context, db *sql.DB, cfg SourceConfig) ([]tfidf.TokenOccurrence, error) {
	cfg.WithDefaults()
	if cfg.Table == "" {
		return nil, fmt.Errorf("source table is required")
	}

	table, err := quoteIdentifier(cfg.Table)
	if err != nil {
		return nil, err
	}
	pk, err := quoteIdentifier(cfg.PKColumn)
	if err != nil {
		return nil, err
	}
	doc, err := quoteIdentifier(cfg.DocColumn)
	if err != nil {
		return nil, err
	}
	token, err := quoteIdentifier(cfg.TokenColumn)
	if err != nil {
		return nil, err
	}

	boundsSQL := fmt.Sprintf("SELECT COALESCE(MIN(%s),0), COALESCE(MAX(%s),0), COUNT(*) FROM %s WHERE %s", pk, pk, table, cfg.Where)
	var minID, maxID, rowCount int64
	if err := db.QueryRowContext(ctx, boundsSQL).Scan(&minID, &maxID, &rowCount); err != nil {
		return nil, err
	}
	if rowCount == 0 {
		return []tfidf.TokenOccurrence{}, nil
	}

	span := maxID - minID + 1
	step := (span + int64(cfg.Shards) - 1) / int64(cfg.Shards)
	if step < 1 {
		step = 1
	}

	querySQL := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s >= ? AND %s < ? AND %s",
		doc, token, table, pk, pk, cfg.Where)

	var (
		mu  sync.Mutex
		out []tfidf.TokenOccurrence
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for start := minID; start <= maxID; start += step {
		start := start
		g.Go(func() error {
			recs, err := exportOneShard(gctx, db, querySQL, start, start+step)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, recs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func exportOneShard(ctx context.Context, db *sql.DB, querySQL string, start, end int64) ([]tfidf.TokenOccurrence, error) {
	rows, err := db.QueryContext(ctx, querySQL, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tfidf.TokenOccurrence
	for rows.Next() {
		var doc, token interface{}
		if err := rows.Scan(&doc, &token); err != nil {
			return nil, err
		}
		out = append(out, tfidf.TokenOccurrence{
			DocID: asString(doc),
			Token: asString(token),
		})
	}
	return out, rows.Err()
}
