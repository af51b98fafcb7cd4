package batch

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func quoteIdentifier(s string) (string, error) {
	if !identifierRe.MatchString(s) {
		return "", fmt.Errorf("invalid identifier: %s", s)
	}
	return "`" + s + "`", nil
}

// PrepareConfig configures synthetic corpus generation for benchmarking.
type PrepareConfig struct {
	SourceTable  string
	Docs         int64
	TokensPerDoc int64
	Vocabulary   int64
}

func (c *PrepareConfig) withDefaults() {
	if c.SourceTable == "" {
		c.SourceTable = "corpus_tokens"
	}
	if c.Docs <= 0 {
		c.Docs = 10000
	}
	if c.TokensPerDoc <= 0 {
		c.TokensPerDoc = 200
	}
	if c.Vocabulary <= 0 {
		c.Vocabulary = 5000
	}
}

// PrepareSyntheticCorpus creates a deterministic synthetic token table
// for benchmarking. Token choice is a fixed function of (doc, position),
// so repeated prepares produce the same corpus.
func PrepareSyntheticCorpus(ctx context.Context, db *sql.DB, cfg PrepareConfig) error {
	cfg.withDefaults()
	table, err := quoteIdentifier(cfg.SourceTable)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE %s (
  id BIGINT NOT NULL,
  doc_id VARCHAR(64) NOT NULL,
  token VARCHAR(64) NOT NULL,
  PRIMARY KEY (id),
  KEY idx_doc (doc_id),
  KEY idx_token (token)
) ENGINE=InnoDB
`, table)); err != nil {
		return err
	}

	const batchSize int64 = 5000
	total := cfg.Docs * cfg.TokensPerDoc
	for start := int64(0); start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		rowN := end - start

		placeholders := make([]string, 0, rowN)
		args := make([]interface{}, 0, rowN*3)
		for i := start; i < end; i++ {
			docN := i / cfg.TokensPerDoc
			pos := i % cfg.TokensPerDoc
			// Skewed but deterministic token pick: low word ids repeat
			// across most documents, high ones stay rare.
			word := (docN*31 + pos*pos) % cfg.Vocabulary
			placeholders = append(placeholders, "(?, ?, ?)")
			args = append(args,
				i+1,
				fmt.Sprintf("doc_%06d", docN),
				fmt.Sprintf("word_%05d", word),
			)
		}

		insertSQL := fmt.Sprintf(
			"INSERT INTO %s (id, doc_id, token) VALUES %s",
			table,
			strings.Join(placeholders, ","),
		)
		if _, err := db.ExecContext(ctx, insertSQL, args...); err != nil {
			return err
		}
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`ANALYZE TABLE %s`, table))
	return err
}

// ValidateConfig compares the source table's per-token counts with the
// word-count sink table.
type ValidateConfig struct {
	SourceTable    string
	TokenColumn    string
	WordCountTable string
}

func (c *ValidateConfig) withDefaults() {
	if c.TokenColumn == "" {
		c.TokenColumn = "token"
	}
	if c.WordCountTable == "" {
		c.WordCountTable = "word_counts"
	}
}

// ValidateWordCounts checks that SELECT token, COUNT(*) over the source
// matches the imported word-count relation row for row. The word-count
// branch bypasses the join chain, so this is an end-to-end check of the
// counting stages independent of the joins.
func ValidateWordCounts(ctx context.Context, db *sql.DB, cfg ValidateConfig) error {
	cfg.withDefaults()
	if cfg.SourceTable == "" {
		return fmt.Errorf("source table is required")
	}

	srcTable, err := quoteIdentifier(cfg.SourceTable)
	if err != nil {
		return err
	}
	tokenCol, err := quoteIdentifier(cfg.TokenColumn)
	if err != nil {
		return err
	}
	wcTable, err := quoteIdentifier(cfg.WordCountTable)
	if err != nil {
		return err
	}

	expectedSQL := fmt.Sprintf(`
SELECT %s, COUNT(*) AS total
FROM %s
GROUP BY %s
ORDER BY %s`, tokenCol, srcTable, tokenCol, tokenCol)
	actualSQL := fmt.Sprintf(`
SELECT token, count
FROM %s
ORDER BY token`, wcTable)

	expectedRows, err := db.QueryContext(ctx, expectedSQL)
	if err != nil {
		return err
	}
	defer expectedRows.Close()

	actualRows, err := db.QueryContext(ctx, actualSQL)
	if err != nil {
		return err
	}
	defer actualRows.Close()

	idx := 0
	for {
		eNext := expectedRows.Next()
		aNext := actualRows.Next()
		if !eNext || !aNext {
			if eNext != aNext {
				return fmt.Errorf("row count mismatch in validation")
			}
			break
		}
		idx++
		var ek string
		var ev int64
		if err := expectedRows.Scan(&ek, &ev); err != nil {
			return err
		}
		var ak string
		var av int64
		if err := actualRows.Scan(&ak, &av); err != nil {
			return err
		}
		if ek != ak || ev != av {
			return fmt.Errorf("validation mismatch at row %d: expected (%s,%d), actual (%s,%d)", idx, ek, ev, ak, av)
		}
	}
	if err := expectedRows.Err(); err != nil {
		return err
	}
	return actualRows.Err()
}
