package mysql_batch

import (
	"fmt"
	"regexp"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SourceConfig configures token export from a MySQL table holding one
// (doc_id, token) row per token occurrence.
type SourceConfig struct {
	Table       string `json:"table"`
	PKColumn    string `json:"pkcolumn"`
	DocColumn   string `json:"doccolumn"`
	TokenColumn string `json:"tokencolumn"`
	Where       string `json:"where"`
	Shards      int    `json:"shards"`
	Parallel    int    `json:"parallel"`
}

func (c *SourceConfig) WithDefaults() {
	if c.PKColumn == "" {
		c.PKColumn = "id"
	}
	if c.DocColumn == "" {
		c.DocColumn = "doc_id"
	}
	if c.TokenColumn == "" {
		c.TokenColumn = "token"
	}
	if c.Where == "" {
		c.Where = "1=1"
	}
	if c.Shards <= 0 {
		c.Shards = 16
	}
	if c.Parallel <= 0 {
		c.Parallel = 4
	}
}

// SinkConfig configures result import into MySQL: one table per output
// relation.
type SinkConfig struct {
	WeightTable    string `json:"weighttable"`
	WordCountTable string `json:"wordcounttable"`
	Replace        bool   `json:"replace"`
	BatchSize      int    `json:"batchsize"`
}

func (c *SinkConfig) WithDefaults() {
	if c.WeightTable == "" {
		c.WeightTable = "tfidf_weights"
	}
	if c.WordCountTable == "" {
		c.WordCountTable = "word_counts"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 2000
	}
}

func quoteIdentifier(s string) (string, error) {
	if !identifierRe.MatchString(s) {
		return "", fmt.Errorf("invalid identifier: %s", s)
	}
	return "`" + s + "`", nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
