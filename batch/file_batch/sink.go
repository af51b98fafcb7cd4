package file_batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bibassitoula/Impatient/tfidf"
)

// SinkConfig configures the TSV file sink: one path per output relation.
type SinkConfig struct {
	WeightPath    string `json:"weight_path"`
	WordCountPath string `json:"word_count_path"`
}

func (c *SinkConfig) WithDefaults() {
	if c.WeightPath == "" {
		c.WeightPath = "out/tfidf.tsv"
	}
	if c.WordCountPath == "" {
		c.WordCountPath = "out/wordcount.tsv"
	}
}

// ImportResult writes both relations as sorted TSV files. The pipeline
// output is an unordered set; sorting here keeps re-runs byte-identical
// and diffs readable.
func ImportResult(cfg SinkConfig, res *tfidf.Result) error {
	cfg.WithDefaults()

	weights := make([]tfidf.TfIdfRecord, len(res.Weights))
	copy(weights, res.Weights)
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Token != weights[j].Token {
			return weights[i].Token < weights[j].Token
		}
		return weights[i].DocID < weights[j].DocID
	})

	counts := make([]tfidf.WordCountRecord, len(res.WordCounts))
	copy(counts, res.WordCounts)
	sort.Slice(counts, func(i, j int) bool { return counts[i].Token < counts[j].Token })

	if err := writeFile(cfg.WeightPath, encodeWeightLines(weights)); err != nil {
		return fmt.Errorf("write weights: %w", err)
	}
	if err := writeFile(cfg.WordCountPath, encodeWordCountLines(counts)); err != nil {
		return fmt.Errorf("write word counts: %w", err)
	}
	return nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
