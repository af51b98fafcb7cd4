package file_batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/bibassitoula/Impatient/tfidf"
	"github.com/bibassitoula/Impatient/tokenize"
)

// Source modes.
const (
	ModeTokens = "tokens" // TSV files of pre-tokenized doc_id\ttoken lines
	ModeDocs   = "docs"   // raw document files, one document per file
)

// SourceConfig configures the file source. Inputs are globs.
type SourceConfig struct {
	Inputs        []string `json:"inputs"`
	Mode          string   `json:"mode"`
	StopWordsFile string   `json:"stop_words_file"`
}

func (c *SourceConfig) WithDefaults() {
	if c.Mode == "" {
		c.Mode = ModeTokens
	}
}

// ExportTokens expands the input globs and reads all matching files into
// token records.
func ExportTokens(cfg SourceConfig) ([]tfidf.TokenOccurrence, error) {
	cfg.WithDefaults()

	var files []string
	for _, pattern := range cfg.Inputs {
		matched, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad input glob %q: %w", pattern, err)
		}
		files = append(files, matched...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched %v", cfg.Inputs)
	}

	switch cfg.Mode {
	case ModeTokens:
		return readTokenFiles(files)
	case ModeDocs:
		return readDocFiles(files, cfg.StopWordsFile)
	default:
		return nil, fmt.Errorf("unsupported file source mode: %s", cfg.Mode)
	}
}

func readTokenFiles(files []string) ([]tfidf.TokenOccurrence, error) {
	var out []tfidf.TokenOccurrence
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			out = append(out, decodeTokenLine(line))
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
	}
	log.Infof("[FileSource] read %d token records from %d files", len(out), len(files))
	return out, nil
}

// readDocFiles treats each file as one document; the document id is the
// file's base name, matching how downstream consumers refer to corpus
// members.
func readDocFiles(files []string, stopWordsFile string) ([]tfidf.TokenOccurrence, error) {
	filter := tokenize.NewFilter()
	if stopWordsFile != "" {
		var err error
		filter, err = tokenize.NewFilterFromFile(stopWordsFile)
		if err != nil {
			return nil, err
		}
	}

	var out []tfidf.TokenOccurrence
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		out = append(out, filter.Tokens(filepath.Base(file), string(content))...)
	}
	log.Infof("[FileSource] tokenized %d documents into %d records", len(files), len(out))
	return out, nil
}
