// Package tokenize is the reference implementation of the tokenizer
// collaborator: it scrubs raw document text into the lower-cased,
// stop-word-filtered (doc_id, token) records the pipeline consumes.
// Any source producing the same record shape can replace it.
package tokenize

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/bibassitoula/Impatient/tfidf"
)

// defaultStopWords is used when no stop-word list is configured.
var defaultStopWords = []string{
	"a", "about", "after", "all", "also", "an", "and", "any", "are", "as",
	"at", "be", "because", "been", "but", "by", "can", "co", "corp",
	"could", "for", "from", "had", "has", "have", "he", "her", "his",
	"if", "in", "inc", "into", "is", "it", "its", "last", "more", "most",
	"mr", "mrs", "ms", "mz", "no", "not", "of", "on", "one", "only",
	"or", "other", "out", "over", "s", "says", "she", "so", "some",
	"such", "than", "that", "the", "their", "there", "they", "this",
	"to", "up", "was", "we", "were", "when", "which", "who", "will",
	"with", "would",
}

// Filter scrubs document text into token records.
type Filter struct {
	stop map[string]struct{}
}

// NewFilter builds a Filter with the default stop-word list.
func NewFilter() *Filter {
	return NewFilterWithStopWords(defaultStopWords)
}

// NewFilterWithStopWords builds a Filter from an explicit list.
func NewFilterWithStopWords(words []string) *Filter {
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Filter{stop: stop}
}

// NewFilterFromFile loads one stop word per line from path.
func NewFilterFromFile(path string) (*Filter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stop-word list: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewFilterWithStopWords(words), nil
}

// Tokens scrubs text and emits one TokenOccurrence per surviving token,
// preserving duplicates: term frequency is counted downstream.
func (f *Filter) Tokens(docID, text string) []tfidf.TokenOccurrence {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]tfidf.TokenOccurrence, 0, len(words))
	for _, w := range words {
		if _, isStop := f.stop[w]; isStop {
			continue
		}
		out = append(out, tfidf.TokenOccurrence{DocID: docID, Token: w})
	}
	return out
}
