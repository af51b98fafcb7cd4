// Package tfidf builds and runs the TF-IDF dataflow: three parallel
// counting branches over one token stream, a broadcast join and a
// co-grouped join to recombine them, and a final weight transform. All
// records are value types created once per run and never mutated.
package tfidf

import "strings"

// TokenOccurrence is the atomic input record: one token seen once in one
// document. Produced by an external tokenizer that already lower-cased
// the text and removed stop words.
type TokenOccurrence struct {
	DocID string `json:"doc_id"`
	Token string `json:"token"`
}

// Valid reports whether the record carries both fields. Invalid records
// are dropped and counted, never processed.
func (t TokenOccurrence) Valid() bool {
	return t.DocID != "" && t.Token != ""
}

// TermFrequencyRecord counts occurrences of a token within one document.
// TF is at least 1: pairs absent from the input produce no record.
type TermFrequencyRecord struct {
	DocID string
	Token string
	TF    uint64
}

// DocumentFrequencyRecord counts the distinct documents containing a
// token at least once. DF is at least 1 and never exceeds the corpus
// document count.
type DocumentFrequencyRecord struct {
	Token string
	DF    uint64
}

// CorpusStats is the one-row relation holding the distinct document
// count, tagged with a constant join key so every partition can be
// handed the same value without a shuffle.
type CorpusStats struct {
	NDocs uint64
}

// JoinedRecord combines one TermFrequencyRecord with the
// DocumentFrequencyRecord and CorpusStats sharing its token; one row per
// TermFrequencyRecord.
type JoinedRecord struct {
	Token string
	DocID string
	TF    uint64
	DF    uint64
	NDocs uint64
}

// TfIdfRecord is the terminal weight row.
type TfIdfRecord struct {
	Token  string
	DocID  string
	Weight float64
}

// WordCountRecord is the global per-token occurrence count, produced
// independently of the join chain as a pipeline cross-check.
type WordCountRecord struct {
	Token string
	Count uint64
}

// pairSep joins document id and token into one grouping key. US control
// byte rather than tab: tokens come from external sources.
const pairSep = "\x1f"

func pairKey(docID, token string) string {
	return docID + pairSep + token
}

func splitPairKey(key string) (docID, token string) {
	docID, token, _ = strings.Cut(key, pairSep)
	return docID, token
}
