package tfidf

import (
	"errors"
	"math"
)

// ErrEmptyCorpus aborts a run whose input contains no documents: the
// weight denominator would be undefined, and emitting NaN rows is worse
// than emitting nothing.
var ErrEmptyCorpus = errors.New("empty corpus: token stream contains no documents")

// Weight computes tf * ln(nDocs / (1 + df)).
//
// The +1 smoothing keeps the denominator positive for any df and damps
// very common tokens. It also means the weight goes negative once
// df > nDocs - 1, i.e. tokens present in (nearly) every document score
// at or below zero. That is a property of this formula variant and is
// preserved exactly.
func Weight(tf, df, nDocs uint64) float64 {
	return float64(tf) * math.Log(float64(nDocs)/float64(1+df))
}
