package tfidf

import (
	"context"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/bibassitoula/Impatient/engine"
)

// Node IDs of the dataflow graph built by BuildGraph.
const (
	NodeTokens            engine.NodeID = "tokens"
	NodeTermFrequency     engine.NodeID = "term_frequency"
	NodeDocumentFrequency engine.NodeID = "document_frequency"
	NodeDocumentCount     engine.NodeID = "document_count"
	NodeBroadcastStats    engine.NodeID = "broadcast_corpus_stats"
	NodeJoin              engine.NodeID = "join_tf_df"
	NodeWeights           engine.NodeID = "tfidf_weights"
	NodeWordCount         engine.NodeID = "word_count"
)

// Params controls one pipeline run. Zero fields fall back to 16 workers
// over 8 partitions.
type Params struct {
	// Workers bounds how many partitions are processed concurrently.
	Workers int
	// Partitions is the number of hash partitions per shuffle.
	Partitions int
	// Retries is the number of re-executions allowed per failed node.
	Retries int
	// Observer receives stage lifecycle events; may be nil.
	Observer engine.StageObserver
}

func (p *Params) withDefaults() {
	if p.Workers <= 0 {
		p.Workers = 16
	}
	if p.Partitions <= 0 {
		p.Partitions = 8
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
}

// Stats are the per-run record counters surfaced to the caller.
type Stats struct {
	InputRecords     uint64
	MalformedDropped uint64
	JoinMismatches   uint64
	NDocs            uint64
}

// Result is the output of one batch run: the two disjoint output
// relations plus the run counters. Neither slice carries an ordering
// guarantee.
type Result struct {
	Weights    []TfIdfRecord
	WordCounts []WordCountRecord
	Stats      Stats
}

// enrichedDF is a DocumentFrequencyRecord with the broadcast corpus
// stats attached.
type enrichedDF struct {
	Token string
	DF    uint64
	NDocs uint64
}

// Run executes the whole TF-IDF dataflow over the given token stream.
// Malformed records are dropped and counted. The run is all-or-nothing:
// on error no partial output is returned.
func Run(ctx context.Context, tokens []TokenOccurrence, params Params) (*Result, error) {
	params.withDefaults()

	valid := make([]TokenOccurrence, 0, len(tokens))
	var malformed uint64
	for _, t := range tokens {
		if !t.Valid() {
			malformed++
			continue
		}
		valid = append(valid, t)
	}
	if malformed > 0 {
		log.Warnf("[Pipeline] dropped %d malformed token records", malformed)
	}

	var joinMisses atomic.Uint64
	input := engine.Parallelize(valid, params.Partitions)
	graph, err := BuildGraph(input, params, &joinMisses)
	if err != nil {
		return nil, err
	}

	exec := engine.Executor{
		Retries:  params.Retries,
		Observer: params.Observer,
	}
	results, err := exec.Execute(ctx, graph)
	if err != nil {
		return nil, err
	}

	weights, err := engine.Output[engine.Dataset[TfIdfRecord]](results, NodeWeights)
	if err != nil {
		return nil, err
	}
	wordCounts, err := engine.Output[engine.Dataset[WordCountRecord]](results, NodeWordCount)
	if err != nil {
		return nil, err
	}
	stats, err := engine.Output[CorpusStats](results, NodeDocumentCount)
	if err != nil {
		return nil, err
	}

	return &Result{
		Weights:    weights.Records(),
		WordCounts: wordCounts.Records(),
		Stats: Stats{
			InputRecords:     uint64(len(valid)),
			MalformedDropped: malformed,
			JoinMismatches:   joinMisses.Load(),
			NDocs:            stats.NDocs,
		},
	}, nil
}

// BuildGraph wires the TF-IDF stages into a dataflow graph over the
// given partitioned token stream. The graph is data: callers can
// validate it, execute it, or inspect its shape without running it.
func BuildGraph(tokens engine.Dataset[TokenOccurrence], params Params, joinMisses *atomic.Uint64) (*engine.Graph, error) {
	params.withDefaults()
	workers, parts := params.Workers, params.Partitions

	g := engine.NewGraph()

	g.MustAdd(&engine.Node{
		ID: NodeTokens,
		Run: func(ctx context.Context, _ engine.Results) (any, error) {
			return tokens, nil
		},
	})

	g.MustAdd(&engine.Node{
		ID:    NodeTermFrequency,
		Needs: []engine.NodeID{NodeTokens},
		Run: func(ctx context.Context, in engine.Results) (any, error) {
			ds, err := engine.Output[engine.Dataset[TokenOccurrence]](in, NodeTokens)
			if err != nil {
				return nil, err
			}
			counted, err := engine.CountByKey(ctx, workers, ds, func(t TokenOccurrence) string {
				return pairKey(t.DocID, t.Token)
			})
			if err != nil {
				return nil, err
			}
			return engine.MapPartitions(ctx, workers, counted, func(part []engine.KeyCount) ([]TermFrequencyRecord, error) {
				out := make([]TermFrequencyRecord, 0, len(part))
				for _, kc := range part {
					docID, token := splitPairKey(kc.Key)
					out = append(out, TermFrequencyRecord{DocID: docID, Token: token, TF: kc.Count})
				}
				return out, nil
			})
		},
	})

	g.MustAdd(&engine.Node{
		ID:    NodeDocumentFrequency,
		Needs: []engine.NodeID{NodeTokens},
		Run: func(ctx context.Context, in engine.Results) (any, error) {
			ds, err := engine.Output[engine.Dataset[TokenOccurrence]](in, NodeTokens)
			if err != nil {
				return nil, err
			}
			// A token occurring five times in one document contributes
			// exactly once to that token's document frequency.
			pairs, err := engine.DistinctBy(ctx, workers, ds, func(t TokenOccurrence) string {
				return pairKey(t.DocID, t.Token)
			})
			if err != nil {
				return nil, err
			}
			counted, err := engine.CountByKey(ctx, workers, pairs, func(t TokenOccurrence) string {
				return t.Token
			})
			if err != nil {
				return nil, err
			}
			return engine.MapPartitions(ctx, workers, counted, func(part []engine.KeyCount) ([]DocumentFrequencyRecord, error) {
				out := make([]DocumentFrequencyRecord, 0, len(part))
				for _, kc := range part {
					out = append(out, DocumentFrequencyRecord{Token: kc.Key, DF: kc.Count})
				}
				return out, nil
			})
		},
	})

	g.MustAdd(&engine.Node{
		ID:    NodeDocumentCount,
		Needs: []engine.NodeID{NodeTokens},
		Run: func(ctx context.Context, in engine.Results) (any, error) {
			ds, err := engine.Output[engine.Dataset[TokenOccurrence]](in, NodeTokens)
			if err != nil {
				return nil, err
			}
			docs, err := engine.DistinctBy(ctx, workers, ds, func(t TokenOccurrence) string {
				return t.DocID
			})
			if err != nil {
				return nil, err
			}
			return CorpusStats{NDocs: uint64(docs.Len())}, nil
		},
	})

	g.MustAdd(&engine.Node{
		ID:    NodeBroadcastStats,
		Needs: []engine.NodeID{NodeDocumentFrequency, NodeDocumentCount},
		Run: func(ctx context.Context, in engine.Results) (any, error) {
			df, err := engine.Output[engine.Dataset[DocumentFrequencyRecord]](in, NodeDocumentFrequency)
			if err != nil {
				return nil, err
			}
			stats, err := engine.Output[CorpusStats](in, NodeDocumentCount)
			if err != nil {
				return nil, err
			}
			// Right side has cardinality 1: replicating it beats
			// shuffling the whole document-frequency relation.
			return engine.BroadcastJoin(ctx, workers, df, stats, func(d DocumentFrequencyRecord, s CorpusStats) enrichedDF {
				return enrichedDF{Token: d.Token, DF: d.DF, NDocs: s.NDocs}
			})
		},
	})

	g.MustAdd(&engine.Node{
		ID:    NodeJoin,
		Needs: []engine.NodeID{NodeTermFrequency, NodeBroadcastStats},
		Run: func(ctx context.Context, in engine.Results) (any, error) {
			tf, err := engine.Output[engine.Dataset[TermFrequencyRecord]](in, NodeTermFrequency)
			if err != nil {
				return nil, err
			}
			df, err := engine.Output[engine.Dataset[enrichedDF]](in, NodeBroadcastStats)
			if err != nil {
				return nil, err
			}
			// Both sides can be large, so both are shuffled by token.
			// Inner join: a term-frequency record whose token has no
			// document-frequency row indicates the two counters did not
			// see the same input set.
			return engine.ShuffleJoin(ctx, workers, parts, tf, df,
				func(t TermFrequencyRecord) string { return t.Token },
				func(d enrichedDF) string { return d.Token },
				func(t TermFrequencyRecord, d enrichedDF) JoinedRecord {
					return JoinedRecord{Token: t.Token, DocID: t.DocID, TF: t.TF, DF: d.DF, NDocs: d.NDocs}
				},
				func(t TermFrequencyRecord) {
					joinMisses.Add(1)
					log.Warnf("[Join] no document frequency for token %q (doc %s); record dropped", t.Token, t.DocID)
				},
			)
		},
	})

	g.MustAdd(&engine.Node{
		ID:    NodeWeights,
		Needs: []engine.NodeID{NodeJoin, NodeDocumentCount},
		Run: func(ctx context.Context, in engine.Results) (any, error) {
			stats, err := engine.Output[CorpusStats](in, NodeDocumentCount)
			if err != nil {
				return nil, err
			}
			if stats.NDocs == 0 {
				return nil, engine.Abort(ErrEmptyCorpus)
			}
			joined, err := engine.Output[engine.Dataset[JoinedRecord]](in, NodeJoin)
			if err != nil {
				return nil, err
			}
			return engine.MapPartitions(ctx, workers, joined, func(part []JoinedRecord) ([]TfIdfRecord, error) {
				out := make([]TfIdfRecord, 0, len(part))
				for _, j := range part {
					out = append(out, TfIdfRecord{
						Token:  j.Token,
						DocID:  j.DocID,
						Weight: Weight(j.TF, j.DF, j.NDocs),
					})
				}
				return out, nil
			})
		},
	})

	g.MustAdd(&engine.Node{
		ID:    NodeWordCount,
		Needs: []engine.NodeID{NodeTermFrequency},
		Run: func(ctx context.Context, in engine.Results) (any, error) {
			tf, err := engine.Output[engine.Dataset[TermFrequencyRecord]](in, NodeTermFrequency)
			if err != nil {
				return nil, err
			}
			summed, err := engine.SumByKey(ctx, workers, tf,
				func(t TermFrequencyRecord) string { return t.Token },
				func(t TermFrequencyRecord) uint64 { return t.TF },
			)
			if err != nil {
				return nil, err
			}
			return engine.MapPartitions(ctx, workers, summed, func(part []engine.KeyCount) ([]WordCountRecord, error) {
				out := make([]WordCountRecord, 0, len(part))
				for _, kc := range part {
					out = append(out, WordCountRecord{Token: kc.Key, Count: kc.Count})
				}
				return out, nil
			})
		},
	})

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
