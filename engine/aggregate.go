package engine

import "context"

// KeyCount is the output row of CountByKey.
type KeyCount struct {
	Key   string
	Count uint64
}

// CountByKey counts records per key. See SumByKey for the two-phase
// mechanics.
func CountByKey[T any](ctx context.Context, workers int, d Dataset[T], keyOf func(T) string) (Dataset[KeyCount], error) {
	return SumByKey(ctx, workers, d, keyOf, func(T) uint64 { return 1 })
}

// SumByKey sums valOf per key in two phases: a partition-local partial
// sum, a repartition of the partials by key, then a final sum per key.
// Summation is commutative and associative, so the result does not
// depend on input order or partition assignment.
func SumByKey[T any](ctx context.Context, workers int, d Dataset[T], keyOf func(T) string, valOf func(T) uint64) (Dataset[KeyCount], error) {
	partials, err := MapPartitions(ctx, workers, d, func(part []T) ([]KeyCount, error) {
		counts := make(map[string]uint64)
		for _, rec := range part {
			counts[keyOf(rec)] += valOf(rec)
		}
		out := make([]KeyCount, 0, len(counts))
		for k, c := range counts {
			out = append(out, KeyCount{Key: k, Count: c})
		}
		return out, nil
	})
	if err != nil {
		return Dataset[KeyCount]{}, err
	}

	shuffled := Repartition(partials, len(d.Partitions), func(kc KeyCount) string { return kc.Key })

	return MapPartitions(ctx, workers, shuffled, func(part []KeyCount) ([]KeyCount, error) {
		totals := make(map[string]uint64)
		for _, kc := range part {
			totals[kc.Key] += kc.Count
		}
		out := make([]KeyCount, 0, len(totals))
		for k, c := range totals {
			out = append(out, KeyCount{Key: k, Count: c})
		}
		return out, nil
	})
}

// DistinctBy reduces the dataset to one record per identity key. Dedup is
// idempotent, so it also runs in two phases: local dedup shrinks each
// partition, the shuffle brings duplicates of a key together, and the
// final pass keeps one record per key.
func DistinctBy[T any](ctx context.Context, workers int, d Dataset[T], idOf func(T) string) (Dataset[T], error) {
	dedup := func(part []T) ([]T, error) {
		seen := make(map[string]struct{}, len(part))
		out := part[:0:0]
		for _, rec := range part {
			id := idOf(rec)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, rec)
		}
		return out, nil
	}

	local, err := MapPartitions(ctx, workers, d, dedup)
	if err != nil {
		return Dataset[T]{}, err
	}
	shuffled := Repartition(local, len(d.Partitions), idOf)
	return MapPartitions(ctx, workers, shuffled, dedup)
}
