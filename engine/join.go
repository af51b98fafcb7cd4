package engine

import (
	"context"
	"fmt"
)

// JoinStrategy selects how a keyed join moves data. The choice is made
// by the caller from known or estimated cardinality, never inferred.
type JoinStrategy int

const (
	// JoinBroadcast replicates the right-hand side to every partition of
	// the left. Only valid when the right side has bounded, small
	// cardinality; the left side is not shuffled at all.
	JoinBroadcast JoinStrategy = iota
	// JoinShuffle repartitions both sides by join key so all records
	// sharing a key land on the same worker before matching.
	JoinShuffle
)

func (s JoinStrategy) String() string {
	switch s {
	case JoinBroadcast:
		return "broadcast"
	case JoinShuffle:
		return "shuffle"
	default:
		return fmt.Sprintf("JoinStrategy(%d)", int(s))
	}
}

// BroadcastJoin attaches the single right-hand value to every left-hand
// record. The left side keeps its partitioning.
func BroadcastJoin[L, R, O any](ctx context.Context, workers int, left Dataset[L], right R, combine func(L, R) O) (Dataset[O], error) {
	return MapPartitions(ctx, workers, left, func(part []L) ([]O, error) {
		out := make([]O, 0, len(part))
		for _, l := range part {
			out = append(out, combine(l, right))
		}
		return out, nil
	})
}

// ShuffleJoin co-partitions both sides by key and inner-joins them. The
// right side must hold at most one record per key; a duplicate right key
// fails the join. Left records without a right match are dropped and
// reported through onMiss, which may be called concurrently from several
// workers and may be nil. Output cardinality is one record per matched
// left record.
func ShuffleJoin[L, R, O any](
	ctx context.Context,
	workers, parts int,
	left Dataset[L],
	right Dataset[R],
	leftKey func(L) string,
	rightKey func(R) string,
	combine func(L, R) O,
	onMiss func(L),
) (Dataset[O], error) {
	if parts < 1 {
		parts = 1
	}
	ls := Repartition(left, parts, leftKey)
	rs := Repartition(right, parts, rightKey)

	joined := make([][]O, parts)
	group, ctx := errgroupWithLimit(ctx, workers)
	for p := 0; p < parts; p++ {
		p := p
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			byKey := make(map[string]R, len(rs.Partitions[p]))
			for _, r := range rs.Partitions[p] {
				k := rightKey(r)
				if _, dup := byKey[k]; dup {
					return fmt.Errorf("duplicate right-hand join key %q", k)
				}
				byKey[k] = r
			}
			out := make([]O, 0, len(ls.Partitions[p]))
			for _, l := range ls.Partitions[p] {
				r, ok := byKey[leftKey(l)]
				if !ok {
					if onMiss != nil {
						onMiss(l)
					}
					continue
				}
				out = append(out, combine(l, r))
			}
			joined[p] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Dataset[O]{}, err
	}
	return Dataset[O]{Partitions: joined}, nil
}
