// Package engine implements the data-parallel batch core: partitioned
// datasets, two-phase keyed aggregation, broadcast and co-grouped joins,
// and a retryable dataflow graph executor. All primitives are correct
// under arbitrary input ordering and arbitrary partition assignment.
package engine

import (
	"context"
	"hash/fnv"

	"golang.org/x/sync/errgroup"
)

// Dataset is a record set split into disjoint partitions. Each partition
// is processed independently by one worker.
type Dataset[T any] struct {
	Partitions [][]T
}

// Parallelize splits records into parts contiguous chunks without any
// key affinity. Use PartitionByKey when downstream work groups by key.
func Parallelize[T any](records []T, parts int) Dataset[T] {
	if parts < 1 {
		parts = 1
	}
	out := make([][]T, parts)
	if len(records) == 0 {
		return Dataset[T]{Partitions: out}
	}
	step := (len(records) + parts - 1) / parts
	for i := 0; i < parts; i++ {
		start := i * step
		if start >= len(records) {
			break
		}
		end := start + step
		if end > len(records) {
			end = len(records)
		}
		out[i] = records[start:end]
	}
	return Dataset[T]{Partitions: out}
}

// PartitionByKey hash-partitions records so that all records sharing a
// key land in the same partition.
func PartitionByKey[T any](records []T, parts int, keyOf func(T) string) Dataset[T] {
	if parts < 1 {
		parts = 1
	}
	out := make([][]T, parts)
	for _, rec := range records {
		p := partitionForKey(keyOf(rec), parts)
		out[p] = append(out[p], rec)
	}
	return Dataset[T]{Partitions: out}
}

// Repartition shuffles a dataset by key. This is the barrier between the
// partial and final phase of every keyed aggregation.
func Repartition[T any](d Dataset[T], parts int, keyOf func(T) string) Dataset[T] {
	return PartitionByKey(d.Records(), parts, keyOf)
}

// Records flattens all partitions back into a single slice.
func (d Dataset[T]) Records() []T {
	n := 0
	for _, part := range d.Partitions {
		n += len(part)
	}
	out := make([]T, 0, n)
	for _, part := range d.Partitions {
		out = append(out, part...)
	}
	return out
}

// Len reports the total record count across partitions.
func (d Dataset[T]) Len() int {
	n := 0
	for _, part := range d.Partitions {
		n += len(part)
	}
	return n
}

func partitionForKey(key string, parts int) int {
	if parts <= 0 {
		panic("parts must be > 0")
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()&0x7fffffff) % parts
}

func errgroupWithLimit(ctx context.Context, workers int) (*errgroup.Group, context.Context) {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	return g, ctx
}

// MapPartitions applies fn to every partition, at most workers at a time.
// Output partition i is the result of input partition i, so key affinity
// established by PartitionByKey is preserved.
func MapPartitions[T, R any](ctx context.Context, workers int, d Dataset[T], fn func(part []T) ([]R, error)) (Dataset[R], error) {
	out := make([][]R, len(d.Partitions))
	g, ctx := errgroupWithLimit(ctx, workers)
	for i, part := range d.Partitions {
		i, part := i, part
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := fn(part)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset[R]{}, err
	}
	return Dataset[R]{Partitions: out}, nil
}
