package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
)

func TestJoinStrategyString(t *testing.T) {
	if JoinBroadcast.String() != "broadcast" || JoinShuffle.String() != "shuffle" {
		t.Fatalf("unexpected strategy names: %s, %s", JoinBroadcast, JoinShuffle)
	}
}

func TestBroadcastJoinKeepsCardinalityAndPartitioning(t *testing.T) {
	left := PartitionByKey([]string{"a", "b", "c", "d"}, 3, func(s string) string { return s })
	out, err := BroadcastJoin(context.Background(), 2, left, 42, func(l string, r int) string {
		return l
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != left.Len() {
		t.Fatalf("cardinality changed: %d != %d", out.Len(), left.Len())
	}
	for i := range left.Partitions {
		if len(out.Partitions[i]) != len(left.Partitions[i]) {
			t.Fatalf("partition %d reshuffled", i)
		}
	}
}

func TestShuffleJoinInner(t *testing.T) {
	type pair struct{ k, v string }
	left := Parallelize([]pair{{"a", "l1"}, {"b", "l2"}, {"a", "l3"}, {"z", "l4"}}, 2)
	right := Parallelize([]pair{{"a", "r1"}, {"b", "r2"}, {"c", "r3"}}, 3)

	var misses atomic.Uint64
	out, err := ShuffleJoin(context.Background(), 4, 4, left, right,
		func(p pair) string { return p.k },
		func(p pair) string { return p.k },
		func(l, r pair) string { return l.v + "+" + r.v },
		func(pair) { misses.Add(1) },
	)
	if err != nil {
		t.Fatal(err)
	}
	got := out.Records()
	if len(got) != 3 {
		t.Fatalf("got %d joined records, want 3: %v", len(got), got)
	}
	if misses.Load() != 1 {
		t.Fatalf("got %d misses, want 1", misses.Load())
	}
	joined := strings.Join(got, " ")
	for _, want := range []string{"l1+r1", "l3+r1", "l2+r2"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %q", want, joined)
		}
	}
}

func TestShuffleJoinDuplicateRightKey(t *testing.T) {
	type pair struct{ k, v string }
	left := Parallelize([]pair{{"a", "l1"}}, 1)
	right := Parallelize([]pair{{"a", "r1"}, {"a", "r2"}}, 1)
	_, err := ShuffleJoin(context.Background(), 1, 1, left, right,
		func(p pair) string { return p.k },
		func(p pair) string { return p.k },
		func(l, r pair) string { return l.v },
		nil,
	)
	if err == nil {
		t.Fatal("expected duplicate right-hand key error")
	}
}
