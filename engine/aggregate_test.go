package engine

import (
	"context"
	"testing"
)

func countsOf(t *testing.T, d Dataset[KeyCount]) map[string]uint64 {
	t.Helper()
	out := make(map[string]uint64)
	for _, kc := range d.Records() {
		if _, dup := out[kc.Key]; dup {
			t.Fatalf("key %q appears in more than one final group", kc.Key)
		}
		out[kc.Key] = kc.Count
	}
	return out
}

func TestCountByKeyExact(t *testing.T) {
	recs := []string{"a", "b", "a", "c", "a", "b"}
	for _, parts := range []int{1, 2, 5} {
		d := Parallelize(recs, parts)
		counted, err := CountByKey(context.Background(), 4, d, func(s string) string { return s })
		if err != nil {
			t.Fatal(err)
		}
		got := countsOf(t, counted)
		want := map[string]uint64{"a": 3, "b": 2, "c": 1}
		if len(got) != len(want) {
			t.Fatalf("parts=%d: got %v, want %v", parts, got, want)
		}
		for k, v := range want {
			if got[k] != v {
				t.Fatalf("parts=%d: count[%s]=%d, want %d", parts, k, got[k], v)
			}
		}
	}
}

func TestSumByKey(t *testing.T) {
	type row struct {
		key string
		val uint64
	}
	recs := []row{{"x", 2}, {"y", 1}, {"x", 5}, {"y", 10}}
	d := Parallelize(recs, 3)
	summed, err := SumByKey(context.Background(), 2, d,
		func(r row) string { return r.key },
		func(r row) uint64 { return r.val },
	)
	if err != nil {
		t.Fatal(err)
	}
	got := countsOf(t, summed)
	if got["x"] != 7 || got["y"] != 11 {
		t.Fatalf("got %v", got)
	}
}

func TestDistinctBy(t *testing.T) {
	recs := []string{"a", "a", "b", "a", "c", "b"}
	for _, parts := range []int{1, 3} {
		d := Parallelize(recs, parts)
		distinct, err := DistinctBy(context.Background(), 2, d, func(s string) string { return s })
		if err != nil {
			t.Fatal(err)
		}
		if distinct.Len() != 3 {
			t.Fatalf("parts=%d: got %d distinct, want 3", parts, distinct.Len())
		}
	}
}

func TestCountByKeyEmptyInput(t *testing.T) {
	d := Parallelize([]string{}, 4)
	counted, err := CountByKey(context.Background(), 2, d, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}
	if counted.Len() != 0 {
		t.Fatalf("expected empty result, got %d records", counted.Len())
	}
}
