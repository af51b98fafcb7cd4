package batch

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/bibassitoula/Impatient/tfidf"
)

func writeTokenFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fileFlowConfig(dir string) FlowConfig {
	return FlowConfig{
		Version: FlowVersionV1,
		Name:    "flow-test",
		Source: FlowSourceConfig{
			Type: "file",
			FileConfig: FileSourceConfig{
				Inputs: []string{filepath.Join(dir, "*.tsv")},
				Mode:   "tokens",
			},
		},
		Compute: FlowComputeConfig{Workers: 4, Partitions: 4},
		Sink: FlowSinkConfig{
			Type: "file",
			FileConfig: FileSinkConfig{
				WeightPath:    filepath.Join(dir, "out", "tfidf.tsv"),
				WordCountPath: filepath.Join(dir, "out", "wordcount.tsv"),
			},
		},
	}
}

func TestRunFlowFileToFile(t *testing.T) {
	dir := t.TempDir()
	writeTokenFile(t, dir, "tokens.tsv",
		"d1\trare\nd1\trare\nd1\trare\nd1\tcommon\n"+
			"d2\tcommon\nd3\tcommon\nd4\tcommon\n")

	cfg := fileFlowConfig(dir)
	if err := RunFlow(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(cfg.Sink.FileConfig.WeightPath)
	if err != nil {
		t.Fatal(err)
	}
	weights := map[string]float64{}
	for _, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			t.Fatalf("bad output line %q", line)
		}
		w, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			t.Fatalf("bad weight on line %q: %v", line, err)
		}
		weights[parts[0]+"/"+parts[1]] = w
	}
	if len(weights) != 5 {
		t.Fatalf("got %d weight rows, want 5: %v", len(weights), weights)
	}
	// rare: tf=3 in d1, df=1, 4 docs.
	wantRare := 3 * math.Log(4.0/2.0)
	if got := weights["rare/d1"]; math.Abs(got-wantRare) > 1e-9 {
		t.Fatalf("rare/d1 weight = %v, want %v", got, wantRare)
	}
	// common appears in all 4 docs, so ln(4/5) < 0.
	if got := weights["common/d2"]; got >= 0 {
		t.Fatalf("common/d2 weight = %v, want negative", got)
	}

	counts, err := os.ReadFile(cfg.Sink.FileConfig.WordCountPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(counts) != "common\t4\nrare\t3\n" {
		t.Fatalf("word counts: %q", counts)
	}
}

type stubRunner struct {
	res    *tfidf.Result
	called int
}

func (s *stubRunner) Run(ctx context.Context, tokens []tfidf.TokenOccurrence, params tfidf.Params) (*tfidf.Result, error) {
	s.called++
	return s.res, nil
}

func TestRunFlowUsesDefaultRunner(t *testing.T) {
	dir := t.TempDir()
	writeTokenFile(t, dir, "tokens.tsv", "d1\ta\n")

	stub := &stubRunner{res: &tfidf.Result{
		Weights:    []tfidf.TfIdfRecord{{Token: "a", DocID: "d1", Weight: 1}},
		WordCounts: []tfidf.WordCountRecord{{Token: "a", Count: 1}},
		Stats:      tfidf.Stats{InputRecords: 1, NDocs: 1},
	}}
	prev := DefaultRunner()
	SetDefaultRunner(stub)
	defer SetDefaultRunner(prev)

	if err := RunFlow(context.Background(), fileFlowConfig(dir)); err != nil {
		t.Fatal(err)
	}
	if stub.called != 1 {
		t.Fatalf("runner called %d times, want 1", stub.called)
	}
}

func TestRunFlowBenchmarkDurations(t *testing.T) {
	dir := t.TempDir()
	writeTokenFile(t, dir, "tokens.tsv", "d1\ta\nd1\tb\nd2\ta\n")

	bench, err := RunFlowBenchmark(context.Background(), fileFlowConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	if bench.TotalDuration <= 0 {
		t.Fatalf("total duration not recorded: %v", bench.TotalDuration)
	}
	if bench.Stats.NDocs != 2 {
		t.Fatalf("stats n_docs = %d, want 2", bench.Stats.NDocs)
	}
	if bench.Stats.InputRecords != 3 {
		t.Fatalf("stats input records = %d, want 3", bench.Stats.InputRecords)
	}
}

func TestRunFlowRejectsBadConfig(t *testing.T) {
	cfg := fileFlowConfig(t.TempDir())
	cfg.Version = "v0"
	if err := RunFlow(context.Background(), cfg); err == nil {
		t.Fatal("expected version error")
	}
}
