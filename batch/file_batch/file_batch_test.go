package file_batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bibassitoula/Impatient/tfidf"
)

func TestExportTokensTSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.tsv")
	content := "doc1\ta\ndoc1\tb\n\ndoc2\tc\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ExportTokens(SourceConfig{Inputs: []string{filepath.Join(dir, "*.tsv")}})
	if err != nil {
		t.Fatal(err)
	}
	// Blank lines are skipped, unsplittable lines become zero records
	// for the pipeline's malformed accounting.
	if len(got) != 4 {
		t.Fatalf("got %d records: %v", len(got), got)
	}
	if got[0] != (tfidf.TokenOccurrence{DocID: "doc1", Token: "a"}) {
		t.Fatalf("got %v", got[0])
	}
	if got[3].Valid() {
		t.Fatalf("broken line decoded as valid: %v", got[3])
	}
}

func TestExportTokensNoMatches(t *testing.T) {
	if _, err := ExportTokens(SourceConfig{Inputs: []string{filepath.Join(t.TempDir(), "*.tsv")}}); err == nil {
		t.Fatal("expected error for empty glob")
	}
}

func TestExportTokensDocsMode(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doc1.txt"), []byte("Impatient rains in Spain"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ExportTokens(SourceConfig{
		Inputs: []string{filepath.Join(dir, "*.txt")},
		Mode:   ModeDocs,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("no tokens from docs mode")
	}
	for _, rec := range got {
		if rec.DocID != "doc1.txt" {
			t.Fatalf("doc id %q, want doc1.txt", rec.DocID)
		}
		if rec.Token == "in" {
			t.Fatal("stop word survived docs mode")
		}
	}
}

func TestImportResultSortedOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := SinkConfig{
		WeightPath:    filepath.Join(dir, "tfidf.tsv"),
		WordCountPath: filepath.Join(dir, "wc.tsv"),
	}
	res := &tfidf.Result{
		Weights: []tfidf.TfIdfRecord{
			{Token: "b", DocID: "doc1", Weight: 1.5},
			{Token: "a", DocID: "doc2", Weight: -0.25},
			{Token: "a", DocID: "doc1", Weight: 0},
		},
		WordCounts: []tfidf.WordCountRecord{
			{Token: "b", Count: 2},
			{Token: "a", Count: 3},
		},
	}
	if err := ImportResult(cfg, res); err != nil {
		t.Fatal(err)
	}

	weights, err := os.ReadFile(cfg.WeightPath)
	if err != nil {
		t.Fatal(err)
	}
	wantWeights := "a\tdoc1\t0\na\tdoc2\t-0.25\nb\tdoc1\t1.5\n"
	if string(weights) != wantWeights {
		t.Fatalf("weights file:\n%q\nwant:\n%q", weights, wantWeights)
	}

	counts, err := os.ReadFile(cfg.WordCountPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(counts) != "a\t3\nb\t2\n" {
		t.Fatalf("word count file: %q", counts)
	}

	// Re-import must reproduce the same bytes.
	if err := ImportResult(cfg, res); err != nil {
		t.Fatal(err)
	}
	again, err := os.ReadFile(cfg.WeightPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != wantWeights {
		t.Fatalf("re-import changed output: %q", again)
	}
}
