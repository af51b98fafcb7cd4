package tokenize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokensScrubAndFilter(t *testing.T) {
	f := NewFilter()
	got := f.Tokens("doc1", "The RAIN, in Spain; falls mainly-on the plain!")
	want := []string{"rain", "spain", "falls", "mainly", "plain"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want tokens %v", got, want)
	}
	for i, rec := range got {
		if rec.Token != want[i] {
			t.Fatalf("token %d: got %q, want %q", i, rec.Token, want[i])
		}
		if rec.DocID != "doc1" {
			t.Fatalf("token %d carries doc %q", i, rec.DocID)
		}
	}
}

func TestTokensKeepDuplicates(t *testing.T) {
	f := NewFilter()
	got := f.Tokens("d", "cat dog cat")
	if len(got) != 3 {
		t.Fatalf("duplicates must survive tokenisation, got %v", got)
	}
}

func TestTokensKeepDigits(t *testing.T) {
	f := NewFilter()
	got := f.Tokens("d", "route 66")
	if len(got) != 2 || got[1].Token != "66" {
		t.Fatalf("got %v", got)
	}
}

func TestNewFilterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	content := "# comment line\nfoo\nBar\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewFilterFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := f.Tokens("d", "foo bar baz the")
	// Only the file's words are stopped; "the" is not in this list.
	if len(got) != 2 || got[0].Token != "baz" || got[1].Token != "the" {
		t.Fatalf("got %v", got)
	}
}

func TestNewFilterFromMissingFile(t *testing.T) {
	if _, err := NewFilterFromFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing stop-word file")
	}
}
