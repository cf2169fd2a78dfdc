package postings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFingerprintIgnoresCaseAndSpacing(t *testing.T) {
	a := &Posting{Role: "Go Engineer", Description: "Build  payment\nservices"}
	b := &Posting{Role: " go   engineer ", Description: "build payment services", Skills: []string{"Go"}}
	c := &Posting{Role: "Go Engineer", Description: "Build billing services"}

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("expected equal fingerprints for equivalent postings")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("expected different fingerprints for different descriptions")
	}
}

func TestJobDescriptionFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		posting Posting
		expect  string
	}{
		{name: "description", posting: Posting{Role: "SRE", Description: " Keep it up "}, expect: "Keep it up"},
		{name: "role", posting: Posting{Role: "SRE"}, expect: "SRE"},
		{name: "json", posting: Posting{Experience: "2 years", Skills: []string{"Go"}}, expect: `{"role":"","experience":"2 years","skills":["Go"],"description":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.posting.JobDescription(); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExcludeAndTitles(t *testing.T) {
	p := &Postings{Items: []*Posting{
		{Role: "Go Engineer", Experience: "3 years"},
		{Role: "Java Engineer"},
		{Role: "SRE"},
	}}

	excluded := p.Exclude(func(posting *Posting) bool {
		return strings.Contains(posting.Role, "Java")
	})

	if len(excluded) != 1 || excluded[0] != "Java Engineer" {
		t.Fatalf("unexpected excluded roles: %v", excluded)
	}

	titles := p.Titles()
	if strings.Join(titles, "|") != "1. Go Engineer (3 years)|2. SRE" {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

func TestDumpToTmpFile(t *testing.T) {
	p := &Postings{Items: []*Posting{{Role: "QA", Description: "Test"}}}

	path, err := p.DumpToTmpFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var decoded Postings
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if decoded.Len() != 1 || decoded.Items[0].Role != "QA" {
		t.Fatalf("unexpected dump content: %s", data)
	}
}

func TestHistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	history, err := GetHistoryFromFile(path)
	if err != nil {
		t.Fatalf("missing file should yield empty history, got %v", err)
	}
	if len(history.Items) != 0 {
		t.Fatalf("expected empty history, got %d", len(history.Items))
	}

	first := &Postings{Items: []*Posting{{Role: "A", Description: "one"}, {Role: "B", Description: "two"}}}
	history.Append(first.ToHistory())
	if err := history.ToFile(path); err != nil {
		t.Fatalf("write history: %v", err)
	}

	// a shorter rewrite must not leave stale bytes behind
	short := &History{Items: history.Items[:1]}
	if err := short.ToFile(path); err != nil {
		t.Fatalf("rewrite history: %v", err)
	}

	loaded, err := GetHistoryFromFile(path)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	fingerprints := loaded.Fingerprints()
	if len(fingerprints) != 1 || fingerprints[0] != first.Items[0].Fingerprint() {
		t.Fatalf("unexpected fingerprints: %v", fingerprints)
	}
	if loaded.Items[0].Role != "A" || loaded.Items[0].GeneratedAt.IsZero() {
		t.Fatalf("unexpected entry: %+v", loaded.Items[0])
	}

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	empty, err := GetHistoryFromFile(path)
	if err != nil || len(empty.Items) != 0 {
		t.Fatalf("expected empty history for empty file, got %v %v", empty, err)
	}
}
