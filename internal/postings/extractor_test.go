package postings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/coldmail/internal/ai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubCompleter struct {
	output  string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.output, s.err
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		expect []Posting
	}{
		{
			name:   "array",
			output: `[{"role": "Backend Engineer", "experience": "3+ years", "skills": ["Go", "SQL"], "description": "Build APIs."}, {"role": "SRE", "skills": [], "description": "Run Kubernetes."}]`,
			expect: []Posting{
				{Role: "Backend Engineer", Experience: "3+ years", Skills: []string{"Go", "SQL"}, Description: "Build APIs."},
				{Role: "SRE", Skills: []string{}, Description: "Run Kubernetes."},
			},
		},
		{
			name:   "single object is wrapped",
			output: `{"role": "Backend Engineer", "skills": ["Go","SQL"], "description": "..."}`,
			expect: []Posting{
				{Role: "Backend Engineer", Skills: []string{"Go", "SQL"}, Description: "..."},
			},
		},
		{
			name:   "markdown fence",
			output: "```json\n[{\"role\": \"Data Engineer\", \"description\": \"Pipelines\"}]\n```",
			expect: []Posting{
				{Role: "Data Engineer", Skills: []string{}, Description: "Pipelines"},
			},
		},
		{
			name:   "wrapper object",
			output: `{"jobs": [{"role": "QA", "description": "Test things"}]}`,
			expect: []Posting{
				{Role: "QA", Skills: []string{}, Description: "Test things"},
			},
		},
		{
			name:   "prose around json with trailing comma",
			output: "Sure! Here are the postings:\n[{\"role\": \"ML Engineer\", \"description\": \"Train models\",},]\nLet me know if you need more.",
			expect: []Posting{
				{Role: "ML Engineer", Skills: []string{}, Description: "Train models"},
			},
		},
		{
			name:   "raw newline inside string",
			output: "[{\"role\": \"Go Developer\", \"description\": \"Line one\nLine two\"}]",
			expect: []Posting{
				{Role: "Go Developer", Skills: []string{}, Description: "Line one\nLine two"},
			},
		},
		{
			name:   "single quoted keys",
			output: `[{'role': 'Platform Engineer', 'skills': ['Terraform'], 'description': 'Own the cloud'}]`,
			expect: []Posting{
				{Role: "Platform Engineer", Skills: []string{"Terraform"}, Description: "Own the cloud"},
			},
		},
		{
			name:   "loose field types are normalized",
			output: `[{"Role": " Frontend Dev ", "experience": 5, "skills": "React, TypeScript, react", "description": "UI work"}]`,
			expect: []Posting{
				{Role: "Frontend Dev", Experience: "5", Skills: []string{"React", "TypeScript"}, Description: "UI work"},
			},
		},
		{
			name:   "records without role or description are dropped",
			output: `[{"role": "", "description": "x"}, {"role": "Kept", "description": "y"}, {"role": "No description"}, "garbage"]`,
			expect: []Posting{
				{Role: "Kept", Skills: []string{}, Description: "y"},
			},
		},
		{
			name:   "empty array is valid",
			output: `[]`,
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			completer := &stubCompleter{output: tt.output}
			extractor := NewExtractor(completer, ExtractorOptions{}, zap.NewNop())

			got, err := extractor.Extract(context.Background(), "We are hiring engineers.")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Len() != len(tt.expect) {
				t.Fatalf("expected %d postings, got %d: %+v", len(tt.expect), got.Len(), got.Items)
			}
			for i, want := range tt.expect {
				assertPosting(t, want, *got.Items[i])
			}
		})
	}
}

func assertPosting(t *testing.T, want, got Posting) {
	t.Helper()

	if got.Role != want.Role || got.Experience != want.Experience || got.Description != want.Description {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if strings.Join(got.Skills, "|") != strings.Join(want.Skills, "|") {
		t.Fatalf("expected skills %v, got %v", want.Skills, got.Skills)
	}
}

func TestExtractParseFailure(t *testing.T) {
	t.Parallel()

	raw := "I am sorry, I could not find any job postings in the provided text."
	extractor := NewExtractor(&stubCompleter{output: raw}, ExtractorOptions{}, nil)

	_, err := extractor.Extract(context.Background(), "careers page")

	var parseErr *ExtractionParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ExtractionParseError, got %v", err)
	}
	if parseErr.Raw != raw {
		t.Fatalf("expected raw output to be attached, got %q", parseErr.Raw)
	}
	if !strings.Contains(parseErr.Error(), "strict") || !strings.Contains(parseErr.Error(), "lenient") {
		t.Fatalf("expected both strategies in error, got %q", parseErr.Error())
	}
}

func TestExtractProseWithBracketsIsParseError(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"Sorry, I cannot extract postings from this text [it is not a job page].",
		"I could not find {any} job postings here.",
		"Here is what I saw: {\"company\": \"Acme\", \"open\": false}",
		"The page lists [1, 2, 3] teams.",
	} {
		extractor := NewExtractor(&stubCompleter{output: raw}, ExtractorOptions{}, nil)

		got, err := extractor.Extract(context.Background(), "careers page")
		var parseErr *ExtractionParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ExtractionParseError for %q, got postings=%v err=%v", raw, got, err)
		}
		if parseErr.Raw != raw {
			t.Fatalf("expected raw output to be attached, got %q", parseErr.Raw)
		}
	}
}

func TestExtractScalarJSONIsParseError(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(&stubCompleter{output: `"just a string"`}, ExtractorOptions{}, nil)

	_, err := extractor.Extract(context.Background(), "text")
	var parseErr *ExtractionParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ExtractionParseError, got %v", err)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "  \n\t ", "<div></div>"} {
		completer := &stubCompleter{output: "[]"}
		extractor := NewExtractor(completer, ExtractorOptions{}, nil)

		_, err := extractor.Extract(context.Background(), input)

		var inputErr *ai.UnsupportedInputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("expected UnsupportedInputError for %q, got %v", input, err)
		}
		if len(completer.prompts) != 0 {
			t.Fatalf("expected no model call for %q", input)
		}
	}
}

func TestExtractCapabilityFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("quota exhausted")
	extractor := NewExtractor(&stubCompleter{err: cause}, ExtractorOptions{}, nil)

	_, err := extractor.Extract(context.Background(), "Senior Go Engineer wanted")

	var capErr *ai.CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapabilityError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestExtractPromptIsCleanedAndBounded(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{output: "[]"}
	extractor := NewExtractor(completer, ExtractorOptions{MaxInputChars: 24}, nil)

	raw := "<h1>Senior   Engineer</h1>\nApply: https://example.com/apply\n" + strings.Repeat("tail ", 50)
	if _, err := extractor.Extract(context.Background(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := completer.prompts[0]
	if strings.Contains(prompt, "<h1>") || strings.Contains(prompt, "https://") {
		t.Fatalf("expected cleaned text in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "Senior Engineer\nApply:") {
		t.Fatalf("expected truncated page data in prompt, got %q", prompt)
	}
	if strings.Contains(prompt, "tail tail") {
		t.Fatalf("expected page data to be truncated, got %q", prompt)
	}
	if !strings.Contains(prompt, `"role"`) || !strings.Contains(prompt, "JSON") {
		t.Fatalf("expected extraction instructions in prompt")
	}
}

func TestExtractLogsSummary(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	output := `[{"role": "A", "description": "B"}, {"role": "C"}]`
	extractor := NewExtractor(&stubCompleter{output: output}, ExtractorOptions{}, zap.New(core))

	if _, err := extractor.Extract(context.Background(), "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := observed.FilterMessage("postings extracted").All()
	if len(entries) != 1 {
		t.Fatalf("expected one summary entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["postings"] != int64(1) || ctx["dropped"] != int64(1) || ctx["parser"] != "strict" {
		t.Fatalf("unexpected summary fields: %v", ctx)
	}
}
