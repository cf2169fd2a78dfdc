// Package postings recovers structured job postings from noisy text through a
// language model and keeps the record of postings already handled.
package postings

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/go-playground/validator/v10"
	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/textnorm"
	"github.com/spigell/coldmail/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	DefaultMaxInputChars = 15000
	defaultMaxLogLength  = 200
)

type ExtractorOptions struct {
	// MaxInputChars bounds the cleaned page text placed into the prompt.
	MaxInputChars int
	MaxLogLength  int
}

// Extractor turns raw job text into postings with one completion call.
// Malformed model output is not retried.
type Extractor struct {
	completer     ai.Completer
	maxInputChars int
	maxLogLen     int
	validate      *validator.Validate
	logger        *zap.Logger
}

func NewExtractor(completer ai.Completer, opts ExtractorOptions, logger *zap.Logger) *Extractor {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		completer:     completer,
		maxInputChars: opts.MaxInputChars,
		maxLogLen:     opts.MaxLogLength,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
}

// Extract returns every posting found in raw. No postings is a valid result.
// Empty input fails with ai.UnsupportedInputError, a failed model call with
// ai.CapabilityError and unparseable output with ExtractionParseError.
func (e *Extractor) Extract(ctx context.Context, raw string) (*Postings, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ai.UnsupportedInputError{Field: "job"}
	}

	cleaned := textnorm.Clean(raw)
	if cleaned == "" {
		return nil, &ai.UnsupportedInputError{Field: "job"}
	}

	pageData := textnorm.Truncate(cleaned, e.maxInputChars)
	if len(pageData) < len(cleaned) {
		e.logger.Debug("job text truncated for extraction",
			zap.Int("cleaned_length", utf8.RuneCountInString(cleaned)),
			zap.Int("max_input_chars", e.maxInputChars),
		)
	}

	prompt := buildPrompt(pageData)

	e.logger.Debug("extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(pageData, e.maxLogLen)),
	)

	output, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		provider, _ := ai.Describe(e.completer)
		return nil, ai.Failure(ai.CapabilityCompletion, provider, err)
	}

	e.logger.Debug("extraction response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, e.maxLogLen)),
	)

	value, strategy, err := parseOutput(output)
	if err != nil {
		return nil, err
	}

	result := &Postings{}
	dropped := 0
	for i, record := range records(value) {
		posting, err := decodePosting(record)
		if err == nil {
			err = e.validate.Struct(posting)
		}
		if err != nil {
			dropped++
			e.logger.Debug("dropping extracted record", zap.Int("index", i), zap.Error(err))
			continue
		}
		result.Items = append(result.Items, posting)
	}

	e.logger.Info("postings extracted",
		zap.String("parser", strategy),
		zap.Int("postings", result.Len()),
		zap.Int("dropped", dropped),
	)

	return result, nil
}

func buildPrompt(pageData string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "### TEXT:\n{{PAGE_DATA}}\n\n### Return the job postings as a JSON array with keys role, experience, skills, description.\n### JSON:"
	}
	return strings.ReplaceAll(template, "{{PAGE_DATA}}", pageData)
}
