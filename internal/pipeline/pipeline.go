// Package pipeline wires extraction, filtering and composition into one run.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/coldmail/internal/compose"
	"github.com/spigell/coldmail/internal/filtering"
	"github.com/spigell/coldmail/internal/logger"
	"github.com/spigell/coldmail/internal/postings"
)

const DefaultConcurrency = 4

type PostingExtractor interface {
	Extract(ctx context.Context, raw string) (*postings.Postings, error)
}

type EmailComposer interface {
	Compose(ctx context.Context, posting *postings.Posting, resume string) (*compose.Draft, error)
}

type Options struct {
	// Concurrency bounds parallel compositions.
	Concurrency int
	Filters     []filtering.Filter
	Filter      filtering.Config
}

// Result pairs a posting with the email written for it.
type Result struct {
	Posting *postings.Posting
	Draft   *compose.Draft
}

type Pipeline struct {
	extractor PostingExtractor
	composer  EmailComposer
	opts      Options
	logger    *zap.Logger
}

func New(extractor PostingExtractor, composer EmailComposer, opts Options, log *zap.Logger) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{extractor: extractor, composer: composer, opts: opts, logger: log}
}

// Extract turns jobText into postings and runs them through the filter chain.
func (p *Pipeline) Extract(ctx context.Context, jobText string) (*postings.Postings, error) {
	found, err := p.extractor.Extract(ctx, jobText)
	if err != nil {
		return nil, fmt.Errorf("extracting postings: %w", err)
	}

	if len(p.opts.Filters) == 0 || found.Len() == 0 {
		return found, nil
	}

	cfg := p.opts.Filter
	left, err := filtering.Run(ctx, &cfg, filtering.Deps{Logger: p.logger}, p.opts.Filters, found)
	if err != nil {
		return nil, fmt.Errorf("filtering postings: %w", err)
	}

	return left, nil
}

// ComposeAll writes one email per posting in parallel. Results keep the order
// of found.Items.
func (p *Pipeline) ComposeAll(ctx context.Context, found *postings.Postings, resume string) ([]Result, error) {
	if found.Len() == 0 {
		return nil, nil
	}

	results := make([]Result, len(found.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, posting := range found.Items {
		g.Go(func() error {
			draft, err := p.composer.Compose(gctx, posting, resume)
			if err != nil {
				return fmt.Errorf("composing email for %q: %w", posting.Role, err)
			}
			if draft.Degraded {
				p.logger.Warn("fallback email written",
					zap.String(logger.FieldRole, posting.Role),
					zap.Error(draft.Err),
				)
			}
			results[i] = Result{Posting: posting, Draft: draft}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Info("emails composed", zap.Int("emails", len(results)), zap.Int("degraded", Degraded(results)))
	return results, nil
}

// Run extracts postings from jobText and writes an email for each one left.
func (p *Pipeline) Run(ctx context.Context, jobText, resume string) ([]Result, error) {
	if strings.TrimSpace(resume) == "" {
		return nil, fmt.Errorf("resume is empty")
	}

	found, err := p.Extract(ctx, jobText)
	if err != nil {
		return nil, err
	}
	if found.Len() == 0 {
		p.logger.Info("no postings left to write emails for")
		return nil, nil
	}

	return p.ComposeAll(ctx, found, resume)
}

// Degraded counts results holding a fallback email.
func Degraded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Draft != nil && r.Draft.Degraded {
			n++
		}
	}
	return n
}

// RecordHistory appends the postings of results to the history file at path.
// Fallback emails are not recorded so a later run retries them.
func RecordHistory(path string, results []Result) error {
	path = strings.TrimSpace(path)
	if path == "" || len(results) == 0 {
		return nil
	}

	history, err := postings.GetHistoryFromFile(path)
	if err != nil {
		return fmt.Errorf("reading history file: %w", err)
	}

	written := &postings.Postings{}
	for _, r := range results {
		if r.Draft != nil && r.Draft.Degraded {
			continue
		}
		written.Items = append(written.Items, r.Posting)
	}
	if written.Len() == 0 {
		return nil
	}
	history.Append(written.ToHistory())

	if err := history.ToFile(path); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return nil
}
