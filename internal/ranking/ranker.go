// Package ranking scores resume fragments against a job description and keeps
// the most relevant ones.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/spigell/coldmail/internal/textnorm"
	"go.uber.org/zap"
)

const DefaultMaxFragmentChars = 900

const ellipsis = "..."

// ErrNoScorer is returned by Rank when no similarity capability is configured.
var ErrNoScorer = errors.New("no similarity scorer configured")

// Fragment is a resume segment with its relevance to one job description.
// Scores are comparable only within a single Rank call.
type Fragment struct {
	Text  string
	Score float64
}

// Scorer rates every fragment against query. The result holds one score per
// fragment, in input order.
type Scorer interface {
	Score(ctx context.Context, fragments []string, query string) ([]float64, error)
}

type Options struct {
	MaxFragmentChars int
}

type Ranker struct {
	scorer           Scorer
	maxFragmentChars int
	logger           *zap.Logger
}

func NewRanker(scorer Scorer, opts Options, logger *zap.Logger) *Ranker {
	if opts.MaxFragmentChars <= 0 {
		opts.MaxFragmentChars = DefaultMaxFragmentChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{scorer: scorer, maxFragmentChars: opts.MaxFragmentChars, logger: logger}
}

// Rank returns at most topK fragments of resume ordered by descending score.
// Equal scores keep document order, so identical inputs give identical output.
func (r *Ranker) Rank(ctx context.Context, resume, jobDescription string, topK int) ([]Fragment, error) {
	if r == nil || r.scorer == nil {
		return nil, ErrNoScorer
	}
	if topK <= 0 {
		return nil, nil
	}

	texts := Segment(resume)
	if len(texts) == 0 {
		return nil, nil
	}

	scores, err := r.scorer.Score(ctx, texts, jobDescription)
	if err != nil {
		return nil, fmt.Errorf("score fragments: %w", err)
	}
	if len(scores) != len(texts) {
		return nil, fmt.Errorf("scorer returned %d scores for %d fragments", len(scores), len(texts))
	}

	fragments := make([]Fragment, len(texts))
	for i, text := range texts {
		score := scores[i]
		if math.IsNaN(score) {
			score = 0
		}
		fragments[i] = Fragment{Text: text, Score: score}
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Score > fragments[j].Score
	})

	if len(fragments) > topK {
		fragments = fragments[:topK]
	}
	for i := range fragments {
		fragments[i].Text = capText(fragments[i].Text, r.maxFragmentChars)
	}

	r.logger.Debug("resume fragments ranked",
		zap.Int("fragments", len(texts)),
		zap.Int("selected", len(fragments)),
		zap.Float64("top_score", fragments[0].Score),
	)

	return fragments, nil
}

func capText(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return textnorm.Truncate(text, max) + ellipsis
}
