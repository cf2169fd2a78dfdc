package filtering

import (
	"context"

	"github.com/spigell/coldmail/internal/postings"
	"go.uber.org/zap"
)

type duplicatesFilter struct {
	disabled bool
	reason   string
}

// NewDuplicates creates a filter that keeps the first of postings sharing a fingerprint.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *duplicatesFilter) IsEnabled() bool { return !f.disabled }

func (f *duplicatesFilter) Validate(*Config) error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, deps Deps, p *postings.Postings) (*postings.Postings, Step, error) {
	initial := p.Len()

	seen := make(map[string]struct{}, initial)
	excluded := p.Exclude(func(posting *postings.Posting) bool {
		fingerprint := posting.Fingerprint()
		if _, ok := seen[fingerprint]; ok {
			return true
		}
		seen[fingerprint] = struct{}{}
		return false
	})

	if len(excluded) > 0 {
		deps.Logger.Info("excluding duplicated postings",
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *duplicatesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
