package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/coldmail/internal/postings"
	"go.uber.org/zap"
)

type historyFilter struct {
	disabled bool
	reason   string
	path     string
}

// NewHistory creates a filter that removes postings recorded in the history file.
func NewHistory() Filter {
	return &historyFilter{}
}

func (f *historyFilter) Name() string { return "history" }

func (f *historyFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *historyFilter) IsEnabled() bool { return !f.disabled }

func (f *historyFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.HistoryFile)
	}
	return nil
}

func (f *historyFilter) Apply(_ context.Context, deps Deps, p *postings.Postings) (*postings.Postings, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	history, err := postings.GetHistoryFromFile(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting history from file: %w", err)
	}

	known := make(map[string]struct{}, len(history.Items))
	for _, fingerprint := range history.Fingerprints() {
		known[fingerprint] = struct{}{}
	}

	removed := p.Exclude(func(posting *postings.Posting) bool {
		_, ok := known[posting.Fingerprint()]
		return ok
	})

	if len(removed) > 0 {
		deps.Logger.Info("excluding postings based on history file",
			zap.String("path", f.path),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *historyFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
