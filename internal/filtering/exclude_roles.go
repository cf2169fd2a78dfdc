package filtering

import (
	"context"
	"strings"

	"github.com/spigell/coldmail/internal/postings"
	"go.uber.org/zap"
)

type excludeRolesFilter struct {
	disabled bool
	reason   string
	patterns []string
}

// NewExcludeRoles creates a filter that removes postings whose role contains
// any configured substring, ignoring case.
func NewExcludeRoles() Filter {
	return &excludeRolesFilter{}
}

func (f *excludeRolesFilter) Name() string { return "exclude_roles" }

func (f *excludeRolesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeRolesFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeRolesFilter) Validate(cfg *Config) error {
	f.patterns = nil
	if cfg == nil {
		return nil
	}
	for _, pattern := range cfg.ExcludeRoles {
		if pattern = strings.ToLower(strings.TrimSpace(pattern)); pattern != "" {
			f.patterns = append(f.patterns, pattern)
		}
	}
	return nil
}

func (f *excludeRolesFilter) Apply(_ context.Context, deps Deps, p *postings.Postings) (*postings.Postings, Step, error) {
	initial := p.Len()
	if len(f.patterns) == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded := p.Exclude(func(posting *postings.Posting) bool {
		role := strings.ToLower(posting.Role)
		for _, pattern := range f.patterns {
			if strings.Contains(role, pattern) {
				return true
			}
		}
		return false
	})

	if len(excluded) > 0 {
		deps.Logger.Info("excluding postings by role",
			zap.Strings("excluded_roles", f.patterns),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *excludeRolesFilter) Status() Status {
	details := map[string]string{}
	if len(f.patterns) > 0 {
		details["roles"] = strings.Join(f.patterns, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
