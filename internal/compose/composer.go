// Package compose writes one personalized application email per job posting.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/identity"
	"github.com/spigell/coldmail/internal/logger"
	"github.com/spigell/coldmail/internal/postings"
	"github.com/spigell/coldmail/internal/ranking"
	"github.com/spigell/coldmail/internal/signature"
	"github.com/spigell/coldmail/internal/textnorm"
	"github.com/spigell/coldmail/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	DefaultTopK          = 5
	DefaultFallbackChars = 3000
	defaultMaxLogLength  = 200
)

// FragmentRanker selects the resume fragments most relevant to a job.
type FragmentRanker interface {
	Rank(ctx context.Context, resume, jobDescription string, topK int) ([]ranking.Fragment, error)
}

type Options struct {
	TopK int
	// FallbackChars bounds the resume excerpt used when ranking yields nothing.
	FallbackChars int
	// ApplicantName overrides the name found in the resume.
	ApplicantName string
	// ApplicantTitle is placed under the name when the signature is written.
	ApplicantTitle string
	MaxLogLength   int
}

// Draft is the outcome of one composition. Degraded is set when the model
// call failed and Body holds the fixed fallback letter; Err keeps the cause.
type Draft struct {
	Body          string
	Degraded      bool
	Err           error
	CandidateName string
	Fragments     []ranking.Fragment
}

type Composer struct {
	completer ai.Completer
	ranker    FragmentRanker
	opts      Options
	logger    *zap.Logger
}

// NewComposer builds a Composer. ranker may be nil, in which case the resume
// is always truncated instead of ranked.
func NewComposer(completer ai.Completer, ranker FragmentRanker, opts Options, log *zap.Logger) *Composer {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.FallbackChars <= 0 {
		opts.FallbackChars = DefaultFallbackChars
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	opts.ApplicantName = strings.TrimSpace(opts.ApplicantName)
	opts.ApplicantTitle = strings.TrimSpace(opts.ApplicantTitle)
	if log == nil {
		log = zap.NewNop()
	}

	return &Composer{completer: completer, ranker: ranker, opts: opts, logger: log}
}

// Compose writes an email for posting.
func (c *Composer) Compose(ctx context.Context, posting *postings.Posting, resume string) (*Draft, error) {
	if posting == nil {
		return nil, errors.New("posting is required")
	}
	return c.compose(ctx, posting.JobDescription(), posting.Role, resume)
}

// ComposeText writes an email for a job given as plain text.
func (c *Composer) ComposeText(ctx context.Context, jobText, resume string) (*Draft, error) {
	return c.compose(ctx, strings.TrimSpace(jobText), "", resume)
}

func (c *Composer) compose(ctx context.Context, jobDescription, role, resume string) (*Draft, error) {
	if strings.TrimSpace(resume) == "" {
		return nil, &ai.UnsupportedInputError{Field: "resume"}
	}
	if jobDescription == "" {
		return nil, &ai.UnsupportedInputError{Field: "job"}
	}

	log := c.logger
	if role != "" {
		log = log.With(zap.String(logger.FieldRole, role))
	}

	draft := &Draft{CandidateName: c.opts.ApplicantName}
	if draft.CandidateName == "" {
		if name, ok := identity.ExtractName(resume); ok {
			draft.CandidateName = name
		}
	}
	if draft.CandidateName == "" {
		log.Debug("candidate name not found, identity omitted from prompt")
	}

	draft.Fragments = c.rank(ctx, log, resume, jobDescription)

	prompt := buildPrompt(jobDescription, resumePoints(draft.Fragments, resume, c.opts.FallbackChars), draft.CandidateName, c.opts.ApplicantTitle)

	log.Debug("email request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.Int("fragments", len(draft.Fragments)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.opts.MaxLogLength)),
	)

	body, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		provider, _ := ai.Describe(c.completer)
		draft.Err = ai.Failure(ai.CapabilityCompletion, provider, err)
		draft.Degraded = true
		body = fallbackBody(role)
		log.Warn("email generation failed, using fallback letter", zap.Error(draft.Err))
	}

	draft.Body = signature.NormalizeWithTitle(body, draft.CandidateName, c.opts.ApplicantTitle)

	log.Debug("email composed",
		zap.Bool("degraded", draft.Degraded),
		zap.Int("body_length", utf8.RuneCountInString(draft.Body)),
	)

	return draft, nil
}

// rank returns the relevant fragments, or nil when ranking is unavailable,
// failed or found nothing. Ranking problems never fail a composition.
func (c *Composer) rank(ctx context.Context, log *zap.Logger, resume, jobDescription string) []ranking.Fragment {
	if c.ranker == nil {
		return nil
	}

	fragments, err := c.ranker.Rank(ctx, resume, jobDescription, c.opts.TopK)
	if err != nil {
		if errors.Is(err, ranking.ErrNoScorer) {
			log.Debug("ranking disabled, truncating resume")
		} else {
			log.Warn("ranking failed, truncating resume", zap.Error(err))
		}
		return nil
	}
	return fragments
}

func resumePoints(fragments []ranking.Fragment, resume string, fallbackChars int) string {
	if len(fragments) == 0 {
		return textnorm.Truncate(strings.TrimSpace(resume), fallbackChars)
	}

	texts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		texts = append(texts, fragment.Text)
	}
	return strings.Join(texts, "\n\n")
}

func identityLine(name, title string) string {
	if name == "" {
		return "You are a motivated and skilled candidate applying for the job above."
	}
	line := fmt.Sprintf("You are %s, a motivated and skilled candidate applying for the job above.", name)
	if title != "" {
		line += fmt.Sprintf(" Sign the email as %s, %s.", name, title)
	}
	return line
}

func buildPrompt(jobDescription, resumePoints, name, title string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "### JOB DESCRIPTION:\n{{JOB_DESCRIPTION}}\n\n### RESUME:\n{{RESUME_POINTS}}\n\n{{IDENTITY}}\nWrite the email body only.\n"
	}
	return strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", jobDescription,
		"{{RESUME_POINTS}}", resumePoints,
		"{{IDENTITY}}", identityLine(name, title),
	).Replace(template)
}

func fallbackBody(role string) string {
	position := "this position"
	if role = strings.TrimSpace(role); role != "" {
		position = fmt.Sprintf("the %s position", role)
	}

	return fmt.Sprintf("Dear Hiring Manager,\n\n"+
		"I am writing to express my interest in %s. My background and experience align well with the "+
		"requirements you describe, and I would welcome the opportunity to discuss how I can contribute to your team.\n\n"+
		"I look forward to hearing from you.\n\n"+
		"Best regards,", position)
}
