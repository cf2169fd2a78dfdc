package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/coldmail/internal/fetch"
	"github.com/spigell/coldmail/internal/loader"
	"github.com/spigell/coldmail/internal/utils"
)

const resumePreviewChars = 800

func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().String("job-text", "", "job posting text")
	cmd.Flags().String("job-file", "", "job posting file (txt, md, pdf or docx), - reads stdin")
	cmd.Flags().String("job-url", "", "job posting page to fetch")
}

// readJobText returns the job text from the one job source given on the command line.
func readJobText(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (string, error) {
	text, _ := cmd.Flags().GetString("job-text")
	file, _ := cmd.Flags().GetString("job-file")
	url, _ := cmd.Flags().GetString("job-url")

	set := 0
	for _, v := range []string{text, file, url} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	switch {
	case set == 0:
		return "", errors.New("a job source is required: --job-text, --job-file or --job-url")
	case set > 1:
		return "", errors.New("only one of --job-text, --job-file and --job-url can be used")
	}

	switch {
	case strings.TrimSpace(text) != "":
		return text, nil
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading job text from stdin: %w", err)
		}
		return string(data), nil
	case strings.TrimSpace(file) != "":
		return loader.LoadFile(file)
	default:
		fetcher := fetch.New(fetch.Options{
			Timeout:   config.Fetch.Timeout,
			UserAgent: config.Fetch.UserAgent,
			Browser:   config.Fetch.Browser,
		}, logger)
		return fetcher.JobText(ctx, url)
	}
}

func readResume(config *Config, logger *zap.Logger) (string, error) {
	path := strings.TrimSpace(config.Resume)
	if path == "" {
		return "", errors.New("resume file is required")
	}

	resume, err := loader.LoadFile(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resume) == "" {
		return "", fmt.Errorf("resume %s contains no text", path)
	}

	logger.Debug("resume loaded",
		zap.String("path", path),
		zap.Int("length", len(resume)),
		zap.String("preview", utils.TruncateForLog(resume, resumePreviewChars)),
	)

	return resume, nil
}
