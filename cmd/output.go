package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/coldmail/internal/pipeline"
	"github.com/spigell/coldmail/internal/utils"
)

const slugLimit = 48

// emailWriter prints emails and, with a directory set, stores each one as a
// markdown file. Numbering continues across calls.
type emailWriter struct {
	out   io.Writer
	dir   string
	count int
}

func (w *emailWriter) Write(results []pipeline.Result) ([]string, error) {
	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}

	var files []string
	for _, r := range results {
		w.count++
		role := strings.TrimSpace(r.Posting.Role)
		if role == "" {
			role = "Unknown role"
		}

		if _, err := fmt.Fprintf(w.out, "=== Email for job #%d: %s ===\n\n%s\n\n", w.count, role, r.Draft.Body); err != nil {
			return files, err
		}

		if w.dir == "" {
			continue
		}

		slug := utils.Slug(role, slugLimit)
		if slug == "" {
			slug = "email"
		}
		path := filepath.Join(w.dir, fmt.Sprintf("%02d-%s.md", w.count, slug))
		if err := os.WriteFile(path, []byte(r.Draft.Body+"\n"), 0o644); err != nil {
			return files, fmt.Errorf("writing %s: %w", path, err)
		}
		files = append(files, path)
	}

	return files, nil
}
