package ranking

import (
	"regexp"
	"strings"
	"unicode"
)

const windowLines = 4

var blankLinePattern = regexp.MustCompile(`\n[ \t]*\n`)

// Segment splits resume text into paragraphs. Resumes without blank lines are
// split at heading lines, and failing that into fixed windows of lines.
func Segment(resume string) []string {
	resume = strings.ReplaceAll(resume, "\r\n", "\n")
	resume = strings.ReplaceAll(resume, "\r", "\n")

	var fragments []string
	for _, block := range blankLinePattern.Split(resume, -1) {
		if block = strings.TrimSpace(block); block != "" {
			fragments = append(fragments, block)
		}
	}
	if len(fragments) >= 2 {
		return fragments
	}

	var lines []string
	for _, line := range strings.Split(resume, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) <= windowLines {
		return fragments
	}

	if sections := splitAtHeadings(lines); len(sections) >= 2 {
		return sections
	}

	var windows []string
	for start := 0; start < len(lines); start += windowLines {
		end := min(start+windowLines, len(lines))
		windows = append(windows, strings.Join(lines[start:end], "\n"))
	}
	return windows
}

func splitAtHeadings(lines []string) []string {
	var (
		sections []string
		current  []string
	)
	for _, line := range lines {
		if isHeading(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

// isHeading matches short lines such as "EXPERIENCE" or "Skills:".
func isHeading(line string) bool {
	if len([]rune(line)) > 40 {
		return false
	}
	if strings.HasSuffix(line, ":") {
		return true
	}

	letters := 0
	for _, r := range line {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 3
}
