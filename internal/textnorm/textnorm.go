// Package textnorm turns scraped or pasted page content into plain text that
// is safe to place into a model prompt.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	tagPattern         = regexp.MustCompile(`<[^>]*?>`)
	urlPattern         = regexp.MustCompile(`https?://\S+`)
	inlineSpacePattern = regexp.MustCompile(`[^\S\n]+`)
)

// Clean strips markup-like tags and URLs, collapses runs of horizontal
// whitespace, drops blank lines and trims every remaining line.
// Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = tagPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " ")
	text = inlineSpacePattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// Truncate returns the first max characters of text. Characters are runes,
// so multi-byte input is never split mid-character. A negative max yields "".
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}

	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}

	return text
}
