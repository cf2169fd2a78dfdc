// Package identity finds the candidate's personal name in free-form resume
// text.
//
// Detection is heuristic. Section headers that look like names and unusual
// layouts that hide the name are known accuracy bounds: an empty result means
// "unknown" and is never an error.
package identity

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxNameRunes = 60
	maxNameWords = 4
	headerScan   = 6
	labelScan    = 50
)

// labelPattern matches "Name: Jordan Price", "Full name - Jordan Price" or
// "NAME Jordan Price". Only the captured phrase is subject to IsNameLike.
var labelPattern = regexp.MustCompile(`\b(?i:name)(?:\s*[:\-]\s*|\s+)([A-Z][A-Za-z'.\- ]{0,59})`)

// headerWords never appear in a personal name but often head a resume section
// or a job title line.
var headerWords = map[string]struct{}{
	"summary":        {},
	"professional":   {},
	"experience":     {},
	"education":      {},
	"skills":         {},
	"objective":      {},
	"profile":        {},
	"contact":        {},
	"resume":         {},
	"curriculum":     {},
	"vitae":          {},
	"projects":       {},
	"certifications": {},
	"achievements":   {},
	"references":     {},
	"languages":      {},
	"interests":      {},
	"employment":     {},
	"history":        {},
	"about":          {},
	"engineer":       {},
	"developer":      {},
	"manager":        {},
	"analyst":        {},
	"designer":       {},
	"scientist":      {},
	"consultant":     {},
	"intern":         {},
}

// ExtractName returns the first name-like line among the first few non-empty
// lines of resume, then falls back to an explicit "Name:" label. ok is false
// when nothing qualifies.
func ExtractName(resume string) (name string, ok bool) {
	lines := nonEmptyLines(resume, labelScan)

	for i, line := range lines {
		if i == headerScan {
			break
		}
		if IsNameLike(line) {
			return strings.TrimSpace(line), true
		}
	}

	for _, line := range lines {
		match := labelPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		candidate := strings.TrimSpace(match[1])
		if IsNameLike(candidate) {
			return candidate, true
		}
	}

	return "", false
}

// IsNameLike reports whether line could plausibly be a person's name: at most
// 60 characters, one to four words, at least half of them (minimum one)
// carrying an uppercase letter, and made only of letters, apostrophes,
// hyphens, periods and spaces. A single all-caps word and lines containing
// common resume section or job title words are rejected.
func IsNameLike(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len([]rune(line)) > maxNameRunes {
		return false
	}

	for _, r := range line {
		switch {
		case unicode.IsLetter(r), unicode.IsSpace(r):
		case r == '\'', r == '-', r == '.', r == '’':
		default:
			return false
		}
	}

	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxNameWords {
		return false
	}

	capitalized := 0
	for _, word := range words {
		if _, header := headerWords[strings.ToLower(strings.Trim(word, ".-'"))]; header {
			return false
		}
		if hasUpper(word) {
			capitalized++
		}
	}

	if len(words) == 1 && isAllCaps(words[0]) {
		return false
	}

	need := len(words) / 2
	if need < 1 {
		need = 1
	}

	return capitalized >= need
}

func nonEmptyLines(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == limit {
			break
		}
	}
	return lines
}

func hasUpper(word string) bool {
	for _, r := range word {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func isAllCaps(word string) bool {
	letters := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters > 1
}
