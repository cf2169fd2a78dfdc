// Package signature rewrites the closing of a generated email so that it ends
// with exactly one signature naming the candidate.
package signature

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSignOff opens the signature block appended when the body has none.
const DefaultSignOff = "Best regards,"

const (
	// lookahead is the number of lines after a sign-off that may hold a signer name.
	lookahead = 3
	// maxSignerChars bounds a line treated as a signer name.
	maxSignerChars = 60
	maxSignerWords = 4
)

var (
	signOffPattern  = regexp.MustCompile(`(?i)\b(best regards|regards|sincerely|thank you|thanks)\b`)
	blankRunPattern = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
)

// Normalize returns body with a signature for name. The transformation is
// idempotent: Normalize(Normalize(b, n), n) == Normalize(b, n).
//
// When name is empty the body is only tidied. When the body already mentions
// name (case-insensitively) nothing is inserted. Otherwise the last sign-off
// phrase is located; a signer-like line among the next three lines is
// replaced with name, or name is placed on the line right after the sign-off.
// Bodies without a sign-off get a "Best regards," block.
//
// Only the first signer-like line is replaced, so a title line below a
// signer's name is kept as is.
func Normalize(body, name string) string {
	return NormalizeWithTitle(body, name, "")
}

// NormalizeWithTitle is Normalize that also places title on the line after
// name whenever name is written into the body.
func NormalizeWithTitle(body, name, title string) string {
	name = strings.TrimSpace(name)
	title = strings.TrimSpace(title)

	signer := name
	if name != "" && title != "" {
		signer = name + "\n" + title
	}

	if strings.TrimSpace(body) == "" {
		if name == "" {
			return ""
		}
		return DefaultSignOff + "\n" + signer
	}

	text := tidy(body)
	if name == "" {
		return text
	}

	if strings.Contains(strings.ToLower(text), strings.ToLower(name)) {
		return text
	}

	lines := strings.Split(text, "\n")
	at := lastSignOffLine(text)
	if at < 0 {
		return tidy(text + "\n\n" + DefaultSignOff + "\n" + signer)
	}

	for i := at + 1; i < len(lines) && i <= at+lookahead; i++ {
		if !IsSignerLike(lines[i]) {
			continue
		}
		lines[i] = name
		if title != "" && !(i+1 < len(lines) && strings.EqualFold(strings.TrimSpace(lines[i+1]), title)) {
			lines[i] = signer
		}
		return tidy(strings.Join(lines, "\n"))
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at+1]...)
	out = append(out, signer)
	out = append(out, lines[at+1:]...)

	return tidy(strings.Join(out, "\n"))
}

// IsSignerLike reports whether a line after a sign-off looks like a signer
// name: at most 60 characters, one to four words and at least half of the
// words capitalized. Leading punctuation is ignored, so "[Your Name]" and
// "Jordan Smith, PhD" qualify.
func IsSignerLike(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || utf8.RuneCountInString(line) > maxSignerChars {
		return false
	}

	words := strings.Fields(line)
	if len(words) > maxSignerWords {
		return false
	}

	capitalized := 0
	for _, word := range words {
		word = strings.TrimLeftFunc(word, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if r, _ := utf8.DecodeRuneInString(word); unicode.IsUpper(r) {
			capitalized++
		}
	}

	return capitalized*2 >= len(words)
}

// lastSignOffLine returns the index of the line holding the last sign-off
// phrase in text, or -1.
func lastSignOffLine(text string) int {
	matches := signOffPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return -1
	}
	start := matches[len(matches)-1][0]
	return strings.Count(text[:start], "\n")
}

func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
