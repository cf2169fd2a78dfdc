package signature

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		signer string
		expect string
	}{
		{
			name:   "empty body with name",
			body:   "  \n ",
			signer: "Jordan Price",
			expect: "Best regards,\nJordan Price",
		},
		{
			name:   "empty body without name",
			body:   "",
			signer: "",
			expect: "",
		},
		{
			name:   "name already present only tidies",
			body:   "Hello,\n\n\n\nI am applying.\n\nBest regards,\njordan price\n",
			signer: "Jordan Price",
			expect: "Hello,\n\nI am applying.\n\nBest regards,\njordan price",
		},
		{
			name:   "replaces placeholder signer after sign-off",
			body:   "I look forward to hearing from you.\n\nBest regards,\nJohn Smith",
			signer: "Jordan Price",
			expect: "I look forward to hearing from you.\n\nBest regards,\nJordan Price",
		},
		{
			name:   "thanks sign-off gets name on next line",
			body:   "Thanks for your consideration.",
			signer: "Jordan Price",
			expect: "Thanks for your consideration.\nJordan Price",
		},
		{
			name:   "no sign-off appends block",
			body:   "I would love to contribute to your platform team.",
			signer: "Jordan Price",
			expect: "I would love to contribute to your platform team.\n\nBest regards,\nJordan Price",
		},
		{
			name:   "no sign-off and no name is unchanged",
			body:   "I would love to contribute.\n\n\n\nSee you.",
			signer: "",
			expect: "I would love to contribute.\n\nSee you.",
		},
		{
			name:   "sign-off without name is left alone",
			body:   "Sincerely,\nJohn Smith",
			signer: " ",
			expect: "Sincerely,\nJohn Smith",
		},
		{
			name:   "last sign-off wins",
			body:   "Thank you for reading my note about the role.\nI led migrations at scale.\n\nSincerely,\n\nJohn Smith",
			signer: "Jordan Price",
			expect: "Thank you for reading my note about the role.\nI led migrations at scale.\n\nSincerely,\n\nJordan Price",
		},
		{
			name:   "placeholder name beyond lookahead is not replaced",
			body:   "Regards,\nsent from my laptop\nplease reply soon\nhave a good day\nJohn Smith",
			signer: "Jordan Price",
			expect: "Regards,\nJordan Price\nsent from my laptop\nplease reply soon\nhave a good day\nJohn Smith",
		},
		{
			name:   "only first line of multi-line signature is replaced",
			body:   "Best regards,\nJohn Smith\nSenior Engineer",
			signer: "Jordan Price",
			expect: "Best regards,\nJordan Price\nSenior Engineer",
		},
		{
			name:   "bracketed placeholder is replaced",
			body:   "I look forward to talking.\n\nBest regards,\n[Your Name]",
			signer: "Jordan Price",
			expect: "I look forward to talking.\n\nBest regards,\nJordan Price",
		},
		{
			name:   "signer with degree suffix is replaced",
			body:   "Happy to share more details.\n\nSincerely,\nJordan Smith, PhD",
			signer: "Jordan Price",
			expect: "Happy to share more details.\n\nSincerely,\nJordan Price",
		},
		{
			name:   "lone carriage returns become newlines",
			body:   "Hello\r\r\nteam.\rRegards,\r[Name]",
			signer: "Jordan Price",
			expect: "Hello\n\nteam.\nRegards,\nJordan Price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tt.body, tt.signer)
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	bodies := []string{
		"",
		"Hi there.",
		"Thanks for your time.\n\n\n\nThanks again,\nJohn Smith\n\n",
		"Dear team,\r\n\r\nI am excited.\r\n\r\nRegards,\r\nA. N. Other",
		"Best regards,\n\n\n\n",
		"Sincerely yours,\n  \n \nJohn",
		"Regards\u00a0\r\r\n\n\nhttp://x.y/z\u00a0",
		"Best regards,\r\n[Your Name]\r\r\nSenior Engineer",
		"Thanks,\nJordan Smith, PhD\n+1 555 0100",
	}
	names := []string{"", "Jordan Price", "Mary-Jane O'Neil"}

	for _, body := range bodies {
		for _, name := range names {
			once := Normalize(body, name)
			twice := Normalize(once, name)
			if once != twice {
				t.Fatalf("not idempotent for body %q name %q: %q then %q", body, name, once, twice)
			}
			if name != "" && strings.Count(strings.ToLower(once), strings.ToLower(name)) != 1 {
				t.Fatalf("expected exactly one %q in %q", name, once)
			}
		}
	}
}

func TestNormalizeWithTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		expect string
	}{
		{
			name:   "empty body",
			body:   "",
			expect: "Best regards,\nJordan Price\nPlatform Engineer | Berlin",
		},
		{
			name:   "no sign-off",
			body:   "I would love to join.",
			expect: "I would love to join.\n\nBest regards,\nJordan Price\nPlatform Engineer | Berlin",
		},
		{
			name:   "replaced signer",
			body:   "I would love to join.\n\nBest regards,\n[Your Name]",
			expect: "I would love to join.\n\nBest regards,\nJordan Price\nPlatform Engineer | Berlin",
		},
		{
			name:   "title already below signer",
			body:   "I would love to join.\n\nBest regards,\n[Your Name]\nplatform engineer | berlin",
			expect: "I would love to join.\n\nBest regards,\nJordan Price\nplatform engineer | berlin",
		},
		{
			name:   "name present adds nothing",
			body:   "I would love to join.\n\nBest regards,\nJordan Price",
			expect: "I would love to join.\n\nBest regards,\nJordan Price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizeWithTitle(tt.body, "Jordan Price", "Platform Engineer | Berlin")
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
			if again := NormalizeWithTitle(got, "Jordan Price", "Platform Engineer | Berlin"); again != got {
				t.Fatalf("not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestIsSignerLike(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"[Your Name]":               true,
		"Jordan Smith, PhD":         true,
		"John Smith":                true,
		"Senior Engineer":           true,
		"":                          false,
		"sent from my laptop":       false,
		"+1 555 0100":               false,
		"I would love to chat more": false,
		strings.Repeat("Ab ", 30):   false,
	}

	for line, want := range cases {
		if got := IsSignerLike(line); got != want {
			t.Fatalf("IsSignerLike(%q) = %v, want %v", line, got, want)
		}
	}
}
