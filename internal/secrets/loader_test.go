package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	got, err := Load(Source{Name: "api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("COLDMAIL_TEST_KEY", " env-secret ")

	got, err := Load(Source{Name: "api key", Env: "COLDMAIL_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "env-secret" {
		t.Fatalf("expected env value, got %q", got)
	}

	got, err = Load(Source{Name: "api key", Value: "inline", Env: "COLDMAIL_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline value to win over env, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("COLDMAIL_EMPTY_KEY", "")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "nothing configured", src: Source{Name: "token"}, want: "token is not configured"},
		{name: "env empty", src: Source{Env: "COLDMAIL_EMPTY_KEY"}, want: "$COLDMAIL_EMPTY_KEY"},
		{name: "missing file", src: Source{Name: "token", File: filepath.Join(t.TempDir(), "absent")}, want: "reading token from file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to contain %q, got %q", tt.want, err.Error())
			}
		})
	}
}
