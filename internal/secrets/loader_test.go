package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SCREENER_TEST_KEY", "  from-env ")
	t.Setenv("SCREENER_TEST_KEY_FILE", writeSecret(t, "from-env-file\n"))
	t.Setenv("SCREENER_TEST_EMPTY", "")

	tests := []struct {
		name    string
		src     Source
		want    string
		missing bool
	}{
		{
			name: "file wins over value",
			src:  Source{Name: "key", Value: "inline", File: writeSecret(t, " from-file \n")},
			want: "from-file",
		},
		{
			name: "inline value",
			src:  Source{Value: "  inline  ", Env: []string{"SCREENER_TEST_KEY"}},
			want: "inline",
		},
		{
			name: "first set env variable",
			src:  Source{Env: []string{"SCREENER_TEST_EMPTY", "SCREENER_TEST_KEY"}},
			want: "from-env",
		},
		{
			name: "env file variable is read as path",
			src:  Source{Env: []string{"SCREENER_TEST_KEY_FILE", "SCREENER_TEST_KEY"}},
			want: "from-env-file",
		},
		{
			name:    "nothing configured",
			src:     Source{Name: "gemini api key", Env: []string{"SCREENER_TEST_EMPTY"}},
			missing: true,
		},
		{
			name:    "empty file",
			src:     Source{File: writeSecret(t, "  \n")},
			missing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.missing {
				if !errors.Is(err, ErrMissing) {
					t.Fatalf("expected ErrMissing, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(Source{Name: "token", File: filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrMissing) {
		t.Fatalf("read failure must not look like a missing secret: %v", err)
	}
}
