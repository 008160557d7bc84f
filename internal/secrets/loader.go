package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissing is returned when no source holds a value.
var ErrMissing = errors.New("secret is not configured")

// Source describes where a credential may come from. The first usable source
// wins in this order: File, Value, then each of Env.
type Source struct {
	// Name gives context in error messages.
	Name  string
	Value string
	File  string
	// Env lists environment variables to consult when File and Value are
	// empty. A variable ending in _FILE is read as a path.
	Env []string
}

// Load resolves the secret described by src. The result is always trimmed.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		return readFile(name, file)
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	for _, key := range src.Env {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		if strings.HasSuffix(key, "_FILE") {
			return readFile(name, value)
		}
		return value, nil
	}

	return "", fmt.Errorf("%s: %w", name, ErrMissing)
}

func readFile(name, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty: %w", name, file, ErrMissing)
	}

	return secret, nil
}
