package keybackend

import (
	"fmt"
	"os"
	"strings"
)

// LoadKeyFromFile reads the API key from a file.
// The file holds the key on its own; surrounding whitespace, including a
// trailing newline, is ignored. This fits mounted secrets such as
// /run/secrets/filebox_api_key.
func LoadKeyFromFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("read key file %s: %w", path, ErrNoKey)
	}

	return key, nil
}
