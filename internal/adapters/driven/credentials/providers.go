package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// EnvProvider reads secrets from environment variables.
// For "env:NAME" the secret is $NAME and the username, if any, is $NAME_USERNAME.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Resolve reads the variable named value.
func (p *EnvProvider) Resolve(_ context.Context, value string) (domain.Credentials, error) {
	secret, ok := p.lookup(value)
	if !ok || strings.TrimSpace(secret) == "" {
		return domain.Credentials{}, fmt.Errorf("%s is not set", value)
	}
	user, _ := p.lookup(value + "_USERNAME")
	return domain.Credentials{Username: strings.TrimSpace(user), Secret: strings.TrimSpace(secret)}, nil
}

// FileProvider reads secrets from files.
// A file holds either a secret, or a username line followed by a secret line.
type FileProvider struct {
	readFile func(string) ([]byte, error)
}

// NewFileProvider creates a provider that reads from the filesystem.
func NewFileProvider() *FileProvider {
	return &FileProvider{readFile: os.ReadFile}
}

// Resolve reads the file at value. A leading "~/" expands to the home directory.
func (p *FileProvider) Resolve(_ context.Context, value string) (domain.Credentials, error) {
	path, err := expandHome(value)
	if err != nil {
		return domain.Credentials{}, err
	}
	data, err := p.readFile(path)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return parse(string(data))
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
