package token

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider yields the bearer credential used to authenticate the upstream
// socket connection. The token is opaque: nothing here inspects or decodes it.
// An empty token with a nil error means no credential is currently available,
// which callers treat as "do not connect", not as a failure.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Static returns a fixed token.
type Static string

func (s Static) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// FileProvider reads the token from a file on every call, so an externally
// rotated credential is picked up on the next connection attempt.
type FileProvider struct {
	Path string
}

func (p *FileProvider) Token(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
