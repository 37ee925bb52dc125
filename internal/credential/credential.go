// ABOUTME: API credential validation and persistence
// ABOUTME: Loads and saves the provider key through a key-value store
package credential

import (
	"context"
	"fmt"
	"strings"
)

const (
	// Key is the store key holding the provider credential
	Key = "openai_api_key"

	// Prefix every valid credential starts with
	Prefix = "sk-"
)

// ValidationError reports a malformed credential
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid credential: " + e.Reason
}

// Prompt is shown when a credential fails validation
const Prompt = "Please enter a valid OpenAI API key starting with 'sk-'"

// Validate checks that key is non-empty and carries the expected prefix
func Validate(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return &ValidationError{Reason: "empty"}
	}
	if !strings.HasPrefix(key, Prefix) {
		return &ValidationError{Reason: fmt.Sprintf("missing %q prefix", Prefix)}
	}
	return nil
}

// Store is a persistent key-value store
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Load reads the credential. A missing or malformed value returns "" and a
// ValidationError so callers can prompt for re-entry.
func Load(ctx context.Context, store Store) (string, error) {
	value, ok, err := store.Get(ctx, Key)
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	if !ok {
		return "", &ValidationError{Reason: "not set"}
	}
	if err := Validate(value); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Save validates and persists the credential
func Save(ctx context.Context, store Store, key string) error {
	if err := Validate(key); err != nil {
		return err
	}
	if err := store.Set(ctx, Key, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}
