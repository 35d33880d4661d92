package intrinsics

import (
	"fmt"
	"os"
	"strings"
)

// Apply maps a nullable value. A nil input stays nil.
func Apply[A, R any](a *A, f func(A) R) *R {
	if a == nil {
		return nil
	}
	r := f(*a)
	return &r
}

// Apply2 combines two nullable values. Either being nil yields nil, so
// NULL propagates through arithmetic and comparisons.
func Apply2[A, B, R any](a *A, b *B, f func(A, B) R) *R {
	if a == nil || b == nil {
		return nil
	}
	r := f(*a, *b)
	return &r
}

// Apply3 is Apply2 for three values.
func Apply3[A, B, C, R any](a *A, b *B, c *C, f func(A, B, C) R) *R {
	if a == nil || b == nil || c == nil {
		return nil
	}
	r := f(*a, *b, *c)
	return &r
}

// CredentialsFromEnv reads a connection string from an environment variable.
func CredentialsFromEnv(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("credentials: environment variable %s is not set", name)
	}
	return v, nil
}

// CredentialsFromFile reads a connection string from a file, trimming
// surrounding whitespace.
func CredentialsFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("credentials: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
