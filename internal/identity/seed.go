// Package identity derives every name, handle, key and random draw of a seeding
// run from a single run seed.
package identity

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
)

const (
	seedTimeLayout = "20060102150405"
	seedSuffixLen  = 6
	seedAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// RunSeed is the root value of a run: a UTC timestamp plus a random suffix.
type RunSeed string

// NewRunSeed creates a seed for now. A nil entropy source uses crypto/rand.
func NewRunSeed(now time.Time, entropy io.Reader) (RunSeed, error) {
	if entropy == nil {
		entropy = rand.Reader
	}

	buf := make([]byte, seedSuffixLen)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return "", fmt.Errorf("failed to read seed entropy: %w", err)
	}

	suffix := make([]byte, seedSuffixLen)
	for i, b := range buf {
		suffix[i] = seedAlphabet[int(b)%len(seedAlphabet)]
	}

	return RunSeed(now.UTC().Format(seedTimeLayout) + "-" + string(suffix)), nil
}

// ParseRunSeed validates an explicit seed supplied to reproduce a prior run.
func ParseRunSeed(s string) (RunSeed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run seed is empty")
	}
	for _, r := range s {
		if unicode.IsSpace(r) || r == '@' || r == '/' {
			return "", fmt.Errorf("run seed %q contains invalid character %q", s, r)
		}
	}
	return RunSeed(s), nil
}

func (s RunSeed) String() string {
	return string(s)
}

// Compact returns the seed without separators, used inside display names.
func (s RunSeed) Compact() string {
	return strings.ReplaceAll(string(s), "-", "")
}
