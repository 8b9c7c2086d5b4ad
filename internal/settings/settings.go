// Package settings loads per-user expiration overrides.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/mailexpiry/internal/expiration"
)

// Load reads overrides from a YAML file such as
//
//	marketingDays: 3
//	calendarDays: 2
//
// An empty path yields empty settings.
func Load(path string) (*expiration.Settings, error) {
	s := &expiration.Settings{}
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if err := Validate(s); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects non-positive overrides.
func Validate(s *expiration.Settings) error {
	for _, c := range expiration.Categories() {
		if days, ok := s.Override(c); ok && days <= 0 {
			return fmt.Errorf("%s override must be positive, got %d", strings.ToLower(c.String()), days)
		}
	}
	return nil
}

// Parse reads comma separated category=days pairs, e.g. "marketing=3,calendar=2".
func Parse(input string) (*expiration.Settings, error) {
	s := &expiration.Settings{}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("override %q: expected category=days", part)
		}
		c, err := expiration.ParseCategory(kv[0])
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", part, err)
		}
		if !c.Expirable() {
			return nil, fmt.Errorf("override %q: category required", part)
		}
		days, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", part, err)
		}
		if days <= 0 {
			return nil, fmt.Errorf("override %q: days must be positive", part)
		}
		s.SetOverride(c, days)
	}
	return s, nil
}

// Merge returns base with every override set in over applied on top.
// Neither argument is modified.
func Merge(base, over *expiration.Settings) *expiration.Settings {
	out := &expiration.Settings{}
	for _, src := range []*expiration.Settings{base, over} {
		for _, c := range expiration.Categories() {
			if days, ok := src.Override(c); ok {
				out.SetOverride(c, days)
			}
		}
	}
	return out
}
