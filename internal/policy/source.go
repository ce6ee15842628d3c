package policy

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourcePolicy captures the static, read-only tables the research pipeline is
// built from: which hosts are trusted, which are never surfaced, which input
// patterns are refused and how queries fan out into subqueries.
type SourcePolicy struct {
	Trust           map[string]float64 `yaml:"trust"`
	Blocklist       []string           `yaml:"blocklist"`
	BlockedPatterns []string           `yaml:"blocked_patterns"`
	Expansions      []ExpansionRule    `yaml:"expansions"`
}

// ExpansionRule appends Suffixes to the query when any keyword occurs in it.
type ExpansionRule struct {
	Keywords []string `yaml:"keywords"`
	Suffixes []string `yaml:"suffixes"`
}

// DefaultSourcePolicy returns the built-in tables.
func DefaultSourcePolicy() SourcePolicy {
	return SourcePolicy{
		Trust: map[string]float64{
			".gov":    1.0,
			".edu":    0.95,
			".org":    0.75,
			"who.int": 0.95,
		},
		Blocklist: []string{
			"facebook.com", "twitter.com", "instagram.com",
			"pinterest.", "tiktok.", "medium.com", "quora.com",
		},
		BlockedPatterns: []string{
			"rm -rf", "shutdown", "drop table", "<?php", "<script", "curl http",
		},
		Expansions: []ExpansionRule{
			{
				Keywords: []string{"blockchain", "bitcoin"},
				Suffixes: []string{" PoW difficulty", " mempool policies", " zk proofs best practices"},
			},
			{
				Keywords: []string{"marketing", "growth"},
				Suffixes: []string{" case study", " benchmark", " adoption 2025 trends"},
			},
		},
	}
}

// LoadSourcePolicy reads a YAML policy file. Sections absent from the file
// keep their defaults. An empty path yields the defaults.
func LoadSourcePolicy(path string) (SourcePolicy, error) {
	def := DefaultSourcePolicy()
	path = strings.TrimSpace(path)
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return SourcePolicy{}, fmt.Errorf("read policy: %w", err)
	}
	var loaded SourcePolicy
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return SourcePolicy{}, fmt.Errorf("parse policy: %w", err)
	}
	if loaded.Trust == nil {
		loaded.Trust = def.Trust
	}
	if loaded.Blocklist == nil {
		loaded.Blocklist = def.Blocklist
	}
	if loaded.BlockedPatterns == nil {
		loaded.BlockedPatterns = def.BlockedPatterns
	}
	if loaded.Expansions == nil {
		loaded.Expansions = def.Expansions
	}
	norm := loaded.Normalize()
	if err := norm.Validate(); err != nil {
		return SourcePolicy{}, err
	}
	return norm, nil
}

// Normalize lower-cases and trims table keys and removes duplicates while
// keeping declaration order. Expansion suffixes keep their case and leading
// space since they are appended verbatim.
func (p SourcePolicy) Normalize() SourcePolicy {
	norm := SourcePolicy{
		Trust:           make(map[string]float64, len(p.Trust)),
		Blocklist:       sanitizeHosts(p.Blocklist),
		BlockedPatterns: sanitizeList(p.BlockedPatterns),
	}
	for key, val := range p.Trust {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == "" {
			norm.Trust[""] = val // surfaced by Validate
			continue
		}
		if prev, ok := norm.Trust[k]; !ok || val > prev {
			norm.Trust[k] = val
		}
	}
	for _, rule := range p.Expansions {
		var suffixes []string
		for _, s := range rule.Suffixes {
			if strings.TrimSpace(s) == "" {
				continue
			}
			suffixes = append(suffixes, s)
		}
		norm.Expansions = append(norm.Expansions, ExpansionRule{
			Keywords: sanitizeList(rule.Keywords),
			Suffixes: suffixes,
		})
	}
	return norm
}

// Validate ensures the policy tables contain sane values.
func (p SourcePolicy) Validate() error {
	for key, val := range p.Trust {
		if key == "" {
			return fmt.Errorf("policy trust entry must have a non-empty key")
		}
		if val < 0 || val > 1 {
			return fmt.Errorf("policy trust %q = %.2f must be within [0,1]", key, val)
		}
	}
	for i, rule := range p.Expansions {
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("policy expansion %d has no keywords", i)
		}
		if len(rule.Suffixes) == 0 {
			return fmt.Errorf("policy expansion %d has no suffixes", i)
		}
	}
	return nil
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, raw := range items {
		val := strings.ToLower(strings.TrimSpace(raw))
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}

func sanitizeHosts(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, raw := range items {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if u, err := url.Parse(value); err == nil && u.Host != "" {
			return strings.TrimPrefix(u.Host, "www.")
		}
	}
	return strings.TrimPrefix(value, "www.")
}
