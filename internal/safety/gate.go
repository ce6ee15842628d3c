// Package safety validates and sanitizes raw user input before it reaches the
// research pipeline.
package safety

import (
	"strings"
)

const (
	// MaxLen caps general input fields.
	MaxLen = 800
	// LongFormMaxLen caps long-form fields.
	LongFormMaxLen = 2000
)

// Query is an accepted, sanitized input string.
type Query string

func (q Query) String() string { return string(q) }

// Gate screens input against a fixed set of blocked substrings.
type Gate struct {
	patterns []string
}

// NewGate builds a gate from blocked patterns. Patterns are matched
// case-insensitively as substrings.
func NewGate(patterns []string) *Gate {
	g := &Gate{}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			g.patterns = append(g.patterns, p)
		}
	}
	return g
}

// AsString asserts a decoded request value is present and a string.
func AsString(raw any, field string) (string, error) {
	if raw == nil {
		return "", ValidationError{Field: field, Reason: "required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", ValidationError{Field: field, Reason: "must be string"}
	}
	return s, nil
}

// Require trims and caps s to maxLen characters and rejects empty results.
func Require(s, field string, maxLen int) (string, error) {
	s = truncate(strings.TrimSpace(s), maxLen)
	if s == "" {
		return "", ValidationError{Field: field, Reason: "empty"}
	}
	return s, nil
}

// Screen returns a PolicyError when s contains a blocked pattern.
func (g *Gate) Screen(s string) error {
	lower := strings.ToLower(s)
	for _, p := range g.patterns {
		if strings.Contains(lower, p) {
			return PolicyError{Pattern: p}
		}
	}
	return nil
}

// Accept validates a general input field and returns it as a Query.
func (g *Gate) Accept(message string) (Query, error) {
	return g.accept(message, "message", MaxLen)
}

// AcceptLongForm validates a long-form field.
func (g *Gate) AcceptLongForm(text, field string) (Query, error) {
	return g.accept(text, field, LongFormMaxLen)
}

func (g *Gate) accept(s, field string, maxLen int) (Query, error) {
	s, err := Require(s, field, maxLen)
	if err != nil {
		return "", err
	}
	if err := g.Screen(s); err != nil {
		return "", err
	}
	return Query(Scrub(s, maxLen)), nil
}

// Scrub flattens newlines into spaces, trims and caps s.
func Scrub(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return truncate(strings.TrimSpace(s), maxLen)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
