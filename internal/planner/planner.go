// Package planner expands a query into an ordered list of subqueries using
// keyword-triggered templates.
package planner

import (
	"strings"

	"github.com/mohammad-safakhou/verisearch/internal/policy"
)

// MaxSubqueries is the hard cap on the planner output.
const MaxSubqueries = 6

// Planner is safe for concurrent use; it holds only read-only rule tables.
type Planner struct {
	rules []policy.ExpansionRule
	limit int
}

// New returns a planner over rules. limit is clamped to (0, MaxSubqueries].
func New(rules []policy.ExpansionRule, limit int) *Planner {
	if limit <= 0 || limit > MaxSubqueries {
		limit = MaxSubqueries
	}
	cp := make([]policy.ExpansionRule, len(rules))
	copy(cp, rules)
	return &Planner{rules: cp, limit: limit}
}

// Plan returns [q] followed by the variants of every matching rule in
// declaration order, without duplicates, capped at the planner limit.
func (p *Planner) Plan(q string) []string {
	out := []string{q}
	lower := strings.ToLower(q)
	for _, rule := range p.rules {
		if !matches(lower, rule.Keywords) {
			continue
		}
		for _, suffix := range rule.Suffixes {
			out = append(out, q+suffix)
		}
	}
	return truncate(dedupe(out), p.limit)
}

func matches(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func truncate(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
