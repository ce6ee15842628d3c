package planner

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/verisearch/internal/policy"
)

func defaultPlanner() *Planner {
	return New(policy.DefaultSourcePolicy().Expansions, 0)
}

func TestPlanBitcoinExpansion(t *testing.T) {
	t.Parallel()
	q := "bitcoin mining difficulty"
	got := defaultPlanner().Plan(q)
	want := []string{
		q,
		q + " PoW difficulty",
		q + " mempool policies",
		q + " zk proofs best practices",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Plan() = %#v, want %#v", got, want)
	}
}

func TestPlanNoMatch(t *testing.T) {
	t.Parallel()
	got := defaultPlanner().Plan("weather in Lisbon")
	if len(got) != 1 || got[0] != "weather in Lisbon" {
		t.Fatalf("unexpected plan: %#v", got)
	}
}

func TestPlanCaseInsensitiveAndCapped(t *testing.T) {
	t.Parallel()
	q := "BLOCKCHAIN Growth hacking"
	got := defaultPlanner().Plan(q)
	if len(got) != MaxSubqueries {
		t.Fatalf("expected %d subqueries, got %d: %#v", MaxSubqueries, len(got), got)
	}
	if got[0] != q {
		t.Fatalf("first subquery must be the query, got %q", got[0])
	}
	// blockchain rule is declared first, so its variants come first.
	if got[1] != q+" PoW difficulty" || got[4] != q+" case study" || got[5] != q+" benchmark" {
		t.Fatalf("unexpected order: %#v", got)
	}
}

func TestPlanDeduplicates(t *testing.T) {
	t.Parallel()
	rules := []policy.ExpansionRule{
		{Keywords: []string{"go"}, Suffixes: []string{" tips", " tips", ""}},
		{Keywords: []string{"golang"}, Suffixes: []string{" tips"}},
	}
	got := New(rules, 6).Plan("golang")
	want := []string{"golang", "golang tips"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Plan() = %#v, want %#v", got, want)
	}
}

func TestPlanShape(t *testing.T) {
	t.Parallel()
	p := defaultPlanner()
	for _, q := range []string{
		"bitcoin", "marketing growth blockchain bitcoin", "growth", "x", strings.Repeat("bitcoin ", 50),
	} {
		got := p.Plan(q)
		if len(got) == 0 || len(got) > MaxSubqueries {
			t.Fatalf("Plan(%q) length %d out of bounds", q, len(got))
		}
		if got[0] != q {
			t.Fatalf("Plan(%q) first element %q", q, got[0])
		}
		seen := map[string]bool{}
		for _, s := range got {
			if seen[s] {
				t.Fatalf("Plan(%q) duplicate %q", q, s)
			}
			seen[s] = true
		}
	}
}

func TestNewClampsLimit(t *testing.T) {
	t.Parallel()
	if got := New(nil, 42).limit; got != MaxSubqueries {
		t.Fatalf("expected limit clamp, got %d", got)
	}
	if got := New(nil, 2).limit; got != 2 {
		t.Fatalf("expected limit 2, got %d", got)
	}
}
