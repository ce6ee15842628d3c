package scoring

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DomainParts is the registrable domain of a host and its public suffix, for
// example {Host: "nasa.gov", Suffix: "gov"}.
type DomainParts struct {
	Host   string
	Suffix string
}

// DomainParser splits a URL into DomainParts. ok is false when the capability
// is unavailable or the URL has no usable host.
type DomainParser interface {
	Parts(rawURL string) (DomainParts, bool)
}

// PublicSuffixParser uses the compiled-in public suffix list.
type PublicSuffixParser struct{}

func (PublicSuffixParser) Parts(rawURL string) (DomainParts, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return DomainParts{}, false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || net.ParseIP(host) != nil {
		return DomainParts{}, false
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	return DomainParts{Host: registrable, Suffix: suffix}, true
}

type NoDomainParser struct{}

func (NoDomainParser) Parts(string) (DomainParts, bool) { return DomainParts{}, false }

// TrustTable maps host fragments (".gov", "who.int") to a trust score in [0,1].
type TrustTable map[string]float64

// Score returns the highest value among matching keys, or def when none match.
// A key matches when it equals "."+suffix, is a suffix of the host, or occurs
// anywhere in the host.
func (t TrustTable) Score(p DomainParts, def float64) float64 {
	tld := "." + p.Suffix
	best, matched := 0.0, false
	for key, v := range t {
		if key == tld || strings.HasSuffix(p.Host, key) || strings.Contains(p.Host, key) {
			if !matched || v > best {
				best, matched = v, true
			}
		}
	}
	if !matched {
		return def
	}
	return best
}
