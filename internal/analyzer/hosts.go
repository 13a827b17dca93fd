package analyzer

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// NormalizeHost returns the comparable host key of u: lowercase, punycode,
// no trailing dot, default port dropped. Non-default ports stay as host:port.
func NormalizeHost(u *url.URL) string {
	if u == nil {
		return ""
	}
	name := NormalizeHostname(u.Hostname())
	if name == "" {
		return ""
	}
	port := u.Port()
	if port == "" || isDefaultPort(strings.ToLower(u.Scheme), port) {
		return name
	}
	return net.JoinHostPort(name, port)
}

// NormalizeHostname lowercases and punycode-encodes a bare host name
func NormalizeHostname(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// hostKeyOf parses raw and returns its host key, or "" when raw is not an
// absolute http(s) URL
func hostKeyOf(raw string) (string, *url.URL) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", nil
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", u
	}
	return NormalizeHost(u), u
}

// MatchesDomain reports whether host equals domain or is a subdomain of it
func MatchesDomain(host, domain string) bool {
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// matchAny returns the first entry of domains that host falls under
func matchAny(host string, domains []string) (string, bool) {
	for _, d := range domains {
		if MatchesDomain(host, d) {
			return d, true
		}
	}
	return "", false
}

// IsIPHost reports whether host is an IPv4 or IPv6 literal
func IsIPHost(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return net.ParseIP(host) != nil
}

// RegistrableDomain returns the eTLD+1 of host ("login.paypal.co.uk" ->
// "paypal.co.uk"), or host itself when it has none
func RegistrableDomain(host string) string {
	if IsIPHost(host) {
		return host
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return reg
}

// registrableLabel strips the public suffix: "paypal.co.uk" -> "paypal"
func registrableLabel(host string) string {
	reg := RegistrableDomain(host)
	suffix, _ := publicsuffix.PublicSuffix(reg)
	if suffix == "" || suffix == reg {
		return reg
	}
	return strings.TrimSuffix(reg, "."+suffix)
}

// editDistance is the Levenshtein distance between a and b
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
