package analyzer

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/olegrjumin/sitescan/internal/htmldoc"
)

// Typosquat labels shorter than this are too collision-prone to compare
const minTyposquatLabelLength = 5

// Brand is an impersonation target and the domains it really owns
type Brand struct {
	Name    string
	Domains []string
}

// owns reports whether host is one of the brand's domains or below one
func (b Brand) owns(host string) bool {
	_, ok := matchAny(host, b.Domains)
	return ok
}

// LinkRules holds the redirector list and the phishing pattern set
type LinkRules struct {
	RedirectServices []string
	Brands           []Brand
	LureKeywords     []string
	Patterns         []*regexp.Regexp
}

// AnalyzeLinks counts links, records redirect services, and flags links
// that look like brand impersonation. Links back to the page's own host are
// never flagged as phishing.
func AnalyzeLinks(pageURL string, links []htmldoc.LinkRef, rules LinkRules) LinkFindings {
	findings := LinkFindings{
		TotalLinks:           len(links),
		RedirectServicesUsed: make([]string, 0),
		PhishingLikeLinks:    make([]string, 0),
	}
	pageHost, _ := hostKeyOf(pageURL)
	redirects := newOrderedSet()
	phishing := newOrderedSet()

	for _, link := range links {
		hostKey, u := hostKeyOf(link.Href)

		if hostKey != "" {
			if hostKey != pageHost {
				findings.ExternalLinks++
			}
			name := NormalizeHostname(u.Hostname())
			if service, ok := matchAny(name, rules.RedirectServices); ok {
				redirects.add(service)
			}
		}

		if hostKey == pageHost && hostKey != "" {
			continue
		}
		if isPhishingLike(link, u, hostKey, rules) {
			if hostKey != "" {
				phishing.add(hostKey)
			} else {
				phishing.add(link.Href)
			}
		}
	}

	findings.RedirectServicesUsed = redirects.values()
	findings.PhishingLikeLinks = phishing.values()
	return findings
}

func isPhishingLike(link htmldoc.LinkRef, u *url.URL, hostKey string, rules LinkRules) bool {
	href := strings.ToLower(strings.TrimSpace(link.Href))
	for _, p := range rules.Patterns {
		if p.MatchString(href) {
			return true
		}
	}
	if hostKey == "" {
		return false
	}

	name := NormalizeHostname(u.Hostname())
	if IsIPHost(name) {
		return false
	}
	tokens := hostTokens(name)
	label := registrableLabel(name)
	text := NormalizePhrase(link.Text)

	for _, brand := range rules.Brands {
		if brand.owns(name) {
			continue
		}

		// brand name plus a lure word in the host: paypal-login-verify.com
		if hostHasBrand(tokens, brand.Name) && hostHasLure(tokens, rules.LureKeywords) {
			return true
		}

		// one edit away from an official label: paypa1.com, gooogle.com
		for _, domain := range brand.Domains {
			official := registrableLabel(domain)
			if len(official) >= minTyposquatLabelLength && label != official && editDistance(label, official) == 1 {
				return true
			}
		}

		// anchor text promises the brand's login while pointing elsewhere
		if text != "" && containsWord(text, brand.Name) && containsAnyWord(text, rules.LureKeywords) {
			return true
		}
	}
	return false
}

// brandToken is the brand name as it would appear inside a host name
func brandToken(name string) string {
	return strings.NewReplacer(" ", "", "-", "", "'", "").Replace(name)
}

// hostTokens splits a host name into its dot and hyphen separated parts
func hostTokens(host string) []string {
	return strings.FieldsFunc(host, func(r rune) bool { return r == '.' || r == '-' })
}

// hostHasBrand reports whether the brand spells out a whole token or a run of
// adjacent tokens, so "chase" matches chase-verify.net and "bank of america"
// matches bank-of-america.example but neither matches inside purchase.com
func hostHasBrand(tokens []string, brand string) bool {
	want := brandToken(brand)
	return want != "" && tokenRun(tokens, want, false)
}

// hostHasLure is like hostHasBrand but also accepts a lure word that starts a
// token, as in accounts-paypal.example
func hostHasLure(tokens []string, keywords []string) bool {
	for _, k := range keywords {
		if want := brandToken(k); want != "" && tokenRun(tokens, want, true) {
			return true
		}
	}
	return false
}

func tokenRun(tokens []string, want string, prefix bool) bool {
	for i := range tokens {
		if prefix && strings.HasPrefix(tokens[i], want) {
			return true
		}
		joined := ""
		for _, tok := range tokens[i:] {
			joined += tok
			if joined == want {
				return true
			}
			if len(joined) >= len(want) {
				break
			}
		}
	}
	return false
}

// containsWord reports whether word occurs in s on word boundaries, so
// "chase" does not match "purchase"
func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if !isWordByte(s, start-1) && !isWordByte(s, end) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 0x80
}

func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if containsWord(s, w) {
			return true
		}
	}
	return false
}
