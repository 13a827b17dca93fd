package report

import (
	"fmt"
	"strings"

	"github.com/olegrjumin/sitescan/internal/analyzer"
	"github.com/olegrjumin/sitescan/internal/scoring"
)

// maxListed caps how many values a sentence names
const maxListed = 3

var headlines = map[scoring.Verdict]string{
	scoring.VerdictSafe:       "No significant phishing or malware indicators were found on this page.",
	scoring.VerdictSuspicious: "This page shows signs commonly associated with phishing or malicious content.",
	scoring.VerdictMalicious:  "This page is very likely malicious: it combines several strong phishing or malware indicators.",
}

var advice = map[scoring.Verdict]string{
	scoring.VerdictSafe:       "No action needed, but always check the address bar before entering credentials.",
	scoring.VerdictSuspicious: "Proceed with caution and do not enter passwords or payment details unless you are sure the site is genuine.",
	scoring.VerdictMalicious:  "Do not enter any personal information on this site. If you've already shared information, contact your bank immediately and change your passwords.",
}

// Category advice, in the same fixed order as the summary evidence
const (
	advicePhrases      = "Treat urgent requests to verify or confirm account details as a warning sign and go to the service directly instead."
	adviceScripts      = "Avoid running scripts from this page; it loads code from domains known to be abused."
	adviceObfuscation  = "Obfuscated code alone is not proof of abuse, but it hides what the page does."
	advicePhishingLink = "Do not follow the flagged links; type the official address of the service yourself."
	adviceRedirects    = "Expand shortened links before opening them to see where they really lead."
)

func summarize(v scoring.Verdict, text analyzer.TextFindings, scripts analyzer.ScriptFindings, links analyzer.LinkFindings) string {
	parts := []string{headline(v)}

	if n := len(text.SuspiciousPhrases); n > 0 {
		parts = append(parts, fmt.Sprintf("The page text contains %d suspicious %s, such as %q.",
			n, plural(n, "phrase", "phrases"), text.SuspiciousPhrases[0]))
	}
	if n := len(scripts.SuspiciousDomains); n > 0 {
		parts = append(parts, fmt.Sprintf("Scripts load from %d suspicious %s (%s).",
			n, plural(n, "domain", "domains"), list(scripts.SuspiciousDomains)))
	}
	if scripts.MinifiedOrEncoded {
		parts = append(parts, "Inline scripts appear minified, packed or encoded.")
	}
	if n := len(links.PhishingLikeLinks); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s to look-alike or deceptive destinations (%s).",
			n, plural(n, "link points", "links point"), list(links.PhishingLikeLinks)))
	}
	if n := len(links.RedirectServicesUsed); n > 0 {
		parts = append(parts, fmt.Sprintf("Links go through %d URL shortening or redirect %s (%s).",
			n, plural(n, "service", "services"), list(links.RedirectServicesUsed)))
	}

	return strings.Join(parts, " ")
}

func recommend(v scoring.Verdict, text analyzer.TextFindings, scripts analyzer.ScriptFindings, links analyzer.LinkFindings) string {
	parts := []string{verdictAdvice(v)}

	if len(text.SuspiciousPhrases) > 0 {
		parts = append(parts, advicePhrases)
	}
	if len(scripts.SuspiciousDomains) > 0 {
		parts = append(parts, adviceScripts)
	}
	if scripts.MinifiedOrEncoded {
		parts = append(parts, adviceObfuscation)
	}
	if len(links.PhishingLikeLinks) > 0 {
		parts = append(parts, advicePhishingLink)
	}
	if len(links.RedirectServicesUsed) > 0 {
		parts = append(parts, adviceRedirects)
	}

	return strings.Join(parts, " ")
}

func headline(v scoring.Verdict) string {
	if h, ok := headlines[v]; ok {
		return h
	}
	return headlines[scoring.VerdictSafe]
}

func verdictAdvice(v scoring.Verdict) string {
	if a, ok := advice[v]; ok {
		return a
	}
	return advice[scoring.VerdictSafe]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// list names up to maxListed values and counts the rest
func list(values []string) string {
	if len(values) <= maxListed {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(values[:maxListed], ", "), len(values)-maxListed)
}
