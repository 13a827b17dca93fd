package scoring

import (
	"math"

	"github.com/olegrjumin/sitescan/internal/analyzer"
)

// Signal names used in the breakdown
const (
	SignalPhishingPhrases  = "phishing_phrases"
	SignalExtraPhrases     = "additional_phrases"
	SignalScriptDomains    = "suspicious_script_domains"
	SignalMinified         = "minified_or_encoded"
	SignalPhishingLinks    = "phishing_like_links"
	SignalRedirectServices = "redirect_services"
)

// Contribution is what one signal added to the score
type Contribution struct {
	Signal string  `json:"signal"`
	Count  int     `json:"count"`
	Points float64 `json:"points"`
}

// Result is a score together with how it was reached
type Result struct {
	Score     float64        `json:"score"`
	Breakdown []Contribution `json:"breakdown"`
}

// Score combines the three findings into a risk score in [0,10], rounded to
// two decimals. It is a pure function of its inputs; with non-negative
// weights, more evidence never lowers the score.
func Score(text analyzer.TextFindings, scripts analyzer.ScriptFindings, links analyzer.LinkFindings, p Policy) Result {
	w := p.Weights
	breakdown := make([]Contribution, 0, 6)
	total := 0.0

	add := func(signal string, count int, points float64) {
		if count <= 0 || points <= 0 {
			return
		}
		breakdown = append(breakdown, Contribution{Signal: signal, Count: count, Points: round2(points)})
		total += points
	}

	phrases := len(text.SuspiciousPhrases)
	if text.PhishingIndicators {
		add(SignalPhishingPhrases, phrases, w.PhishingPhrase)
	}
	if phrases > 1 {
		add(SignalExtraPhrases, phrases-1, capped(phrases-1, w.ExtraPhrase, w.ExtraPhraseCap))
	}

	domains := len(scripts.SuspiciousDomains)
	add(SignalScriptDomains, domains, capped(domains, w.ScriptDomain, w.ScriptDomainCap))

	if scripts.MinifiedOrEncoded {
		add(SignalMinified, 1, w.MinifiedOrEncoded)
	}

	phishing := len(links.PhishingLikeLinks)
	add(SignalPhishingLinks, phishing, capped(phishing, w.PhishingLink, w.PhishingLinkCap))

	redirects := len(links.RedirectServicesUsed)
	add(SignalRedirectServices, redirects, capped(redirects, w.RedirectService, w.RedirectServiceCap))

	return Result{
		Score:     round2(clamp(total)),
		Breakdown: breakdown,
	}
}

// capped multiplies count by weight and bounds the total by limit (0 = none)
func capped(count int, weight, limit float64) float64 {
	points := float64(count) * weight
	if limit > 0 && points > limit {
		return limit
	}
	return points
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
