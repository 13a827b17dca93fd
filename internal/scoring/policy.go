package scoring

import (
	"errors"
	"fmt"
)

// Score bounds
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Default weights and caps. A cap bounds the total a repeated signal can add.
const (
	DefaultPhishingPhraseWeight  = 3.0
	DefaultExtraPhraseWeight     = 0.5
	DefaultExtraPhraseCap        = 1.0
	DefaultScriptDomainWeight    = 1.0
	DefaultScriptDomainCap       = 3.0
	DefaultMinifiedWeight        = 1.0
	DefaultPhishingLinkWeight    = 2.0
	DefaultPhishingLinkCap       = 4.0
	DefaultRedirectServiceWeight = 0.5
	DefaultRedirectServiceCap    = 1.5
	DefaultSuspiciousThreshold   = 3.0
	DefaultMaliciousThreshold    = 7.0
	DefaultPolicyVersion         = "2025.1"
)

// Weights is what each signal contributes. A cap of zero means uncapped.
type Weights struct {
	PhishingPhrase     float64 `json:"phishing_phrase"`
	ExtraPhrase        float64 `json:"extra_phrase"`
	ExtraPhraseCap     float64 `json:"extra_phrase_cap"`
	ScriptDomain       float64 `json:"suspicious_script_domain"`
	ScriptDomainCap    float64 `json:"suspicious_script_domain_cap"`
	MinifiedOrEncoded  float64 `json:"minified_or_encoded"`
	PhishingLink       float64 `json:"phishing_link"`
	PhishingLinkCap    float64 `json:"phishing_link_cap"`
	RedirectService    float64 `json:"redirect_service"`
	RedirectServiceCap float64 `json:"redirect_service_cap"`
}

// Thresholds are the lower bounds of the Suspicious and Malicious bands
type Thresholds struct {
	Suspicious float64 `json:"suspicious"`
	Malicious  float64 `json:"malicious"`
}

// Policy is a versioned scoring configuration
type Policy struct {
	Version    string     `json:"version"`
	Weights    Weights    `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`
}

// DefaultPolicy returns the built-in weights and thresholds
func DefaultPolicy() Policy {
	return Policy{
		Version: DefaultPolicyVersion,
		Weights: Weights{
			PhishingPhrase:     DefaultPhishingPhraseWeight,
			ExtraPhrase:        DefaultExtraPhraseWeight,
			ExtraPhraseCap:     DefaultExtraPhraseCap,
			ScriptDomain:       DefaultScriptDomainWeight,
			ScriptDomainCap:    DefaultScriptDomainCap,
			MinifiedOrEncoded:  DefaultMinifiedWeight,
			PhishingLink:       DefaultPhishingLinkWeight,
			PhishingLinkCap:    DefaultPhishingLinkCap,
			RedirectService:    DefaultRedirectServiceWeight,
			RedirectServiceCap: DefaultRedirectServiceCap,
		},
		Thresholds: Thresholds{
			Suspicious: DefaultSuspiciousThreshold,
			Malicious:  DefaultMaliciousThreshold,
		},
	}
}

// Validate rejects negative weights and thresholds outside 0 < S < M <= 10
func (p Policy) Validate() error {
	w := p.Weights
	named := []struct {
		name  string
		value float64
	}{
		{"phishing_phrase", w.PhishingPhrase},
		{"extra_phrase", w.ExtraPhrase},
		{"extra_phrase_cap", w.ExtraPhraseCap},
		{"suspicious_script_domain", w.ScriptDomain},
		{"suspicious_script_domain_cap", w.ScriptDomainCap},
		{"minified_or_encoded", w.MinifiedOrEncoded},
		{"phishing_link", w.PhishingLink},
		{"phishing_link_cap", w.PhishingLinkCap},
		{"redirect_service", w.RedirectService},
		{"redirect_service_cap", w.RedirectServiceCap},
	}
	var errs []error
	for _, n := range named {
		if n.value < 0 {
			errs = append(errs, fmt.Errorf("weight %s must be >= 0, got %v", n.name, n.value))
		}
	}

	t := p.Thresholds
	if t.Suspicious <= MinScore {
		errs = append(errs, fmt.Errorf("suspicious threshold must be > %v, got %v", MinScore, t.Suspicious))
	}
	if t.Malicious <= t.Suspicious {
		errs = append(errs, fmt.Errorf("malicious threshold (%v) must be above suspicious (%v)", t.Malicious, t.Suspicious))
	}
	if t.Malicious > MaxScore {
		errs = append(errs, fmt.Errorf("malicious threshold must be <= %v, got %v", MaxScore, t.Malicious))
	}
	return errors.Join(errs...)
}
