package refdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/olegrjumin/sitescan/internal/analyzer"
	"github.com/olegrjumin/sitescan/internal/scoring"
)

// BrandEntry is an impersonation target in the dataset file
type BrandEntry struct {
	Name    string   `json:"name"`
	Domains []string `json:"domains"`
}

// Dataset is the on-disk reference data format
type Dataset struct {
	Version          string          `json:"version"`
	PhishingPhrases  []string        `json:"phishing_phrases"`
	PhraseThreshold  int             `json:"phrase_threshold,omitempty"`
	DeniedDomains    []string        `json:"denied_domains"`
	RedirectServices []string        `json:"redirect_services"`
	Brands           []BrandEntry    `json:"brands"`
	LureKeywords     []string        `json:"lure_keywords"`
	LinkPatterns     []string        `json:"link_patterns"`
	Scoring          *scoring.Policy `json:"scoring,omitempty"`
}

// Snapshot is a compiled, immutable dataset. Every scan reads exactly one
// snapshot from start to finish.
type Snapshot struct {
	Version string
	Text    analyzer.TextRules
	Scripts analyzer.ScriptRules
	Links   analyzer.LinkRules
	Policy  scoring.Policy
}

// Parse decodes a dataset from JSON, rejecting unknown fields
func Parse(data []byte) (*Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	return &ds, nil
}

// LoadFile reads, decodes and compiles a dataset file
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	snap, err := Compile(*ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Compile normalizes the dataset and builds a Snapshot. Entries are
// lowercased, trimmed and deduplicated; patterns are compiled; the scoring
// policy defaults to scoring.DefaultPolicy when absent.
func Compile(ds Dataset) (*Snapshot, error) {
	version := strings.TrimSpace(ds.Version)
	if version == "" {
		return nil, errors.New("reference data has no version")
	}
	if ds.PhraseThreshold < 0 {
		return nil, fmt.Errorf("phrase_threshold must be >= 0, got %d", ds.PhraseThreshold)
	}

	patterns := make([]*regexp.Regexp, 0, len(ds.LinkPatterns))
	for i, expr := range ds.LinkPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("link_patterns[%d]: %w", i, err)
		}
		patterns = append(patterns, re)
	}

	brands := make([]analyzer.Brand, 0, len(ds.Brands))
	for i, b := range ds.Brands {
		name := analyzer.NormalizePhrase(b.Name)
		if name == "" {
			return nil, fmt.Errorf("brands[%d]: name is empty", i)
		}
		domains := normalizeDomains(b.Domains)
		if len(domains) == 0 {
			return nil, fmt.Errorf("brands[%d] (%s): no domains", i, name)
		}
		brands = append(brands, analyzer.Brand{Name: name, Domains: domains})
	}

	// the default weights ship with the dataset, so they carry its version
	policy := scoring.DefaultPolicy()
	policy.Version = version
	if ds.Scoring != nil {
		policy = *ds.Scoring
		if policy.Version == "" {
			policy.Version = version
		}
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	return &Snapshot{
		Version: version,
		Text: analyzer.TextRules{
			Phrases:   normalizeList(ds.PhishingPhrases, analyzer.NormalizePhrase),
			Threshold: ds.PhraseThreshold,
		},
		Scripts: analyzer.ScriptRules{
			DeniedDomains: normalizeDomains(ds.DeniedDomains),
		},
		Links: analyzer.LinkRules{
			RedirectServices: normalizeDomains(ds.RedirectServices),
			Brands:           brands,
			LureKeywords:     normalizeList(ds.LureKeywords, analyzer.NormalizePhrase),
			Patterns:         patterns,
		},
		Policy: policy,
	}, nil
}

func normalizeDomains(in []string) []string {
	return normalizeList(in, func(s string) string {
		s = strings.TrimPrefix(strings.TrimSpace(s), "*.")
		return analyzer.NormalizeHostname(strings.TrimPrefix(s, "."))
	})
}

func normalizeList(in []string, norm func(string) string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = norm(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
