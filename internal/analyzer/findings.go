package analyzer

// TextFindings is the evidence found in the page's visible text
type TextFindings struct {
	SuspiciousPhrases  []string `json:"suspicious_phrases"`
	PhishingIndicators bool     `json:"phishing_indicators"`
}

// ScriptFindings is the evidence found in <script> elements
type ScriptFindings struct {
	TotalScripts      int      `json:"total_scripts"`
	ExternalScripts   int      `json:"external_scripts"`
	SuspiciousDomains []string `json:"suspicious_domains"`
	MinifiedOrEncoded bool     `json:"minified_or_encoded"`
}

// LinkFindings is the evidence found in <a href> elements
type LinkFindings struct {
	TotalLinks           int      `json:"total_links"`
	ExternalLinks        int      `json:"external_links"`
	RedirectServicesUsed []string `json:"redirect_services_used"`
	PhishingLikeLinks    []string `json:"phishing_like_links"`
}

// orderedSet keeps the first occurrence of each value
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: make([]string, 0)}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) values() []string { return s.items }
