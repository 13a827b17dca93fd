package analyzer

import "strings"

// DefaultPhraseThreshold is the number of distinct phrase matches that sets
// PhishingIndicators
const DefaultPhraseThreshold = 1

// TextRules is the phrase dictionary and its threshold
type TextRules struct {
	Phrases   []string
	Threshold int
}

// typographic variants folded before matching
var quoteFolder = strings.NewReplacer(
	"’", "'", "‘", "'",
	"“", `"`, "”", `"`,
)

// NormalizePhrase lowercases, folds curly quotes and collapses whitespace
func NormalizePhrase(s string) string {
	s = quoteFolder.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// AnalyzeText matches every dictionary phrase against the text segments.
// Segments are joined with a newline so a phrase can never match across two
// blocks. Matches are reported in dictionary order, once each.
func AnalyzeText(segments []string, rules TextRules) TextFindings {
	findings := TextFindings{SuspiciousPhrases: make([]string, 0)}
	if len(segments) == 0 || len(rules.Phrases) == 0 {
		return findings
	}

	normalized := make([]string, len(segments))
	for i, seg := range segments {
		normalized[i] = NormalizePhrase(seg)
	}
	haystack := strings.Join(normalized, "\n")

	matched := newOrderedSet()
	seen := make(map[string]struct{}, len(rules.Phrases))
	for _, phrase := range rules.Phrases {
		needle := NormalizePhrase(phrase)
		if needle == "" {
			continue
		}
		if _, dup := seen[needle]; dup {
			continue
		}
		seen[needle] = struct{}{}
		if strings.Contains(haystack, needle) {
			matched.add(phrase)
		}
	}

	threshold := rules.Threshold
	if threshold <= 0 {
		threshold = DefaultPhraseThreshold
	}

	findings.SuspiciousPhrases = matched.values()
	findings.PhishingIndicators = len(findings.SuspiciousPhrases) >= threshold
	return findings
}
