package analyzer

import (
	"mime"
	"regexp"
	"strings"
	"unicode"

	"github.com/olegrjumin/sitescan/internal/htmldoc"
)

// Minified/encoded heuristic thresholds. These are approximations tuned on
// common packers and bundlers, not a proof of malice.
const (
	// Inline bodies shorter than this are never flagged
	MinHeuristicScriptLength = 200

	// A run of base64-alphabet characters at least this long counts as an
	// encoded payload
	EncodedTokenMinLength = 100

	// Whitespace ratio and line length checks only apply from this length on
	MinifiedMinLength = 500

	// Bodies with less whitespace than this fraction are considered minified
	MinifiedWhitespaceRatio = 0.05

	// Bodies whose average line is longer than this are considered minified
	MinifiedAvgLineLength = 500

	// This many \xNN or \uNNNN escapes mark a body as encoded
	HexEscapeThreshold = 20
)

// encodedMarkers are calls typical of packed or string-decoded payloads
var encodedMarkers = []string{
	"eval(function(p,a,c,k,e",
	"atob(",
	"unescape(",
	"String.fromCharCode(",
	"document.write(unescape",
}

var hexEscapePattern = regexp.MustCompile(`\\x[0-9a-fA-F]{2}|\\u[0-9a-fA-F]{4}`)

// JavaScript types per the HTML standard; anything else (JSON, templates) is data
var javaScriptTypes = map[string]bool{
	"":                         true,
	"module":                   true,
	"text/javascript":          true,
	"application/javascript":   true,
	"application/ecmascript":   true,
	"application/x-javascript": true,
	"application/x-ecmascript": true,
	"text/ecmascript":          true,
	"text/jscript":             true,
	"text/livescript":          true,
	"text/x-javascript":        true,
	"text/x-ecmascript":        true,
}

// ScriptRules holds the script denylist
type ScriptRules struct {
	DeniedDomains []string
}

// AnalyzeScripts counts scripts, flags external ones hosted on denied
// domains or raw IPs, and applies the minified/encoded heuristic to inline
// JavaScript
func AnalyzeScripts(pageURL string, scripts []htmldoc.ScriptRef, rules ScriptRules) ScriptFindings {
	findings := ScriptFindings{
		TotalScripts:      len(scripts),
		SuspiciousDomains: make([]string, 0),
	}
	pageHost, _ := hostKeyOf(pageURL)
	suspicious := newOrderedSet()

	for _, s := range scripts {
		if !s.External() {
			if isJavaScript(s.Type) && LooksMinifiedOrEncoded(s.Inline) {
				findings.MinifiedOrEncoded = true
			}
			continue
		}

		hostKey, u := hostKeyOf(s.Src)
		if hostKey == "" {
			// data: and blob: sources carry the code in the URL itself
			if u != nil && strings.EqualFold(u.Scheme, "data") && isEncodedDataURL(s.Src) {
				findings.MinifiedOrEncoded = true
			}
			continue
		}
		if hostKey == pageHost {
			continue
		}
		findings.ExternalScripts++

		name := NormalizeHostname(u.Hostname())
		if _, denied := matchAny(name, rules.DeniedDomains); denied || IsIPHost(name) {
			suspicious.add(name)
		}
	}

	findings.SuspiciousDomains = suspicious.values()
	return findings
}

func isJavaScript(scriptType string) bool {
	if javaScriptTypes[scriptType] {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(scriptType)
	return err == nil && javaScriptTypes[mediaType]
}

func isEncodedDataURL(src string) bool {
	header, _, ok := strings.Cut(src, ",")
	return ok && strings.HasSuffix(strings.ToLower(header), ";base64")
}

// LooksMinifiedOrEncoded applies the inline script heuristic
func LooksMinifiedOrEncoded(body string) bool {
	body = strings.TrimSpace(body)
	if len(body) < MinHeuristicScriptLength {
		return false
	}

	for _, marker := range encodedMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	if len(hexEscapePattern.FindAllStringIndex(body, HexEscapeThreshold)) >= HexEscapeThreshold {
		return true
	}
	if longestBase64Run(body) >= EncodedTokenMinLength {
		return true
	}

	if len(body) < MinifiedMinLength {
		return false
	}
	if whitespaceRatio(body) < MinifiedWhitespaceRatio {
		return true
	}
	lines := strings.Count(body, "\n") + 1
	return len(body)/lines > MinifiedAvgLineLength
}

func longestBase64Run(s string) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if isBase64Char(s[i]) {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return longest
}

func isBase64Char(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '+' || c == '/' || c == '='
}

func whitespaceRatio(s string) float64 {
	if s == "" {
		return 0
	}
	ws := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			ws++
		}
	}
	return float64(ws) / float64(len(s))
}
