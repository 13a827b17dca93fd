package htmldoc

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Safety limits on what a single page can contribute
const (
	DefaultMaxLinks   = 10000
	DefaultMaxScripts = 2000
)

// Selectors are compiled once and shared by every parse
var (
	selHTML   = cascadia.MustCompile("html")
	selBase   = goquery.SingleMatcher(cascadia.MustCompile("base[href]"))
	selTitle  = goquery.SingleMatcher(cascadia.MustCompile("title"))
	selMeta   = cascadia.MustCompile("meta")
	selScript = cascadia.MustCompile("script")
	selLink   = cascadia.MustCompile("a[href]")
)

// Elements whose content is never visible text
var skipText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Head:     true,
}

// Elements that start a new text segment
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Li: true, atom.Td: true, atom.Th: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Br: true, atom.Hr: true, atom.Form: true, atom.Header: true, atom.Footer: true,
	atom.Nav: true, atom.Aside: true, atom.Main: true, atom.Blockquote: true, atom.Pre: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Figure: true, atom.Figcaption: true, atom.Address: true, atom.Fieldset: true,
	atom.Legend: true, atom.Label: true, atom.Option: true, atom.Button: true, atom.Title: true,
	atom.Body: true,
}

// Parser turns raw HTML into a Document
type Parser struct {
	maxLinks   int
	maxScripts int
}

// NewParser creates a parser with the default safety limits
func NewParser() *Parser {
	return &Parser{
		maxLinks:   DefaultMaxLinks,
		maxScripts: DefaultMaxScripts,
	}
}

// Parse is a convenience wrapper around NewParser().Parse
func Parse(src Source) (*Document, error) {
	return NewParser().Parse(src)
}

// Parse decodes and parses src. Broken markup is recovered the way browsers
// recover it; only empty, binary or rootless input is rejected.
func (p *Parser) Parse(src Source) (*Document, error) {
	raw := src.Bytes()
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Reason: ReasonEmpty}
	}

	body, charsetName := decodeUTF8(raw, src.MIMEType())
	if looksBinary(raw, body) {
		return nil, &ParseError{Reason: ReasonBinary, Detail: src.MIMEType()}
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Reason: ReasonNoRoot, Detail: err.Error()}
	}

	doc := goquery.NewDocumentFromNode(root)
	if doc.FindMatcher(selHTML).Length() == 0 {
		return nil, &ParseError{Reason: ReasonNoRoot}
	}

	pageURL, _ := url.Parse(src.Location())
	base := resolveBase(doc, pageURL)

	result := &Document{
		URL:     src.Location(),
		Charset: charsetName,
		Meta:    extractMeta(doc),
		Text:    extractText(root),
		Scripts: p.extractScripts(doc, base),
		Links:   p.extractLinks(doc, base),
	}
	if base != nil {
		result.BaseURL = base.String()
	}
	result.Title = collapseSpace(doc.FindMatcher(selTitle).Text())

	return result, nil
}

// resolveBase honours the first <base href>, as browsers do
func resolveBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.FindMatcher(selBase).Attr("href")
	if !ok {
		return pageURL
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	if pageURL != nil {
		ref = pageURL.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return pageURL
	}
	return ref
}

// resolve makes href absolute; unparsable hrefs are returned trimmed but unchanged
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(u).String()
}

func extractMeta(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.FindMatcher(selMeta).Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		key := s.AttrOr("name", "")
		if key == "" {
			key = s.AttrOr("property", "")
		}
		if key == "" {
			key = s.AttrOr("http-equiv", "")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return
		}
		if _, seen := meta[key]; !seen {
			meta[key] = strings.TrimSpace(content)
		}
	})
	return meta
}

func (p *Parser) extractScripts(doc *goquery.Document, base *url.URL) []ScriptRef {
	scripts := make([]ScriptRef, 0)
	doc.FindMatcher(selScript).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(scripts) >= p.maxScripts {
			return false
		}
		ref := ScriptRef{
			Type: strings.ToLower(strings.TrimSpace(s.AttrOr("type", ""))),
		}
		if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
			ref.Src = resolve(base, src)
		} else {
			ref.Inline = s.Text()
		}
		scripts = append(scripts, ref)
		return true
	})
	return scripts
}

func (p *Parser) extractLinks(doc *goquery.Document, base *url.URL) []LinkRef {
	links := make([]LinkRef, 0)
	doc.FindMatcher(selLink).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(links) >= p.maxLinks {
			return false
		}
		// an empty href still counts: it points back at the current page
		href := strings.TrimSpace(s.AttrOr("href", ""))

		text := collapseSpace(visibleText(s.Nodes[0]))
		if text == "" {
			text = collapseSpace(s.AttrOr("aria-label", s.AttrOr("title", "")))
		}

		links = append(links, LinkRef{Href: resolve(base, href), Text: text})
		return true
	})
	return links
}

// extractText walks the tree collecting visible text, starting a new segment
// at every block-level element so phrases never span unrelated blocks
func extractText(root *html.Node) []string {
	segments := make([]string, 0)
	var current strings.Builder

	flush := func() {
		if seg := collapseSpace(current.String()); seg != "" {
			segments = append(segments, seg)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipText[n.DataAtom] {
				return
			}
			if blockElements[n.DataAtom] {
				flush()
				defer flush()
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)
	flush()
	return segments
}

// visibleText is like Selection.Text but skips script and style content
func visibleText(n *html.Node) string {
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			text.WriteString(node.Data)
			return
		}
		if node.Type == html.ElementNode {
			if skipText[node.DataAtom] {
				return
			}
			if node.DataAtom == atom.Br || node.DataAtom == atom.Img {
				text.WriteByte(' ')
				if alt := attr(node, "alt"); alt != "" {
					text.WriteString(alt + " ")
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return text.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
