package htmldoc

// Source is anything the parser can read a page from. The fetcher's Result
// implements it; tests use StaticSource.
type Source interface {
	// Location is the URL relative references resolve against
	Location() string

	// MIMEType is the Content-Type as sent, parameters included
	MIMEType() string

	// Bytes is the raw, undecoded body
	Bytes() []byte
}

// StaticSource is a Source backed by in-memory values
type StaticSource struct {
	URL         string
	ContentType string
	Body        []byte
}

func (s StaticSource) Location() string { return s.URL }
func (s StaticSource) MIMEType() string { return s.ContentType }
func (s StaticSource) Bytes() []byte    { return s.Body }

// ScriptRef is one <script> element
// Src is set (and absolute) for external scripts, Inline holds the body otherwise
type ScriptRef struct {
	Src    string `json:"src,omitempty"`
	Inline string `json:"inline,omitempty"`
	Type   string `json:"type,omitempty"`
}

// External reports whether the script is loaded from a URL
func (s ScriptRef) External() bool { return s.Src != "" }

// LinkRef is one <a href> element with its resolved href and visible text
type LinkRef struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
}

// Document is the parsed, immutable view of a page
type Document struct {
	URL     string            `json:"url"`
	BaseURL string            `json:"base_url"`
	Title   string            `json:"title,omitempty"`
	Charset string            `json:"charset"`
	Meta    map[string]string `json:"meta,omitempty"`

	// Text holds visible text, one entry per block-level segment
	Text    []string    `json:"text"`
	Scripts []ScriptRef `json:"scripts"`
	Links   []LinkRef   `json:"links"`
}

// AnalyzableText returns the title followed by the text segments
func (d *Document) AnalyzableText() []string {
	if d.Title == "" {
		return d.Text
	}
	out := make([]string, 0, len(d.Text)+1)
	out = append(out, d.Title)
	return append(out, d.Text...)
}
