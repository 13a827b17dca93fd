package htmldoc

import (
	"bytes"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// sniffLen is how much of the body is inspected for binary content
const sniffLen = 1024

// decodeUTF8 converts body to UTF-8 using the BOM, the Content-Type charset
// or a <meta charset> prescan, in that order. Unknown charsets fall back to
// the raw bytes.
func decodeUTF8(body []byte, contentType string) ([]byte, string) {
	_, name, _ := charset.DetermineEncoding(body, contentType)
	name = strings.ToLower(strings.TrimSpace(name))

	if name == "" || name == "utf-8" || name == "utf8" {
		return stripUTF8BOM(body), "utf-8"
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return body, name
	}
	if canonical, err := htmlindex.Name(enc); err == nil {
		name = canonical
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body, name
	}
	return decoded, name
}

func stripUTF8BOM(body []byte) []byte {
	return bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
}

// looksBinary reports whether raw is something other than text. The sniff
// runs on the undecoded bytes; the NUL check runs on decoded ones so UTF-16
// pages are not mistaken for binary.
func looksBinary(raw, decoded []byte) bool {
	head := raw
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	sniffed := http.DetectContentType(head)
	if !strings.HasPrefix(sniffed, "text/") {
		return true
	}

	head = decoded
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}
