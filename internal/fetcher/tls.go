package fetcher

import (
	"crypto/tls"
	"strings"
	"time"
)

// TLSInfo describes the connection and leaf certificate of the final hop
type TLSInfo struct {
	Version  string
	Issuer   string
	NotAfter time.Time

	// Valid is false when the leaf was outside its validity window at fetch
	// time, which can only be observed with an insecure client
	Valid bool
}

// ExpiresWithin reports whether the leaf certificate expires less than d
// after now
func (t *TLSInfo) ExpiresWithin(now time.Time, d time.Duration) bool {
	if t == nil || t.NotAfter.IsZero() {
		return false
	}
	return t.NotAfter.Sub(now) < d
}

// ExtractTLSInfo returns nil for plain HTTP
func ExtractTLSInfo(state *tls.ConnectionState, now time.Time) *TLSInfo {
	if state == nil {
		return nil
	}

	info := &TLSInfo{Version: tls.VersionName(state.Version)}
	if len(state.PeerCertificates) == 0 {
		return info
	}

	leaf := state.PeerCertificates[0]
	info.NotAfter = leaf.NotAfter.UTC()
	info.Valid = !now.Before(leaf.NotBefore) && now.Before(leaf.NotAfter)

	switch {
	case leaf.Issuer.CommonName != "":
		info.Issuer = leaf.Issuer.CommonName
	case len(leaf.Issuer.Organization) > 0:
		info.Issuer = strings.Join(leaf.Issuer.Organization, ", ")
	default:
		info.Issuer = leaf.Issuer.String()
	}
	return info
}
