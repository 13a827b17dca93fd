package analyzer

import (
	"net/url"
	"testing"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://example.com/x", "example.com"},
		{"HTTP://Example.com:80/x", "example.com"},
		{"https://EXAMPLE.com:443", "example.com"},
		{"https://example.com:80", "example.com:80"},
		{"http://example.com:8080/", "example.com:8080"},
		{"http://example.com./", "example.com"},
		{"https://bücher.example/", "xn--bcher-kva.example"},
		{"http://127.0.0.1:80/", "127.0.0.1"},
		{"http://[::1]:8080/", "[::1]:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if got := NormalizeHost(u); got != tt.want {
				t.Errorf("NormalizeHost(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMatchesDomain(t *testing.T) {
	tests := []struct {
		host, domain string
		want         bool
	}{
		{"evil.test", "evil.test", true},
		{"cdn.evil.test", "evil.test", true},
		{"notevil.test", "evil.test", false},
		{"evil.test.example.com", "evil.test", false},
		{"", "evil.test", false},
	}
	for _, tt := range tests {
		if got := MatchesDomain(tt.host, tt.domain); got != tt.want {
			t.Errorf("MatchesDomain(%q, %q) = %v, want %v", tt.host, tt.domain, got, tt.want)
		}
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := map[string]string{
		"login.paypal.com":           "paypal.com",
		"secure.paypal.co.uk":        "paypal.co.uk",
		"paypal-verify.example":      "paypal-verify.example",
		"192.168.1.1":                "192.168.1.1",
		"a.b.c.accounts.example.org": "example.org",
	}
	for host, want := range tests {
		if got := RegistrableDomain(host); got != want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", host, got, want)
		}
	}
	if got := registrableLabel("www.paypal.co.uk"); got != "paypal" {
		t.Errorf("registrableLabel() = %q, want paypal", got)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"paypal", "paypal", 0},
		{"paypa1", "paypal", 1},
		{"paypall", "paypal", 1},
		{"pypal", "paypal", 1},
		{"google", "gogle", 1},
		{"amazon", "amazing", 2},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsIPHost(t *testing.T) {
	for host, want := range map[string]bool{
		"10.0.0.1":      true,
		"[2001:db8::1]": true,
		"::1":           true,
		"example.com":   false,
		"1.2.3":         false,
	} {
		if got := IsIPHost(host); got != want {
			t.Errorf("IsIPHost(%q) = %v, want %v", host, got, want)
		}
	}
}
