package resolver

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var invalidSubdomainChars = regexp.MustCompile(`[^a-z0-9-]+`)

const maxSubdomainLen = 63

// EmailDomain returns the lower-cased part of email after its last '@'.
func EmailDomain(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:])), true
}

// DomainAllowed reports whether domain passes allowed. An empty list
// permits every domain.
func DomainAllowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, d := range allowed {
		if strings.EqualFold(strings.TrimSpace(d), domain) {
			return true
		}
	}
	return false
}

// FirstLabel returns the leftmost label of a domain ("acme" for "acme.co.uk").
func FirstLabel(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	return label
}

// TeamName capitalises label: first letter upper, the rest lower.
func TeamName(label string) string {
	if label == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(r)) + strings.ToLower(label[size:])
}

// SubdomainFor turns a domain label into a routing subdomain, or "" when
// nothing usable remains.
func SubdomainFor(label string) string {
	s := invalidSubdomainChars.ReplaceAllString(strings.ToLower(label), "")
	s = strings.Trim(s, "-")
	if len(s) > maxSubdomainLen {
		s = s[:maxSubdomainLen]
	}
	return s
}
