// Package osint gathers the open-source intelligence signals that feed the
// classifier: WHOIS domain age, SSL validity, redirect behavior, and lexical
// risk markers. Every lookup degrades to a zero value on failure; a scan is
// never aborted because a registry or host is unreachable.
package osint

import (
	"crypto/tls"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Details holds the collected signals for one URL. Boolean signals are 0/1
// ints so they can flow straight into the feature vector and the database.
type Details struct {
	Domain             string `json:"domain"`
	HTTPS              int    `json:"https"`
	SSLValid           int    `json:"ssl_valid"`
	DomainAgeDays      int    `json:"domain_age_days"`
	Redirects          int    `json:"redirects"`
	SuspiciousKeywords int    `json:"suspicious_keywords"`
	SubdomainCount     int    `json:"subdomain_count"`
}

// suspiciousWords is the full server-side marker list. The client pre-filter
// uses a smaller subset; this list decides what gets persisted and scored.
var suspiciousWords = []string{
	"login", "secure", "signin", "verify", "update",
	"account", "bank", "payment", "confirm", "invoice",
	"paypal", "security", "webscr", "password",
}

// Collector runs the lookups with bounded timeouts.
type Collector struct {
	timeout time.Duration
	client  *http.Client
}

// NewCollector returns a collector whose network calls are bounded by timeout.
func NewCollector(timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Collector{
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NormalizeURL prepends http:// when the input has no scheme, matching how
// users paste bare hostnames.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	return raw
}

// DomainOf extracts the lowercased hostname from a raw URL.
func DomainOf(raw string) string {
	parsed, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// CountSuspiciousKeywords counts the marker words present in the URL text.
func CountSuspiciousKeywords(raw string) int {
	text := strings.ToLower(raw)
	count := 0
	for _, w := range suspiciousWords {
		if strings.Contains(text, w) {
			count++
		}
	}
	return count
}

// SubdomainCount counts subdomain labels left of the registrable domain.
func SubdomainCount(domain string) int {
	dn, err := publicsuffix.Parse(domain)
	if err != nil || dn.TRD == "" {
		return 0
	}
	return len(strings.Split(dn.TRD, "."))
}

// Collect gathers all signals for the given URL. Only the lexical signals
// are guaranteed; every network-backed field falls back to zero.
func (c *Collector) Collect(raw string) Details {
	norm := NormalizeURL(raw)
	domain := DomainOf(raw)

	d := Details{
		Domain:             domain,
		SuspiciousKeywords: CountSuspiciousKeywords(raw),
		SubdomainCount:     SubdomainCount(domain),
	}
	if strings.HasPrefix(norm, "https://") {
		d.HTTPS = 1
	}
	if domain == "" {
		return d
	}

	d.DomainAgeDays = c.domainAgeDays(domain)
	d.SSLValid = c.checkSSL(domain)
	d.Redirects = c.redirectCount(norm)

	return d
}

// domainAgeDays looks up the registrable domain's WHOIS creation date and
// converts it to days. Any failure returns 0.
func (c *Collector) domainAgeDays(domain string) int {
	rootDomain := domain
	if dn, err := publicsuffix.Parse(domain); err == nil {
		if dn.SLD != "" && dn.TLD != "" {
			rootDomain = dn.SLD + "." + dn.TLD
		}
	}

	raw, err := whois.Whois(rootDomain)
	if err != nil {
		log.Printf("WHOIS lookup failed for %s: %v", rootDomain, err)
		return 0
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		log.Printf("WHOIS parse failed for %s: %v", rootDomain, err)
		return 0
	}

	if parsed.Domain.CreatedDate == "" {
		return 0
	}

	created := parseWhoisTime(parsed.Domain.CreatedDate)
	if created.IsZero() {
		log.Printf("WHOIS creation date parse failed for %s: %q", rootDomain, parsed.Domain.CreatedDate)
		return 0
	}

	age := int(time.Since(created).Hours() / 24)
	if age < 0 {
		return 0
	}
	return age
}

// parseWhoisTime tries the layouts registries actually emit.
func parseWhoisTime(value string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05 MST",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// checkSSL performs a verifying TLS handshake on port 443. Unlike an expiry
// scan, verification stays on here: a broken chain counts as invalid.
func (c *Collector) checkSSL(domain string) int {
	dialer := &net.Dialer{
		Timeout: c.timeout,
	}
	conn, err := tls.DialWithDialer(dialer, "tcp", domain+":443", &tls.Config{
		ServerName: domain,
	})
	if err != nil {
		return 0
	}
	defer conn.Close()

	if len(conn.ConnectionState().PeerCertificates) == 0 {
		return 0
	}
	return 1
}

// redirectCount follows the URL and counts the hops taken to the final page.
func (c *Collector) redirectCount(norm string) int {
	hops := 0
	client := &http.Client{
		Timeout: c.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			hops = len(via)
			return nil
		},
	}

	resp, err := client.Get(norm)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	return hops
}
