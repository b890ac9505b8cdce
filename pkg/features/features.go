// Package features turns a URL plus its collected intelligence into the
// fixed-width numeric vector the classifier was trained on.
package features

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/harveywai/threatscan/pkg/osint"
)

// VectorSize is the input width the trained model expects. The tail of the
// vector is reserved padding; extractors must keep the leading order stable.
const VectorSize = 30

// Extract builds the feature vector for a URL and its OSINT details.
func Extract(raw string, d osint.Details) []float64 {
	norm := osint.NormalizeURL(raw)
	parsed, err := url.Parse(norm)
	if err != nil {
		parsed = &url.URL{}
	}

	host := parsed.Hostname()
	path := parsed.Path

	// 0/1 flag, not a count: the classifier was trained on the presence of
	// an "@" anywhere in the URL.
	atFlag := 0.0
	if strings.Contains(norm, "@") {
		atFlag = 1
	}

	digits, letters := 0, 0
	for _, r := range norm {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}

	tld := ""
	if idx := strings.LastIndex(host, "."); idx >= 0 {
		tld = host[idx+1:]
	}

	v := make([]float64, VectorSize)
	v[0] = float64(len(norm))
	v[1] = float64(strings.Count(norm, "."))
	v[2] = atFlag
	// The scheme separator is included in the count; every normalized URL
	// yields at least 1 here, as in training.
	v[3] = float64(strings.Count(norm, "//"))
	v[4] = float64(strings.Count(norm, "-"))
	v[5] = float64(strings.Count(norm, "?"))
	v[6] = float64(strings.Count(norm, "="))
	v[7] = float64(digits)
	v[8] = float64(letters)
	v[9] = float64(len(tld))
	v[10] = float64(len(host))
	v[11] = float64(len(path))
	v[12] = float64(d.HTTPS)
	v[13] = float64(d.DomainAgeDays)
	v[14] = float64(d.SSLValid)
	v[15] = float64(d.Redirects)
	v[16] = float64(d.SuspiciousKeywords)
	v[17] = float64(d.SubdomainCount)
	return v
}
