package urlcheck

import "strings"

// Status classifies raw URL input before it is sent for deep analysis.
type Status string

const (
	StatusEmpty Status = "empty"
	StatusError Status = "error"
	StatusWarn  Status = "warn"
	StatusOK    Status = "ok"
)

// Result pairs a classification with the message shown next to the input.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// suspiciousKeywords is the pre-filter list shown to the user while typing.
// The server-side OSINT collector scans a larger list; this one exists only
// to shape immediate feedback and is never treated as authoritative.
var suspiciousKeywords = []string{
	"login", "signin", "verify", "secure", "update", "bank", "payment", "paypal",
}

// Evaluate classifies the given input text. It is a pure function: no network
// access, deterministic, first matching rule wins.
func Evaluate(text string) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{
			Status:  StatusEmpty,
			Message: "Enter a URL to scan.",
		}
	}

	if strings.Contains(trimmed, " ") || !strings.Contains(trimmed, ".") {
		return Result{
			Status:  StatusError,
			Message: "This does not look like a complete URL.",
		}
	}

	lower := strings.ToLower(trimmed)
	var matched []string
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}

	switch {
	case len(matched) >= 2:
		return Result{
			Status:  StatusWarn,
			Message: "Suspicious keywords detected: " + strings.Join(matched, ", "),
		}
	case len(matched) == 1:
		return Result{
			Status:  StatusWarn,
			Message: "Suspicious keyword detected: " + matched[0],
		}
	}

	return Result{
		Status:  StatusOK,
		Message: "URL looks valid. Deep analysis makes the final decision.",
	}
}
