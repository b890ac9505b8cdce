// Package flash carries one-time notices across a redirect. Handlers queue
// entries before redirecting; the next page render consumes them exactly once
// and embeds them as the JSON payload the browser turns into toasts.
package flash

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

const (
	cookieName = "threatscan_flash"
	cookieAge  = 300 // seconds; flashes are meant for the very next page load

	contextKey = "flashPending"
)

// Entry is one queued notice.
type Entry struct {
	Category string
	Message  string
}

// Categories understood by the client; anything else renders as info.
const (
	Success = "success"
	Error   = "error"
	Warning = "warning"
	Info    = "info"
)

// Add queues a flash entry on the outgoing response.
func Add(c *gin.Context, category, message string) {
	var entries []Entry
	if v, exists := c.Get(contextKey); exists {
		entries, _ = v.([]Entry)
	}
	entries = append(entries, Entry{Category: category, Message: message})
	c.Set(contextKey, entries)

	c.SetCookie(cookieName, encode(entries), cookieAge, "/", "", false, true)
}

// Take returns the entries queued by a previous request, in order, and clears
// the cookie so they are consumed exactly once. A missing or unparsable
// cookie yields nil.
func Take(c *gin.Context) []Entry {
	raw, err := c.Cookie(cookieName)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
	return decode(raw)
}

// PayloadJSON renders entries as the ordered [category, message] pair array
// the page embeds in its #flashData element.
func PayloadJSON(entries []Entry) string {
	pairs := make([][2]string, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, [2]string{e.Category, e.Message})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func encode(entries []Entry) string {
	pairs := make([][2]string, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, [2]string{e.Category, e.Message})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

func decode(raw string) []Entry {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var pairs [][2]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil
	}
	entries := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, Entry{Category: p[0], Message: p[1]})
	}
	return entries
}
