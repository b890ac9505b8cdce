package webui

import (
	"encoding/json"
	"log"
	"strings"
)

// DrainFlashPayload parses the server-embedded flash payload, an ordered JSON
// array of [category, message] pairs, and feeds every entry to the notifier in
// order. Categories success/error/warning map directly; anything else becomes
// info. An absent, unparsable, or empty payload does nothing; parse failures
// are logged, never shown to the user. It returns the number of toasts shown.
func DrainFlashPayload(payload string, notifier *Notifier) int {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return 0
	}

	var entries [][]string
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		log.Printf("flash payload parse failed: %v", err)
		return 0
	}

	shown := 0
	for _, entry := range entries {
		if len(entry) < 2 {
			continue
		}
		category, message := entry[0], entry[1]
		if notifier.Notify(message, NormalizeToastType(category), "", 0) != 0 {
			shown++
		}
	}
	return shown
}
