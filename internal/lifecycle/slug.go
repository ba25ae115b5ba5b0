package lifecycle

import "strings"

// Slugify turns free text into a URL-safe production key segment: lowercase,
// runs of anything outside [a-z0-9] collapse to a single hyphen, leading and
// trailing hyphens are trimmed. "The Green Table" -> "the-green-table".
func Slugify(text string) string {
	var b strings.Builder
	lastHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
