package directive

import "strings"

// Value returns the stored value of key in plaintext.
//
// Matching is line oriented: the first non-comment line that starts with key
// followed by ':' or '=' wins. Keys that are prefixes of other keys are not
// disambiguated, and only one level of surrounding double quotes is removed.
func Value(plaintext, key string) (string, bool) {
	for _, line := range strings.Split(plaintext, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || IsComment(trimmed) {
			continue
		}

		rest, ok := strings.CutPrefix(trimmed, key)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, ":") && !strings.HasPrefix(rest, "=") {
			continue
		}

		return unquote(strings.TrimSpace(rest[1:])), true
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
