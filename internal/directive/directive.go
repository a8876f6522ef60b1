// Package directive finds "shell:" annotations in decrypted secrets files and
// reads the current value of annotated keys.
//
// A directive is a comment line of the form
//
//	# shell: <command>
//	; shell: <command>
//
// bound to the first non-blank line below it, which must be a "key: value" or
// "key = value" line. A comment between the directive and the key breaks the
// binding.
package directive

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/schaermu/sops-shell/internal/failure"
)

var (
	directivePattern = regexp.MustCompile(`^\s*[#;]\s*shell:\s*(.+)$`)
	keyPattern       = regexp.MustCompile(`^\s*([^:=\s]+)\s*[:=]`)
)

// Mapping binds a secret key to the command producing its value
type Mapping struct {
	Key     string
	Command string
}

// Scan returns the mappings declared in plaintext, in source order. Keys are
// not deduplicated. Plaintext must be valid UTF-8.
func Scan(plaintext string) ([]Mapping, error) {
	if !utf8.ValidString(plaintext) {
		return nil, failure.Errorf(failure.Parse, "content is not valid UTF-8")
	}

	lines := strings.Split(plaintext, "\n")

	var mappings []Mapping
	for i, line := range lines {
		m := directivePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		command := strings.TrimSpace(m[1])
		if command == "" {
			continue
		}

		if key, ok := nextKey(lines, i+1); ok {
			mappings = append(mappings, Mapping{Key: key, Command: command})
		}
	}

	return mappings, nil
}

// nextKey returns the key on the first non-blank line at or after start.
// A comment on that line, or no line at all, means no key.
func nextKey(lines []string, start int) (string, bool) {
	for _, line := range lines[min(start, len(lines)):] {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if IsComment(stripped) {
			return "", false
		}

		m := keyPattern.FindStringSubmatch(stripped)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
	return "", false
}

// IsComment reports whether the line, once trimmed, starts with '#' or ';'.
func IsComment(line string) bool {
	stripped := strings.TrimSpace(line)
	return strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, ";")
}
