// Package security guards the file names the analysis writes.
package security

import (
	"fmt"
	"strings"
)

// maxFilenameLen bounds sanitised names.
const maxFilenameLen = 128

// SanitizeFilename makes a safe file name from an arbitrary string. Any
// character that is not an ASCII letter, digit, dot, underscore or dash is
// replaced with an underscore; repeats collapse and leading or trailing dots
// and underscores are trimmed. An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_':
			if !lastUnderscore {
				b.WriteRune(r)
			}
			lastUnderscore = true
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// ValidateBaseName rejects an output base name that would not survive
// SanitizeFilename unchanged, such as one containing a path separator.
func ValidateBaseName(name string) error {
	if name == "" {
		return fmt.Errorf("file name must not be empty")
	}
	if safe := SanitizeFilename(name); safe != name {
		return fmt.Errorf("unsafe file name %q (try %q)", name, safe)
	}
	return nil
}
