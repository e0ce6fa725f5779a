package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer maps characters that are unsafe on any publish share.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// reservedNames cannot be used as Windows file names regardless of extension.
var reservedNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {},
}

// SanitizeFileName makes an exporter label or product segment safe as a file
// name. Path separators, colons and asterisks become dashes; quotes, angle
// brackets, pipes, question marks and control characters are dropped. Trailing
// dots and spaces are trimmed, and Windows device names gain a leading
// underscore. Interior spaces are kept.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, fileNameReplacer.Replace(name))
	name = strings.TrimRight(strings.TrimSpace(name), ". ")
	if _, reserved := reservedNames[strings.ToLower(name)]; reserved {
		name = "_" + name
	}
	return name
}

// SanitizeToken converts a shape or instance name to a lowercase token for
// generated file and staging directory names. Letters are lowercased, digits,
// hyphens and underscores are kept, runs of anything else collapse to one
// underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-' || r == '_':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
