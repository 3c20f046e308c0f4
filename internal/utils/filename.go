package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// SanitizeBaseName strips directories and the extension from name and
// replaces every character outside [a-zA-Z0-9_-] with an underscore.
// The returned extension is lower-cased and keeps its leading dot.
func SanitizeBaseName(name string) (base, ext string) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext = strings.ToLower(filepath.Ext(name))
	base = strings.TrimSuffix(name, filepath.Ext(name))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	if base == "" || base == "." {
		base = "file"
	}
	if ext == "." || (ext != "" && unsafeNameChars.MatchString(ext[1:])) {
		ext = ""
	}
	return base, ext
}
