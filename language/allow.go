package language

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions is the fixed allow-list of bundled file extensions (lower case,
// without the dot), mapped to the language name reported in logs.
var AllowedExtensions = map[string]string{
	"py":   "Python",
	"js":   "JavaScript",
	"css":  "CSS",
	"txt":  "Text",
	"json": "JSON",
	"csv":  "CSV",
	"html": "HTML",
	"md":   "Markdown",
}

// Extension returns the lower-cased substring after the last dot of the file name,
// or "" when the name has no dot.
func Extension(filePath string) string {
	base := filepath.Base(filepath.FromSlash(filePath))
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return ""
	}
	return strings.ToLower(base[dot+1:])
}

// IsAllowed reports whether the file's extension is in AllowedExtensions.
// Files without an extension are never allowed.
func IsAllowed(filePath string) bool {
	ext := Extension(filePath)
	if ext == "" {
		return false
	}
	_, ok := AllowedExtensions[ext]
	return ok
}

// DetectLanguage returns the language name for an allow-listed file, or "Unknown".
func DetectLanguage(filePath string) string {
	if lang, ok := AllowedExtensions[Extension(filePath)]; ok {
		return lang
	}
	return "Unknown"
}
