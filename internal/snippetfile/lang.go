package snippetfile

import (
	"path/filepath"
	"strings"
)

var extLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".mjs":  "javascript",
	".jsx":  "javascript",
	".ts":   "javascript",
	".java": "java",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".h":    "cpp",
	".html": "html",
	".htm":  "html",
	".css":  "html",
}

// LanguageForPath maps a file extension to a default language name, or ""
// when the extension is unknown.
func LanguageForPath(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}
