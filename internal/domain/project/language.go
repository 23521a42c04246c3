package project

import "strings"

// PlainText is the language of files whose extension has no mapping
const PlainText = "plaintext"

var languages = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"java": "java",
	"cs":   "csharp",
	"php":  "php",
	"html": "html",
	"css":  "css",
	"json": "json",
	"xml":  "xml",
	"md":   "markdown",
	"yaml": "yaml",
	"yml":  "yaml",
}

// Extension returns the text after the last dot of name, or "" when name
// has no dot.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// InferLanguage maps a file name to its editor language tag.
func InferLanguage(name string) string {
	if lang, ok := languages[strings.ToLower(Extension(name))]; ok {
		return lang
	}
	return PlainText
}
