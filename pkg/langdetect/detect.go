// Package langdetect names the language of code blocks and recognises
// binary content. It wraps go-enry with a few fast textual heuristics
// for snippets too short for the classifier.
package langdetect

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Text is returned when no language can be determined.
const Text = "text"

// classifierCandidates limits the enry classifier to languages that
// commonly appear in prose documents.
var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "TOML", "HTML", "CSS", "Markdown", "Dockerfile",
}

// aliases maps common fence tags to their canonical name.
var aliases = map[string]string{
	"sh":     "bash",
	"shell":  "bash",
	"zsh":    "bash",
	"js":     "javascript",
	"ts":     "typescript",
	"py":     "python",
	"yml":    "yaml",
	"golang": "go",
	"txt":    Text,
	"plain":  Text,
}

// hint is a cheap content test for one language.
type hint struct {
	lang  string
	match func(content []byte, trimmed []byte) bool
}

// hints run in order; the first match wins.
var hints = []hint{
	{"go", func(_, trimmed []byte) bool {
		return bytes.HasPrefix(trimmed, []byte("package "))
	}},
	{"python", func(content, _ []byte) bool {
		s := string(content)
		return (strings.Contains(s, "def ") && strings.Contains(s, "):")) ||
			strings.Contains(s, "__name__")
	}},
	{"html", func(_, trimmed []byte) bool {
		lower := bytes.ToLower(trimmed)
		return bytes.Contains(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html"))
	}},
	{"json", func(_, trimmed []byte) bool {
		return (bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("["))) &&
			bytes.Contains(trimmed, []byte(`"`))
	}},
	{"sql", func(_, trimmed []byte) bool {
		upper := strings.ToUpper(string(trimmed))
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if strings.HasPrefix(upper, kw) {
				return true
			}
		}
		return false
	}},
	{"javascript", func(content, _ []byte) bool {
		s := string(content)
		return strings.Contains(s, "=>") || strings.Contains(s, "console.log")
	}},
	{"yaml", func(content, _ []byte) bool {
		return yamlPairs(content) >= 2
	}},
}

// Detect returns the canonical language name of a code snippet, or Text
// when it cannot be determined with confidence.
func Detect(content []byte) string {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return Text
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return Normalize(lang)
	}

	for _, h := range hints {
		if h.match(content, trimmed) {
			return h.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return Normalize(lang)
	}

	return Text
}

// Normalize canonicalises a fence tag or enry language name: the first
// word of the info string, lower-cased, with aliases resolved.
func Normalize(tag string) string {
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return ""
	}

	lang := strings.ToLower(strings.Trim(fields[0], "{}."))
	if canonical, ok := aliases[lang]; ok {
		return canonical
	}
	return lang
}

// IsBinary reports whether content looks like binary data rather than
// a text document.
func IsBinary(content []byte) bool {
	return enry.IsBinary(content)
}

// yamlPairs counts lines shaped like "key: value" or "- item".
func yamlPairs(content []byte) int {
	count := 0
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.HasPrefix(line, []byte("- ")) {
			count++
			continue
		}
		if bytes.Contains(line, []byte(": ")) && !bytes.ContainsAny(line, "({\"") {
			count++
		}
	}
	return count
}
