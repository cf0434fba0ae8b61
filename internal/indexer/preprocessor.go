package indexer

import (
	"strings"
)

// Preprocess normalizes extracted text before chunking: line endings become "\n",
// trailing spaces are dropped from every line and the result is trimmed.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
