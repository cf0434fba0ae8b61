package embedding

import (
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer maps terms to hash-based vocabulary IDs. It stands in for a WordPiece
// vocabulary when none ships with the model.
type SimpleTokenizer struct{}

// Tokenize produces [CLS] term... [SEP] padded to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = 101 // [CLS]
	attentionMask[0] = 1

	pos := 1
	for _, term := range Terms(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(1000 + HashString(term)%29000)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = 102 // [SEP]
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// Terms splits text into lower-cased search terms. Identifiers are split on case changes
// and digits ("findByStatus" gives find, by, status) and the joined identifier is kept too.
// A plural "s" is dropped from words longer than three letters ("pets" gives pet).
func Terms(text string) []string {
	var terms []string
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		parts := splitIdentifier(word)
		for _, p := range parts {
			if t := stem(strings.ToLower(p)); len(t) > 1 {
				terms = append(terms, t)
			}
		}
		if len(parts) > 1 {
			terms = append(terms, strings.ToLower(word))
		}
	}
	return terms
}

// splitIdentifier splits camelCase and letter/digit boundaries.
func splitIdentifier(word string) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsDigit(prev) != unicode.IsDigit(cur)) ||
			(i+1 < len(runes) && unicode.IsUpper(prev) && unicode.IsUpper(cur) && unicode.IsLower(runes[i+1]))
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

func stem(t string) string {
	if len(t) > 3 && strings.HasSuffix(t, "s") &&
		!strings.HasSuffix(t, "ss") && !strings.HasSuffix(t, "us") && !strings.HasSuffix(t, "is") {
		return t[:len(t)-1]
	}
	return t
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 {
		h = 0
	}
	return h
}
