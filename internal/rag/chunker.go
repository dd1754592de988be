package rag

import (
	"strings"
	"unicode"
)

// Default chunking parameters, measured in words.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

// SplitText splits content into word-based chunks of at most size words, with
// overlap words repeated between consecutive chunks. Whitespace runs collapse
// to single spaces. A non-positive size falls back to DefaultChunkSize; an
// overlap >= size is clamped to size-1 so the window always advances.
func SplitText(content string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= size {
		return []string{strings.Join(words, " ")}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// splitWords breaks a query into alphanumeric terms, discarding punctuation.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
