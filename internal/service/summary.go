package service

import "strings"

// SummaryLength is the maximum summary length in characters.
const SummaryLength = 500

// Summarize returns content unchanged when it fits, otherwise its first
// SummaryLength characters cut back to the last space in that window.
func Summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= SummaryLength {
		return content
	}
	truncated := string(runes[:SummaryLength])
	if i := strings.LastIndex(truncated, " "); i >= 0 {
		return truncated[:i]
	}
	return truncated
}
