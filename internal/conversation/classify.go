package conversation

import (
	"regexp"
	"strings"
)

// Category classifies a bot reply for persistence.
type Category string

const (
	CategoryNone      Category = ""
	CategoryAnswered  Category = "answered"
	CategoryTakenBack Category = "taken_back"
)

var categoryTagPattern = regexp.MustCompile(`(?i)^\[(ANSWERED|TAKEN_BACK)\]\s*`)

// ClassifyResponse strips a leading bracketed category tag from the model's
// raw reply. When no tag is present the text is returned unchanged with
// CategoryNone.
func ClassifyResponse(text string) (string, Category) {
	match := categoryTagPattern.FindStringSubmatch(text)
	if match == nil {
		return text, CategoryNone
	}
	category := Category(strings.ToLower(match[1]))
	clean := strings.TrimSpace(text[len(match[0]):])
	return clean, category
}

// ClassifyByContent is the fallback classifier used when the reply carries no
// tag: a deferral phrase means the answer was taken back, any other
// non-trivial reply counts as answered, and replies shorter than five
// characters stay unclassified.
func ClassifyByContent(text string, deferralPhrases []string) Category {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 5 {
		return CategoryNone
	}
	for _, phrase := range deferralPhrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(trimmed, phrase) {
			return CategoryTakenBack
		}
	}
	return CategoryAnswered
}
