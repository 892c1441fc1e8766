// Package classify detects intents and time expressions in polished text
// by keyword and pattern matching. It does no semantic analysis.
package classify

import (
	"regexp"
	"strings"
)

type Classification struct {
	HasTime           bool
	MentionsTask      bool
	MentionsMeeting   bool
	MentionsEmailSend bool
	// Confirmed is set when the text already carries confirmation language.
	Confirmed bool
}

type Classifier interface {
	Classify(text string) Classification
}

// Explicit clock times plus a fixed vocabulary of day-part words.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,2}(:\d{2})?\s?(AM|PM)\b`),
	regexp.MustCompile(`(?i)\btomorrow\b`),
	regexp.MustCompile(`(?i)\btonight\b`),
	regexp.MustCompile(`(?i)\bevening\b`),
	regexp.MustCompile(`(?i)\bmorning\b`),
	regexp.MustCompile(`(?i)\bafternoon\b`),
	regexp.MustCompile(`(?i)\bnoon\b`),
	regexp.MustCompile(`(?i)\bnext week\b`),
}

// Keyword is the default Classifier.
type Keyword struct{}

var _ Classifier = Keyword{}

func (Keyword) Classify(text string) Classification {
	lower := strings.ToLower(text)
	return Classification{
		HasTime:           HasTime(text),
		MentionsTask:      strings.Contains(lower, "task"),
		MentionsMeeting:   strings.Contains(lower, "meeting"),
		MentionsEmailSend: strings.Contains(lower, "send email"),
		Confirmed:         strings.Contains(lower, "confirm"),
	}
}

func HasTime(text string) bool {
	for _, p := range timePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
