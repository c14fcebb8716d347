// Package parse extracts structured fields from free-form generation output.
// Every function is total: non-matching input yields defaults, never an error.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Score fallbacks for responses missing a SCORE: section. The display path and
// the history path intentionally disagree; both values are pinned by tests.
const (
	DefaultDisplayScore = 0
	DefaultHistoryScore = 5
)

var (
	feedbackRe    = regexp.MustCompile(`(?is)FEEDBACK:(.*?)(?:SCORE:|SUGGESTIONS:|$)`)
	scoreRe       = regexp.MustCompile(`(?i)SCORE:\s*(\d+)`)
	suggestionsRe = regexp.MustCompile(`(?is)SUGGESTIONS:(.*)$`)
)

// Feedback holds the structured fields of a scored feedback response.
type Feedback struct {
	Body        string
	Score       int
	HasScore    bool
	Suggestions []string
}

// DisplayScore is the score to render when showing feedback on its own.
func (f Feedback) DisplayScore() int {
	if !f.HasScore {
		return DefaultDisplayScore
	}
	return f.Score
}

// HistoryScore is the score to record when appending an interview turn.
func (f Feedback) HistoryScore() int {
	if !f.HasScore {
		return DefaultHistoryScore
	}
	return f.Score
}

// ParseFeedback extracts the feedback body, score and suggestion list from a
// completed response. The body runs from FEEDBACK: to the next SCORE: or
// SUGGESTIONS: marker (or end of text); the score is the first integer after
// SCORE:, clamped to [0,10]; suggestions are the non-empty segments of the
// bullet list after SUGGESTIONS:.
func ParseFeedback(text string) Feedback {
	var out Feedback

	if m := feedbackRe.FindStringSubmatch(text); m != nil {
		out.Body = strings.TrimSpace(m[1])
	}

	if m := scoreRe.FindStringSubmatch(text); m != nil {
		score, err := strconv.Atoi(m[1])
		if err == nil {
			out.Score = clampScore(score)
			out.HasScore = true
		}
	}

	if m := suggestionsRe.FindStringSubmatch(text); m != nil {
		for _, segment := range strings.Split(m[1], "-") {
			segment = strings.TrimSpace(segment)
			if segment != "" {
				out.Suggestions = append(out.Suggestions, segment)
			}
		}
	}

	return out
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
