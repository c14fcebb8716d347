// Package stats aggregates interview history for the stats panel.
package stats

import (
	"math"
	"strings"

	flynn "github.com/montanaflynn/stats"

	"prepdeck/internal/domain"
)

// sessionStartMarker splits the flat turn list into interview sessions. This
// is a heuristic: generated first questions usually contain "Question 1", but
// nothing in the prompt contract guarantees it.
const sessionStartMarker = "Question 1"

const recentScoreWindow = 5

// Summary is the aggregate view of all recorded interview turns.
type Summary struct {
	Interviews   int     `json:"interviews"`
	Questions    int     `json:"questions"`
	AverageScore float64 `json:"averageScore"`
	BestScore    int     `json:"bestScore"`
	RecentScores []int   `json:"recentScores"`
}

// Summarize computes interview counts and score aggregates. Average is rounded
// to one decimal; recent scores are the last five, newest first.
func Summarize(turns []domain.InterviewTurn) Summary {
	if len(turns) == 0 {
		return Summary{RecentScores: []int{}}
	}

	scores := make([]float64, len(turns))
	for i, turn := range turns {
		scores[i] = float64(turn.Score)
	}

	mean, err := flynn.Mean(scores)
	if err != nil {
		mean = 0
	}
	best, err := flynn.Max(scores)
	if err != nil {
		best = 0
	}

	recent := make([]int, 0, recentScoreWindow)
	for i := len(turns) - 1; i >= 0 && len(recent) < recentScoreWindow; i-- {
		recent = append(recent, turns[i].Score)
	}

	return Summary{
		Interviews:   countSessions(turns),
		Questions:    len(turns),
		AverageScore: math.Round(mean*10) / 10,
		BestScore:    int(best),
		RecentScores: recent,
	}
}

func countSessions(turns []domain.InterviewTurn) int {
	sessions := 1
	for i, turn := range turns {
		if i > 0 && strings.Contains(turn.Question, sessionStartMarker) {
			sessions++
		}
	}
	return sessions
}
