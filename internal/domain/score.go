package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Bounds of each rubric category.
const (
	MinCategoryScore = 0
	MaxCategoryScore = 25
)

// CategoryScores is the rubric result for one answer. FinalScore must equal
// the sum of the four categories.
type CategoryScores struct {
	Clarity    int `json:"clarity"`
	Relevance  int `json:"relevance"`
	Depth      int `json:"depth"`
	Structure  int `json:"structure"`
	FinalScore int `json:"final_score"`
}

// Validate enforces category ranges and the sum invariant.
func (s CategoryScores) Validate() error {
	for name, v := range map[string]int{
		"clarity":   s.Clarity,
		"relevance": s.Relevance,
		"depth":     s.Depth,
		"structure": s.Structure,
	} {
		if v < MinCategoryScore || v > MaxCategoryScore {
			return fmt.Errorf("%w: %s=%d", ErrScoreOutOfRange, name, v)
		}
	}
	if sum := s.Clarity + s.Relevance + s.Depth + s.Structure; sum != s.FinalScore {
		return fmt.Errorf("%w: %d != %d", ErrScoreSumMismatch, s.FinalScore, sum)
	}
	return nil
}

// ScoredItem is a merged question/answer pair with its rubric scores.
type ScoredItem struct {
	AttemptID      uuid.UUID      `json:"attempt_id"`
	QuestionID     uuid.UUID      `json:"question_id"`
	QuestionText   string         `json:"question_text"`
	IdealAnswer    string         `json:"ideal_answer"`
	UserTranscript string         `json:"user_transcript"`
	Scores         CategoryScores `json:"category_scores"`
}

// ScoreTotals aggregates scored items.
type ScoreTotals struct {
	OverallScore   float64 `json:"overall_score"`
	TotalClarity   int     `json:"total_clarity"`
	TotalRelevance int     `json:"total_relevance"`
	TotalDepth     int     `json:"total_depth"`
	TotalStructure int     `json:"total_structure"`
}

// ComputeTotals sums each category and averages final scores, rounded to two
// decimals. An empty slice yields zero totals.
func ComputeTotals(items []ScoredItem) ScoreTotals {
	var t ScoreTotals
	if len(items) == 0 {
		return t
	}
	finalSum := 0
	for _, it := range items {
		t.TotalClarity += it.Scores.Clarity
		t.TotalRelevance += it.Scores.Relevance
		t.TotalDepth += it.Scores.Depth
		t.TotalStructure += it.Scores.Structure
		finalSum += it.Scores.FinalScore
	}
	t.OverallScore = math.Round(float64(finalSum)/float64(len(items))*100) / 100
	return t
}

// ScoringReport is the final result of scoring an attempt.
type ScoringReport struct {
	AttemptID   uuid.UUID `json:"attempt_id"`
	InterviewID uuid.UUID `json:"interview_id"`
	ScoreTotals
	Feedback string       `json:"feedback"`
	Items    []ScoredItem `json:"questions"`
}
