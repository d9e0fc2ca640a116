package quiz

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	NotAnsweredText = "Not Answered"
	UnknownText     = "Unknown"
)

// ErrAnswerCountMismatch is returned by Grade when the answer set does not
// line up with the question list.
var ErrAnswerCountMismatch = errors.New("answer count does not match question count")

// AnswerSet holds one selection per question, in question order. A nil
// entry means the question was left unanswered.
type AnswerSet []*int

// Selected returns a pointer to i for building answer sets.
func Selected(i int) *int { return &i }

type QuestionResult struct {
	Prompt            string `json:"prompt"`
	SelectedIndex     *int   `json:"selected_index"`
	CorrectIndex      *int   `json:"correct_index"`
	IsCorrect         bool   `json:"is_correct"`
	UserAnswerText    string `json:"user_answer_text"`
	CorrectAnswerText string `json:"correct_answer_text"`
	Explanation       string `json:"explanation,omitempty"`
}

type Report struct {
	Results    []QuestionResult `json:"results"`
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
}

// Summary renders the aggregate line shown after a submission.
func (r Report) Summary() string {
	return fmt.Sprintf("You scored %d out of %d (%.2f%%)", r.Score, r.Total, r.Percentage)
}

// Grade compares answers against the questions' answer keys. It never
// fails on bad answer keys; those grade as incorrect with UnknownText.
func Grade(questions []Question, answers AnswerSet) (Report, error) {
	if len(questions) != len(answers) {
		return Report{}, fmt.Errorf("%w: %d questions, %d answers", ErrAnswerCountMismatch, len(questions), len(answers))
	}

	report := Report{
		Results: make([]QuestionResult, len(questions)),
		Total:   len(questions),
	}
	for i, q := range questions {
		selected := answers[i]
		correct, resolvable := resolveIndex(q.CorrectIndex, len(q.Options))

		res := QuestionResult{
			Prompt:            q.Prompt,
			SelectedIndex:     copyIndex(selected),
			CorrectIndex:      copyIndex(q.CorrectIndex),
			UserAnswerText:    NotAnsweredText,
			CorrectAnswerText: UnknownText,
			Explanation:       q.Explanation,
		}
		if idx, ok := resolveIndex(selected, len(q.Options)); ok {
			res.UserAnswerText = strings.TrimSpace(q.Options[idx])
		}
		if resolvable {
			res.CorrectAnswerText = strings.TrimSpace(q.Options[correct])
			res.IsCorrect = selected != nil && *selected == correct
		}
		if res.IsCorrect {
			report.Score++
		}
		report.Results[i] = res
	}
	report.Percentage = percentage(report.Score, report.Total)
	return report, nil
}

func resolveIndex(idx *int, n int) (int, bool) {
	if idx == nil || *idx < 0 || *idx >= n {
		return 0, false
	}
	return *idx, true
}

func copyIndex(idx *int) *int {
	if idx == nil {
		return nil
	}
	v := *idx
	return &v
}

// percentage is score/total*100 rounded to two decimals; an empty quiz is 0.
func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*100*100) / 100
}
