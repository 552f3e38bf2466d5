// Package scoring marks submitted answers and converts raw scores to IELTS bands.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"ieltsprep/backend/models"
)

// Result is the outcome of marking one attempt.
type Result struct {
	Answers    []models.AnswerResult
	Score      int
	Total      int
	Percentage float64
	BandScore  float64
}

// Grade marks answers keyed by question number against the answer key.
// Unanswered questions count as wrong; answers for unknown numbers are ignored.
func Grade(questions []models.TestQuestion, answers map[string]string) Result {
	res := Result{
		Answers: make([]models.AnswerResult, 0, len(questions)),
		Total:   len(questions),
	}

	for _, q := range questions {
		given := strings.TrimSpace(answers[strconv.Itoa(q.Number)])
		ok := Matches(q, given)
		if ok {
			res.Score++
		}
		res.Answers = append(res.Answers, models.AnswerResult{
			Number:        q.Number,
			Given:         given,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     ok,
		})
	}

	if res.Total > 0 {
		res.Percentage = math.Round(float64(res.Score)/float64(res.Total)*10000) / 100
	}
	res.BandScore = Band(res.Score, res.Total)
	return res
}

// Matches compares a candidate answer with the key ignoring case and
// surrounding whitespace. For multiple-choice questions a bare option letter counts.
func Matches(q models.TestQuestion, given string) bool {
	given = strings.TrimSpace(given)
	if given == "" || q.CorrectAnswer == "" {
		return false
	}
	if strings.EqualFold(given, strings.TrimSpace(q.CorrectAnswer)) {
		return true
	}
	if q.Type == models.QuestionMultipleChoice && len(given) == 1 {
		idx := int(strings.ToUpper(given)[0]) - 'A'
		if idx >= 0 && idx < len(q.Options) {
			return q.Options[idx] == q.CorrectAnswer
		}
	}
	return false
}

// bandTable holds the minimum raw score out of 40 for each band, highest first.
var bandTable = []struct {
	min  int
	band float64
}{
	{39, 9.0},
	{37, 8.5},
	{35, 8.0},
	{33, 7.5},
	{30, 7.0},
	{27, 6.5},
	{23, 6.0},
	{19, 5.5},
	{15, 5.0},
	{13, 4.5},
	{10, 4.0},
	{8, 3.5},
	{6, 3.0},
	{4, 2.5},
	{3, 2.0},
	{2, 1.5},
	{1, 1.0},
}

// Band converts a raw score to an IELTS band by scaling it to a 40-question paper.
func Band(score, total int) float64 {
	if total <= 0 || score <= 0 {
		return 0
	}
	if score > total {
		score = total
	}
	scaled := int(math.Round(float64(score) * 40 / float64(total)))
	for _, row := range bandTable {
		if scaled >= row.min {
			return row.band
		}
	}
	return 0
}
