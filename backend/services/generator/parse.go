package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"
)

var (
	// fencedPattern matches the body of a markdown code block, with or without a json tag.
	fencedPattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	// optionLabelPattern matches "A. ", "b) " or "(C) " prefixes on an option.
	optionLabelPattern = regexp.MustCompile(`^\(?([A-Fa-f])[\.\):]\s+`)
)

// extractJSON pulls the first JSON object or array out of a model reply.
func extractJSON(content string) string {
	if m := fencedPattern.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	content = strings.TrimSpace(content)

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if content[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(content, closer)
	if end <= start {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(content[start:end+1], "$1")
}

type rawQuestion struct {
	Type          string          `json:"type"`
	Question      string          `json:"question"`
	Text          string          `json:"text"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Answer        json.RawMessage `json:"answer"`
	Explanation   string          `json:"explanation"`
}

func formatError(format string, args ...interface{}) error {
	return utils.NewGenerationFormatError("The model response did not match the expected format",
		fmt.Errorf(format, args...))
}

// decodeQuestionList accepts either a bare array or an object with a "questions" field.
func decodeQuestionList(raw json.RawMessage) ([]rawQuestion, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []rawQuestion
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}
	var wrapper struct {
		Questions []rawQuestion `json:"questions"`
	}
	err := json.Unmarshal(trimmed, &wrapper)
	return wrapper.Questions, err
}

// parseQuestions decodes and validates a question list. want > 0 demands at
// least that many valid questions and truncates extras; want == 0 keeps every
// valid question. A non-empty required type is forced onto every question, so
// items that cannot satisfy it are discarded as invalid.
func parseQuestions(content string, want int, defaultType, required models.QuestionType) ([]Question, error) {
	body := extractJSON(content)
	if body == "" {
		return nil, formatError("no JSON found in model output")
	}

	raws, err := decodeQuestionList(json.RawMessage(body))
	if err != nil {
		return nil, formatError("decode questions: %v", err)
	}
	return validateQuestions(raws, want, defaultType, required)
}

func validateQuestions(raws []rawQuestion, want int, defaultType, required models.QuestionType) ([]Question, error) {
	questions := make([]Question, 0, len(raws))
	var firstProblem error
	for i, rq := range raws {
		q, err := normalizeQuestion(rq, defaultType, required)
		if err != nil {
			if firstProblem == nil {
				firstProblem = fmt.Errorf("question %d: %w", i+1, err)
			}
			continue
		}
		questions = append(questions, q)
	}

	if want > 0 {
		if len(questions) < want {
			if firstProblem != nil {
				return nil, formatError("got %d valid questions, want %d (%v)", len(questions), want, firstProblem)
			}
			return nil, formatError("got %d valid questions, want %d", len(questions), want)
		}
		questions = questions[:want]
	}
	return questions, nil
}

func normalizeQuestion(rq rawQuestion, defaultType, required models.QuestionType) (Question, error) {
	q := Question{
		Type:        models.QuestionType(strings.ToLower(strings.TrimSpace(rq.Type))),
		Text:        strings.TrimSpace(rq.Question),
		Explanation: strings.TrimSpace(rq.Explanation),
	}
	if q.Text == "" {
		q.Text = strings.TrimSpace(rq.Text)
	}
	if q.Text == "" {
		return q, fmt.Errorf("missing question text")
	}

	for _, o := range rq.Options {
		if o = strings.TrimSpace(o); o != "" {
			q.Options = append(q.Options, o)
		}
	}

	switch q.Type {
	case models.QuestionMultipleChoice, models.QuestionTrueFalse, models.QuestionShortAnswer, models.QuestionTask:
	case "mcq", "multiple-choice", "multiplechoice":
		q.Type = models.QuestionMultipleChoice
	case "tfng", "true_false", "true/false/not given":
		q.Type = models.QuestionTrueFalse
	default:
		q.Type = defaultType
		if len(q.Options) > 0 && !q.Type.HasOptions() && q.Type != models.QuestionTask {
			q.Type = models.QuestionMultipleChoice
		}
	}
	if required != "" {
		q.Type = required
	}
	if q.Type == models.QuestionTrueFalse && len(q.Options) == 0 {
		q.Options = []string{"True", "False", "Not Given"}
	}

	answerRaw := rq.CorrectAnswer
	if len(answerRaw) == 0 {
		answerRaw = rq.Answer
	}
	answer, err := answerText(answerRaw, q.Options)
	if err != nil {
		return q, err
	}

	switch {
	case q.Type.HasOptions():
		if len(q.Options) < 2 {
			return q, fmt.Errorf("needs at least 2 options, got %d", len(q.Options))
		}
		if dup := duplicateOption(q.Options); dup != "" {
			return q, fmt.Errorf("duplicate option %q", dup)
		}
		resolved, ok := resolveAnswer(answer, q.Options)
		if !ok {
			return q, fmt.Errorf("correct answer %q is not one of the options", answer)
		}
		q.CorrectAnswer = resolved
	case q.Type == models.QuestionShortAnswer:
		if answer == "" {
			return q, fmt.Errorf("missing correct answer")
		}
		q.Options = nil
		q.CorrectAnswer = answer
	default:
		q.Options = nil
		q.CorrectAnswer = answer
	}
	return q, nil
}

// answerText reads an answer given as a string or as a zero-based option index.
func answerText(raw json.RawMessage, options []string) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		if idx < 0 || idx >= len(options) {
			return "", fmt.Errorf("answer index %d out of range", idx)
		}
		return options[idx], nil
	}
	return "", fmt.Errorf("unsupported answer value %s", string(raw))
}

// resolveAnswer maps an answer onto the exact text of one option. It accepts
// the option itself, a case-insensitive match, a bare letter, or a labelled option.
func resolveAnswer(answer string, options []string) (string, bool) {
	if answer == "" {
		return "", false
	}
	for _, o := range options {
		if o == answer {
			return o, true
		}
	}
	for _, o := range options {
		if strings.EqualFold(o, answer) || strings.EqualFold(stripLabel(o), stripLabel(answer)) {
			return o, true
		}
	}
	if len(answer) == 1 || (len(answer) == 2 && strings.ContainsAny(answer[1:], ".)")) {
		letter := strings.ToUpper(answer[:1])[0]
		if letter >= 'A' && letter <= 'F' {
			if idx := int(letter - 'A'); idx < len(options) {
				return options[idx], true
			}
		}
	}
	if m := optionLabelPattern.FindStringSubmatch(answer); len(m) > 1 {
		idx := int(strings.ToUpper(m[1])[0] - 'A')
		if idx < len(options) {
			return options[idx], true
		}
	}
	return "", false
}

func stripLabel(s string) string {
	return strings.TrimSpace(optionLabelPattern.ReplaceAllString(strings.TrimSpace(s), ""))
}

func duplicateOption(options []string) string {
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		key := strings.ToLower(o)
		if seen[key] {
			return o
		}
		seen[key] = true
	}
	return ""
}

type rawPassage struct {
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Passage    string          `json:"passage"`
	Transcript string          `json:"transcript"`
	Script     string          `json:"script"`
	Questions  json.RawMessage `json:"questions"`
}

func decodePassage(content string) (*rawPassage, error) {
	body := extractJSON(content)
	if body == "" || body[0] != '{' {
		return nil, formatError("no JSON object found in model output")
	}
	var rp rawPassage
	if err := json.Unmarshal([]byte(body), &rp); err != nil {
		return nil, formatError("decode passage: %v", err)
	}
	return &rp, nil
}

func parsePassage(content string, spec PassageSpec) (*Passage, error) {
	rp, err := decodePassage(content)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(rp.Content)
	if text == "" {
		text = strings.TrimSpace(rp.Passage)
	}
	if words := len(strings.Fields(text)); words < minPassageWords(spec.WordCount) {
		return nil, formatError("passage has %d words, want about %d", words, spec.WordCount)
	}

	raws, err := decodeQuestionList(rp.Questions)
	if err != nil {
		return nil, formatError("decode passage questions: %v", err)
	}
	questions, err := validateQuestions(raws, spec.QuestionCount, models.QuestionMultipleChoice, "")
	if err != nil {
		return nil, err
	}

	return &Passage{
		Title:     titleOr(rp.Title, spec.Topic, "Reading Passage"),
		Content:   text,
		Questions: questions,
	}, nil
}

func parseListening(content string, spec ListeningSpec) (*Listening, error) {
	rp, err := decodePassage(content)
	if err != nil {
		return nil, err
	}

	transcript := strings.TrimSpace(rp.Transcript)
	if transcript == "" {
		transcript = strings.TrimSpace(rp.Script)
	}
	if transcript == "" {
		return nil, formatError("missing transcript")
	}

	raws, err := decodeQuestionList(rp.Questions)
	if err != nil {
		return nil, formatError("decode listening questions: %v", err)
	}
	questions, err := validateQuestions(raws, spec.QuestionCount, models.QuestionMultipleChoice, "")
	if err != nil {
		return nil, err
	}

	return &Listening{
		Title:      titleOr(rp.Title, spec.Topic, "Listening Part "+strconv.Itoa(spec.Section)),
		Transcript: transcript,
		Questions:  questions,
	}, nil
}

// minPassageWords tolerates models that undershoot the requested length by half.
func minPassageWords(requested int) int {
	if requested <= 0 {
		return 50
	}
	return requested / 2
}

func titleOr(title, topic, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if topic != "" {
		return topic
	}
	return fallback
}
