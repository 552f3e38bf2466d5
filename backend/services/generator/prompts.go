package generator

import (
	"fmt"
	"strings"

	"ieltsprep/backend/models"
)

const questionSchema = `{"questions": [{"type": "multiple_choice", "question": "string", "options": ["string", "string", "string", "string"], "correctAnswer": "exact text of one option", "explanation": "string"}]}`

const outputRules = `Respond with JSON only, no markdown and no commentary.
The correctAnswer must be copied exactly from the options list.`

func mcqPrompt(spec MCQSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d multiple-choice questions about %q for IELTS candidates.\n", spec.Count, spec.Topic)
	fmt.Fprintf(&b, "Difficulty: %s. Each question has exactly four distinct options and one correct answer.\n", spec.Difficulty)
	b.WriteString("Add a one or two sentence explanation of why the answer is correct.\n")
	fmt.Fprintf(&b, "Schema: %s\n", questionSchema)
	b.WriteString(outputRules)
	return b.String()
}

func ieltsPrompt(spec IELTSSpec) string {
	var b strings.Builder
	topic := spec.Topic
	if topic == "" {
		topic = "a typical IELTS Academic theme"
	}

	switch spec.Section {
	case models.SectionWriting:
		fmt.Fprintf(&b, "Create exactly %d IELTS Academic Writing tasks about %s.\n", spec.Count, topic)
		b.WriteString("Mix Task 1 (describe a chart, table, process or map in at least 150 words) and Task 2 (essay of at least 250 words).\n")
		b.WriteString(`Use type "task", put the full task prompt in "question", leave "options" empty, ` +
			`put a model answer outline in "correctAnswer" and band descriptors to aim for in "explanation".` + "\n")
	case models.SectionSpeaking:
		fmt.Fprintf(&b, "Create exactly %d IELTS Speaking prompts about %s covering Parts 1, 2 and 3.\n", spec.Count, topic)
		b.WriteString(`Use type "task", put the prompt or cue card in "question", leave "options" empty, ` +
			`put a sample high-band answer in "correctAnswer" and useful vocabulary in "explanation".` + "\n")
	default:
		fmt.Fprintf(&b, "Create exactly %d IELTS %s questions about %s.\n", spec.Count, spec.Section, topic)
		b.WriteString(`Use "multiple_choice" questions with four options, or "true_false_not_given" questions ` +
			`with the options "True", "False", "Not Given". Each question must be self-contained.` + "\n")
	}
	fmt.Fprintf(&b, "Difficulty: %s.\n", spec.Difficulty)
	fmt.Fprintf(&b, "Schema: %s\n", questionSchema)
	b.WriteString(outputRules)
	return b.String()
}

func passagePrompt(spec PassageSpec) string {
	var b strings.Builder
	topic := spec.Topic
	if topic == "" {
		topic = "a science, history or society theme of your choice"
	}
	fmt.Fprintf(&b, "Write an IELTS Academic Reading passage of about %d words on %s.\n", spec.WordCount, topic)
	fmt.Fprintf(&b, "Difficulty: %s. Use paragraphs separated by blank lines and an academic register.\n", spec.Difficulty)
	fmt.Fprintf(&b, "Then write exactly %d questions answerable only from the passage, ", spec.QuestionCount)
	b.WriteString(`mixing "multiple_choice" (four options) and "true_false_not_given" (options "True", "False", "Not Given").` + "\n")
	fmt.Fprintf(&b, `Schema: {"title": "string", "content": "string", "questions": %s}`+"\n", questionArray)
	b.WriteString(outputRules)
	return b.String()
}

func listeningPrompt(spec ListeningSpec) string {
	var b strings.Builder
	topic := spec.Topic
	if topic == "" {
		topic = listeningDefaults[spec.Section]
	}
	fmt.Fprintf(&b, "Write the transcript for IELTS Listening Part %d about %s.\n", spec.Section, topic)
	fmt.Fprintf(&b, "%s Difficulty: %s. Label speakers like \"SPEAKER 1:\".\n", listeningParts[spec.Section], spec.Difficulty)
	fmt.Fprintf(&b, "Then write exactly %d multiple-choice questions with four options answerable from the recording.\n", spec.QuestionCount)
	fmt.Fprintf(&b, `Schema: {"title": "string", "transcript": "string", "questions": %s}`+"\n", questionArray)
	b.WriteString(outputRules)
	return b.String()
}

func extractionPrompt(section models.Section) string {
	var b strings.Builder
	b.WriteString("The attached PDF contains IELTS practice material.\n")
	fmt.Fprintf(&b, "Extract every question that belongs to the %s section, keeping the original wording.\n", section)
	b.WriteString(`Use "multiple_choice" when options are printed, "true_false_not_given" for T/F/NG items, ` +
		`"short_answer" for gap fills and "task" for writing or speaking prompts. ` +
		`Take correct answers from the answer key when the document has one; otherwise give your best answer.` + "\n")
	b.WriteString(`Return {"questions": []} when the document has no questions.` + "\n")
	fmt.Fprintf(&b, "Schema: %s\n", questionSchema)
	b.WriteString(outputRules)
	return b.String()
}

const questionArray = `[{"type": "multiple_choice", "question": "string", "options": ["string"], "correctAnswer": "string", "explanation": "string"}]`

var listeningParts = map[int]string{
	1: "A conversation between two people in an everyday social context.",
	2: "A monologue in an everyday social context.",
	3: "A conversation among up to four people in an educational or training context.",
	4: "A monologue on an academic subject, such as a university lecture.",
}

var listeningDefaults = map[int]string{
	1: "booking accommodation",
	2: "a guided tour of a local facility",
	3: "students planning a research project",
	4: "a lecture on environmental science",
}
