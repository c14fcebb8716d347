// Package prompts builds the generation prompts for both session flows.
package prompts

import (
	"fmt"
	"strings"

	"prepdeck/internal/domain"
)

// FormatJobTitle turns a role id like "software-engineer" into "Software Engineer".
func FormatJobTitle(role string) string {
	words := strings.Split(role, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// FirstQuestion asks for the opening interview question for a role.
func FirstQuestion(jobTitle string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("You are an expert interviewer for %s positions.\n", jobTitle))
	b.WriteString("Generate a challenging but realistic interview question that would be asked in a real interview.\n")
	b.WriteString(fmt.Sprintf("The question should be specific to the %s role.\n", jobTitle))
	b.WriteString("Only respond with the question text, nothing else.")
	return b.String()
}

// FollowUpQuestion asks for question number of total, biased away from the
// most recent prior questions.
func FollowUpQuestion(jobTitle string, number, total int, previous []string) string {
	prior := "None yet"
	if len(previous) > 0 {
		prior = strings.Join(previous, "\n- ")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("You are an expert interviewer for %s positions.\n\n", jobTitle))
	b.WriteString("Generate a challenging but realistic interview question that would be asked in a real interview.\n")
	b.WriteString(fmt.Sprintf("The question should be specific to the %s role.\n\n", jobTitle))
	b.WriteString(fmt.Sprintf("This is question %d of %d.\n\n", number, total))
	b.WriteString("Previous questions asked in this interview:\n")
	b.WriteString(fmt.Sprintf("- %s\n\n", prior))
	b.WriteString("Make sure this question is different from previous ones and explores another aspect of the candidate's skills.\n")
	b.WriteString("Only respond with the question text, nothing else.")
	return b.String()
}

// AnswerFeedback asks for scored feedback on a candidate answer, in the
// FEEDBACK/SCORE/SUGGESTIONS format the response parser expects.
func AnswerFeedback(jobTitle, question, answer string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("You are an expert interviewer and coach for %s positions.\n\n", jobTitle))
	b.WriteString("The candidate was asked the following question:\n")
	b.WriteString(fmt.Sprintf("%q\n\n", question))
	b.WriteString("The candidate's response was:\n")
	b.WriteString(fmt.Sprintf("%q\n\n", answer))
	b.WriteString("Please provide constructive feedback on the candidate's response. Evaluate:\n")
	b.WriteString("1. Content relevance and accuracy\n")
	b.WriteString("2. Structure and clarity of communication\n")
	b.WriteString("3. Confidence and delivery (based on the text)\n")
	b.WriteString("4. Technical accuracy (if applicable)\n\n")
	b.WriteString("Also provide a score from 1-10 and specific suggestions for improvement.\n")
	b.WriteString("Format your response as:\n\n")
	b.WriteString("FEEDBACK:\n[Your detailed feedback here]\n\n")
	b.WriteString("SCORE: [1-10]\n\n")
	b.WriteString("SUGGESTIONS:\n- [Suggestion 1]\n- [Suggestion 2]\n- [Suggestion 3]")
	return b.String()
}

// TechnicalAnswer asks for an answer to a technical question, with the model
// self-identifying the domain first and the verbosity chosen by answer type.
func TechnicalAnswer(question string, answerType domain.AnswerType) string {
	var verbosity string
	switch answerType {
	case domain.AnswerBrief:
		verbosity = "Provide a concise answer (2-3 paragraphs maximum)."
	case domain.AnswerCodeOnly:
		verbosity = "Focus primarily on code examples with minimal explanation."
	default:
		verbosity = "Provide a comprehensive answer with detailed explanations and examples."
	}

	var b strings.Builder
	b.WriteString("You are an expert technical interviewer and coach specializing in programming, computer science, and software development.\n\n")
	b.WriteString("Please answer the following technical interview question:\n\n")
	b.WriteString(fmt.Sprintf("%q\n\n", question))
	b.WriteString("First, identify the technical domain this question belongs to (e.g., Python, SQL, JavaScript, System Design, etc.).\n")
	b.WriteString("Then provide your answer based on that domain expertise.\n\n")
	b.WriteString(verbosity)
	b.WriteString("\n\nFormat your response using Markdown:\n")
	b.WriteString("- Use ## for section headings\n")
	b.WriteString("- Use code blocks with appropriate language syntax highlighting\n")
	b.WriteString("- Use bullet points for lists\n")
	b.WriteString("- Include examples where appropriate\n")
	b.WriteString("- Explain the reasoning behind the answer\n\n")
	b.WriteString("If the question is about coding, include working code examples.\n")
	b.WriteString("If the question is about system design, include diagrams described in text and explanations.\n")
	b.WriteString("If the question is about concepts, provide clear definitions and practical applications.")
	return b.String()
}
