package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/artem13815/interview/pkg/llm"
)

const (
	maxCVPromptChars = 1500
	maxCVQuestions   = 2
)

// fallbackCVQuestions replaces generated questions whenever the model call
// fails or returns nothing usable.
var fallbackCVQuestions = []Question{
	{
		Text:             "Based on your CV, what relevant experience would help you succeed in this venture?",
		Kind:             KindCVBased,
		ExpectedResponse: "Detailed response connecting experience to startup",
	},
	{
		Text:             "How do your past achievements prepare you for the challenges of this startup?",
		Kind:             KindCVBased,
		ExpectedResponse: "Detailed response connecting experience to startup",
	},
}

// CVQuestionGenerator asks the model for personalized interview questions
// derived from the candidate's CV text.
type CVQuestionGenerator struct {
	llm llm.ChatModel
}

func NewCVQuestionGenerator(model llm.ChatModel) *CVQuestionGenerator {
	return &CVQuestionGenerator{llm: model}
}

// Generate returns at most two CV-based questions. Generation is best-effort:
// any model error or unusable reply degrades to the fixed fallback set, never
// to an error.
func (g *CVQuestionGenerator) Generate(ctx context.Context, cvText string) []Question {
	if g == nil || g.llm == nil {
		return fallbackCVQuestions
	}

	cvText = strings.TrimSpace(cvText)
	if len(cvText) > maxCVPromptChars {
		cvText = cvText[:maxCVPromptChars]
	}

	system := "You are a venture capital partner preparing to interview a startup founder."
	user := fmt.Sprintf(
		"Based on this candidate's CV, generate 2 specific, personalized interview questions "+
			"that would be appropriate for a VC interview. Focus on their experience, skills, "+
			"or background that would be relevant to a startup founder seeking investment.\n\n"+
			"CV Content:\n%s\n\n"+
			"Return exactly 2 questions, each on a new line without numbering or additional text.",
		cvText,
	)

	reply, err := g.llm.Ask(ctx, system, user)
	if err != nil {
		return fallbackCVQuestions
	}

	var out []Question
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, Question{
			Text:             line,
			Kind:             KindCVBased,
			ExpectedResponse: "Detailed response connecting experience to startup",
		})
		if len(out) == maxCVQuestions {
			break
		}
	}
	if len(out) == 0 {
		return fallbackCVQuestions
	}
	return out
}
