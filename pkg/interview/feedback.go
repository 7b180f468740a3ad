package interview

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/artem13815/interview/pkg/llm"
)

const (
	// analysisErrorPlaceholder replaces the feedback for a single question
	// whose evaluation call failed. One failure never aborts the batch.
	analysisErrorPlaceholder = "Analysis error: Could not process this response."

	// maxSummaryPromptChars bounds the combined feedback fed to the summary
	// call to respect model input limits.
	maxSummaryPromptChars = 4000
)

var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d+)/10\b`),
	regexp.MustCompile(`\b(\d+) out of 10\b`),
	regexp.MustCompile(`\bscore\D*?(\d+)\b`),
}

// FeedbackAggregator evaluates every question/response pair and produces the
// overall interview feedback.
type FeedbackAggregator struct {
	llm llm.ChatModel
}

func NewFeedbackAggregator(model llm.ChatModel) *FeedbackAggregator {
	return &FeedbackAggregator{llm: model}
}

// Analyze dispatches one evaluation per index concurrently, recombines the
// results positionally, then asks for a single summary over all of them.
// questions, expected and actual must have equal length.
func (a *FeedbackAggregator) Analyze(ctx context.Context, questions, expected, actual []string) Feedback {
	detailed := make([]string, len(questions))

	var wg sync.WaitGroup
	for i := range questions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			detailed[i] = a.evaluateOne(ctx, questions[i], expected[i], actual[i])
		}(i)
	}
	wg.Wait()

	summary, score := a.summarize(ctx, questions, actual, detailed)

	return Feedback{
		Summary:          summary,
		DetailedFeedback: detailed,
		OverallScore:     score,
	}
}

func (a *FeedbackAggregator) evaluateOne(ctx context.Context, question, expected, actual string) string {
	system := "You are a venture capital partner evaluating a founder's interview answers."
	user := fmt.Sprintf(
		"Evaluate this VC interview response:\n\n"+
			"Question: %s\n\n"+
			"Expected answer criteria: %s\n\n"+
			"Candidate's actual answer: %s\n\n"+
			"Provide detailed feedback on:\n"+
			"1. How well the answer meets investor expectations\n"+
			"2. Strength of the business understanding demonstrated\n"+
			"3. Specific improvements that would make the answer more compelling\n"+
			"4. Score (1-10) with justification\n\n"+
			"Be specific about what was good and what could be better.",
		question, expected, actual,
	)

	reply, err := a.llm.Ask(ctx, system, user)
	if err != nil || strings.TrimSpace(reply) == "" {
		return analysisErrorPlaceholder
	}
	return reply
}

func (a *FeedbackAggregator) summarize(ctx context.Context, questions, actual, detailed []string) (string, *float64) {
	var b strings.Builder
	for i := range detailed {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Question %d: %s\nResponse: %s\nFeedback: %s", i+1, questions[i], actual[i], detailed[i])
	}
	combined := b.String()
	if len(combined) > maxSummaryPromptChars {
		combined = combined[:maxSummaryPromptChars]
	}

	system := "You are a venture capital partner delivering interview feedback."
	user := fmt.Sprintf(
		"Based on this detailed VC interview feedback, provide a concise executive summary "+
			"of the candidate's performance:\n\n%s\n\n"+
			"Include:\n"+
			"1. Overall assessment (1-10 score)\n"+
			"2. Key strengths with specific examples\n"+
			"3. Top 3 areas for improvement\n"+
			"4. Final recommendation to investors\n\n"+
			"Format your response as a VC partner would deliver feedback.",
		combined,
	)

	summary, err := a.llm.Ask(ctx, system, user)
	if err != nil || strings.TrimSpace(summary) == "" {
		return "Could not generate interview summary.", nil
	}
	return summary, extractScore(summary)
}

// extractScore scans summary lines mentioning a score for patterns like
// "7/10", "7 out of 10" or "score: 7". Returns nil when nothing matches;
// nil and zero are distinct.
func extractScore(summary string) *float64 {
	for _, line := range strings.Split(strings.ToLower(summary), "\n") {
		if !strings.Contains(line, "score") {
			continue
		}
		for _, re := range scorePatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &v
			}
		}
	}
	return nil
}
