package nlp

import "strings"

// Small fixed lexicons tuned for interview answers. Membership is checked
// against whitespace tokens as-is, so punctuation-attached words do not match.
var negativeWords = map[string]struct{}{
	"no": {}, "not": {}, "never": {}, "disagree": {}, "bad": {}, "difficult": {},
	"problem": {}, "issue": {}, "challenging": {}, "worried": {}, "concerned": {},
	"unsure": {}, "unclear": {}, "unfortunately": {}, "fail": {},
}

var positiveWords = map[string]struct{}{
	"yes": {}, "agree": {}, "good": {}, "great": {}, "excellent": {}, "success": {},
	"opportunity": {}, "excited": {}, "confident": {}, "proven": {}, "growth": {},
	"improvement": {}, "innovative": {}, "solution": {}, "profit": {},
}

// Sentiment holds a lexical score in [-1, 1] and a magnitude >= 0.
type Sentiment struct {
	Score     float64
	Magnitude float64
}

// AnalyzeSentiment computes a lexical sentiment for the given text.
// Tokenization is lower-cased whitespace splitting. score is
// (pos - neg) / (pos + neg) when any lexicon word is present, otherwise 0.
// magnitude is (pos + neg) / tokenCount, 0 for empty text. Deterministic,
// no external calls.
func AnalyzeSentiment(text string) Sentiment {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return Sentiment{}
	}

	var pos, neg int
	for _, t := range tokens {
		if _, ok := positiveWords[t]; ok {
			pos++
		}
		if _, ok := negativeWords[t]; ok {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return Sentiment{}
	}

	return Sentiment{
		Score:     float64(pos-neg) / float64(total),
		Magnitude: float64(total) / float64(len(tokens)),
	}
}
