package interview

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// fallbackStandardQuestions is used when the CSV script cannot be loaded.
var fallbackStandardQuestions = []Question{
	{
		Text:             "Tell me about your startup.",
		Kind:             KindStandard,
		ExpectedResponse: "Clear explanation of the startup concept and vision.",
	},
	{
		Text:             "What problem are you solving?",
		Kind:             KindStandard,
		ExpectedResponse: "Specific problem statement with market impact.",
	},
	{
		Text:             "Who are your target customers?",
		Kind:             KindStandard,
		ExpectedResponse: "Detailed customer segmentation with clear needs.",
	},
}

// LoadStandardQuestions reads the interview script from a CSV file with
// "Question" and "Expected Response" columns. Any read or parse failure
// falls back to the built-in set; the interview must always have a script.
func LoadStandardQuestions(path string) ([]Question, error) {
	questions, err := readQuestionsCSV(path)
	if err != nil {
		return fallbackStandardQuestions, err
	}
	if len(questions) == 0 {
		return fallbackStandardQuestions, fmt.Errorf("question file %s contains no questions", path)
	}
	return questions, nil
}

func readQuestionsCSV(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("question file %s has no data rows", path)
	}

	header := records[0]
	qCol, eCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Question":
			qCol = i
		case "Expected Response":
			eCol = i
		}
	}
	if qCol < 0 || eCol < 0 {
		return nil, fmt.Errorf("question file %s is missing Question/Expected Response columns", path)
	}

	var out []Question
	for _, rec := range records[1:] {
		if qCol >= len(rec) || eCol >= len(rec) {
			continue
		}
		text := strings.TrimSpace(rec[qCol])
		if text == "" {
			continue
		}
		out = append(out, Question{
			Text:             text,
			Kind:             KindStandard,
			ExpectedResponse: strings.TrimSpace(rec[eCol]),
		})
	}
	return out, nil
}
