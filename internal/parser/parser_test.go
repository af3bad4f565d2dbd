package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedQ     string
		expectedA     string
		expectedD     int
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedQ:     "What is the capital of France?",
			expectedA:     "Paris",
			expectedD:     3,
		},
		{
			name:          "Q, A, and difficulty",
			input:         "Q: What is 1+1?\nA: 2\nD: 1",
			expectedCards: 1,
			expectedQ:     "What is 1+1?",
			expectedA:     "2",
			expectedD:     1,
		},
		{
			name: "Multiline answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
D: 2
`,
			expectedCards: 1,
			expectedQ:     "What are the primary colors?",
			expectedA:     "Red\nBlue\nYellow",
			expectedD:     2,
		},
		{
			name: "Two cards, second starts at Q without separator",
			input: `
Q: First question
A: First answer
D: 4
Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name: "Separator between cards",
			input: `
Q: First question
A: First answer
---
Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name:          "No cards, just text",
			input:         "This is a file with no questions.",
			expectedCards: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer\nD:5",
			expectedCards: 1,
			expectedQ:     "Question",
			expectedA:     "Answer",
			expectedD:     5,
		},
		{
			name:          "Question without an answer is dropped",
			input:         "Q: Orphan question\n---\nQ: Complete\nA: Yes",
			expectedCards: 1,
			expectedQ:     "Complete",
			expectedA:     "Yes",
			expectedD:     3,
		},
		{
			name:          "Out of range difficulty falls back to default",
			input:         "Q: Hard?\nA: Very\nD: 9",
			expectedCards: 1,
			expectedQ:     "Hard?",
			expectedA:     "Very",
			expectedD:     3,
		},
		{
			name:          "Non-numeric difficulty falls back to default",
			input:         "Q: Hard?\nA: Very\nD: hard",
			expectedCards: 1,
			expectedQ:     "Hard?",
			expectedA:     "Very",
			expectedD:     3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if len(cards) != tc.expectedCards {
				t.Fatalf("got %d cards, want %d", len(cards), tc.expectedCards)
			}
			if tc.expectedCards == 0 || tc.expectedQ == "" {
				return
			}
			card := cards[0]
			if card.Question != tc.expectedQ {
				t.Errorf("question = %q, want %q", card.Question, tc.expectedQ)
			}
			if card.Answer != tc.expectedA {
				t.Errorf("answer = %q, want %q", card.Answer, tc.expectedA)
			}
			if card.Difficulty != tc.expectedD {
				t.Errorf("difficulty = %d, want %d", card.Difficulty, tc.expectedD)
			}
		})
	}
}

func TestParseTwoCardsOrder(t *testing.T) {
	input := `
Q: Alpha
A: One
D: 2
---
Q: Beta
A: Two
`
	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	if cards[0].Question != "Alpha" || cards[0].Difficulty != 2 {
		t.Errorf("first card = %+v", cards[0])
	}
	if cards[1].Question != "Beta" || cards[1].Difficulty != 3 {
		t.Errorf("second card = %+v", cards[1])
	}
}
