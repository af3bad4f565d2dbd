package parser

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/memorank/memorank/internal/domain"
)

const (
	questionPrefix   = "Q:"
	answerPrefix     = "A:"
	difficultyPrefix = "D:"
)

// DefaultDifficulty is assigned when a card carries no D: line or its
// value is out of range.
const DefaultDifficulty = 3

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
)

// ParseFile reads a deck file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. A card is a Q:
// line followed by an A: line, optionally followed by a D: difficulty
// in the range 1 to 5. Question and answer blocks may span multiple
// lines; "---" or the next Q: starts a new card.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var currentCard domain.Card
	var currentBlock []string
	currentState := seeking

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(currentBlock, "\n"))
		switch currentState {
		case readingQuestion:
			currentCard.Question = content
		case readingAnswer:
			currentCard.Answer = content
		}
		currentBlock = nil
	}

	finishCard := func() {
		flushBlock()
		if currentCard.Question != "" && currentCard.Answer != "" {
			if currentCard.Difficulty == 0 {
				currentCard.Difficulty = DefaultDifficulty
			}
			cards = append(cards, currentCard)
		}
		currentCard = domain.Card{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishCard()

		case strings.HasPrefix(line, questionPrefix):
			finishCard() // a new question always starts a new card
			currentState = readingQuestion
			currentBlock = append(currentBlock, trimPrefix(line, questionPrefix))

		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			currentState = readingAnswer
			currentBlock = append(currentBlock, trimPrefix(line, answerPrefix))

		case strings.HasPrefix(line, difficultyPrefix):
			flushBlock()
			currentCard.Difficulty = parseDifficulty(trimPrefix(line, difficultyPrefix))
			currentState = seeking

		case currentState != seeking:
			currentBlock = append(currentBlock, line)
		}
	}

	finishCard() // the last card has no trailing separator

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}

func parseDifficulty(s string) int {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || d < 1 || d > 5 {
		return DefaultDifficulty
	}
	return d
}
