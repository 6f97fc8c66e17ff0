package types

import "encoding/json"

type Kind string

const (
	KindCategories Kind = "categories"
	KindQuestions  Kind = "questions"
)

// Any is the wildcard accepted for category, difficulty and type.
const Any = "any"

type Difficulty string

const (
	DifficultyAny    Difficulty = Any
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type QuestionType string

const (
	QuestionTypeAny      QuestionType = Any
	QuestionTypeMultiple QuestionType = "multiple"
	QuestionTypeBoolean  QuestionType = "boolean"
)

// Request is the client -> backend frame.
type Request struct {
	Kind       Kind         `json:"request"`
	Amount     int          `json:"amount,omitempty"`
	Category   string       `json:"category,omitempty"`
	Difficulty Difficulty   `json:"difficulty,omitempty"`
	Type       QuestionType `json:"type,omitempty"`
}

func CategoriesRequest() Request {
	return Request{Kind: KindCategories}
}

func QuestionsRequest(amount int, category string, difficulty Difficulty, typ QuestionType) Request {
	return Request{
		Kind:       KindQuestions,
		Amount:     amount,
		Category:   category,
		Difficulty: difficulty,
		Type:       typ,
	}
}

// ServerMessage is the backend -> client frame as it appears on the wire.
type ServerMessage struct {
	Kind string          `json:"request"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is one decoded ServerMessage: Categories, Questions or Unknown.
type Response interface{ isResponse() }

type Categories struct{ Data json.RawMessage }

func (Categories) isResponse() {}

type Questions struct{ Data json.RawMessage }

func (Questions) isResponse() {}

type Unknown struct {
	Kind string
	Data json.RawMessage
}

func (Unknown) isResponse() {}

// Category and Question mirror the payload shapes the backend forwards
// from the trivia API. The session never looks inside them.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Question struct {
	Category         string       `json:"category"`
	Type             QuestionType `json:"type"`
	Difficulty       Difficulty   `json:"difficulty"`
	Question         string       `json:"question"`
	CorrectAnswer    string       `json:"correct_answer"`
	IncorrectAnswers []string     `json:"incorrect_answers"`
}

// Summary is the end-of-game tally; counts come from the presentation layer.
type Summary struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

func (s Summary) Total() int { return s.Correct + s.Incorrect }

type Notification struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// Props is what the presentation layer renders from: one session snapshot
// plus the active theme.
type Props struct {
	SessionID    string          `json:"session_id"`
	Version      int             `json:"version"`
	Connection   string          `json:"connection"`
	View         string          `json:"view"`
	Categories   json.RawMessage `json:"categories,omitempty"`
	Questions    json.RawMessage `json:"questions,omitempty"`
	Notification Notification    `json:"notification"`
	Theme        int             `json:"theme"`
}
