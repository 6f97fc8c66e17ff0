package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var ErrMalformedFrame = errors.New("malformed frame")

// DecodeResponse parses one inbound frame. Anything that is not a JSON object
// fails with ErrMalformedFrame; a missing or unrecognised kind yields Unknown.
func DecodeResponse(frame []byte) (Response, error) {
	var msg ServerMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch Kind(msg.Kind) {
	case KindCategories:
		return Categories{Data: msg.Data}, nil
	case KindQuestions:
		return Questions{Data: msg.Data}, nil
	default:
		return Unknown{Kind: msg.Kind, Data: msg.Data}, nil
	}
}

func DecodeCategories(data json.RawMessage) ([]Category, error) {
	var out []Category
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

func DecodeQuestions(data json.RawMessage) ([]Question, error) {
	var out []Question
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return out, nil
}

func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(s)
	ok := slices.Contains([]Difficulty{DifficultyAny, DifficultyEasy, DifficultyMedium, DifficultyHard}, d)
	return d, ok
}

func ParseQuestionType(s string) (QuestionType, bool) {
	t := QuestionType(s)
	ok := slices.Contains([]QuestionType{QuestionTypeAny, QuestionTypeMultiple, QuestionTypeBoolean}, t)
	return t, ok
}
