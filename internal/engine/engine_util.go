package engine

import (
	"bytes"
	"encoding/json"
)

type View string

const (
	ViewConnecting View = "connecting"
	ViewLoading    View = "loading"
	ViewCategories View = "categories"
	ViewQuestions  View = "questions"
)

func NewState() State {
	return State{Conn: ConnDisconnected}
}

func ContainsEffect(effects []Effect, effectType EffectType) bool {
	for _, eff := range effects {
		if eff.Type == effectType {
			return true
		}
	}
	return false
}

// DeriveView picks the screen the presentation layer should show.
func DeriveView(s State) View {
	if present(s.Questions) {
		return ViewQuestions
	} else if present(s.Categories) {
		return ViewCategories
	} else if s.Conn == ConnConnected {
		return ViewLoading
	}
	return ViewConnecting
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
