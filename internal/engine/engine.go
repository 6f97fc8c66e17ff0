package engine

import (
	"encoding/json"
	"errors"

	"github.com/DoyleJ11/quiz-client/internal/types"
)

var ErrNotConnected = errors.New("not connected")
var ErrAlreadyConnected = errors.New("already connected")
var ErrUnsupportedEvent = errors.New("unsupported event")

// NotConnectedText is shown when a game is requested without a live connection.
const NotConnectedText = "Not connected to server"

type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
)

type Notification = types.Notification

// State is the per-session cache. Categories and Questions stay nil until
// the first response of that kind arrives and are never reset afterwards.
type State struct {
	Conn         ConnState
	Categories   json.RawMessage
	Questions    json.RawMessage
	Notification Notification
}

type EventType string

const (
	EvtDialing               EventType = "Dialing"
	EvtOpened                EventType = "Opened"
	EvtFrameReceived         EventType = "FrameReceived"
	EvtErrored               EventType = "Errored"
	EvtClosed                EventType = "Closed"
	EvtGameRequested         EventType = "GameRequested"
	EvtNotified              EventType = "Notified"
	EvtNotificationDismissed EventType = "NotificationDismissed"
)

/*
	Dialing               -> state connecting
	Opened                -> state connected -> EffSend(categories)
	FrameReceived         -> categories/questions cached, or EffDecodeFailed / EffIgnoredKind
	Errored               -> EffConnError (state untouched, close follows)
	Closed                -> state disconnected -> EffConnClosed
	GameRequested         -> EffSend(questions), or EffRejected + notification when not connected
	Notified              -> notification visible -> EffArmDismiss
	NotificationDismissed -> notification cleared
*/

type GameParams struct {
	Amount     int
	Category   string
	Difficulty types.Difficulty
	Type       types.QuestionType
}

type Event struct {
	Type  EventType
	Frame []byte
	Err   error
	Text  string
	Game  GameParams
}

type EffectType string

const (
	EffSend         EffectType = "Send"
	EffDecodeFailed EffectType = "DecodeFailed"
	EffIgnoredKind  EffectType = "IgnoredKind"
	EffConnError    EffectType = "ConnError"
	EffConnClosed   EffectType = "ConnClosed"
	EffRejected     EffectType = "Rejected"
	EffArmDismiss   EffectType = "ArmDismiss"
)

type Effect struct {
	Type    EffectType
	Request types.Request
	Kind    string
	Err     error
}

func Apply(s State, evt Event) ([]Effect, State, error) {
	next := s

	switch evt.Type {
	case EvtDialing:
		next.Conn = ConnConnecting
		return nil, next, nil

	case EvtOpened:
		if s.Conn == ConnConnected {
			return nil, s, ErrAlreadyConnected
		}
		next.Conn = ConnConnected
		return []Effect{{Type: EffSend, Request: types.CategoriesRequest()}}, next, nil

	case EvtFrameReceived:
		resp, err := types.DecodeResponse(evt.Frame)
		if err != nil {
			return []Effect{{Type: EffDecodeFailed, Err: err}}, s, nil
		}

		switch r := resp.(type) {
		case types.Categories:
			next.Categories = r.Data
		case types.Questions:
			next.Questions = r.Data
		case types.Unknown:
			return []Effect{{Type: EffIgnoredKind, Kind: r.Kind}}, s, nil
		}
		return nil, next, nil

	case EvtErrored:
		return []Effect{{Type: EffConnError, Err: evt.Err}}, s, nil

	case EvtClosed:
		next.Conn = ConnDisconnected
		return []Effect{{Type: EffConnClosed, Err: evt.Err}}, next, nil

	case EvtGameRequested:
		if s.Conn != ConnConnected {
			next.Notification = Notification{Text: NotConnectedText, Visible: true}
			return []Effect{
				{Type: EffRejected, Err: ErrNotConnected},
				{Type: EffArmDismiss},
			}, next, nil
		}
		g := evt.Game
		req := types.QuestionsRequest(g.Amount, g.Category, g.Difficulty, g.Type)
		return []Effect{{Type: EffSend, Request: req}}, next, nil

	case EvtNotified:
		next.Notification = Notification{Text: evt.Text, Visible: true}
		return []Effect{{Type: EffArmDismiss}}, next, nil

	case EvtNotificationDismissed:
		next.Notification = Notification{}
		return nil, next, nil

	default:
		return nil, s, ErrUnsupportedEvent
	}
}

// Reduce replays events from a fresh state, discarding effects and rejected events.
func Reduce(events []Event) State {
	s := NewState()
	for _, evt := range events {
		_, next, err := Apply(s, evt)
		if err != nil {
			continue
		}
		s = next
	}
	return s
}
