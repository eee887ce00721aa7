package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/action"
)

// NewMessage builds a message; a nil payload is omitted.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
	}
	return &Message{Type: msgType, Payload: data}, nil
}

// MustNewMessage is NewMessage for payloads that always encode.
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode returns the JSON frame.
func Encode(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a JSON frame.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errors.New("message type is required")
	}
	return &msg, nil
}

// ParsePayload decodes the payload into T. An absent payload yields the zero T.
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage reports err to the client. Errors that are not a GameError
// are reported as INTERNAL without their text.
func NewErrorMessage(err error) *Message {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		return NewErrorMessageWithText(gameErr.Reason, gameErr.Message)
	}
	return NewErrorMessageWithText(apperrors.ReasonInternal, apperrors.ErrInternal.Message)
}

// NewErrorMessageWithText builds an error frame with a custom text.
func NewErrorMessageWithText(code apperrors.Reason, text string) *Message {
	return MustNewMessage(MsgError, ErrorPayload{Code: code, Message: text})
}

// ToAction converts an action frame into an action and the room id it names.
func ToAction(msg *Message) (action.Action, string, error) {
	if !msg.Type.IsAction() {
		return action.Action{}, "", apperrors.ErrUnknownAction
	}
	p, err := ParsePayload[ActionPayload](msg)
	if err != nil {
		return action.Action{}, "", apperrors.New(apperrors.ReasonInvalidPayload, "malformed payload")
	}
	a, err := p.Action(msg.Type)
	if err != nil {
		return action.Action{}, "", err
	}
	return a, p.RoomID, nil
}

// Action builds the action of type t from the payload fields.
func (p ActionPayload) Action(t MessageType) (action.Action, error) {
	if !t.IsAction() {
		return action.Action{}, apperrors.ErrUnknownAction
	}
	a := action.Action{
		Type:      action.Type(t),
		Name:      p.Name,
		MaxRounds: p.MaxRounds,
		Clue:      p.Clue,
		Target:    p.Target,
	}
	if a.Type == action.PlaceChip {
		if p.X == nil || p.Y == nil {
			return action.Action{}, apperrors.New(apperrors.ReasonInvalidPayload, "x and y are required")
		}
		a.X, a.Y = *p.X, *p.Y
	}
	return a, nil
}
