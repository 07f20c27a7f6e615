// Package protocol defines the wire messages of the call-path control
// surfaces: the websocket event stream, the NATS request/reply API and the
// remote codec commands.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-callpath/pkg/audiopath"
)

// MessageType identifies the type of event message
type MessageType string

const (
	TypeTransition MessageType = "transition" // A path transition finished or was rejected
	TypeState      MessageType = "state"      // Controller state snapshot
	TypePower      MessageType = "power"      // Suspend or resume notification
)

// Message is the envelope for every event pushed to subscribers
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// PowerEvent reports a suspend or resume request and its outcome
type PowerEvent struct {
	Action string `json:"action"` // "suspend", "resume"
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewTransitionMessage wraps a finished transition
func NewTransitionMessage(t audiopath.Transition) (*Message, error) {
	return NewMessage(TypeTransition, t)
}

// NewStateMessage wraps a controller state snapshot
func NewStateMessage(s audiopath.State) (*Message, error) {
	return NewMessage(TypeState, s)
}

// NewPowerMessage wraps the result of a suspend or resume
func NewPowerMessage(action string, err error) (*Message, error) {
	ev := PowerEvent{Action: action, Status: StatusFromError(err)}
	if err != nil {
		ev.Error = err.Error()
	}
	return NewMessage(TypePower, ev)
}
