// Package hub fans controller events out to websocket subscribers
// using a channel-based broadcast loop.
package hub

import "github.com/teslashibe/go-callpath/pkg/protocol"

// Message is one encoded event frame
type Message struct {
	Type protocol.MessageType
	Data []byte
}

// Encode wraps a protocol message into a frame
func Encode(msg *protocol.Message) (Message, error) {
	data, err := msg.Bytes()
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msg.Type, Data: data}, nil
}
