package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/protocol"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New("test")
	go h.Run()
	require.Eventually(t, h.IsRunning, time.Second, time.Millisecond)
	t.Cleanup(h.Stop)
	return h
}

func subscribe(t *testing.T, h *Hub, buf int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan Message, buf)}
	require.True(t, h.join(c))
	require.Eventually(t, func() bool { return h.ClientCount() > 0 }, time.Second, time.Millisecond)
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_ObserveBroadcastsTransition(t *testing.T) {
	h := startHub(t)
	c := subscribe(t, h, 4)

	h.Observe(audiopath.Transition{ID: "t-1", Request: audiopath.Speaker})

	msg := receive(t, c)
	assert.Equal(t, protocol.TypeTransition, msg.Type)

	parsed, err := protocol.ParseMessage(msg.Data)
	require.NoError(t, err)
	var tr map[string]any
	require.NoError(t, parsed.ParseData(&tr))
	assert.Equal(t, "t-1", tr["id"])
	assert.Equal(t, "speaker", tr["request"])
}

func TestHub_FanOut(t *testing.T) {
	h := startHub(t)
	a := subscribe(t, h, 4)
	b := &Client{hub: h, send: make(chan Message, 4)}
	require.True(t, h.join(b))
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	msg, err := protocol.NewPowerMessage("suspend", nil)
	require.NoError(t, err)
	require.NoError(t, h.Publish(msg))

	assert.Equal(t, protocol.TypePower, receive(t, a).Type)
	assert.Equal(t, protocol.TypePower, receive(t, b).Type)
}

func TestHub_Unregister(t *testing.T) {
	h := startHub(t)
	c := subscribe(t, h, 1)

	h.leave(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := startHub(t)
	subscribe(t, h, 1)

	for i := 0; i < 3; i++ {
		h.Broadcast(Message{Type: protocol.TypeState, Data: []byte(`{}`)})
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	h := New("stop")
	go h.Run()
	require.Eventually(t, h.IsRunning, time.Second, time.Millisecond)
	c := subscribe(t, h, 1)

	h.Stop()
	h.Stop()

	assert.False(t, h.IsRunning())
	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, h.join(&Client{hub: h, send: make(chan Message)}))
}

func TestHub_NotRunningDiscards(t *testing.T) {
	h := New("idle")

	for i := 0; i < broadcastBuffer+10; i++ {
		h.Observe(audiopath.Transition{ID: "t", Request: audiopath.Speaker})
	}
	assert.Zero(t, h.Dropped())
	assert.Empty(t, h.broadcast)
}

func TestEncode(t *testing.T) {
	msg, err := protocol.NewStateMessage(audiopath.State{Path: audiopath.Earpiece})
	require.NoError(t, err)

	frame, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeState, frame.Type)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frame.Data, &raw))
	assert.Contains(t, raw, "data")
}
