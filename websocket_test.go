package main

import (
	"testing"
	"time"

	"waveclip/types"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readStateMessage reads messages until a state snapshot arrives or the
// deadline passes. Job status messages may interleave with state pushes, so
// tests skip past anything that is not a snapshot.
func readStateMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) types.SessionState {
	deadline := time.Now().Add(timeout)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for time.Now().Before(deadline) {
		var msg types.SessionMessage
		err := conn.ReadJSON(&msg)
		require.NoError(t, err)

		if msg.Type == "state" && msg.State != nil {
			return *msg.State
		}
	}

	t.Fatal("no state message received within timeout")
	return types.SessionState{}
}

// TestWebSocketConnection tests connecting and receiving the initial snapshot
func TestWebSocketConnection(t *testing.T) {
	helper := NewTestHelper(t)
	state := helper.CreateSession(t)

	conn := helper.ConnectWebSocket(t, "/api/ws/sessions/"+state.SessionID)
	defer conn.Close()

	snapshot := readStateMessage(t, conn, 2*time.Second)
	assert.Equal(t, state.SessionID, snapshot.SessionID)
	assert.False(t, snapshot.Ready)
}

// TestWebSocketUnknownSession tests that unknown sessions refuse the upgrade
func TestWebSocketUnknownSession(t *testing.T) {
	helper := NewTestHelper(t)

	wsURL := "ws" + helper.Server.URL[4:] + "/api/ws/sessions/no-such-session"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp != nil {
		resp.Body.Close()
		assert.Equal(t, 404, resp.StatusCode)
	}
}

// TestWebSocketDragEvents tests driving the drag machine over the socket
func TestWebSocketDragEvents(t *testing.T) {
	helper := NewTestHelper(t)
	state := helper.CreateSession(t)
	sessionID := state.SessionID

	helper.UploadAndDecode(t, sessionID, "take.wav", makeTestWAV(t, 10))

	conn := helper.ConnectWebSocket(t, "/api/ws/sessions/"+sessionID)
	defer conn.Close()

	snapshot := readStateMessage(t, conn, 2*time.Second)
	require.True(t, snapshot.Ready)

	// Press the end handle at the right edge of a 1000px track
	require.NoError(t, conn.WriteJSON(types.InputEvent{
		Type: "press", Target: "end", PointerX: 1000, TrackWidth: 1000,
	}))
	snapshot = readStateMessage(t, conn, 2*time.Second)
	assert.Equal(t, "end", snapshot.DragTarget)

	// Move to 400px: the end handle lands on 4 seconds
	require.NoError(t, conn.WriteJSON(types.InputEvent{
		Type: "move", PointerX: 400,
	}))
	snapshot = readStateMessage(t, conn, 2*time.Second)
	assert.InDelta(t, 4.0, snapshot.Selection.End, 0.001)
	assert.Equal(t, "end", snapshot.DragTarget)

	require.NoError(t, conn.WriteJSON(types.InputEvent{Type: "release"}))
	snapshot = readStateMessage(t, conn, 2*time.Second)
	assert.Empty(t, snapshot.DragTarget)
	assert.InDelta(t, 4.0, snapshot.Selection.End, 0.001)
}

// TestWebSocketDisconnectReleasesDrag tests that dropping the connection
// mid-drag releases the handle, the same as a pointer release off-track.
func TestWebSocketDisconnectReleasesDrag(t *testing.T) {
	helper := NewTestHelper(t)
	state := helper.CreateSession(t)
	sessionID := state.SessionID

	helper.UploadAndDecode(t, sessionID, "take.wav", makeTestWAV(t, 10))

	conn := helper.ConnectWebSocket(t, "/api/ws/sessions/"+sessionID)
	readStateMessage(t, conn, 2*time.Second)

	require.NoError(t, conn.WriteJSON(types.InputEvent{
		Type: "press", Target: "start", PointerX: 0, TrackWidth: 1000,
	}))
	snapshot := readStateMessage(t, conn, 2*time.Second)
	require.Equal(t, "start", snapshot.DragTarget)

	conn.Close()

	// The read pump's close path ends the drag
	deadline := time.Now().Add(2 * time.Second)
	for {
		var response struct {
			State types.SessionState `json:"state"`
		}
		helper.GetJSON(t, "/api/sessions/"+sessionID, &response)
		if response.State.DragTarget == "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("drag was not released after disconnect")
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// TestWebSocketPlaybackEvents tests tick and ended mirroring over the socket
func TestWebSocketPlaybackEvents(t *testing.T) {
	helper := NewTestHelper(t)
	state := helper.CreateSession(t)
	sessionID := state.SessionID

	helper.UploadAndDecode(t, sessionID, "take.wav", makeTestWAV(t, 10))

	conn := helper.ConnectWebSocket(t, "/api/ws/sessions/"+sessionID)
	defer conn.Close()
	readStateMessage(t, conn, 2*time.Second)

	require.NoError(t, conn.WriteJSON(types.InputEvent{Type: "play"}))
	snapshot := readStateMessage(t, conn, 2*time.Second)
	assert.True(t, snapshot.Playback.Playing)

	require.NoError(t, conn.WriteJSON(types.InputEvent{Type: "tick", Position: 3.25}))
	snapshot = readStateMessage(t, conn, 2*time.Second)
	assert.InDelta(t, 3.25, snapshot.Playback.Position, 0.001)

	require.NoError(t, conn.WriteJSON(types.InputEvent{Type: "ended"}))
	snapshot = readStateMessage(t, conn, 2*time.Second)
	assert.False(t, snapshot.Playback.Playing)
	assert.InDelta(t, 10.0, snapshot.Playback.Position, 0.001)
}
