package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionManager_BindAndLookup(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager()

	old := cm.Bind("conn-1", Session{RoomID: "GAME", Token: "tok-a"})
	assert.Empty(old)

	session, ok := cm.SessionFor("conn-1")
	require.True(t, ok)
	assert.Equal("GAME", session.RoomID)
	assert.Equal("tok-a", session.Token)

	_, ok = cm.SessionFor("conn-2")
	assert.False(ok)
}

func TestConnectionManager_RebindReportsTakeover(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager()

	cm.Bind("conn-1", Session{RoomID: "GAME", Token: "tok-a"})
	old := cm.Bind("conn-2", Session{RoomID: "GAME", Token: "tok-a"})
	assert.Equal("conn-1", old, "reconnect reports the superseded connection")

	// Rebinding the same connection is not a takeover.
	old = cm.Bind("conn-2", Session{RoomID: "GAME", Token: "tok-a"})
	assert.Empty(old)
}

func TestConnectionManager_RemoveReturnsSession(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager()

	cm.Bind("conn-1", Session{RoomID: "GAME", Token: "tok-a"})

	session, bound := cm.Remove("conn-1")
	require.True(t, bound)
	assert.Equal("tok-a", session.Token)

	_, bound = cm.Remove("conn-1")
	assert.False(bound)
	assert.Nil(cm.ConnByToken("tok-a"))
}

func TestConnectionManager_RemoveOldConnKeepsNewBinding(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager()

	// conn-2 took over tok-a; tearing down conn-1 afterwards must not
	// unbind the token from its new connection.
	cm.Bind("conn-1", Session{RoomID: "GAME", Token: "tok-a"})
	cm.Bind("conn-2", Session{RoomID: "GAME", Token: "tok-a"})

	_, bound := cm.Remove("conn-1")
	assert.True(bound)

	session, ok := cm.SessionFor("conn-2")
	require.True(t, ok)
	assert.Equal("tok-a", session.Token)
}

func TestConnectionManager_UnboundConnection(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager()

	cm.Add("conn-1", nil)
	_, bound := cm.Remove("conn-1")
	assert.False(bound, "a connection that never joined has no session")
}
