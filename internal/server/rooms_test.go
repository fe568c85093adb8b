package server

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoomID(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("AVALON", NormalizeRoomID("avalon"))
	assert.Equal("AVALON", NormalizeRoomID("  Avalon "))
	assert.Equal("ROOM-1", NormalizeRoomID("room-1"))
	assert.Equal("", NormalizeRoomID("   "))
}

func TestValidateRoomID(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(ValidateRoomID("GAME"))
	assert.ErrorContains(ValidateRoomID(""), "BAD_ROOM")

	assert.ErrorContains(ValidateRoomID(strings.Repeat("A", 33)), "BAD_ROOM")
}

func TestRoomManager_GetOrCreateAliasesCasings(t *testing.T) {
	assert := assert.New(t)
	rm := NewRoomManager(5)

	a, err := rm.GetOrCreate("avalon")
	require.NoError(t, err)
	b, err := rm.GetOrCreate("  AVALON ")
	require.NoError(t, err)

	assert.Same(a, b, "different spellings address the same room")
	assert.Equal(1, rm.Count())
	assert.Equal("AVALON", a.Game.ID)
}

func TestRoomManager_GetDoesNotCreate(t *testing.T) {
	assert := assert.New(t)
	rm := NewRoomManager(5)

	_, ok := rm.Get("missing")
	assert.False(ok)
	assert.Equal(0, rm.Count())
}

func TestRoomManager_RejectsBadIDs(t *testing.T) {
	assert := assert.New(t)
	rm := NewRoomManager(5)

	_, err := rm.GetOrCreate("   ")
	assert.ErrorContains(err, "BAD_ROOM")
	assert.Equal(0, rm.Count())
}

func TestRoomManager_ConcurrentCreateYieldsOneRoom(t *testing.T) {
	assert := assert.New(t)
	rm := NewRoomManager(5)

	const workers = 32
	rooms := make([]*Room, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := rm.GetOrCreate("  shared ")
			assert.NoError(err)
			rooms[i] = room
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(rooms[0], rooms[i])
	}
	assert.Equal(1, rm.Count())
}
