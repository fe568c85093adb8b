package avalon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_ProjectsRoomState(t *testing.T) {
	assert := assert.New(t)
	g, tokens := newRoom(t, 5)
	startRoom(t, g, tokens)

	require.NoError(t, g.SelectTeam(tokens[0], tokens[:2]))
	_, err := g.VoteTeam(tokens[1], true)
	require.NoError(t, err)

	snap := g.Snapshot()
	assert.Equal("TEST", snap.RoomID)
	assert.Equal(PhaseTeamVoting, snap.Phase)
	assert.Equal(2, snap.TeamSizeNeeded)
	assert.Equal(0, snap.VoteTrack)
	assert.Equal(tokens[0], snap.HostToken)
	require.Len(t, snap.Players, 5)

	leader := snap.Players[0]
	assert.Equal(tokens[0], leader.Token)
	assert.True(leader.IsLeader)
	assert.True(leader.InTeam)
	assert.False(leader.HasVoted)

	voter := snap.Players[1]
	assert.True(voter.InTeam)
	assert.True(voter.HasVoted)

	bystander := snap.Players[4]
	assert.False(bystander.IsLeader)
	assert.False(bystander.InTeam)
	assert.False(bystander.HasVoted)
}

func TestSnapshot_SpectatorsListedAfterSeats(t *testing.T) {
	assert := assert.New(t)
	g, tokens := newRoom(t, 5)
	startRoom(t, g, tokens)

	watcher := g.Join("", "watcher", "").Player
	snap := g.Snapshot()

	require.Len(t, snap.Players, 6)
	for i := 0; i < 5; i++ {
		assert.Equal(tokens[i], snap.Players[i].Token)
		assert.False(snap.Players[i].Spectator)
	}
	last := snap.Players[5]
	assert.Equal(watcher.Token, last.Token)
	assert.True(last.Spectator)
	assert.False(last.IsLeader)
}
