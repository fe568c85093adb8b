package avalon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seatedPlayers builds a fixed table of players with assigned roles, in
// seat order.
func seatedPlayers(roles map[string]Role) []*Player {
	order := []string{"merlin", "percival", "servant", "assassin", "morgana", "mordred", "oberon", "minion"}
	base := time.Now()

	seats := make([]*Player, 0, len(roles))
	for i, name := range order {
		role, ok := roles[name]
		if !ok {
			continue
		}
		seats = append(seats, &Player{
			Token:    "tok-" + name,
			Name:     name,
			Role:     role,
			JoinedAt: base.Add(time.Duration(i) * time.Millisecond),
			joinSeq:  i,
		})
	}
	return seats
}

func fullTable() []*Player {
	return seatedPlayers(map[string]Role{
		"merlin":   RoleMerlin,
		"percival": RolePercival,
		"servant":  RoleServant,
		"assassin": RoleAssassin,
		"morgana":  RoleMorgana,
		"mordred":  RoleMordred,
		"oberon":   RoleOberon,
		"minion":   RoleMinion,
	})
}

func playerNamed(t *testing.T, seats []*Player, name string) *Player {
	t.Helper()
	for _, p := range seats {
		if p.Name == name {
			return p
		}
	}
	require.FailNow(t, "no such player", name)
	return nil
}

func TestVisibility_MerlinNeverSeesMordred(t *testing.T) {
	assert := assert.New(t)
	seats := fullTable()

	info := visibilityFor(playerNamed(t, seats, "merlin"), seats)
	assert.Equal(RoleMerlin, info.Role)
	assert.ElementsMatch([]string{"assassin", "morgana", "oberon", "minion"}, info.Teammates)
	assert.NotContains(info.Teammates, "mordred")
}

func TestVisibility_EvilSeesEvilExceptOberonAndSelf(t *testing.T) {
	assert := assert.New(t)
	seats := fullTable()

	info := visibilityFor(playerNamed(t, seats, "assassin"), seats)
	assert.ElementsMatch([]string{"morgana", "mordred", "minion"}, info.Teammates)

	// Mordred is hidden from Merlin, not from his own side.
	info = visibilityFor(playerNamed(t, seats, "mordred"), seats)
	assert.ElementsMatch([]string{"assassin", "morgana", "minion"}, info.Teammates)
}

func TestVisibility_OberonSeesNothing(t *testing.T) {
	assert := assert.New(t)
	seats := fullTable()

	info := visibilityFor(playerNamed(t, seats, "oberon"), seats)
	assert.Empty(info.Teammates)
}

func TestVisibility_GenericGoodSeesNothing(t *testing.T) {
	assert := assert.New(t)
	seats := fullTable()

	info := visibilityFor(playerNamed(t, seats, "servant"), seats)
	assert.Empty(info.Teammates)
}

func TestVisibility_PercivalSeesUnlabeledPair(t *testing.T) {
	assert := assert.New(t)
	seats := fullTable()

	info := visibilityFor(playerNamed(t, seats, "percival"), seats)
	assert.Len(info.Teammates, 2)
	assert.ElementsMatch([]string{"merlin", "morgana"}, info.Teammates)
}

func TestVisibility_PercivalPairIsShuffled(t *testing.T) {
	seats := fullTable()
	percival := playerNamed(t, seats, "percival")

	orders := make(map[string]bool)
	for i := 0; i < 100; i++ {
		info := visibilityFor(percival, seats)
		require.Len(t, info.Teammates, 2)
		orders[info.Teammates[0]] = true
	}

	// Over 100 draws both orderings must show up; the pair carries no
	// positional information.
	assert.Len(t, orders, 2)
}

func TestVisibility_PercivalPairShrinksWhenMorganaDisabled(t *testing.T) {
	assert := assert.New(t)
	seats := seatedPlayers(map[string]Role{
		"merlin":   RoleMerlin,
		"percival": RolePercival,
		"assassin": RoleAssassin,
		"servant":  RoleServant,
		"minion":   RoleMinion,
	})

	info := visibilityFor(playerNamed(t, seats, "percival"), seats)
	assert.Equal([]string{"merlin"}, info.Teammates)
}
