package avalon

import "math/rand"

type Role string

const (
	RoleNone     Role = ""
	RoleMerlin   Role = "merlin"
	RolePercival Role = "percival"
	RoleServant  Role = "servant"
	RoleAssassin Role = "assassin"
	RoleMorgana  Role = "morgana"
	RoleMordred  Role = "mordred"
	RoleOberon   Role = "oberon"
	RoleMinion   Role = "minion"
)

type Alignment string

const (
	AlignmentNone Alignment = ""
	AlignmentGood Alignment = "good"
	AlignmentEvil Alignment = "evil"
)

var roleAlignments = map[Role]Alignment{
	RoleMerlin:   AlignmentGood,
	RolePercival: AlignmentGood,
	RoleServant:  AlignmentGood,
	RoleAssassin: AlignmentEvil,
	RoleMorgana:  AlignmentEvil,
	RoleMordred:  AlignmentEvil,
	RoleOberon:   AlignmentEvil,
	RoleMinion:   AlignmentEvil,
}

func (r Role) Alignment() Alignment {
	return roleAlignments[r]
}

func (r Role) Evil() bool {
	return r.Alignment() == AlignmentEvil
}

// Settings holds the special roles enabled for a room. Each enabled role
// fills exactly one seat on its side of the balance table.
type Settings struct {
	Merlin   bool `json:"merlin"`
	Percival bool `json:"percival"`
	Assassin bool `json:"assassin"`
	Morgana  bool `json:"morgana"`
	Mordred  bool `json:"mordred"`
	Oberon   bool `json:"oberon"`
}

func DefaultSettings() Settings {
	return Settings{
		Merlin:   true,
		Percival: true,
		Assassin: true,
		Morgana:  true,
	}
}

// balanceTable maps active player count to (good, evil) seat targets.
// The single-player entry exists for smoke-testing a room alone.
var balanceTable = map[int]struct{ Good, Evil int }{
	1:  {1, 0},
	5:  {3, 2},
	6:  {4, 2},
	7:  {4, 3},
	8:  {5, 3},
	9:  {6, 3},
	10: {6, 4},
}

// questTable maps active player count to the required team size for each
// of the five quests.
var questTable = map[int][5]int{
	1:  {1, 1, 1, 1, 1},
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// RequiredTeamSize returns the team size for the given quest, or 0 when the
// player count has no quest configuration.
func RequiredTeamSize(playerCount, questIndex int) int {
	sizes, ok := questTable[playerCount]
	if !ok || questIndex < 0 || questIndex >= QuestCount {
		return 0
	}
	return sizes[questIndex]
}

// AssignRoles builds a shuffled role list of exactly count entries. Enabled
// special roles take seats first, then generic servants and minions fill to
// the balance targets. If the specials overshoot the count the list is
// truncated; if it still falls short it is padded with servants, so good
// seats win out when settings conflict with the player count.
func AssignRoles(count int, s Settings) []Role {
	target, ok := balanceTable[count]
	if !ok {
		target = struct{ Good, Evil int }{1, 0}
	}

	roles := make([]Role, 0, count)
	if s.Merlin {
		roles = append(roles, RoleMerlin)
	}
	if s.Percival {
		roles = append(roles, RolePercival)
	}
	if s.Assassin {
		roles = append(roles, RoleAssassin)
	}
	if s.Morgana {
		roles = append(roles, RoleMorgana)
	}
	if s.Mordred {
		roles = append(roles, RoleMordred)
	}
	if s.Oberon {
		roles = append(roles, RoleOberon)
	}

	good, evil := 0, 0
	for _, r := range roles {
		if r.Evil() {
			evil++
		} else {
			good++
		}
	}

	for i := 0; i < target.Good-good; i++ {
		roles = append(roles, RoleServant)
	}
	for i := 0; i < target.Evil-evil; i++ {
		roles = append(roles, RoleMinion)
	}

	if len(roles) > count {
		roles = roles[:count]
	}
	for len(roles) < count {
		roles = append(roles, RoleServant)
	}

	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	return roles
}
