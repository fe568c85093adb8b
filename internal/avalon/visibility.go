package avalon

import "math/rand"

// RoleInfo is the private payload delivered to exactly one player. It is
// never cached: it is rebuilt from current room state on game start and on
// every reconnect.
type RoleInfo struct {
	Role Role `json:"role"`
	// Teammates holds the names this role is allowed to see. For Percival
	// it is the unordered Merlin/Morgana pair, shuffled so the order gives
	// nothing away.
	Teammates []string `json:"teammates"`
}

// visibilityFor computes what one player may know about the others:
//   - evil players (except Oberon) see each other, minus Oberon and
//     themselves
//   - Merlin sees all evil except Mordred
//   - Percival sees the Merlin/Morgana pair without knowing which is which
//   - everyone else sees nothing
func visibilityFor(p *Player, seats []*Player) RoleInfo {
	info := RoleInfo{Role: p.Role, Teammates: []string{}}

	switch p.Role {
	case RoleAssassin, RoleMorgana, RoleMordred, RoleMinion:
		for _, other := range seats {
			if other.Token == p.Token {
				continue
			}
			if other.Role.Evil() && other.Role != RoleOberon {
				info.Teammates = append(info.Teammates, other.Name)
			}
		}

	case RoleMerlin:
		for _, other := range seats {
			if other.Role.Evil() && other.Role != RoleMordred {
				info.Teammates = append(info.Teammates, other.Name)
			}
		}

	case RolePercival:
		for _, other := range seats {
			if other.Role == RoleMerlin || other.Role == RoleMorgana {
				info.Teammates = append(info.Teammates, other.Name)
			}
		}
		rand.Shuffle(len(info.Teammates), func(i, j int) {
			info.Teammates[i], info.Teammates[j] = info.Teammates[j], info.Teammates[i]
		})
	}

	return info
}
