package avalon

// Snapshot is the full derived room view broadcast after every mutation.
// It is always rebuilt from scratch, never patched incrementally.
type Snapshot struct {
	RoomID         string              `json:"roomId"`
	Phase          Phase               `json:"state"`
	Players        []PlayerView        `json:"players"`
	QuestResults   [QuestCount]*bool   `json:"questResults"`
	QuestIndex     int                 `json:"questIndex"`
	TeamSizeNeeded int                 `json:"teamSizeNeeded"`
	VoteTrack      int                 `json:"voteTrack"`
	Settings       Settings            `json:"settings"`
	History        []LogEntry          `json:"history"`
	HostToken      string              `json:"hostToken"`
}

type PlayerView struct {
	Token         string `json:"token"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	IsLeader      bool   `json:"isLeader"`
	InTeam        bool   `json:"inTeam"`
	HasVoted      bool   `json:"hasVoted"`
	Connected     bool   `json:"connected"`
	Ready         bool   `json:"ready"`
	HasResetVoted bool   `json:"hasResetVoted"`
	Spectator     bool   `json:"spectator"`
}

// Snapshot projects the current room state. Active seats come first in
// seat order, spectators after.
func (g *Game) Snapshot() Snapshot {
	seats := g.ActiveSeats()

	snap := Snapshot{
		RoomID:         g.ID,
		Phase:          g.Phase,
		QuestResults:   g.QuestResults,
		QuestIndex:     g.QuestIndex,
		TeamSizeNeeded: RequiredTeamSize(len(seats), g.QuestIndex),
		VoteTrack:      g.VoteTrack,
		Settings:       g.Settings,
		History:        g.History,
		Players:        make([]PlayerView, 0, len(g.Players)),
	}
	if host, ok := g.Host(); ok {
		snap.HostToken = host.Token
	}

	for _, p := range seats {
		snap.Players = append(snap.Players, g.playerView(p))
	}
	for _, p := range g.Players {
		if p.Spectator {
			snap.Players = append(snap.Players, g.playerView(p))
		}
	}
	return snap
}

func (g *Game) playerView(p *Player) PlayerView {
	hasVoted := false
	switch g.Phase {
	case PhaseTeamVoting:
		_, hasVoted = g.Votes[p.Token]
	case PhaseMission:
		for _, voter := range g.MissionVoters {
			if voter == p.Token {
				hasVoted = true
				break
			}
		}
	}

	return PlayerView{
		Token:         p.Token,
		Name:          p.Name,
		Avatar:        p.Avatar,
		IsLeader:      !p.Spectator && p.Token == g.LeaderToken,
		InTeam:        g.onTeam(p.Token),
		HasVoted:      hasVoted,
		Connected:     p.Connected,
		Ready:         p.Ready,
		HasResetVoted: g.ResetVotes[p.Token],
		Spectator:     p.Spectator,
	}
}
