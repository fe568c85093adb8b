package avalon

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseLobby         Phase = "LOBBY"
	PhaseTeamSelection Phase = "TEAM_SELECTION"
	PhaseTeamVoting    Phase = "TEAM_VOTING"
	PhaseMission       Phase = "MISSION"
	PhaseAssassination Phase = "ASSASSINATION"
	PhaseGameOver      Phase = "GAME_OVER"
)

const (
	// QuestCount is the number of quests in a game.
	QuestCount = 5
	// QuestsToWin is the number of quest results either side needs.
	QuestsToWin = 3
	// MaxVoteTrack ends the game for evil once this many consecutive
	// team proposals have been rejected.
	MaxVoteTrack = 5

	// DefaultMinPlayers is the seat count required to start a game.
	DefaultMinPlayers = 5
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

type LogEntry struct {
	Time     string   `json:"time"`
	Message  string   `json:"msg"`
	Severity Severity `json:"severity"`
}

// Player is one participant in a room. Players joining after a game has
// started are admitted as spectators: they receive broadcasts but hold no
// seat, no role, and no vote.
type Player struct {
	Token     string
	Name      string
	Avatar    string
	Role      Role
	JoinedAt  time.Time
	Connected bool
	Ready     bool
	Spectator bool

	// joinSeq breaks JoinedAt ties so seat order is stable.
	joinSeq int
}

// Game holds the authoritative state of one room. It is not safe for
// concurrent use; callers must serialize access per room.
type Game struct {
	ID       string
	Phase    Phase
	Settings Settings

	Players map[string]*Player

	// LeaderToken identifies the current proposer. Leadership is derived
	// by token equality rather than a seat index, so seat-count changes
	// cannot skew it.
	LeaderToken string

	QuestIndex   int
	QuestResults [QuestCount]*bool
	CurrentTeam  []string
	Votes        map[string]bool
	VoteTrack    int

	MissionVotes  []bool
	MissionVoters []string

	ResetVotes map[string]bool
	History    []LogEntry

	minPlayers int
	nextSeq    int
}

type Option func(*Game)

// WithMinPlayers overrides the seat count required to start a game.
func WithMinPlayers(n int) Option {
	return func(g *Game) {
		if n > 0 {
			g.minPlayers = n
		}
	}
}

func NewGame(id string, opts ...Option) *Game {
	g := &Game{
		ID:         id,
		Phase:      PhaseLobby,
		Settings:   DefaultSettings(),
		Players:    make(map[string]*Player),
		Votes:      make(map[string]bool),
		ResetVotes: make(map[string]bool),
		minPlayers: DefaultMinPlayers,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ActiveSeats returns the non-spectator players in seat order: ascending
// join time, insertion order breaking ties. The order is recomputed on
// every call, never stored.
func (g *Game) ActiveSeats() []*Player {
	seats := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.Spectator {
			seats = append(seats, p)
		}
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].JoinedAt.Equal(seats[j].JoinedAt) {
			return seats[i].joinSeq < seats[j].joinSeq
		}
		return seats[i].JoinedAt.Before(seats[j].JoinedAt)
	})
	return seats
}

// Host returns the active, connected player with the earliest join time.
// Host privileges gate settings changes and kicks.
func (g *Game) Host() (*Player, bool) {
	for _, p := range g.ActiveSeats() {
		if p.Connected {
			return p, true
		}
	}
	return nil, false
}

// Leader returns the current proposer, if any.
func (g *Game) Leader() (*Player, bool) {
	p, ok := g.Players[g.LeaderToken]
	if !ok || p.Spectator {
		return nil, false
	}
	return p, true
}

type JoinResult struct {
	Player    *Player
	Rejoined  bool
	Spectator bool
}

// Join admits a player. A recognized token rebinds the existing entry
// (reconnect); otherwise a fresh token is minted, and if a game is already
// underway the newcomer is seated as a spectator.
func (g *Game) Join(token, name, avatar string) JoinResult {
	if token != "" {
		if p, ok := g.Players[token]; ok {
			p.Connected = true
			p.Name = name
			p.Avatar = avatar
			g.logf(SeverityInfo, "%s reconnected", name)
			return JoinResult{Player: p, Rejoined: true, Spectator: p.Spectator}
		}
	}

	p := &Player{
		Token:     uuid.NewString(),
		Name:      name,
		Avatar:    avatar,
		JoinedAt:  time.Now(),
		Connected: true,
		Spectator: g.Phase != PhaseLobby,
		joinSeq:   g.nextSeq,
	}
	g.nextSeq++
	g.Players[p.Token] = p

	if p.Spectator {
		g.logf(SeverityInfo, "%s joined as a spectator", name)
	} else {
		g.logf(SeverityInfo, "%s joined", name)
	}
	return JoinResult{Player: p, Spectator: p.Spectator}
}

// MarkDisconnected flips the liveness flag for the given token. The player
// keeps their seat, role, and vote obligations; only a host kick vacates a
// seat.
func (g *Game) MarkDisconnected(token string) (*Player, bool) {
	p, ok := g.Players[token]
	if !ok {
		return nil, false
	}
	p.Connected = false
	return p, true
}

// RoleInfo returns the private visibility payload for a player, recomputed
// from current room state. It must be redelivered on every reconnect of a
// player holding a role.
func (g *Game) RoleInfo(token string) (RoleInfo, bool) {
	p, ok := g.Players[token]
	if !ok || p.Spectator || p.Role == RoleNone {
		return RoleInfo{}, false
	}
	return visibilityFor(p, g.ActiveSeats()), true
}

func (g *Game) logf(severity Severity, format string, args ...any) {
	g.History = append(g.History, newLogEntry(severity, format, args...))
}
