package avalon

import (
	"errors"
	"fmt"
	"time"
)

// Every mutating operation validates phase, actor, and authority up front
// and returns a coded error on rejection. A rejected action never mutates
// room state; callers may surface or discard the rejection.

func newLogEntry(severity Severity, format string, args ...any) LogEntry {
	return LogEntry{
		Time:     time.Now().Format("15:04:05"),
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	}
}

func (g *Game) activePlayer(token string) (*Player, error) {
	p, ok := g.Players[token]
	if !ok {
		return nil, errors.New("NOT_IN_ROOM: Unknown player token")
	}
	if p.Spectator {
		return nil, errors.New("SPECTATOR: Spectators cannot act in the game")
	}
	return p, nil
}

func (g *Game) requireHost(token string) error {
	host, ok := g.Host()
	if !ok || host.Token != token {
		return errors.New("NOT_HOST: Only the host can do that")
	}
	return nil
}

// UpdateSettings replaces the enabled-role flags. Host only, lobby only.
func (g *Game) UpdateSettings(token string, s Settings) error {
	if g.Phase != PhaseLobby {
		return errors.New("WRONG_PHASE: Settings can only change in the lobby")
	}
	if _, err := g.activePlayer(token); err != nil {
		return err
	}
	if err := g.requireHost(token); err != nil {
		return err
	}
	g.Settings = s
	return nil
}

// ToggleReady flips the actor's ready flag. When every seat is ready and
// the room meets the minimum, the game starts: roles are dealt and the
// first leader is seated.
func (g *Game) ToggleReady(token string) (started bool, err error) {
	if g.Phase != PhaseLobby {
		return false, errors.New("WRONG_PHASE: Ready state only applies in the lobby")
	}
	p, err := g.activePlayer(token)
	if err != nil {
		return false, err
	}
	p.Ready = !p.Ready
	return g.maybeStart(), nil
}

func (g *Game) maybeStart() bool {
	seats := g.ActiveSeats()
	if len(seats) < g.minPlayers || len(seats) == 0 {
		return false
	}
	for _, p := range seats {
		if !p.Ready {
			return false
		}
	}
	g.start(seats)
	return true
}

func (g *Game) start(seats []*Player) {
	roles := AssignRoles(len(seats), g.Settings)
	for i, p := range seats {
		p.Role = roles[i]
	}

	g.Phase = PhaseTeamSelection
	g.LeaderToken = seats[0].Token
	g.QuestIndex = 0
	g.QuestResults = [QuestCount]*bool{}
	g.CurrentTeam = nil
	g.Votes = make(map[string]bool)
	g.VoteTrack = 0
	g.MissionVotes = nil
	g.MissionVoters = nil
	g.ResetVotes = make(map[string]bool)
	g.History = nil

	g.logf(SeverityInfo, "Roles in play: %s", summarizeRoles(roles))
	g.logf(SeveritySuccess, "Game started with %d players", len(seats))
}

func summarizeRoles(roles []Role) string {
	seen := make(map[Role]bool)
	summary := ""
	for _, r := range roles {
		if seen[r] {
			continue
		}
		seen[r] = true
		if summary != "" {
			summary += ", "
		}
		summary += string(r)
	}
	return summary
}

// SelectTeam records the leader's proposal and opens the team vote. The
// proposal must come from the current leader, match the quest's required
// size, and name distinct active players.
func (g *Game) SelectTeam(token string, team []string) error {
	if g.Phase != PhaseTeamSelection {
		return errors.New("WRONG_PHASE: No team proposal is expected now")
	}
	p, err := g.activePlayer(token)
	if err != nil {
		return err
	}
	if g.LeaderToken != p.Token {
		return errors.New("NOT_LEADER: Only the leader proposes a team")
	}

	seats := g.ActiveSeats()
	required := RequiredTeamSize(len(seats), g.QuestIndex)
	if required == 0 {
		return errors.New("NO_QUEST_CONFIG: No quest configuration for this player count")
	}
	if len(team) != required {
		return fmt.Errorf("BAD_TEAM_SIZE: Quest %d needs exactly %d members", g.QuestIndex+1, required)
	}

	seen := make(map[string]bool)
	names := ""
	for _, t := range team {
		member, ok := g.Players[t]
		if !ok || member.Spectator {
			return errors.New("BAD_TEAM: Team members must be active players")
		}
		if seen[t] {
			return errors.New("BAD_TEAM: Duplicate team member")
		}
		seen[t] = true
		if names != "" {
			names += ", "
		}
		names += member.Name
	}

	g.CurrentTeam = append([]string(nil), team...)
	g.Votes = make(map[string]bool)
	g.Phase = PhaseTeamVoting
	g.logf(SeverityInfo, "%s proposed: %s", p.Name, names)
	return nil
}

type PlayerVote struct {
	Name     string `json:"name"`
	Approved bool   `json:"approved"`
}

type TeamVoteResult struct {
	Resolved   bool
	Passed     bool
	Approvals  int
	Rejections int
	Detail     []PlayerVote
	GameOver   *GameOver
}

type GameOver struct {
	Winner Alignment `json:"winner"`
	Reason string    `json:"reason"`
}

// VoteTeam records one approve/reject ballot. Once every active player has
// voted the proposal resolves synchronously: a strict majority of approvals
// sends the team on the mission, anything else (ties included) rejects it
// and rotates the leader. Five consecutive rejections end the game for
// evil.
func (g *Game) VoteTeam(token string, approve bool) (*TeamVoteResult, error) {
	if g.Phase != PhaseTeamVoting {
		return nil, errors.New("WRONG_PHASE: No team vote is open")
	}
	p, err := g.activePlayer(token)
	if err != nil {
		return nil, err
	}
	if _, voted := g.Votes[p.Token]; voted {
		return nil, errors.New("ALREADY_VOTED: Ballot already cast")
	}
	g.Votes[p.Token] = approve
	return g.maybeResolveTeamVote(), nil
}

func (g *Game) maybeResolveTeamVote() *TeamVoteResult {
	if g.Phase != PhaseTeamVoting {
		return nil
	}
	seats := g.ActiveSeats()
	if len(seats) == 0 || len(g.Votes) < len(seats) {
		return nil
	}

	result := &TeamVoteResult{Resolved: true}
	for _, p := range seats {
		approved := g.Votes[p.Token]
		result.Detail = append(result.Detail, PlayerVote{Name: p.Name, Approved: approved})
		if approved {
			result.Approvals++
		} else {
			result.Rejections++
		}
	}
	result.Passed = result.Approvals > result.Rejections

	if result.Passed {
		g.VoteTrack = 0
		g.MissionVotes = nil
		g.MissionVoters = nil
		g.Phase = PhaseMission
		g.logf(SeveritySuccess, "Team approved (%d vs %d)", result.Approvals, result.Rejections)
		return result
	}

	g.VoteTrack++
	g.rotateLeader()
	g.Phase = PhaseTeamSelection
	g.logf(SeverityWarning, "Team rejected (%d vs %d), rejection %d of %d",
		result.Approvals, result.Rejections, g.VoteTrack, MaxVoteTrack)

	if g.VoteTrack >= MaxVoteTrack {
		g.Phase = PhaseGameOver
		result.GameOver = &GameOver{Winner: AlignmentEvil, Reason: "five consecutive rejections"}
		g.logf(SeverityDanger, "Five rejected proposals, evil wins")
	}
	return result
}

type MissionResult struct {
	Resolved      bool
	Success       bool
	FailCount     int
	QuestIndex    int
	Assassination bool
	GameOver      *GameOver
}

// VoteMission records one mission card from a team member. When the whole
// team has submitted, the quest resolves: one fail card sinks it, except on
// the fourth quest with seven or more players, which takes two.
func (g *Game) VoteMission(token string, success bool) (*MissionResult, error) {
	if g.Phase != PhaseMission {
		return nil, errors.New("WRONG_PHASE: No mission is underway")
	}
	p, err := g.activePlayer(token)
	if err != nil {
		return nil, err
	}
	if !g.onTeam(p.Token) {
		return nil, errors.New("NOT_ON_TEAM: Only team members play mission cards")
	}
	for _, voter := range g.MissionVoters {
		if voter == p.Token {
			return nil, errors.New("ALREADY_VOTED: Mission card already played")
		}
	}
	g.MissionVotes = append(g.MissionVotes, success)
	g.MissionVoters = append(g.MissionVoters, p.Token)
	return g.maybeResolveMission(), nil
}

func (g *Game) onTeam(token string) bool {
	for _, t := range g.CurrentTeam {
		if t == token {
			return true
		}
	}
	return false
}

func (g *Game) maybeResolveMission() *MissionResult {
	if g.Phase != PhaseMission {
		return nil
	}
	if len(g.CurrentTeam) == 0 || len(g.MissionVotes) < len(g.CurrentTeam) {
		return nil
	}

	failCount := 0
	for _, v := range g.MissionVotes {
		if !v {
			failCount++
		}
	}

	failsNeeded := 1
	if len(g.ActiveSeats()) >= 7 && g.QuestIndex == 3 {
		failsNeeded = 2
	}
	success := failCount < failsNeeded

	result := &MissionResult{
		Resolved:   true,
		Success:    success,
		FailCount:  failCount,
		QuestIndex: g.QuestIndex,
	}

	outcome := success
	g.QuestResults[g.QuestIndex] = &outcome
	if success {
		g.logf(SeveritySuccess, "Quest %d succeeded (%d fail cards)", g.QuestIndex+1, failCount)
	} else {
		g.logf(SeverityDanger, "Quest %d failed (%d fail cards)", g.QuestIndex+1, failCount)
	}

	g.QuestIndex++
	g.rotateLeader()
	g.Phase = PhaseTeamSelection

	wins, losses := 0, 0
	for _, r := range g.QuestResults {
		if r == nil {
			continue
		}
		if *r {
			wins++
		} else {
			losses++
		}
	}

	if wins >= QuestsToWin {
		// Good never wins outright: evil gets one shot at Merlin first.
		g.Phase = PhaseAssassination
		result.Assassination = true
		g.logf(SeverityWarning, "Three quests succeeded, the assassin takes aim")
	} else if losses >= QuestsToWin {
		g.Phase = PhaseGameOver
		result.GameOver = &GameOver{Winner: AlignmentEvil, Reason: "three failed quests"}
		g.logf(SeverityDanger, "Three quests failed, evil wins")
	}
	return result
}

type AssassinationResult struct {
	TargetName string
	WasMerlin  bool
	GameOver   GameOver
}

// Assassinate resolves evil's single shot at Merlin and ends the game.
func (g *Game) Assassinate(token, targetToken string) (*AssassinationResult, error) {
	if g.Phase != PhaseAssassination {
		return nil, errors.New("WRONG_PHASE: No assassination is pending")
	}
	if _, err := g.activePlayer(token); err != nil {
		return nil, err
	}
	target, err := g.activePlayer(targetToken)
	if err != nil {
		return nil, errors.New("BAD_TARGET: Target must be an active player")
	}

	g.Phase = PhaseGameOver
	result := &AssassinationResult{
		TargetName: target.Name,
		WasMerlin:  target.Role == RoleMerlin,
	}
	if result.WasMerlin {
		result.GameOver = GameOver{Winner: AlignmentEvil, Reason: "merlin assassinated"}
		g.logf(SeverityDanger, "%s was Merlin, evil wins", target.Name)
	} else {
		result.GameOver = GameOver{Winner: AlignmentGood, Reason: "assassination missed"}
		g.logf(SeveritySuccess, "%s was not Merlin, good wins", target.Name)
	}
	return result, nil
}

type ResetResult struct {
	Requests int
	Active   int
	DidReset bool
}

// RequestReset registers a reset request. Once requests strictly exceed
// half of the active player count the room is forced back to the lobby,
// interrupting any game in progress. This is the recovery path for stuck
// or abandoned games.
func (g *Game) RequestReset(token string) (*ResetResult, error) {
	if g.Phase == PhaseLobby {
		return nil, errors.New("WRONG_PHASE: Nothing to reset in the lobby")
	}
	p, err := g.activePlayer(token)
	if err != nil {
		return nil, err
	}
	if g.ResetVotes[p.Token] {
		return nil, errors.New("ALREADY_REQUESTED: Reset already requested")
	}
	g.ResetVotes[p.Token] = true

	active := len(g.ActiveSeats())
	g.logf(SeverityWarning, "%s requested a reset (%d/%d)", p.Name, len(g.ResetVotes), active)
	result := &ResetResult{Requests: len(g.ResetVotes), Active: active}
	if g.maybeReset() {
		result.DidReset = true
	}
	return result, nil
}

func (g *Game) maybeReset() bool {
	if g.Phase == PhaseLobby {
		return false
	}
	active := len(g.ActiveSeats())
	if active == 0 || len(g.ResetVotes)*2 <= active {
		return false
	}
	g.reset()
	return true
}

func (g *Game) reset() {
	g.Phase = PhaseLobby
	g.LeaderToken = ""
	g.QuestIndex = 0
	g.QuestResults = [QuestCount]*bool{}
	g.CurrentTeam = nil
	g.Votes = make(map[string]bool)
	g.VoteTrack = 0
	g.MissionVotes = nil
	g.MissionVoters = nil
	g.ResetVotes = make(map[string]bool)
	g.History = nil

	for _, p := range g.Players {
		p.Role = RoleNone
		p.Ready = false
		// Spectators take a seat for the next game.
		p.Spectator = false
	}
	g.logf(SeverityInfo, "Room reset to lobby")
}

type KickResult struct {
	Name string
	// A kick shrinks quorums, so it can resolve a pending vote, start a
	// lobby where everyone left is ready, or complete a reset.
	TeamVote *TeamVoteResult
	Mission  *MissionResult
	Started  bool
	DidReset bool
}

// Kick removes a player from the room entirely. Host only. Their pending
// votes, team slot, and reset request go with them, and any quorum that is
// now met resolves immediately.
func (g *Game) Kick(token, targetToken string) (*KickResult, error) {
	if _, err := g.activePlayer(token); err != nil {
		return nil, err
	}
	if err := g.requireHost(token); err != nil {
		return nil, err
	}
	target, ok := g.Players[targetToken]
	if !ok {
		return nil, errors.New("BAD_TARGET: No such player")
	}

	if g.LeaderToken == target.Token {
		g.rotateLeader()
	}

	delete(g.Players, targetToken)
	delete(g.Votes, targetToken)
	delete(g.ResetVotes, targetToken)
	g.removeFromTeam(targetToken)

	if g.LeaderToken == target.Token {
		// The rotation landed back on the kicked player (single seat).
		g.LeaderToken = ""
		if seats := g.ActiveSeats(); len(seats) > 0 {
			g.LeaderToken = seats[0].Token
		}
	}

	g.logf(SeverityWarning, "%s was removed from the room", target.Name)

	result := &KickResult{Name: target.Name}
	switch g.Phase {
	case PhaseLobby:
		result.Started = g.maybeStart()
	case PhaseTeamVoting:
		result.TeamVote = g.maybeResolveTeamVote()
	case PhaseMission:
		result.Mission = g.maybeResolveMission()
	}
	result.DidReset = g.maybeReset()
	return result, nil
}

func (g *Game) removeFromTeam(token string) {
	for i, t := range g.CurrentTeam {
		if t != token {
			continue
		}
		g.CurrentTeam = append(g.CurrentTeam[:i], g.CurrentTeam[i+1:]...)
		break
	}
	for i, voter := range g.MissionVoters {
		if voter != token {
			continue
		}
		g.MissionVoters = append(g.MissionVoters[:i], g.MissionVoters[i+1:]...)
		g.MissionVotes = append(g.MissionVotes[:i], g.MissionVotes[i+1:]...)
		break
	}
}

// rotateLeader advances leadership to the next active seat.
func (g *Game) rotateLeader() {
	seats := g.ActiveSeats()
	if len(seats) == 0 {
		g.LeaderToken = ""
		return
	}
	for i, p := range seats {
		if p.Token == g.LeaderToken {
			g.LeaderToken = seats[(i+1)%len(seats)].Token
			return
		}
	}
	g.LeaderToken = seats[0].Token
}
