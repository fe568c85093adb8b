package server

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"avalon-server/internal/avalon"
)

// Handlers hold the room lock for the full mutate-then-broadcast sequence,
// so each action resolves exactly once and broadcasts observe a consistent
// snapshot. Send failures to individual sockets never roll anything back.

func (s *Server) handleJoin(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid join payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.sendError(socket, ctx, "BAD_NAME: Name cannot be empty")
		return
	}
	if len(name) > 20 {
		s.sendError(socket, ctx, "BAD_NAME: Name too long (max 20 characters)")
		return
	}

	room, err := s.roomManager.GetOrCreate(req.RoomID)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)
	result := game.Join(req.Token, name, req.Avatar)

	oldConnID := s.connectionManager.Bind(connectionID, Session{
		RoomID: game.ID,
		Token:  result.Player.Token,
	})
	if oldConnID != "" {
		s.severOldConnection(oldConnID)
	}

	err = s.sendMessage(socket, ctx, ServerMessage{
		Type: "join_success",
		Payload: JoinResponse{
			Token:     result.Player.Token,
			RoomID:    game.ID,
			Spectator: result.Spectator,
		},
	})
	if err != nil {
		log.Debug().Err(err).Msg("failed to send join_success")
	}

	// Role knowledge is never cached by the transport: a reconnecting
	// player with a role gets it recomputed and redelivered.
	if result.Rejoined {
		if info, ok := game.RoleInfo(result.Player.Token); ok {
			if err := s.sendMessage(socket, ctx, ServerMessage{Type: "role_info", Payload: info}); err != nil {
				log.Debug().Err(err).Msg("failed to resend role_info")
			}
		}
	}

	s.flushLogs(game, before)
	s.broadcastState(game)
}

// severOldConnection closes a previous socket that held the same token
// (the player reconnected elsewhere).
func (s *Server) severOldConnection(oldConnID string) {
	oldConn := s.connectionManager.Conn(oldConnID)
	if oldConn != nil {
		err := s.sendMessage(oldConn, context.Background(), ServerMessage{
			Type:    "disconnected_elsewhere",
			Payload: ErrorMessage{Message: "You connected from another device"},
		})
		if err != nil {
			log.Debug().Err(err).Msg("failed to notify severed connection")
		}
		oldConn.Close(websocket.StatusNormalClosure, "Connected from another device")
	}
	s.connectionManager.Remove(oldConnID)
}

// roomForAction resolves the caller's session and the addressed room.
// Actions from unknown sessions or to foreign rooms are rejected without
// touching any room state.
func (s *Server) roomForAction(socket *websocket.Conn, ctx context.Context, connectionID, roomID string) (*Room, Session, bool) {
	session, ok := s.connectionManager.SessionFor(connectionID)
	if !ok {
		s.sendError(socket, ctx, "NOT_JOINED: Join a room first")
		return nil, Session{}, false
	}
	if session.RoomID != NormalizeRoomID(roomID) {
		s.sendError(socket, ctx, "WRONG_ROOM: Not a member of that room")
		return nil, Session{}, false
	}
	room, ok := s.roomManager.Get(session.RoomID)
	if !ok {
		s.sendError(socket, ctx, "BAD_ROOM: No such room")
		return nil, Session{}, false
	}
	return room, session, true
}

func (s *Server) handleUpdateSettings(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req UpdateSettingsRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid update_settings payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if err := room.Game.UpdateSettings(session.Token, req.Settings); err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}
	s.broadcastState(room.Game)
}

func (s *Server) handleToggleReady(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req ToggleReadyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid toggle_ready payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)
	started, err := game.ToggleReady(session.Token)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	if started {
		s.sendRoleInfos(game)
	}
	s.flushLogs(game, before)
	s.broadcastState(game)
}

func (s *Server) handleKick(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req KickRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid kick payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)

	kickedConn := s.connectionManager.ConnByToken(req.TargetToken)

	result, err := game.Kick(session.Token, req.TargetToken)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	if kickedConn != nil {
		err := s.sendMessage(kickedConn, context.Background(), ServerMessage{
			Type:    "kicked",
			Payload: ErrorMessage{Message: "You were removed from the room"},
		})
		if err != nil {
			log.Debug().Err(err).Msg("failed to notify kicked player")
		}
		kickedConn.Close(websocket.StatusNormalClosure, "Removed from room")
	}

	// A kick can shrink a quorum past its threshold.
	if result.Started {
		s.sendRoleInfos(game)
	}
	s.announceTeamVote(game, result.TeamVote)
	s.announceMission(game, result.Mission)

	s.flushLogs(game, before)
	s.broadcastState(game)
}

func (s *Server) handleSelectTeam(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req SelectTeamRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid select_team payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)
	if err := game.SelectTeam(session.Token, req.Team); err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}
	s.flushLogs(game, before)
	s.broadcastState(game)
}

func (s *Server) handleVoteTeam(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req VoteTeamRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid vote_team payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)
	result, err := game.VoteTeam(session.Token, req.Approve)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.announceTeamVote(game, result)
	s.flushLogs(game, before)
	s.broadcastState(game)
}

func (s *Server) handleVoteMission(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req VoteMissionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid vote_mission payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)
	result, err := game.VoteMission(session.Token, req.Success)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.announceMission(game, result)
	s.flushLogs(game, before)
	s.broadcastState(game)
}

func (s *Server) handleAssassinate(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req AssassinateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid assassinate payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)
	result, err := game.Assassinate(session.Token, req.TargetToken)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.broadcastToRoom(game, "game_over", result.GameOver)
	s.flushLogs(game, before)
	s.broadcastState(game)
}

func (s *Server) handleRequestReset(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req RequestResetRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "BAD_PAYLOAD: Invalid request_reset payload")
		return
	}

	room, session, ok := s.roomForAction(socket, ctx, connectionID, req.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	game := room.Game
	before := len(game.History)
	if _, err := game.RequestReset(session.Token); err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}
	s.flushLogs(game, before)
	s.broadcastState(game)
}

func (s *Server) announceTeamVote(game *avalon.Game, result *avalon.TeamVoteResult) {
	if result == nil || !result.Resolved {
		return
	}
	s.broadcastToRoom(game, "vote_finished", VoteFinishedNotification{
		Passed:     result.Passed,
		Approvals:  result.Approvals,
		Rejections: result.Rejections,
		Detail:     result.Detail,
	})
	if result.GameOver != nil {
		s.broadcastToRoom(game, "game_over", *result.GameOver)
	}
}

func (s *Server) announceMission(game *avalon.Game, result *avalon.MissionResult) {
	if result == nil || !result.Resolved {
		return
	}
	s.broadcastToRoom(game, "mission_effect", MissionEffectNotification{
		Success:    result.Success,
		FailCount:  result.FailCount,
		QuestIndex: result.QuestIndex,
	})
	if result.GameOver != nil {
		s.broadcastToRoom(game, "game_over", *result.GameOver)
	}
}

// sendRoleInfos unicasts each active player's freshly computed visibility
// payload. Spectators receive nothing.
func (s *Server) sendRoleInfos(game *avalon.Game) {
	for token := range game.Players {
		info, ok := game.RoleInfo(token)
		if !ok {
			continue
		}
		conn := s.connectionManager.ConnByToken(token)
		if conn == nil {
			continue
		}
		if err := s.sendMessage(conn, context.Background(), ServerMessage{Type: "role_info", Payload: info}); err != nil {
			log.Debug().Err(err).Msg("failed to send role_info")
		}
	}
}

// flushLogs broadcasts history entries appended since the given index. A
// start or reset clears history, in which case everything new goes out.
func (s *Server) flushLogs(game *avalon.Game, before int) {
	entries := game.History
	if before <= len(entries) {
		entries = entries[before:]
	}
	for _, entry := range entries {
		s.broadcastToRoom(game, "new_log", entry)
	}
}

func (s *Server) broadcastState(game *avalon.Game) {
	s.broadcastToRoom(game, "update_state", game.Snapshot())
}

// broadcastToRoom fans a message out to every connected session in the
// room, spectators included. Delivery is fire-and-forget: a dead socket
// never aborts the mutation that already happened.
func (s *Server) broadcastToRoom(game *avalon.Game, msgType string, payload any) {
	for token := range game.Players {
		conn := s.connectionManager.ConnByToken(token)
		if conn == nil {
			continue
		}
		msg := ServerMessage{Type: msgType, Payload: payload}
		if err := s.sendMessage(conn, context.Background(), msg); err != nil {
			log.Debug().Err(err).Str("type", msgType).Msg("broadcast send failed")
		}
	}
}
