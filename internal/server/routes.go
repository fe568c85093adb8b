package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := httprouter.New()

	mux.GET("/healthz", s.healthHandler)
	mux.GET("/version", s.versionHandler)
	mux.GET("/rooms/:id/qr", s.qrHandler)
	mux.GET("/ws", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	resp, err := json.Marshal(map[string]any{
		"status": "ok",
		"rooms":  s.roomManager.Count(),
	})
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "avalon-server v%s\n", Version)
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.New().String()
	log.Debug().Str("conn", connectionID).Msg("new connection")
	s.connectionManager.Add(connectionID, socket)
	defer s.dropConnection(connectionID)

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Debug().Str("conn", connectionID).Err(err).Msg("connection closed")
			return
		}

		if msgType != websocket.MessageText {
			log.Debug().Str("conn", connectionID).Msg("ignoring non-text frame")
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			s.sendError(socket, ctx, "RATE_LIMITED: Slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(socket, ctx, "BAD_JSON: Invalid message")
			continue
		}

		log.Debug().Str("conn", connectionID).Str("type", msg.Type).Msg("dispatch")

		switch msg.Type {
		case "ping":
			s.handlePing(socket, ctx)

		case "join":
			s.handleJoin(socket, ctx, connectionID, msg.Payload)

		case "update_settings":
			s.handleUpdateSettings(socket, ctx, connectionID, msg.Payload)

		case "toggle_ready":
			s.handleToggleReady(socket, ctx, connectionID, msg.Payload)

		case "kick":
			s.handleKick(socket, ctx, connectionID, msg.Payload)

		case "select_team":
			s.handleSelectTeam(socket, ctx, connectionID, msg.Payload)

		case "vote_team":
			s.handleVoteTeam(socket, ctx, connectionID, msg.Payload)

		case "vote_mission":
			s.handleVoteMission(socket, ctx, connectionID, msg.Payload)

		case "assassinate":
			s.handleAssassinate(socket, ctx, connectionID, msg.Payload)

		case "request_reset":
			s.handleRequestReset(socket, ctx, connectionID, msg.Payload)

		default:
			s.sendError(socket, ctx, fmt.Sprintf("UNKNOWN_TYPE: Unknown message type: %s", msg.Type))
		}
	}
}

// dropConnection runs when a socket's read loop exits. The player keeps
// their seat and role; only the liveness flag changes.
func (s *Server) dropConnection(connectionID string) {
	s.rateLimiter.RemoveConnection(connectionID)

	session, bound := s.connectionManager.Remove(connectionID)
	if !bound {
		return
	}

	room, ok := s.roomManager.Get(session.RoomID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if p, found := room.Game.MarkDisconnected(session.Token); found {
		log.Info().Str("room", session.RoomID).Str("player", p.Name).Msg("player disconnected")
		s.broadcastState(room.Game)
	}
}

func (s *Server) handlePing(socket *websocket.Conn, ctx context.Context) {
	if err := s.sendMessage(socket, ctx, ServerMessage{Type: "pong", Payload: struct{}{}}); err != nil {
		log.Debug().Err(err).Msg("failed to send pong")
	}
}

func (s *Server) sendMessage(socket *websocket.Conn, ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return socket.Write(ctx, websocket.MessageText, data)
}

func (s *Server) sendError(socket *websocket.Conn, ctx context.Context, msg string) {
	err := s.sendMessage(socket, ctx, ServerMessage{
		Type:    "error",
		Payload: ErrorMessage{Message: msg},
	})
	if err != nil {
		log.Debug().Err(err).Msg("failed to send error frame")
	}
}
