package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

type Server struct {
	cfg               Config
	connectionManager *ConnectionManager
	roomManager       *RoomManager
	rateLimiter       *RateLimiter
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Server{
		cfg:               cfg,
		connectionManager: NewConnectionManager(),
		roomManager:       NewRoomManager(cfg.MinPlayers),
		rateLimiter:       NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
	}, nil
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port)),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
