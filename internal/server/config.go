package server

import (
	"fmt"
	"time"

	"avalon-server/internal/avalon"
)

const Version = "1.0.0"

type Config struct {
	Bind       string
	Port       int
	PublicURL  string
	MinPlayers int
	RateLimit  int
	RateWindow time.Duration
	Verbose    bool
}

func DefaultConfig() Config {
	return Config{
		Bind:       "0.0.0.0",
		Port:       8080,
		MinPlayers: avalon.DefaultMinPlayers,
		RateLimit:  20,
		RateWindow: time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.MinPlayers < 1 {
		return fmt.Errorf("invalid min-players (must be at least 1): %d", c.MinPlayers)
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("invalid rate-limit (must be at least 1): %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("invalid rate-window: %s", c.RateWindow)
	}
	return nil
}
