package server

import (
	"errors"
	"strings"
	"sync"

	"avalon-server/internal/avalon"
)

const maxRoomIDLength = 32

// NormalizeRoomID canonicalizes an externally supplied room id so that
// "avalon", " Avalon " and "AVALON" address the same room.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func ValidateRoomID(id string) error {
	if id == "" {
		return errors.New("BAD_ROOM: Room id cannot be empty")
	}
	if len(id) > maxRoomIDLength {
		return errors.New("BAD_ROOM: Room id too long")
	}
	return nil
}

// Room pairs a game with the mutex that serializes every action addressed
// to it. Holding mu while mutating and while reading broadcast state keeps
// quorum resolution exactly-once; unrelated rooms never contend.
type Room struct {
	mu   sync.Mutex
	Game *avalon.Game
}

// RoomManager is the process-wide registry. Rooms are created lazily on
// first join and live for the process lifetime; there is no eviction.
type RoomManager struct {
	rooms      map[string]*Room
	minPlayers int
	mu         sync.RWMutex
}

func NewRoomManager(minPlayers int) *RoomManager {
	return &RoomManager{
		rooms:      make(map[string]*Room),
		minPlayers: minPlayers,
	}
}

func (rm *RoomManager) Get(id string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[NormalizeRoomID(id)]
	return room, ok
}

func (rm *RoomManager) GetOrCreate(id string) (*Room, error) {
	id = NormalizeRoomID(id)
	if err := ValidateRoomID(id); err != nil {
		return nil, err
	}

	rm.mu.RLock()
	room, ok := rm.rooms[id]
	rm.mu.RUnlock()
	if ok {
		return room, nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if room, ok := rm.rooms[id]; ok {
		return room, nil
	}
	room = &Room{Game: avalon.NewGame(id, avalon.WithMinPlayers(rm.minPlayers))}
	rm.rooms[id] = room
	return room, nil
}

func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}
