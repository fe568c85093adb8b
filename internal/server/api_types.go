package server

import "avalon-server/internal/avalon"

// ============================================================================
// ERROR RESPONSES
// ============================================================================
type ErrorMessage struct {
	Message string `json:"message"`
}

// ============================================================================
// JOIN (join)
// ============================================================================
type JoinRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Token  string `json:"token,omitempty"`
}

type JoinResponse struct {
	Token     string `json:"token"`
	RoomID    string `json:"roomId"`
	Spectator bool   `json:"spectator"`
}

// ============================================================================
// UPDATE SETTINGS (update_settings)
// ============================================================================
type UpdateSettingsRequest struct {
	RoomID   string          `json:"roomId"`
	Settings avalon.Settings `json:"settings"`
}

// ============================================================================
// TOGGLE READY (toggle_ready)
// ============================================================================
type ToggleReadyRequest struct {
	RoomID string `json:"roomId"`
}

// ============================================================================
// KICK (kick)
// ============================================================================
type KickRequest struct {
	RoomID      string `json:"roomId"`
	TargetToken string `json:"targetToken"`
}

// ============================================================================
// SELECT TEAM (select_team)
// ============================================================================
type SelectTeamRequest struct {
	RoomID string   `json:"roomId"`
	Team   []string `json:"team"`
}

// ============================================================================
// VOTE TEAM (vote_team)
// ============================================================================
type VoteTeamRequest struct {
	RoomID  string `json:"roomId"`
	Approve bool   `json:"approve"`
}

type VoteFinishedNotification struct {
	Passed     bool                `json:"passed"`
	Approvals  int                 `json:"approvals"`
	Rejections int                 `json:"rejections"`
	Detail     []avalon.PlayerVote `json:"detail"`
}

// ============================================================================
// VOTE MISSION (vote_mission)
// ============================================================================
type VoteMissionRequest struct {
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
}

type MissionEffectNotification struct {
	Success    bool `json:"success"`
	FailCount  int  `json:"failCount"`
	QuestIndex int  `json:"questIndex"`
}

// ============================================================================
// ASSASSINATE (assassinate)
// ============================================================================
type AssassinateRequest struct {
	RoomID      string `json:"roomId"`
	TargetToken string `json:"targetToken"`
}

// ============================================================================
// REQUEST RESET (request_reset)
// ============================================================================
type RequestResetRequest struct {
	RoomID string `json:"roomId"`
}
