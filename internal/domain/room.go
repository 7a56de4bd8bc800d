package domain

import (
	"time"

	"github.com/google/uuid"
)

type (
	RoomID    string
	VoiceMode string
)

const (
	VoicePTT  VoiceMode = "ptt"
	VoiceOpen VoiceMode = "open"

	MaxRoomNameLen = 36
)

func (m VoiceMode) Valid() bool {
	return m == VoicePTT || m == VoiceOpen
}

type Room struct {
	ID        RoomID    `json:"id"`
	ServerID  ServerID  `json:"server_id"`
	Name      string    `json:"name"`
	VoiceMode VoiceMode `json:"voice_mode"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRoom(serverID ServerID, name string, mode VoiceMode) *Room {
	if !mode.Valid() {
		mode = VoicePTT
	}
	return &Room{
		ID:        RoomID(uuid.NewString()),
		ServerID:  serverID,
		Name:      name,
		VoiceMode: mode,
		CreatedAt: time.Now().UTC(),
	}
}
