package core

import "encoding/json"

// Outbound event types. The coordinator emits these as flat JSON objects
// with a "type" discriminator; the client switches on it.
const (
	EvRoomJoined    = "room-joined"
	EvUserJoined    = "user-joined"
	EvUserLeft      = "user-left"
	EvRoomLeft      = "room-left"
	EvRoomDeleted   = "room-deleted"
	EvRoomsUpdated  = "rooms-updated"
	EvUserSpeaking  = "user-speaking"
	EvUserPing      = "user-ping"
	EvOffer         = "offer"
	EvAnswer        = "answer"
	EvICECandidate  = "ice-candidate"
	EvShoutIncoming = "shout-incoming"
	EvShoutTargets  = "shout-targets"
	EvShoutEnded    = "shout-ended"
	EvUserMuted     = "user-muted"
	EvUserUnmuted   = "user-unmuted"
	EvYouAreMuted   = "you-are-muted"
	EvYouAreUnmuted = "you-are-unmuted"
	EvUserKicked    = "user-kicked"
	EvYouAreKicked  = "you-are-kicked"
	EvError         = "error"
	EvPong          = "pong"
)

// RoomMember is the roster view shared by room-joined and user-joined.
type RoomMember struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Ping          int64  `json:"ping"`
	IsServerMuted bool   `json:"isServerMuted"`
}

type RoomJoined struct {
	Type    string       `json:"type"`
	RoomID  string       `json:"roomId"`
	Members []RoomMember `json:"members"`
}

type UserJoined struct {
	Type          string `json:"type"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Ping          int64  `json:"ping"`
	IsServerMuted bool   `json:"isServerMuted"`
}

type UserLeft struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type RoomLeft struct {
	Type string `json:"type"`
}

type RoomDeleted struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type RoomsUpdated struct {
	Type string `json:"type"`
}

type UserSpeaking struct {
	Type       string `json:"type"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	IsSpeaking bool   `json:"isSpeaking"`
}

type UserPing struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Ping   int64  `json:"ping"`
}

// Signal carries an offer, answer or ice-candidate. The payload is an
// opaque blob; the server never inspects it.
type Signal struct {
	Type         string          `json:"type"`
	FromUserID   string          `json:"fromUserId"`
	FromUsername string          `json:"fromUsername,omitempty"`
	Payload      json.RawMessage `json:"signal"`
}

type ShoutIncoming struct {
	Type          string `json:"type"`
	FromUserID    string `json:"fromUserId"`
	FromUsername  string `json:"fromUsername"`
	ServerID      string `json:"serverId"`
	ShouterRoomID string `json:"shouterRoomId,omitempty"`
}

type ShoutTarget struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type ShoutTargets struct {
	Type    string        `json:"type"`
	Targets []ShoutTarget `json:"targets"`
}

type ShoutEnded struct {
	Type       string `json:"type"`
	FromUserID string `json:"fromUserId"`
}

type MuteChanged struct {
	Type     string `json:"type"`
	ServerID string `json:"serverId"`
	UserID   string `json:"userId"`
}

type YouAreMuted struct {
	Type     string `json:"type"`
	ServerID string `json:"serverId"`
}

type UserKicked struct {
	Type     string `json:"type"`
	ServerID string `json:"serverId"`
	UserID   string `json:"userId"`
}

type YouAreKicked struct {
	Type     string `json:"type"`
	ServerID string `json:"serverId"`
	Duration int    `json:"duration"`
	Reason   string `json:"reason,omitempty"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Pong struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}
