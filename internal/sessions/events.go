package sessions

// Event names broadcast on a session's realtime channel.
const (
	EventAudioSync       = "audio-sync"
	EventParticipantJoin = "participant-joined"
	EventParticipantLeft = "participant-left"
	EventAdminChanged    = "admin-changed"
)

// AudioSyncEvent is broadcast on every successful admin sync.
type AudioSyncEvent struct {
	PositionSeconds float64 `json:"positionSeconds"`
	IsPlaying       bool    `json:"isPlaying"`
}

// ParticipantEvent is broadcast when a participant joins or leaves.
type ParticipantEvent struct {
	ParticipantName string `json:"participantName"`
}

// AdminChangedEvent is broadcast when admin authority is reassigned.
type AdminChangedEvent struct {
	NewAdminName string `json:"newAdminName"`
}
