package models

import (
	"time"

	"github.com/google/uuid"
)

// Playback is the authoritative transport state of a session.
type Playback struct {
	PositionSeconds float64 `json:"positionSeconds"`
	IsPlaying       bool    `json:"isPlaying"`
}

// Session is one shared-listening group with a single playback timeline.
// Participants are kept in join order; the first remaining participant
// inherits admin authority when the admin leaves.
type Session struct {
	ID           uuid.UUID `json:"sessionId"`
	Name         string    `json:"sessionName"`
	SourceURL    string    `json:"sourceUrl"`
	AdminName    string    `json:"adminName"`
	Participants []string  `json:"participants"`
	Playback     Playback  `json:"playback"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasParticipant reports whether name is a member of the session.
func (s *Session) HasParticipant(name string) bool {
	for _, p := range s.Participants {
		if p == name {
			return true
		}
	}
	return false
}
