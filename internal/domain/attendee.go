// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUsernameLen = 36
	MaxTopicLen    = 72
)

var ErrUsernameTooLong = errors.New("username too long")

// ConnectionID identifies one live connection. It is only stable for the
// lifetime of that connection; a reconnect gets a fresh id.
type ConnectionID string

// Attendee is a connected participant and its display/role metadata.
type Attendee struct {
	ID        ConnectionID `json:"id"`
	Username  string       `json:"username"`
	AvatarURL string       `json:"avatarUrl"`
	RoomID    RoomID       `json:"roomId"`
	IsSpeaker bool         `json:"isSpeaker"`
}

// Profile is the partial display data a client supplies on join.
// The core treats both fields as opaque.
type Profile struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

func (p Profile) Validate() error {
	if len(p.Username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

// Merge overlays the non-empty profile fields onto the attendee.
func (a Attendee) Merge(p Profile) Attendee {
	if p.Username != "" {
		a.Username = p.Username
	}
	if p.AvatarURL != "" {
		a.AvatarURL = p.AvatarURL
	}
	return a
}
