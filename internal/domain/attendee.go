// Package domain contains entity without logic, just meta-data
package domain

type RoomID string

// Attendee is the current snapshot of one connected participant. Snapshots
// are never mutated in place; every update builds a new value through the
// merge helpers below, so a handler holding an old snapshot keeps seeing it.
type Attendee struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Img       string `json:"img"`
	RoomID    RoomID `json:"roomId"`
	IsSpeaker bool   `json:"isSpeaker"`
}

// Profile is the client-supplied part of an attendee. Fields are opaque
// pass-through data; empty fields leave the stored value untouched.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Img      string `json:"img"`
}

// Merge returns a new snapshot: profile fields override the base when set,
// the room binding and speaker flag are always replaced. The profile id is
// ignored, the session id stays authoritative.
func (a Attendee) Merge(p Profile, roomID RoomID, isSpeaker bool) Attendee {
	next := a
	if p.Username != "" {
		next.Username = p.Username
	}
	if p.Img != "" {
		next.Img = p.Img
	}
	next.RoomID = roomID
	next.IsSpeaker = isSpeaker
	return next
}

// WithSpeaker returns a copy with only the speaker flag changed.
func (a Attendee) WithSpeaker(v bool) Attendee {
	a.IsSpeaker = v
	return a
}
