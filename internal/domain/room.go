package domain

// Room is the raw aggregate stored in the directory. Members keep insertion
// order and are unique by attendee id; the order is what makes featured
// attendees and ownership succession deterministic.
type Room struct {
	ID    RoomID     `json:"id"`
	Topic string     `json:"topic"`
	Owner Attendee   `json:"owner"`
	Users []Attendee `json:"users"`
}

// WithUser returns a copy with a replaced in place when already a member,
// appended otherwise. The member slice is copied, never shared.
func (r Room) WithUser(a Attendee) Room {
	users := make([]Attendee, len(r.Users), len(r.Users)+1)
	copy(users, r.Users)
	for i, u := range users {
		if u.ID == a.ID {
			users[i] = a
			r.Users = users
			return r
		}
	}
	r.Users = append(users, a)
	return r
}

// WithoutUser returns a copy without the member with the given id.
func (r Room) WithoutUser(id string) Room {
	users := make([]Attendee, 0, len(r.Users))
	for _, u := range r.Users {
		if u.ID != id {
			users = append(users, u)
		}
	}
	r.Users = users
	return r
}

// User looks up a member by attendee id.
func (r Room) User(id string) (Attendee, bool) {
	for _, u := range r.Users {
		if u.ID == id {
			return u, true
		}
	}
	return Attendee{}, false
}

const featuredLimit = 3

// RoomSnapshot is the derived lobby view of a room. It is recomputed on
// every read, never cached, so the counts always match the raw membership.
type RoomSnapshot struct {
	Room
	AttendeesCount    int        `json:"attendeesCount"`
	SpeakersCount     int        `json:"speakersCount"`
	FeaturedAttendees []Attendee `json:"featuredAttendees"`
}

// Snapshot derives the lobby view from the raw aggregate.
func Snapshot(r Room) RoomSnapshot {
	speakers := 0
	for _, u := range r.Users {
		if u.IsSpeaker {
			speakers++
		}
	}
	featured := r.Users
	if len(featured) > featuredLimit {
		featured = featured[:featuredLimit]
	}
	return RoomSnapshot{
		Room:              r,
		AttendeesCount:    len(r.Users),
		SpeakersCount:     speakers,
		FeaturedAttendees: featured,
	}
}
