package domain

type RoomID string

// Room aggregates attendees. Users is a set keyed by attendee id; slice
// order is membership order and only matters for FeaturedAttendees.
// The derived fields are recomputed by the room registry on every store,
// so a registered Room is always an internally consistent snapshot.
type Room struct {
	ID    RoomID     `json:"id"`
	Topic string     `json:"topic"`
	Owner Attendee   `json:"owner"`
	Users []Attendee `json:"users"`

	AttendeesCount    int        `json:"attendeesCount"`
	SpeakersCount     int        `json:"speakersCount"`
	FeaturedAttendees []Attendee `json:"featuredAttendees"`
}

// Clone returns a copy whose member slices are independent of the
// receiver, so the copy can be mutated without touching snapshots that
// are already published.
func (r *Room) Clone() *Room {
	c := *r
	c.Users = append([]Attendee(nil), r.Users...)
	c.FeaturedAttendees = append([]Attendee(nil), r.FeaturedAttendees...)
	return &c
}

// User returns the member with the given id.
func (r *Room) User(id ConnectionID) (Attendee, bool) {
	for _, u := range r.Users {
		if u.ID == id {
			return u, true
		}
	}
	return Attendee{}, false
}

// PutUser replaces the member with the same id, or appends a new one.
func (r *Room) PutUser(a Attendee) {
	for i, u := range r.Users {
		if u.ID == a.ID {
			r.Users[i] = a
			return
		}
	}
	r.Users = append(r.Users, a)
}

// DropUser removes the member with the given id, preserving order of the
// remaining members. Missing ids are ignored.
func (r *Room) DropUser(id ConnectionID) {
	for i, u := range r.Users {
		if u.ID == id {
			r.Users = append(r.Users[:i], r.Users[i+1:]...)
			return
		}
	}
}
