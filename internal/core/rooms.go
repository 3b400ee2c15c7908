package core

import (
	"github.com/dkeye/Backstage/internal/domain"
)

const featuredLimit = 3

// RoomRegistry stores rooms and keeps their derived fields current. Its
// observer receives the whole room list on every mutation, which is what
// feeds the lobby view with membership-count changes, not only creations.
type RoomRegistry struct {
	*ObservableRegistry[domain.RoomID, *domain.Room]
}

func NewRoomRegistry(observer Observer[*domain.Room]) *RoomRegistry {
	return &RoomRegistry{
		ObservableRegistry: NewObservableRegistry[domain.RoomID](mapRoom, observer),
	}
}

// mapRoom builds a fresh snapshot with the counters and the featured
// list recomputed from Users. Returning a copy keeps already-published
// snapshots immune to later mutations. Featured attendees are the first
// members in membership order; no priority ordering is implied.
func mapRoom(room *domain.Room) *domain.Room {
	mapped := *room
	mapped.Users = append([]domain.Attendee(nil), room.Users...)

	speakers := 0
	for _, u := range mapped.Users {
		if u.IsSpeaker {
			speakers++
		}
	}
	mapped.AttendeesCount = len(mapped.Users)
	mapped.SpeakersCount = speakers

	featured := mapped.Users
	if len(featured) > featuredLimit {
		featured = featured[:featuredLimit]
	}
	mapped.FeaturedAttendees = append([]domain.Attendee(nil), featured...)
	return &mapped
}
