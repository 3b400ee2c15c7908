package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Backstage/internal/domain"
)

func attendee(id string, speaker bool) domain.Attendee {
	return domain.Attendee{ID: domain.ConnectionID(id), Username: id, IsSpeaker: speaker}
}

func TestRoomRegistry_DerivedFieldsRecomputedOnSet(t *testing.T) {
	reg := NewRoomRegistry(nil)

	room := &domain.Room{
		ID:    "r1",
		Topic: "testing",
		Owner: attendee("a", true),
		Users: []domain.Attendee{
			attendee("a", true),
			attendee("b", false),
			attendee("c", true),
			attendee("d", false),
		},
	}
	stored := reg.Set("r1", room)

	assert.Equal(t, 4, stored.AttendeesCount)
	assert.Equal(t, 2, stored.SpeakersCount)
	require.Len(t, stored.FeaturedAttendees, 3, "featured list is capped at three")
	assert.Equal(t, domain.ConnectionID("a"), stored.FeaturedAttendees[0].ID)
	assert.Equal(t, domain.ConnectionID("c"), stored.FeaturedAttendees[2].ID)

	updated := stored.Clone()
	updated.DropUser("c")
	updated = reg.Set("r1", updated)
	assert.Equal(t, 3, updated.AttendeesCount)
	assert.Equal(t, 1, updated.SpeakersCount)
	assert.Equal(t, 4, stored.AttendeesCount, "earlier snapshot stays intact")
}

func TestRoomRegistry_ObserverReceivesRoomList(t *testing.T) {
	var lists [][]*domain.Room
	reg := NewRoomRegistry(func(rooms []*domain.Room) {
		lists = append(lists, rooms)
	})

	reg.Set("r1", &domain.Room{ID: "r1", Users: []domain.Attendee{attendee("a", true)}})
	reg.Set("r2", &domain.Room{ID: "r2", Users: []domain.Attendee{attendee("b", true)}})

	require.Len(t, lists, 2)
	assert.Len(t, lists[0], 1)
	require.Len(t, lists[1], 2)
	assert.Equal(t, domain.RoomID("r1"), lists[1][0].ID)
	assert.Equal(t, domain.RoomID("r2"), lists[1][1].ID)
}
