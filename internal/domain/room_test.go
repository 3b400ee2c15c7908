package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomMembership(t *testing.T) {
	r := &Room{ID: "r1"}

	r.PutUser(Attendee{ID: "a", Username: "ana"})
	r.PutUser(Attendee{ID: "b", Username: "bob"})
	require.Len(t, r.Users, 2)

	// Same id replaces, never duplicates.
	r.PutUser(Attendee{ID: "a", Username: "ana", IsSpeaker: true})
	require.Len(t, r.Users, 2)
	a, ok := r.User("a")
	require.True(t, ok)
	assert.True(t, a.IsSpeaker)

	r.DropUser("a")
	assert.Len(t, r.Users, 1)
	_, ok = r.User("a")
	assert.False(t, ok)

	// Dropping an unknown id is a no-op.
	r.DropUser("ghost")
	assert.Len(t, r.Users, 1)
}

func TestAttendeeMerge(t *testing.T) {
	a := Attendee{ID: "a", Username: "ana", AvatarURL: "http://a/img"}

	merged := a.Merge(Profile{Username: "ana2"})
	assert.Equal(t, "ana2", merged.Username)
	assert.Equal(t, "http://a/img", merged.AvatarURL, "empty fields never overwrite")

	untouched := a.Merge(Profile{})
	assert.Equal(t, a, untouched)
}

func TestProfileValidate(t *testing.T) {
	assert.NoError(t, Profile{Username: "ana"}.Validate())

	long := make([]byte, MaxUsernameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.ErrorIs(t, Profile{Username: string(long)}.Validate(), ErrUsernameTooLong)
}
