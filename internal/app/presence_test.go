package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Backstage/internal/domain"
)

func TestPresenceDirectory_UpsertSpeakerRules(t *testing.T) {
	dir := NewPresenceDirectory()

	t.Run("fresh room creator becomes speaker", func(t *testing.T) {
		a := dir.Upsert("c1", domain.Profile{Username: "ana"}, "r1", false)
		assert.True(t, a.IsSpeaker)
		assert.Equal(t, domain.RoomID("r1"), a.RoomID)
		assert.Equal(t, "ana", a.Username)
	})

	t.Run("joiner of an existing room starts silent", func(t *testing.T) {
		b := dir.Upsert("c2", domain.Profile{Username: "bob"}, "r1", true)
		assert.False(t, b.IsSpeaker)
	})

	t.Run("bare connect placeholder", func(t *testing.T) {
		p := dir.Upsert("c3", domain.Profile{}, "", false)
		assert.Equal(t, domain.ConnectionID("c3"), p.ID)
		assert.Empty(t, p.Username)
		assert.Empty(t, p.RoomID)
	})
}

func TestPresenceDirectory_UpsertMergesProfile(t *testing.T) {
	dir := NewPresenceDirectory()
	dir.Upsert("c1", domain.Profile{Username: "ana", AvatarURL: "http://a/img"}, "r1", false)

	// An empty profile must not wipe the stored display data.
	merged := dir.Upsert("c1", domain.Profile{}, "r1", true)
	assert.Equal(t, "ana", merged.Username)
	assert.Equal(t, "http://a/img", merged.AvatarURL)
	assert.False(t, merged.IsSpeaker, "re-joining an existing room demotes to listener")

	renamed := dir.Upsert("c1", domain.Profile{Username: "ana2"}, "r1", true)
	assert.Equal(t, "ana2", renamed.Username)
	assert.Equal(t, "http://a/img", renamed.AvatarURL)
}

func TestPresenceDirectory_PutAndRemove(t *testing.T) {
	dir := NewPresenceDirectory()
	a := dir.Upsert("c1", domain.Profile{Username: "ana"}, "r1", false)

	a.IsSpeaker = false
	dir.Put(a)
	stored, ok := dir.Get("c1")
	require.True(t, ok)
	assert.False(t, stored.IsSpeaker)

	dir.Remove("c1")
	_, ok = dir.Get("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, dir.Len())

	// Removing twice is harmless.
	dir.Remove("c1")
}
