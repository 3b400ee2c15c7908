package app

import (
	"sync"

	"github.com/dkeye/Backstage/internal/domain"
	"github.com/rs/zerolog/log"
)

// PresenceDirectory owns the record of every connected attendee, whether
// or not it has joined a room. Room snapshots hold copies derived from
// this directory; the session controller keeps them in sync.
type PresenceDirectory struct {
	mu        sync.RWMutex
	attendees map[domain.ConnectionID]domain.Attendee
}

func NewPresenceDirectory() *PresenceDirectory {
	return &PresenceDirectory{attendees: make(map[domain.ConnectionID]domain.Attendee)}
}

// Upsert merges the profile onto the stored attendee (or a blank one),
// points it at roomID and stores it back. existingRoom reports whether
// the target room was already registered: joining an existing room never
// grants the speaker role, everything else does, so a fresh room's
// creator starts out speaking.
func (d *PresenceDirectory) Upsert(id domain.ConnectionID, profile domain.Profile, roomID domain.RoomID, existingRoom bool) domain.Attendee {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := d.attendees[id].Merge(profile)
	a.ID = id
	a.RoomID = roomID
	a.IsSpeaker = !existingRoom
	d.attendees[id] = a

	log.Debug().Str("module", "app.presence").Str("cid", string(id)).Str("room", string(roomID)).Bool("speaker", a.IsSpeaker).Msg("upserted attendee")
	return a
}

// Put stores the attendee as-is, replacing any previous record.
func (d *PresenceDirectory) Put(a domain.Attendee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attendees[a.ID] = a
}

func (d *PresenceDirectory) Get(id domain.ConnectionID) (domain.Attendee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.attendees[id]
	return a, ok
}

func (d *PresenceDirectory) Remove(id domain.ConnectionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.attendees, id)
	log.Debug().Str("module", "app.presence").Str("cid", string(id)).Msg("removed attendee")
}

func (d *PresenceDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.attendees)
}
