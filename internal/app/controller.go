package app

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/Backstage/internal/core"
	"github.com/dkeye/Backstage/internal/domain"
	"github.com/rs/zerolog/log"
)

// SessionController owns the presence directory and the room registry and
// is the only component allowed to mutate them. Handlers run one at a
// time under mu, so every event completes its mutations before the next
// one starts and the two stores never diverge mid-flight.
type SessionController struct {
	mu       sync.Mutex
	presence *PresenceDirectory
	rooms    *core.RoomRegistry
	notifier core.Notifier
}

func NewSessionController(notifier core.Notifier) *SessionController {
	c := &SessionController{
		presence: NewPresenceDirectory(),
		notifier: notifier,
	}
	c.rooms = core.NewRoomRegistry(func(rooms []*domain.Room) {
		notifier.ToLobby(core.EventLobbyUpdated, rooms)
	})
	return c
}

// JoinRequest is the payload of a joinRoom event.
type JoinRequest struct {
	User domain.Profile `json:"user"`
	Room RoomOptions    `json:"room"`
}

// RoomOptions carries the creator-supplied room identity.
type RoomOptions struct {
	ID    domain.RoomID `json:"id"`
	Topic string        `json:"topic"`
}

// SpeakAnswerRequest is the payload of a speakAnswer event, sent by a
// room owner in response to a forwarded speakRequest.
type SpeakAnswerRequest struct {
	Answer bool            `json:"answer"`
	User   domain.Attendee `json:"user"`
}

// Handler is an inbound-event handler bound to the controller; payload is
// the raw event body as received from the wire.
type Handler func(id domain.ConnectionID, payload []byte)

// Handlers maps event names to bound handlers so the transport layer can
// dispatch by name without knowing anything about the core. Payload
// decoding happens here, at the boundary; the typed handlers below assume
// well-formed input.
func (c *SessionController) Handlers() map[string]Handler {
	return map[string]Handler{
		core.EventJoinRoom: func(id domain.ConnectionID, payload []byte) {
			var req JoinRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				log.Warn().Err(err).Str("module", "app.controller").Str("cid", string(id)).Msg("bad joinRoom payload")
				return
			}
			if req.Room.ID == "" || len(req.Room.Topic) > domain.MaxTopicLen || req.User.Validate() != nil {
				log.Warn().Str("module", "app.controller").Str("cid", string(id)).Msg("rejected joinRoom payload")
				return
			}
			c.JoinRoom(id, req)
		},
		core.EventSpeakRequest: func(id domain.ConnectionID, _ []byte) {
			c.SpeakRequest(id)
		},
		core.EventSpeakAnswer: func(id domain.ConnectionID, payload []byte) {
			var req SpeakAnswerRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				log.Warn().Err(err).Str("module", "app.controller").Str("cid", string(id)).Msg("bad speakAnswer payload")
				return
			}
			c.SpeakAnswer(id, req)
		},
		core.EventDisconnect: func(id domain.ConnectionID, _ []byte) {
			c.Disconnect(id)
		},
	}
}

// OnNewConnection registers a bare attendee placeholder for a fresh
// connection. No notification goes out.
func (c *SessionController) OnNewConnection(id domain.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.presence.Upsert(id, domain.Profile{}, "", false)
	log.Info().Str("module", "app.controller").Str("cid", string(id)).Msg("connection established")
}

// JoinRoom puts the attendee into the requested room, creating it if
// needed. The first joiner becomes owner and speaker; later joiners
// start silent. The room's other members learn about the newcomer and
// the joiner gets the full member list back.
func (c *SessionController) JoinRoom(id domain.ConnectionID, req JoinRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.rooms.Has(req.Room.ID)
	attendee := c.presence.Upsert(id, req.User, req.Room.ID, existing)

	room := c.joinUserRoom(attendee, req.Room)
	log.Info().Str("module", "app.controller").Str("cid", string(id)).Str("room", string(room.ID)).Int("members", room.AttendeesCount).Msg("joined room")

	c.notifier.ToConnections(c.roomMates(room, id), core.EventUserConnected, attendee)
	c.notifier.ToConnection(id, core.EventLobbyUpdated, room.Users)
}

func (c *SessionController) joinUserRoom(attendee domain.Attendee, opts RoomOptions) *domain.Room {
	room, ok := c.rooms.Get(opts.ID)
	if ok {
		// Registered rooms are shared snapshots (the lobby marshals them
		// concurrently); mutate a private copy and store it back.
		room = room.Clone()
	} else {
		room = &domain.Room{ID: opts.ID, Owner: attendee}
	}
	room.Topic = opts.Topic
	room.PutUser(attendee)
	return c.rooms.Set(opts.ID, room)
}

// SpeakRequest forwards the requester's profile to its room owner. No
// state changes; the owner answers with a speakAnswer event.
func (c *SessionController) SpeakRequest(id domain.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	attendee, ok := c.presence.Get(id)
	if !ok {
		return
	}
	room, ok := c.rooms.Get(attendee.RoomID)
	if !ok {
		return
	}
	log.Info().Str("module", "app.controller").Str("cid", string(id)).Str("owner", string(room.Owner.ID)).Msg("speak request forwarded")
	c.notifier.ToConnection(room.Owner.ID, core.EventSpeakRequest, attendee)
}

// SpeakAnswer applies the owner's verdict to the target attendee in both
// the directory and the room snapshot, tells the target about its new
// permission and broadcasts the updated profile to the rest of the room.
func (c *SessionController) SpeakAnswer(id domain.ConnectionID, req SpeakAnswerRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, ok := c.presence.Get(req.User.ID)
	if !ok {
		return
	}
	target.IsSpeaker = req.Answer
	c.presence.Put(target)

	room, ok := c.rooms.Get(target.RoomID)
	if !ok {
		return
	}
	room = room.Clone()
	room.PutUser(target)
	room = c.rooms.Set(room.ID, room)

	log.Info().Str("module", "app.controller").Str("cid", string(id)).Str("target", string(target.ID)).Bool("granted", req.Answer).Msg("speak answer applied")
	c.notifier.ToConnection(target.ID, core.EventUpgradePermission, target)
	c.notifier.ToConnections(c.roomMates(room, target.ID), core.EventUpgradePermission, target)
}

// Disconnect removes the attendee everywhere and repairs the room it
// leaves behind: empty rooms are dropped, and ownership succession runs
// when the owner departs or a single member remains. Unknown connections
// and already-removed rooms are silent no-ops, since disconnects can
// race with room teardown.
func (c *SessionController) Disconnect(id domain.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	attendee, ok := c.presence.Get(id)
	if !ok {
		return
	}
	c.presence.Remove(id)
	log.Info().Str("module", "app.controller").Str("cid", string(id)).Msg("disconnected")

	room, ok := c.rooms.Get(attendee.RoomID)
	if !ok {
		return
	}
	room = room.Clone()
	room.DropUser(id)

	if len(room.Users) == 0 {
		c.rooms.Delete(room.ID)
		log.Info().Str("module", "app.controller").Str("room", string(room.ID)).Msg("room removed, last member left")
		return
	}

	if room.Owner.ID == id || len(room.Users) == 1 {
		room.Owner = c.electOwner(room, id)
	}
	room = c.rooms.Set(room.ID, room)

	c.notifier.ToConnections(c.roomMates(room, id), core.EventUserDisconnected, attendee)
}

// electOwner picks the next owner: the first remaining speaker, else the
// first remaining user. The pick is promoted to speaker in the room, in
// the directory, and announced to the room. A room with one member left
// re-runs this even for the sitting owner, which re-affirms its speaker
// status instead of leaving it implicit.
func (c *SessionController) electOwner(room *domain.Room, departed domain.ConnectionID) domain.Attendee {
	next := room.Users[0]
	for _, u := range room.Users {
		if u.IsSpeaker {
			next = u
			break
		}
	}
	next.IsSpeaker = true
	room.PutUser(next)

	if stored, ok := c.presence.Get(next.ID); ok {
		stored.IsSpeaker = true
		c.presence.Put(stored)
	}

	log.Info().Str("module", "app.controller").Str("room", string(room.ID)).Str("owner", string(next.ID)).Msg("ownership succession")
	c.notifier.ToConnections(c.roomMates(room, departed), core.EventUpgradePermission, next)
	return next
}

// roomMates lists the room's member connections except skip.
func (c *SessionController) roomMates(room *domain.Room, skip domain.ConnectionID) []domain.ConnectionID {
	out := make([]domain.ConnectionID, 0, len(room.Users))
	for _, u := range room.Users {
		if u.ID == skip {
			continue
		}
		out = append(out, u.ID)
	}
	return out
}

// RoomList returns the current room snapshots, used to prime a lobby
// subscriber on attach.
func (c *SessionController) RoomList() []*domain.Room {
	return c.rooms.Values()
}

// Attendee exposes the directory record for a connection.
func (c *SessionController) Attendee(id domain.ConnectionID) (domain.Attendee, bool) {
	return c.presence.Get(id)
}
