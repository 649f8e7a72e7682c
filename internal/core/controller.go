package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/guilhermebehs/clone-clubehouse-back/internal/domain"
)

var (
	ErrUnknownUser = errors.New("unknown user")
	ErrUnknownRoom = errors.New("unknown room")
)

// JoinRoomPayload is the inbound JOIN_ROOM body.
type JoinRoomPayload struct {
	User domain.Profile `json:"user"`
	Room RoomPayload    `json:"room"`
}

// RoomPayload is the client-supplied part of a room; topic is pass-through.
type RoomPayload struct {
	ID    domain.RoomID `json:"id"`
	Topic string        `json:"topic"`
}

// SpeakAnswerPayload is the inbound SPEAK_ANSWER body sent by a room owner.
type SpeakAnswerPayload struct {
	Answer bool           `json:"answer"`
	User   domain.Profile `json:"user"`
}

// Controller owns the process-wide directory: every connected attendee keyed
// by session id, plus the rooms store whose observer republishes the lobby
// view after each mutation.
//
// Every handler runs under one lock, so room mutations are strictly
// serialized in arrival order and a lobby broadcast can never be reordered
// past the write that produced it.
type Controller struct {
	mu        sync.Mutex
	transport Transport
	users     map[SessionID]domain.Attendee
	rooms     *ObservableMap[domain.RoomID, domain.Room, domain.RoomSnapshot]
}

func NewController(t Transport) *Controller {
	c := &Controller{
		transport: t,
		users:     make(map[SessionID]domain.Attendee),
	}
	c.rooms = NewObservableMap(domain.Snapshot, c.notifyLobby)
	return c
}

func (c *Controller) notifyLobby(rooms *ObservableMap[domain.RoomID, domain.Room, domain.RoomSnapshot]) error {
	c.transport.EmitToGroup(LobbyGroup, EventLobbyUpdated, rooms.Values(), "")
	return nil
}

// OnNewConnection seeds the directory entry for a fresh session: empty
// profile, no room. The speaker flag is computed as "not joining an existing
// room" and is superseded on the first join.
func (c *Controller) OnNewConnection(sid SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateUser(sid, domain.Profile{}, "")
	log.Info().Str("module", "core.controller").Str("sid", string(sid)).Msg("new connection")
}

// updateUser merges the stored snapshot with the payload, binds it to roomID
// and recomputes the speaker flag. The session id stays authoritative over
// any client-supplied id.
func (c *Controller) updateUser(sid SessionID, p domain.Profile, roomID domain.RoomID) domain.Attendee {
	base := c.users[sid]
	base.ID = string(sid)
	next := base.Merge(p, roomID, !c.rooms.Has(roomID))
	c.users[sid] = next
	return next
}

// JoinRoom puts the session into the named room, creating it when absent.
// The creator becomes owner and speaker; later joiners come in muted with
// ownership carried over. Existing members get USER_CONNECTED, the joiner
// gets the post-join member list.
func (c *Controller) JoinRoom(sid SessionID, p JoinRoomPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	roomID := p.Room.ID
	user := c.updateUser(sid, p.User, roomID)
	room, err := c.joinUserRoom(sid, user, p.Room)
	if err != nil {
		return err
	}

	c.transport.EmitToGroup(GroupID(roomID), EventUserConnected, user, sid)
	c.transport.EmitToSession(sid, EventLobbyUpdated, room.Users)
	log.Info().Str("module", "core.controller").
		Str("sid", string(sid)).Str("room", string(roomID)).
		Bool("owner", room.Owner.ID == string(sid)).Msg("joined room")
	return nil
}

func (c *Controller) joinUserRoom(sid SessionID, user domain.Attendee, payload RoomPayload) (domain.Room, error) {
	roomID := payload.ID
	current, exists := c.rooms.Get(roomID)

	owner, users := user, []domain.Attendee(nil)
	topic := payload.Topic
	if exists {
		owner, users = current.Owner, current.Users
		if topic == "" {
			topic = current.Topic
		}
	}

	room := domain.Room{ID: roomID, Topic: topic, Owner: owner, Users: users}.WithUser(user)
	if err := c.rooms.Set(roomID, room); err != nil {
		return domain.Room{}, err
	}
	c.transport.JoinGroup(sid, GroupID(roomID))
	return room, nil
}

// SpeakRequest forwards a "wants to speak" ping to the requester's room
// owner. Unresolvable sessions or rooms are a silent no-op.
func (c *Controller) SpeakRequest(sid SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, ok := c.users[sid]
	if !ok {
		return
	}
	room, ok := c.rooms.Get(user.RoomID)
	if !ok {
		return
	}
	c.transport.EmitToSession(SessionID(room.Owner.ID), EventSpeakRequest, user)
}

// SpeakAnswer applies the owner's verdict to the named user: the speaker
// flag is merged into both the directory entry and the in-room snapshot,
// then the affected session and the rest of the room are notified with the
// same updated snapshot. Answering for an unknown user is a defect, not a
// no-op.
func (c *Controller) SpeakAnswer(sid SessionID, p SpeakAnswerPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := SessionID(p.User.ID)
	current, ok := c.users[target]
	if !ok {
		return fmt.Errorf("speak answer for %q: %w", p.User.ID, ErrUnknownUser)
	}
	updated := current.WithSpeaker(p.Answer)
	c.users[target] = updated

	room, ok := c.rooms.Get(updated.RoomID)
	if !ok {
		return fmt.Errorf("speak answer for %q in %q: %w", p.User.ID, updated.RoomID, ErrUnknownRoom)
	}
	if err := c.rooms.Set(room.ID, room.WithUser(updated)); err != nil {
		return err
	}

	c.transport.EmitToSession(target, EventUpgradeUserPermission, updated)
	c.transport.EmitToGroup(GroupID(room.ID), EventUpgradeUserPermission, updated, target)
	log.Info().Str("module", "core.controller").
		Str("user", string(target)).Bool("speaker", p.Answer).Msg("speak answer applied")
	return nil
}

// Disconnect removes the session and applies its room-side effects: member
// removal, room deletion when it empties, ownership succession when the
// owner left or one member remains. Unknown sessions and already-removed
// rooms are safe no-ops.
func (c *Controller) Disconnect(sid SessionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, ok := c.users[sid]
	if !ok {
		return nil
	}
	delete(c.users, sid)

	room, ok := c.rooms.Get(user.RoomID)
	if !ok {
		return nil
	}
	room = room.WithoutUser(string(sid))
	if len(room.Users) == 0 {
		log.Info().Str("module", "core.controller").Str("room", string(room.ID)).Msg("room emptied, deleting")
		return c.rooms.Delete(room.ID)
	}

	if room.Owner.ID == string(sid) || len(room.Users) == 1 {
		owner := c.promoteNewOwner(room, sid)
		room.Owner = owner
		room = room.WithUser(owner)
	}
	if err := c.rooms.Set(room.ID, room); err != nil {
		return err
	}
	c.transport.EmitToGroup(GroupID(room.ID), EventUserDisconnected, user, sid)
	log.Info().Str("module", "core.controller").
		Str("sid", string(sid)).Str("room", string(room.ID)).Msg("disconnected from room")
	return nil
}

// promoteNewOwner picks the first remaining member with speaking rights, or
// the oldest member when nobody speaks, forces its speaker flag and
// announces the upgrade to the room. It updates the directory entry and
// returns the new owner; installing it on the room is the caller's job.
func (c *Controller) promoteNewOwner(room domain.Room, departed SessionID) domain.Attendee {
	next := room.Users[0]
	for _, u := range room.Users {
		if u.IsSpeaker {
			next = u
			break
		}
	}
	owner := next.WithSpeaker(true)
	if stored, ok := c.users[SessionID(owner.ID)]; ok {
		c.users[SessionID(owner.ID)] = stored.WithSpeaker(true)
	}
	c.transport.EmitToGroup(GroupID(room.ID), EventUpgradeUserPermission, owner, departed)
	log.Info().Str("module", "core.controller").
		Str("room", string(room.ID)).Str("owner", owner.ID).Msg("ownership transferred")
	return owner
}

// OnLobbySubscribe puts the session into the lobby group and replies with
// the current derived room list so a fresh subscriber renders without
// waiting for the next mutation.
func (c *Controller) OnLobbySubscribe(sid SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport.JoinGroup(sid, LobbyGroup)
	c.transport.EmitToSession(sid, EventLobbyUpdated, c.rooms.Values())
}

// Handler processes one inbound session event; raw is the JSON payload for
// events that carry one.
type Handler func(sid SessionID, raw []byte) error

// Events is the static table mapping inbound event names to handlers. The
// transport adapter dispatches through it.
func (c *Controller) Events() map[string]Handler {
	return map[string]Handler{
		EventJoinRoom: func(sid SessionID, raw []byte) error {
			var p JoinRoomPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("join room payload: %w", err)
			}
			return c.JoinRoom(sid, p)
		},
		EventSpeakRequest: func(sid SessionID, _ []byte) error {
			c.SpeakRequest(sid)
			return nil
		},
		EventSpeakAnswer: func(sid SessionID, raw []byte) error {
			var p SpeakAnswerPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("speak answer payload: %w", err)
			}
			return c.SpeakAnswer(sid, p)
		},
	}
}
