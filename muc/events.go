// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"mellium.im/mucbridge/chatstate"
	"mellium.im/xmpp/delay"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// Event is one of the events decoded from an inbound stanza.
// It is always one of *RosterUpdate, *ChatMessage, *RoomConfigUpdate,
// *SubjectUpdate, *Invitation, *RoomDestroyed, or *ProtocolError.
type Event interface {
	// RoomAddr is the bare address of the room the event concerns.
	RoomAddr() jid.JID

	event()
}

// RosterUpdate is a change in the presence of a room occupant.
type RosterUpdate struct {
	Room jid.JID
	Nick string

	// Type is the type attribute of the presence.
	// Status holds the muc#user status codes if the room sent any; hosts
	// report the codes instead of the type when they are present.
	Type   stanza.PresenceType
	Status []int

	Affiliation Affiliation
	Role        Role
	JID         jid.JID

	// Err is set for presences of type error.
	Err *stanza.Error
}

// ChatMessage is a groupchat message or a private message sent through the
// room.
type ChatMessage struct {
	Room    jid.JID
	Nick    string
	Private bool

	// Format is empty if the message has no body, in which case Content is also
	// empty.
	Format  Format
	Content string

	State chatstate.State
	Delay *delay.Delay
}

// RoomConfigUpdate is a status code broadcast from the room itself.
type RoomConfigUpdate struct {
	Room   jid.JID
	Status []int
}

// SubjectUpdate is a change of the room subject.
// An empty subject means that the subject was cleared.
type SubjectUpdate struct {
	Room    jid.JID
	Nick    string
	Subject string
}

// Invitation is a mediated invitation to a room.
type Invitation struct {
	// Room is the address the invitation was delivered to.
	Room jid.JID

	// From is the user that sent the invitation and Sender is the address that
	// relayed it (normally the room).
	From   jid.JID
	Sender jid.JID

	Reason   string
	Password string
	Continue bool
	Thread   string
}

// RoomDestroyed is sent by a room when it is destroyed.
type RoomDestroyed struct {
	Room        jid.JID
	Nick        string
	Alternative jid.JID
	Reason      string
}

// ProtocolError is an error reported by the room for a stanza that was not a
// reply to a query, for example a message that could not be delivered.
type ProtocolError struct {
	// Kind is the name of the stanza that carried the error.
	Kind string
	Err  stanza.Error
	Room jid.JID

	// Content and Subject are the body and subject echoed back by the room, if
	// any.
	Content *string
	Subject *string
}

func (e *RosterUpdate) RoomAddr() jid.JID     { return e.Room }
func (e *ChatMessage) RoomAddr() jid.JID      { return e.Room }
func (e *RoomConfigUpdate) RoomAddr() jid.JID { return e.Room }
func (e *SubjectUpdate) RoomAddr() jid.JID    { return e.Room }
func (e *Invitation) RoomAddr() jid.JID       { return e.Room }
func (e *RoomDestroyed) RoomAddr() jid.JID    { return e.Room }
func (e *ProtocolError) RoomAddr() jid.JID    { return e.Room }

func (*RosterUpdate) event()     {}
func (*ChatMessage) event()      {}
func (*RoomConfigUpdate) event() {}
func (*SubjectUpdate) event()    {}
func (*Invitation) event()       {}
func (*RoomDestroyed) event()    {}
func (*ProtocolError) event()    {}
