// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package bridge

import (
	"time"

	"mellium.im/mucbridge/muc"
)

// Names of the events emitted for muc events.
const (
	EventError      = "xmpp.muc.error"
	EventInvite     = "xmpp.muc.invite"
	EventRoomConfig = "xmpp.muc.room.config"
	EventSubject    = "xmpp.muc.subject"
	EventMessage    = "xmpp.muc.message"
	EventRoster     = "xmpp.muc.roster"
	EventDestroy    = "xmpp.muc.destroy"
)

// Delay is the payload of a delayed delivery notice.
type Delay struct {
	When time.Time `json:"when"`
	From *JID      `json:"from,omitempty"`
}

// Message is the payload of EventMessage.
type Message struct {
	Room    string `json:"room"`
	Nick    string `json:"nick,omitempty"`
	Private bool   `json:"private"`
	Content string `json:"content,omitempty"`
	Format  string `json:"format,omitempty"`
	State   string `json:"state,omitempty"`
	Delay   *Delay `json:"delay,omitempty"`
}

// Roster is the payload of EventRoster.
// Status is the presence type, or the list of status codes if the presence
// carried any.
type Roster struct {
	Room        string      `json:"room"`
	Nick        string      `json:"nick,omitempty"`
	Status      interface{} `json:"status,omitempty"`
	Affiliation string      `json:"affiliation,omitempty"`
	Role        string      `json:"role,omitempty"`
	JID         *JID        `json:"jid,omitempty"`
	Error       *Error      `json:"error,omitempty"`
}

// Destroy is the payload of EventDestroy.
type Destroy struct {
	Room        string `json:"room"`
	Nick        string `json:"nick,omitempty"`
	Alternative string `json:"alternative,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// RoomConfig is the payload of EventRoomConfig.
type RoomConfig struct {
	Room   string `json:"room"`
	Status []int  `json:"status"`
}

// Subject is the payload of EventSubject.
// An empty subject is written as false.
type Subject struct {
	Room    string      `json:"room"`
	Nick    string      `json:"nick,omitempty"`
	Subject interface{} `json:"subject"`
}

// Invite is the payload of EventInvite.
type Invite struct {
	Room     string `json:"room"`
	From     *JID   `json:"from,omitempty"`
	Sender   *JID   `json:"sender,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Password string `json:"password,omitempty"`
	Continue bool   `json:"continue,omitempty"`
	Thread   string `json:"thread,omitempty"`
}

// ProtocolError is the payload of EventError.
type ProtocolError struct {
	Type    string      `json:"type"`
	Error   *Error      `json:"error"`
	Room    string      `json:"room"`
	Content *string     `json:"content,omitempty"`
	Subject interface{} `json:"subject,omitempty"`
}

// textOrFalse returns s, or false if s is empty.
func textOrFalse(s string) interface{} {
	if s == "" {
		return false
	}
	return s
}

func eventJSON(e muc.Event) (string, interface{}) {
	switch ev := e.(type) {
	case *muc.ChatMessage:
		msg := Message{
			Room:    ev.Room.String(),
			Nick:    ev.Nick,
			Private: ev.Private,
			Content: ev.Content,
			Format:  string(ev.Format),
			State:   string(ev.State),
		}
		if ev.Delay != nil {
			msg.Delay = &Delay{When: ev.Delay.Time, From: jidJSON(ev.Delay.From)}
		}
		return EventMessage, msg
	case *muc.RosterUpdate:
		r := Roster{
			Room:        ev.Room.String(),
			Nick:        ev.Nick,
			Affiliation: string(ev.Affiliation),
			Role:        string(ev.Role),
			JID:         jidJSON(ev.JID),
		}
		switch {
		case len(ev.Status) > 0:
			r.Status = ev.Status
		case ev.Type != "":
			r.Status = string(ev.Type)
		}
		if ev.Err != nil {
			r.Error = stanzaErrorJSON(*ev.Err)
		}
		return EventRoster, r
	case *muc.RoomDestroyed:
		d := Destroy{
			Room:   ev.Room.String(),
			Nick:   ev.Nick,
			Reason: ev.Reason,
		}
		if ev.Alternative.Domainpart() != "" {
			d.Alternative = ev.Alternative.String()
		}
		return EventDestroy, d
	case *muc.RoomConfigUpdate:
		status := ev.Status
		if status == nil {
			status = []int{}
		}
		return EventRoomConfig, RoomConfig{Room: ev.Room.String(), Status: status}
	case *muc.SubjectUpdate:
		return EventSubject, Subject{
			Room:    ev.Room.String(),
			Nick:    ev.Nick,
			Subject: textOrFalse(ev.Subject),
		}
	case *muc.Invitation:
		return EventInvite, Invite{
			Room:     ev.Room.String(),
			From:     jidJSON(ev.From),
			Sender:   jidJSON(ev.Sender),
			Reason:   ev.Reason,
			Password: ev.Password,
			Continue: ev.Continue,
			Thread:   ev.Thread,
		}
	case *muc.ProtocolError:
		pe := ProtocolError{
			Type:    ev.Kind,
			Error:   stanzaErrorJSON(ev.Err),
			Room:    ev.Room.String(),
			Content: ev.Content,
		}
		if ev.Subject != nil {
			pe.Subject = textOrFalse(*ev.Subject)
		}
		return EventError, pe
	}
	return "", nil
}
