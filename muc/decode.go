// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"errors"

	"mellium.im/xmpp/stanza"
)

var errNotMUC = errors.New("muc: stanza is not a message or presence")

// Handles reports whether the stanza belongs to the client.
// Stanzas from rooms in the membership set are always owned, as are mediated
// invitations from any address.
func (c *Client) Handles(s *Stanza) bool {
	if c.rooms.Contains(s.From) {
		return true
	}
	return s.IsMessage() && s.User != nil && s.User.Invite != nil
}

// Decode translates an owned stanza into an event.
// Callers should check that the stanza is owned with Handles first.
func (c *Client) Decode(s *Stanza) (Event, error) {
	switch s.XMLName.Local {
	case "message":
		return decodeMessage(s), nil
	case "presence":
		return decodePresence(s), nil
	}
	return nil, errNotMUC
}

func decodeMessage(s *Stanza) Event {
	room := s.From.Bare()
	switch {
	case stanza.MessageType(s.Type) == stanza.ErrorMessage:
		e := &ProtocolError{
			Kind:    s.XMLName.Local,
			Room:    room,
			Content: s.Body,
			Subject: s.Subject,
		}
		if s.Error != nil {
			e.Err = *s.Error
		} else {
			e.Err = stanza.Error{Type: stanza.Cancel, Condition: stanza.UndefinedCondition}
		}
		return e
	case s.User != nil && s.User.Invite != nil:
		inv := s.User.Invite
		e := &Invitation{
			Room:   s.To,
			From:   inv.From,
			Sender: s.From,
		}
		if inv.Reason != nil {
			e.Reason = *inv.Reason
		}
		if s.User.Password != nil {
			e.Password = *s.User.Password
		}
		if inv.Continue != nil {
			e.Continue = true
			e.Thread = inv.Continue.Thread
		}
		return e
	case s.User != nil:
		return &RoomConfigUpdate{
			Room:   room,
			Status: s.User.Codes(),
		}
	case s.Subject != nil:
		return &SubjectUpdate{
			Room:    room,
			Nick:    s.From.Resourcepart(),
			Subject: *s.Subject,
		}
	}

	msg := &ChatMessage{
		Room:    room,
		Nick:    s.From.Resourcepart(),
		Private: stanza.MessageType(s.Type) == stanza.ChatMessage,
		Delay:   s.Delay.Delay(),
	}
	if st, ok := s.ChatState(); ok {
		msg.State = st
	}
	body, hasXHTML := xhtmlBody(s)
	switch {
	case hasXHTML:
		msg.Format = FormatXHTML
		msg.Content = body
	case s.Body != nil:
		msg.Format = FormatPlain
		msg.Content = *s.Body
	}
	return msg
}

func xhtmlBody(s *Stanza) (string, bool) {
	if s.HTML == nil {
		return "", false
	}
	b, ok := s.HTML.Body()
	return b.Inner, ok
}

func decodePresence(s *Stanza) Event {
	room := s.From.Bare()
	nick := s.From.Resourcepart()
	if s.User != nil && s.User.Destroy != nil {
		e := &RoomDestroyed{
			Room:        room,
			Nick:        nick,
			Alternative: s.User.Destroy.JID,
		}
		if s.User.Destroy.Reason != nil {
			e.Reason = *s.User.Destroy.Reason
		}
		return e
	}

	e := &RosterUpdate{
		Room: room,
		Nick: nick,
		Type: stanza.PresenceType(s.Type),
		Err:  s.Error,
	}
	if s.User == nil {
		return e
	}
	if len(s.User.Items) > 0 {
		item := s.User.Items[0]
		e.Affiliation = item.Affiliation
		e.Role = item.Role
		e.JID = item.JID
		if item.Nick != "" {
			e.Nick = item.Nick
		}
	}
	e.Status = s.User.Codes()
	return e
}
