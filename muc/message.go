// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"
	"fmt"

	"mellium.im/mucbridge/chatstate"
	"mellium.im/mucbridge/internal/attr"
	"mellium.im/mucbridge/xhtmlim"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// MessageRequest is a message to a room.
// If To is set the message is sent privately to the occupant with that
// nickname.
type MessageRequest struct {
	Room    jid.JID
	To      string
	Content string
	Format  Format
	State   chatstate.State
}

func (r MessageRequest) validate(rooms *Rooms) error {
	switch {
	case isZero(r.Room):
		return clientErr(ErrMissingRoom, r)
	case !rooms.Contains(r.Room):
		return clientErr(ErrNotJoined, r)
	case r.Content == "" && r.State == "":
		return clientErr(ErrNoContent, r)
	case r.State != "" && !r.State.Known():
		return clientErr(ErrBadState, r)
	}
	return nil
}

// SubjectRequest is a request to change the room subject.
// An empty subject clears it.
type SubjectRequest struct {
	Room    jid.JID
	Subject string
}

// VoiceRequest asks the room moderators for a new role.
type VoiceRequest struct {
	Room jid.JID
	Role Role
}

// SendMessage sends a groupchat message to a room, or a private message to one
// of its occupants.
// The room must have been joined.
func (c *Client) SendMessage(ctx context.Context, req MessageRequest) error {
	if err := req.validate(&c.rooms); err != nil {
		return err
	}

	msg := stanza.Message{
		ID:   attr.RandomID(),
		To:   req.Room.Bare(),
		Type: stanza.GroupChatMessage,
	}
	if req.To != "" {
		to, err := occupant(req.Room, req.To)
		if err != nil {
			return err
		}
		msg.To = to
		msg.Type = stanza.ChatMessage
	}

	var content xml.TokenReader
	switch {
	case req.Content == "":
	case req.Format == FormatXHTML:
		r, err := xhtmlim.Message(req.Content)
		if err != nil {
			return clientErr(ErrBadXHTML, req)
		}
		content = r
	default:
		content = optionalText(req.Content, xml.Name{Local: "body"})
	}

	err := c.session.Send(ctx, msg.Wrap(xmlstream.MultiReader(
		content,
		req.State.TokenReader(),
	)))
	if err != nil {
		return fmt.Errorf("muc: sending message: %w", err)
	}
	return nil
}

// SetSubject changes the room subject.
// It returns immediately after the request has been sent and does not wait to
// see if the request was successful or not.
func (c *Client) SetSubject(ctx context.Context, req SubjectRequest) error {
	if isZero(req.Room) {
		return clientErr(ErrMissingRoom, req)
	}
	var subject xml.TokenReader
	if req.Subject != "" {
		subject = xmlstream.Token(xml.CharData(req.Subject))
	}
	err := c.session.Send(ctx, stanza.Message{
		ID:   attr.RandomID(),
		To:   req.Room.Bare(),
		Type: stanza.GroupChatMessage,
	}.Wrap(xmlstream.Wrap(
		subject,
		xml.StartElement{Name: xml.Name{Local: "subject"}},
	)))
	if err != nil {
		return fmt.Errorf("muc: sending subject: %w", err)
	}
	return nil
}

// RequestVoice asks the room moderators to be granted the role.
func (c *Client) RequestVoice(ctx context.Context, req VoiceRequest) error {
	switch {
	case isZero(req.Room):
		return clientErr(ErrMissingRoom, req)
	case req.Role == "":
		return clientErr(ErrMissingRole, req)
	}
	submission := submitForm(
		formField("FORM_TYPE", "hidden", NSRequest),
		formField("muc#role", "text-single", string(req.Role)),
	)
	err := c.session.Send(ctx, stanza.Message{
		ID:   attr.RandomID(),
		To:   req.Room.Bare(),
		Type: stanza.NormalMessage,
	}.Wrap(submission))
	if err != nil {
		return fmt.Errorf("muc: sending voice request: %w", err)
	}
	return nil
}
