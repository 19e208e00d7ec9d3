// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"
	"fmt"

	"golang.org/x/text/secure/precis"
	"mellium.im/mucbridge/internal/attr"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// JoinRequest is a request to enter a room.
type JoinRequest struct {
	Room jid.JID
	Nick string
}

func (r JoinRequest) validate() error {
	switch {
	case isZero(r.Room):
		return clientErr(ErrMissingRoom, r)
	case r.Nick == "":
		return clientErr(ErrMissingNick, r)
	}
	return nil
}

// LeaveRequest is a request to exit a room.
// Status is an optional message shown to the other occupants.
type LeaveRequest struct {
	Room   jid.JID
	Status string
}

func (r LeaveRequest) validate(rooms *Rooms) error {
	switch {
	case isZero(r.Room):
		return clientErr(ErrMissingRoom, r)
	case !rooms.Contains(r.Room):
		return clientErr(ErrNotJoined, r)
	}
	return nil
}

// NickRequest is a request to change the nickname used in a room that has
// already been joined.
type NickRequest struct {
	Room jid.JID
	Nick string
}

func (r NickRequest) validate(rooms *Rooms) error {
	switch {
	case isZero(r.Room):
		return clientErr(ErrMissingRoom, r)
	case r.Nick == "":
		return clientErr(ErrMissingNick, r)
	case !rooms.Contains(r.Room):
		return clientErr(ErrNotJoined, r)
	}
	return nil
}

// Join enters a room and adds it to the membership set.
// Join returns as soon as the presence has been sent and does not wait for the
// room to respond; the occupant list and any error arrive as events.
func (c *Client) Join(ctx context.Context, req JoinRequest, opt ...Option) error {
	if err := req.validate(); err != nil {
		return err
	}
	conf := joinConfig{}
	for _, o := range opt {
		o(&conf)
	}
	to, err := occupant(req.Room, req.Nick)
	if err != nil {
		return err
	}

	err = c.session.Send(ctx, stanza.Presence{
		ID: attr.RandomID(),
		To: to,
	}.Wrap(conf.TokenReader()))
	if err != nil {
		return fmt.Errorf("muc: sending join presence: %w", err)
	}
	c.rooms.Join(req.Room)
	return nil
}

// Leave exits a room and removes it from the membership set.
func (c *Client) Leave(ctx context.Context, req LeaveRequest) error {
	if err := req.validate(&c.rooms); err != nil {
		return err
	}
	err := c.session.Send(ctx, stanza.Presence{
		ID:   attr.RandomID(),
		To:   req.Room.Bare(),
		Type: stanza.UnavailablePresence,
	}.Wrap(optionalText(req.Status, xml.Name{Local: "status"})))
	if err != nil {
		return fmt.Errorf("muc: sending leave presence: %w", err)
	}
	c.rooms.Leave(req.Room)
	return nil
}

// ChangeNick changes the nickname used in a joined room.
// The room reports the change (or an error) with presence.
func (c *Client) ChangeNick(ctx context.Context, req NickRequest) error {
	if err := req.validate(&c.rooms); err != nil {
		return err
	}
	to, err := occupant(req.Room, req.Nick)
	if err != nil {
		return err
	}
	err = c.session.Send(ctx, stanza.Presence{
		ID: attr.RandomID(),
		To: to,
	}.Wrap(nil))
	if err != nil {
		return fmt.Errorf("muc: sending nick change: %w", err)
	}
	return nil
}

// occupant returns the occupant address of nick in room.
func occupant(room jid.JID, nick string) (jid.JID, error) {
	nick, err := precis.Nickname.String(nick)
	if err != nil {
		return jid.JID{}, fmt.Errorf("muc: invalid nickname: %w", err)
	}
	to, err := room.Bare().WithResource(nick)
	if err != nil {
		return jid.JID{}, fmt.Errorf("muc: invalid occupant address: %w", err)
	}
	return to, nil
}

func isZero(j jid.JID) bool {
	return j.Domainpart() == ""
}
