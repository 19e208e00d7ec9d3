// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"

	"mellium.im/xmpp/form"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// RegisterRequest registers with a room.
// If Form is not nil it is submitted as the registration form.
type RegisterRequest struct {
	Room jid.JID
	Form Form
}

// Registration is the reply to a registration request.
// If the user is already registered Registered is true and Nick is the
// registered nickname (if the room reported it); otherwise the remaining
// fields describe the registration form.
type Registration struct {
	Registered bool
	Nick       string

	Title        string
	Instructions string
	Form         *form.Data
}

type registerQuery struct {
	XMLName      xml.Name   `xml:"jabber:iq:register query"`
	Registered   *struct{}  `xml:"registered"`
	Username     string     `xml:"username"`
	Title        string     `xml:"title"`
	Instructions string     `xml:"instructions"`
	Form         *form.Data `xml:"jabber:x:data x"`
}

func (q registerQuery) registration() Registration {
	if q.Registered != nil {
		return Registration{Registered: true, Nick: q.Username}
	}
	r := Registration{
		Title:        q.Title,
		Instructions: q.Instructions,
		Form:         q.Form,
	}
	if r.Form == nil {
		r.Form = form.New()
	}
	return r
}

// RegistrationInfo requests the registration form of a room.
func (c *Client) RegistrationInfo(ctx context.Context, room jid.JID) (Registration, error) {
	if isZero(room) {
		return Registration{}, clientErr(ErrMissingRoom, room)
	}
	return c.register(ctx, stanza.GetIQ, room, nil)
}

// Register registers with a room.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Registration, error) {
	if isZero(req.Room) {
		return Registration{}, clientErr(ErrMissingRoom, req)
	}
	if req.Form == nil {
		return c.register(ctx, stanza.SetIQ, req.Room, nil)
	}
	submission, err := req.Form.submit(NSRegister)
	if err != nil {
		return Registration{}, clientErr(ErrBadForm, req)
	}
	return c.register(ctx, stanza.SetIQ, req.Room, submission)
}

func (c *Client) register(ctx context.Context, typ stanza.IQType, room jid.JID, payload xml.TokenReader) (Registration, error) {
	var resp registerQuery
	err := c.query(ctx, typ, room, queryEl(NSIQRegister, payload), &resp)
	if err != nil {
		return Registration{}, err
	}
	return resp.registration(), nil
}
