// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/form"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// CreateRequest is a request to finish creating a room.
// If Form is nil the default configuration is accepted (an instant room),
// otherwise the fields are submitted as the room configuration.
type CreateRequest struct {
	Room jid.JID
	Form Form
}

// ConfigRequest is a request to change the configuration of a room.
type ConfigRequest struct {
	Room jid.JID
	Form Form
}

// DestroyRequest is a request to destroy a room.
// Alternative is an optional room that occupants should join instead.
type DestroyRequest struct {
	Room        jid.JID
	Alternative jid.JID
	Reason      string
}

// Create submits the initial configuration of a room that was created by
// joining it.
func (c *Client) Create(ctx context.Context, req CreateRequest) error {
	if isZero(req.Room) {
		return clientErr(ErrMissingRoom, req)
	}
	submission := submitForm()
	if req.Form != nil {
		var err error
		submission, err = req.Form.submit(NSRoomConfig)
		if err != nil {
			return clientErr(ErrBadForm, req)
		}
	}
	return c.query(ctx, stanza.SetIQ, req.Room, queryEl(NSOwner, submission), nil)
}

// RoomConfig requests the room configuration form.
func (c *Client) RoomConfig(ctx context.Context, room jid.JID) (*form.Data, error) {
	if isZero(room) {
		return nil, clientErr(ErrMissingRoom, room)
	}
	resp := struct {
		XMLName  xml.Name   `xml:"http://jabber.org/protocol/muc#owner query"`
		DataForm *form.Data `xml:"jabber:x:data x"`
	}{}
	err := c.query(ctx, stanza.GetIQ, room, queryEl(NSOwner), &resp)
	if err != nil {
		return nil, err
	}
	if resp.DataForm == nil {
		return form.New(), nil
	}
	return resp.DataForm, nil
}

// SetRoomConfig submits a new room configuration.
func (c *Client) SetRoomConfig(ctx context.Context, req ConfigRequest) error {
	switch {
	case isZero(req.Room):
		return clientErr(ErrMissingRoom, req)
	case req.Form == nil:
		return clientErr(ErrMissingForm, req)
	}
	submission, err := req.Form.submit(NSRoomConfig)
	if err != nil {
		return clientErr(ErrBadForm, req)
	}
	return c.query(ctx, stanza.SetIQ, req.Room, queryEl(NSOwner, submission), nil)
}

// CancelConfig cancels a pending configuration change.
// When a room is being created this destroys it.
func (c *Client) CancelConfig(ctx context.Context, room jid.JID) error {
	if isZero(room) {
		return clientErr(ErrMissingRoom, room)
	}
	cancel := xmlstream.Wrap(nil, xml.StartElement{
		Name: xml.Name{Space: form.NS, Local: "x"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: "cancel"}},
	})
	return c.query(ctx, stanza.SetIQ, room, queryEl(NSOwner, cancel), nil)
}

// Destroy destroys a room.
func (c *Client) Destroy(ctx context.Context, req DestroyRequest) error {
	if isZero(req.Room) {
		return clientErr(ErrMissingRoom, req)
	}
	var attrs []xml.Attr
	if !isZero(req.Alternative) {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "jid"}, Value: req.Alternative.String()})
	}
	destroy := xmlstream.Wrap(
		optionalText(req.Reason, xml.Name{Local: "reason"}),
		xml.StartElement{Name: xml.Name{Local: "destroy"}, Attr: attrs},
	)
	return c.query(ctx, stanza.SetIQ, req.Room, queryEl(NSOwner, destroy), nil)
}
