// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// RoleRequest changes the role of the occupant with the given nickname.
type RoleRequest struct {
	Room   jid.JID
	Nick   string
	Role   Role
	Reason string
}

func (r RoleRequest) validate() error {
	switch {
	case isZero(r.Room):
		return clientErr(ErrMissingRoom, r)
	case r.Nick == "":
		return clientErr(ErrMissingNick, r)
	case r.Role == "":
		return clientErr(ErrMissingRole, r)
	}
	return nil
}

// RoleQuery lists the occupants of a room with a role.
type RoleQuery struct {
	Room jid.JID
	Role Role
}

// AffiliationRequest changes the affiliation of a user.
// JID should be the users real bare JID (not their occupant address).
type AffiliationRequest struct {
	Room        jid.JID
	JID         jid.JID
	Affiliation Affiliation
	Nick        string
	Reason      string
}

func (r AffiliationRequest) validate() error {
	switch {
	case isZero(r.Room):
		return clientErr(ErrMissingRoom, r)
	case isZero(r.JID):
		return clientErr(ErrMissingJID, r)
	case r.Affiliation == "":
		return clientErr(ErrMissingAffiliation, r)
	}
	return nil
}

func adminItem(attrs []xml.Attr, reason string) xml.TokenReader {
	return queryEl(NSAdmin, xmlstream.Wrap(
		optionalText(reason, xml.Name{Local: "reason"}),
		xml.StartElement{Name: xml.Name{Local: "item"}, Attr: attrs},
	))
}

// SetRole changes the role of an occupant, for example to grant or revoke
// voice or to kick them from the room.
func (c *Client) SetRole(ctx context.Context, req RoleRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	return c.query(ctx, stanza.SetIQ, req.Room, adminItem([]xml.Attr{
		{Name: xml.Name{Local: "nick"}, Value: req.Nick},
		{Name: xml.Name{Local: "role"}, Value: string(req.Role)},
	}, req.Reason), nil)
}

// GetRole returns the occupants that have the role.
func (c *Client) GetRole(ctx context.Context, req RoleQuery) ([]Item, error) {
	switch {
	case isZero(req.Room):
		return nil, clientErr(ErrMissingRoom, req)
	case req.Role == "":
		return nil, clientErr(ErrMissingRole, req)
	}
	resp := struct {
		XMLName xml.Name `xml:"http://jabber.org/protocol/muc#admin query"`
		Items   []Item   `xml:"item"`
	}{}
	err := c.query(ctx, stanza.GetIQ, req.Room, adminItem([]xml.Attr{
		{Name: xml.Name{Local: "role"}, Value: string(req.Role)},
	}, ""), &resp)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SetAffiliation changes the affiliation of a user, for example to ban them
// or to make them an admin.
func (c *Client) SetAffiliation(ctx context.Context, req AffiliationRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	attrs := []xml.Attr{
		{Name: xml.Name{Local: "affiliation"}, Value: string(req.Affiliation)},
		{Name: xml.Name{Local: "jid"}, Value: req.JID.Bare().String()},
	}
	if req.Nick != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "nick"}, Value: req.Nick})
	}
	return c.query(ctx, stanza.SetIQ, req.Room, adminItem(attrs, req.Reason), nil)
}
