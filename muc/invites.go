// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"
	"fmt"

	"mellium.im/mucbridge/internal/attr"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// InviteRequest invites a user to a room.
//
// By default the invitation is mediated: it is sent to the room, which
// forwards it to the invitee.
// If Direct is set the invitation is sent straight to the invitee instead,
// which is useful when the invitee blocks messages from unknown addresses.
type InviteRequest struct {
	Room     jid.JID
	To       jid.JID
	Reason   string
	Password string
	Direct   bool

	// Continue marks the invitation as the continuation of a one-to-one chat,
	// optionally identified by Thread.
	Continue bool
	Thread   string
}

func (r InviteRequest) validate() error {
	switch {
	case isZero(r.Room):
		return clientErr(ErrMissingRoom, r)
	case isZero(r.To):
		return clientErr(ErrMissingTo, r)
	}
	return nil
}

// Invite sends an invitation to the room.
func (c *Client) Invite(ctx context.Context, req InviteRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	msg := stanza.Message{
		ID:   attr.RandomID(),
		To:   req.Room.Bare(),
		Type: stanza.NormalMessage,
	}
	payload := req.mediated()
	if req.Direct {
		msg.To = req.To
		payload = req.direct()
	}
	if err := c.session.Send(ctx, msg.Wrap(payload)); err != nil {
		return fmt.Errorf("muc: sending invitation: %w", err)
	}
	return nil
}

// direct returns the invitation in the legacy conference namespace.
func (r InviteRequest) direct() xml.TokenReader {
	attrs := []xml.Attr{{
		Name:  xml.Name{Local: "jid"},
		Value: r.Room.Bare().String(),
	}}
	if r.Continue {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "continue"}, Value: "true"})
		if r.Thread != "" {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "thread"}, Value: r.Thread})
		}
	}
	if r.Password != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "password"}, Value: r.Password})
	}
	if r.Reason != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "reason"}, Value: r.Reason})
	}
	return xmlstream.Wrap(
		nil,
		xml.StartElement{Name: xml.Name{Space: NSConf, Local: "x"}, Attr: attrs},
	)
}

// mediated returns the invitation as a muc#user extension addressed to the
// room.
func (r InviteRequest) mediated() xml.TokenReader {
	var continueEl xml.TokenReader
	if r.Continue {
		var attrs []xml.Attr
		if r.Thread != "" {
			attrs = []xml.Attr{{Name: xml.Name{Local: "thread"}, Value: r.Thread}}
		}
		continueEl = xmlstream.Wrap(
			nil,
			xml.StartElement{Name: xml.Name{Local: "continue"}, Attr: attrs},
		)
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(
			xmlstream.Wrap(
				xmlstream.MultiReader(
					optionalText(r.Reason, xml.Name{Local: "reason"}),
					continueEl,
				),
				xml.StartElement{
					Name: xml.Name{Local: "invite"},
					Attr: []xml.Attr{{Name: xml.Name{Local: "to"}, Value: r.To.String()}},
				},
			),
			optionalText(r.Password, xml.Name{Local: "password"}),
		),
		xml.StartElement{Name: xml.Name{Space: NSUser, Local: "x"}},
	)
}
