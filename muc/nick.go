// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/disco/info"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// ReservedNick asks the room for the nickname reserved by the user, if any.
// If the room does not report one, an item-not-found error is returned.
func (c *Client) ReservedNick(ctx context.Context, room jid.JID) (string, error) {
	if isZero(room) {
		return "", clientErr(ErrMissingRoom, room)
	}
	payload := xmlstream.Wrap(nil, xml.StartElement{
		Name: xml.Name{Space: nsDiscoInfo, Local: "query"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "node"}, Value: ReservedNickNode}},
	})
	resp := struct {
		XMLName    xml.Name        `xml:"http://jabber.org/protocol/disco#info query"`
		Identities []info.Identity `xml:"identity"`
	}{}
	err := c.query(ctx, stanza.GetIQ, room, payload, &resp)
	if err != nil {
		return "", err
	}
	for _, ident := range resp.Identities {
		if ident.Name != "" {
			return ident.Name, nil
		}
	}
	return "", stanza.Error{Type: stanza.Cancel, Condition: stanza.ItemNotFound}
}
