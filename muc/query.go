// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"mellium.im/mucbridge/internal/attr"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// query sends an IQ to room and waits for the reply.
// If v is not nil the first child of a successful reply is decoded into it.
// Error replies are returned as a stanza.Error.
func (c *Client) query(ctx context.Context, typ stanza.IQType, room jid.JID, payload xml.TokenReader, v interface{}) error {
	resp, err := c.session.SendIQ(ctx, stanza.IQ{
		ID:   attr.RandomID(),
		To:   room.Bare(),
		Type: typ,
	}.Wrap(payload))
	if err != nil {
		return fmt.Errorf("muc: sending %s query: %w", typ, err)
	}
	/* #nosec */
	defer resp.Close()

	d := xml.NewTokenDecoder(resp)
	tok, err := d.Token()
	if err != nil {
		return err
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return fmt.Errorf("muc: expected IQ start token, got %T %[1]v", tok)
	}
	if stanza.IQType(attr.Get(start.Attr, "type")) == stanza.ErrorIQ {
		se, err := NormalizeError(d)
		if err != nil {
			return err
		}
		return se
	}
	if v == nil {
		return nil
	}
	for {
		tok, err := d.Token()
		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return d.DecodeElement(v, &t)
		case xml.EndElement:
			return nil
		}
	}
}

func queryEl(space string, inner ...xml.TokenReader) xml.TokenReader {
	return xmlstream.Wrap(
		xmlstream.MultiReader(inner...),
		xml.StartElement{Name: xml.Name{Space: space, Local: "query"}},
	)
}
