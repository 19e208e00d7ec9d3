// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"encoding/xml"
	"time"

	"mellium.im/mucbridge/chatstate"
	"mellium.im/mucbridge/xhtmlim"
	"mellium.im/xmpp/delay"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// Stanza is an inbound message or presence decoded into the children that
// decide how it is routed.
// Optional children are pointers that are nil when the child is absent.
type Stanza struct {
	XMLName xml.Name
	ID      string  `xml:"id,attr"`
	To      jid.JID `xml:"to,attr"`
	From    jid.JID `xml:"from,attr"`
	Type    string  `xml:"type,attr"`

	Body    *string        `xml:"body"`
	Subject *string        `xml:"subject"`
	User    *UserX         `xml:"http://jabber.org/protocol/muc#user x"`
	HTML    *xhtmlim.HTML  `xml:"http://jabber.org/protocol/xhtml-im html"`
	Delay   *DelayNotice   `xml:"urn:xmpp:delay delay"`
	Error   *stanza.Error  `xml:"error"`
	Other   []unknownChild `xml:",any"`
}

type unknownChild struct {
	XMLName xml.Name
}

// IsMessage reports whether the stanza is a message.
func (s *Stanza) IsMessage() bool {
	return s.XMLName.Local == "message"
}

// ChatState returns the chat state notification carried by the stanza, if
// any.
func (s *Stanza) ChatState() (chatstate.State, bool) {
	for _, c := range s.Other {
		if st, ok := chatstate.FromName(c.XMLName); ok {
			return st, true
		}
	}
	return "", false
}

// UserX is the muc#user extension element.
type UserX struct {
	Items    []Item   `xml:"item"`
	Status   []Status `xml:"status"`
	Invite   *Invite  `xml:"invite"`
	Destroy  *Destroy `xml:"destroy"`
	Password *string  `xml:"password"`
}

// Codes returns the status codes that are valid base 10 integers, in
// document order.
func (x *UserX) Codes() []int {
	if x == nil {
		return nil
	}
	var codes []int
	for _, s := range x.Status {
		if code, ok := s.Int(); ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// Invite is the invite child of the muc#user extension.
// Addresses that are not valid JIDs decode to the zero JID.
type Invite struct {
	From     jid.JID
	To       jid.JID
	Reason   *string
	Continue *struct {
		Thread string `xml:"thread,attr"`
	}
}

// UnmarshalXML satisfies xml.Unmarshaler.
func (inv *Invite) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	raw := struct {
		From     string  `xml:"from,attr"`
		To       string  `xml:"to,attr"`
		Reason   *string `xml:"reason"`
		Continue *struct {
			Thread string `xml:"thread,attr"`
		} `xml:"continue"`
	}{}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*inv = Invite{
		From:     looseJID(raw.From),
		To:       looseJID(raw.To),
		Reason:   raw.Reason,
		Continue: raw.Continue,
	}
	return nil
}

// Destroy is the destroy child of the muc#user extension.
// An alternative room that is not a valid JID decodes to the zero JID.
type Destroy struct {
	JID    jid.JID
	Reason *string
}

// UnmarshalXML satisfies xml.Unmarshaler.
func (dst *Destroy) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	raw := struct {
		JID    string  `xml:"jid,attr"`
		Reason *string `xml:"reason"`
	}{}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*dst = Destroy{JID: looseJID(raw.JID), Reason: raw.Reason}
	return nil
}

// DelayNotice is a delayed delivery notice as it appeared on the wire.
type DelayNotice struct {
	From   string `xml:"from,attr"`
	Stamp  string `xml:"stamp,attr"`
	Reason string `xml:",chardata"`
}

// Delay returns the notice as a delay.Delay, or nil if the timestamp is not
// valid.
// A from address that is not a valid JID is left as the zero JID.
func (n *DelayNotice) Delay() *delay.Delay {
	if n == nil {
		return nil
	}
	stamp, err := time.Parse(time.RFC3339, n.Stamp)
	if err != nil {
		return nil
	}
	return &delay.Delay{
		XMLName: xml.Name{Space: delay.NS, Local: "delay"},
		From:    looseJID(n.From),
		Time:    stamp,
		Reason:  n.Reason,
	}
}

// looseJID parses s, returning the zero JID if it is empty or invalid.
func looseJID(s string) jid.JID {
	j, err := jid.Parse(s)
	if err != nil {
		return jid.JID{}
	}
	return j
}
