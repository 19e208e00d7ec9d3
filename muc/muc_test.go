// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc_test

import (
	"context"
	"encoding/xml"
	"testing"

	"mellium.im/mucbridge/internal/xmpptest"
	"mellium.im/mucbridge/muc"
	"mellium.im/xmpp"
	"mellium.im/xmpp/jid"
)

// newClient returns a client that has joined each of rooms as "me".
func newClient(t *testing.T, rooms ...string) (*muc.Client, *xmpptest.Session) {
	t.Helper()
	s := &xmpptest.Session{}
	c := muc.NewClient(s)
	for _, room := range rooms {
		err := c.Join(context.Background(), muc.JoinRequest{
			Room: jid.MustParse(room),
			Nick: "me",
		})
		if err != nil {
			t.Fatalf("error joining %s: %v", room, err)
		}
	}
	return c, s
}

// feed passes a stanza to h the way a session would.
func feed(t *testing.T, h xmpp.Handler, in string) {
	t.Helper()
	toks, start := xmpptest.Decode(in)
	err := h.HandleXMPP(toks, start)
	if err != nil {
		t.Fatalf("error handling %s: %v", in, err)
	}
}

// events returns a handler that records the events decoded by c.
func events(c *muc.Client) *[]muc.Event {
	var got []muc.Event
	c.HandleEvent = func(e muc.Event) {
		got = append(got, e)
	}
	return &got
}

// sentStanza is the part of an outbound stanza checked by tests.
type sentStanza struct {
	XMLName xml.Name
	ID      string `xml:"id,attr"`
	To      string `xml:"to,attr"`
	Type    string `xml:"type,attr"`
	Inner   string `xml:",innerxml"`
}

func lastSent(t *testing.T, s *xmpptest.Session) sentStanza {
	t.Helper()
	sent := s.Sent()
	if len(sent) == 0 {
		t.Fatalf("nothing was sent")
	}
	var st sentStanza
	err := xml.Unmarshal([]byte(sent[len(sent)-1]), &st)
	if err != nil {
		t.Fatalf("error decoding sent stanza %s: %v", sent[len(sent)-1], err)
	}
	return st
}
