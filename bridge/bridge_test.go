// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package bridge_test

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"

	"mellium.im/mucbridge/bridge"
	"mellium.im/mucbridge/internal/xmpptest"
	"mellium.im/mucbridge/muc"
)

type recorder struct {
	mu     sync.Mutex
	frames []bridge.Frame
}

func (r *recorder) Emit(_ context.Context, f bridge.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) last(t *testing.T) bridge.Frame {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		t.Fatalf("no frames were emitted")
	}
	return r.frames[len(r.frames)-1]
}

func newBridge(t *testing.T, joined bool) (*bridge.Bridge, *muc.Client, *xmpptest.Session, *recorder) {
	t.Helper()
	s := &xmpptest.Session{}
	c := muc.NewClient(s)
	rec := &recorder{}
	b := bridge.New(c, rec)
	if joined {
		err := b.Dispatch(context.Background(), bridge.Frame{
			Event: bridge.EventJoin,
			Data:  json.RawMessage(`{"room":"room@example.net","nick":"me"}`),
		})
		if err != nil {
			t.Fatalf("error joining: %v", err)
		}
	}
	return b, c, s, rec
}

func TestEvents(t *testing.T) {
	b, _, _, _ := newBridge(t, false)
	events := b.Events()
	if len(events) != 18 {
		t.Errorf("wrong number of events: want=18, got=%d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i-1] >= events[i] {
			t.Errorf("events not sorted: %q before %q", events[i-1], events[i])
		}
	}
	for _, name := range events {
		if !b.Handles(name) {
			t.Errorf("expected bridge to handle %q", name)
		}
	}
	for name, want := range map[string]bool{
		bridge.EventJoin:         false,
		bridge.EventMessage:      false,
		bridge.EventCreate:       true,
		bridge.EventRoleGet:      true,
		bridge.EventReservedNick: true,
		"xmpp.muc.nope":          false,
	} {
		if q := b.Query(name); q != want {
			t.Errorf("wrong query value for %q: want=%t, got=%t", name, want, q)
		}
	}
	if b.Handles("xmpp.muc.nope") {
		t.Errorf("did not expect bridge to handle unknown event")
	}
	if err := b.Dispatch(context.Background(), bridge.Frame{Event: "xmpp.muc.nope"}); err == nil {
		t.Errorf("expected error dispatching unknown event")
	}
}

var dispatchTestCases = [...]struct {
	joined bool
	frame  bridge.Frame
	reply  string
	event  string
	id     string
	data   string
	sent   string
}{
	0: {
		frame: bridge.Frame{Event: bridge.EventRoomConfigGet},
		event: bridge.EventClientError,
		data:  `{"type":"modify","condition":"client-error","description":"Missing callback","request":{}}`,
	},
	1: {
		frame: bridge.Frame{Event: bridge.EventJoin, Data: json.RawMessage(`{"nick":"me"}`)},
		event: bridge.EventClientError,
		data:  `{"type":"modify","condition":"client-error","description":"Missing 'room' key","request":{"nick":"me"}}`,
	},
	2: {
		frame: bridge.Frame{Event: bridge.EventMessage, Data: json.RawMessage(`{"room":"room@example.net","content":"hi"}`)},
		event: bridge.EventClientError,
		data:  `{"type":"modify","condition":"client-error","description":"Not registered with this room","request":{"room":"room@example.net","content":"hi"}}`,
	},
	3: {
		joined: true,
		frame:  bridge.Frame{Event: bridge.EventMessage, Data: json.RawMessage(`{"room":"room@example.net"}`)},
		event:  bridge.EventClientError,
		data:   `{"type":"modify","condition":"client-error","description":"Message content or chat state not provided","request":{"room":"room@example.net"}}`,
	},
	4: {
		frame: bridge.Frame{Event: bridge.EventCreate, ID: "1", Data: json.RawMessage(`{}`)},
		event: bridge.EventCallback,
		id:    "1",
		data:  `{"error":{"type":"modify","condition":"client-error","description":"Missing 'room' key","request":{}}}`,
	},
	5: {
		frame: bridge.Frame{Event: bridge.EventCreate, ID: "2", Data: json.RawMessage(`{"room":"room@example.net"}`)},
		event: bridge.EventCallback,
		id:    "2",
		data:  `{"result":true}`,
		sent:  `<query xmlns="http://jabber.org/protocol/muc#owner">`,
	},
	6: {
		frame: bridge.Frame{Event: bridge.EventRoleSet, ID: "3", Data: json.RawMessage(`{"room":"room@example.net","nick":"bob","role":"none"}`)},
		reply: `<iq type="error"><error type="cancel"><not-allowed xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"/><text xmlns="urn:ietf:params:xml:ns:xmpp-stanzas">No</text></error></iq>`,
		event: bridge.EventCallback,
		id:    "3",
		data:  `{"error":{"type":"cancel","condition":"not-allowed","description":"No"}}`,
		sent:  `nick="bob"`,
	},
	7: {
		frame: bridge.Frame{Event: bridge.EventRoleGet, ID: "4", Data: json.RawMessage(`{"room":"room@example.net","role":"moderator"}`)},
		reply: `<iq type="result"><query xmlns="http://jabber.org/protocol/muc#admin"><item affiliation="owner" jid="fairyqueen@midsummer.lit/bower" nick="titania" role="moderator"/></query></iq>`,
		event: bridge.EventCallback,
		id:    "4",
		data:  `{"result":[{"affiliation":"owner","jid":{"user":"fairyqueen","domain":"midsummer.lit","resource":"bower"},"nick":"titania","role":"moderator"}]}`,
	},
	8: {
		frame: bridge.Frame{Event: bridge.EventRegisterInfo, ID: "5", Data: json.RawMessage(`{"room":"room@example.net"}`)},
		reply: `<iq type="result"><query xmlns="jabber:iq:register"><registered/><username>thirdwitch</username></query></iq>`,
		event: bridge.EventCallback,
		id:    "5",
		data:  `{"result":{"registered":true,"nick":"thirdwitch"}}`,
	},
	9: {
		frame: bridge.Frame{Event: bridge.EventRoomConfigSet, ID: "6", Data: json.RawMessage(`{"room":"room@example.net","form":[{"var":"muc#roomconfig_roomname","value":"Heath"}]}`)},
		event: bridge.EventCallback,
		id:    "6",
		data:  `{"result":true}`,
		sent:  `<value>Heath</value>`,
	},
	10: {
		frame: bridge.Frame{Event: bridge.EventRoomConfigSet, ID: "7", Data: json.RawMessage(`{"room":"room@example.net"}`)},
		event: bridge.EventCallback,
		id:    "7",
		data:  `{"error":{"type":"modify","condition":"client-error","description":"Missing 'form' key","request":{"room":"room@example.net"}}}`,
	},
	11: {
		frame: bridge.Frame{Event: bridge.EventReservedNick, ID: "8", Data: json.RawMessage(`{"room":"room@example.net"}`)},
		event: bridge.EventCallback,
		id:    "8",
		data:  `{"error":{"type":"cancel","condition":"item-not-found"}}`,
	},
	12: {
		frame: bridge.Frame{Event: bridge.EventDestroy, ID: "9", Data: json.RawMessage(`{"room":"room@example.net","alternative":"new@example.net","reason":"Moved"}`)},
		event: bridge.EventCallback,
		id:    "9",
		data:  `{"result":true}`,
		sent:  `<destroy jid="new@example.net"><reason>Moved</reason></destroy>`,
	},
	13: {
		frame: bridge.Frame{Event: bridge.EventRoomConfigSet, ID: "10", Data: json.RawMessage(`{"room":"room@example.net","form":[{"var":"muc#roomconfig_roomdesc","value":""},{"var":"muc#roomconfig_roomsecret"}]}`)},
		event: bridge.EventCallback,
		id:    "10",
		data:  `{"result":true}`,
		sent:  `<field var="muc#roomconfig_roomdesc"><value></value></field><field var="muc#roomconfig_roomsecret"></field>`,
	},
	14: {
		joined: true,
		frame:  bridge.Frame{Event: bridge.EventMessage, Data: json.RawMessage(`{"room":"room@example.net","state":"dancing"}`)},
		event:  bridge.EventClientError,
		data:   `{"type":"modify","condition":"client-error","description":"Unknown chat state","request":{"room":"room@example.net","state":"dancing"}}`,
	},
}

func TestDispatch(t *testing.T) {
	for i, tc := range dispatchTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			b, _, s, rec := newBridge(t, tc.joined)
			if tc.reply != "" {
				s.Reply(tc.reply)
			}
			before := len(s.Sent())
			err := b.Dispatch(context.Background(), tc.frame)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			f := rec.last(t)
			if f.Event != tc.event {
				t.Errorf("wrong event: want=%q, got=%q", tc.event, f.Event)
			}
			if f.ID != tc.id {
				t.Errorf("wrong id: want=%q, got=%q", tc.id, f.ID)
			}
			if string(f.Data) != tc.data {
				t.Errorf("wrong data:\nwant=%s,\n got=%s", tc.data, f.Data)
			}
			sent := s.Sent()[before:]
			switch {
			case tc.sent == "" && tc.event == bridge.EventClientError:
				if len(sent) != 0 {
					t.Errorf("nothing should be sent on a client error, got %v", sent)
				}
			case tc.sent != "":
				if len(sent) != 1 || !strings.Contains(sent[0], tc.sent) {
					t.Errorf("expected sent stanza to contain %q, got %v", tc.sent, sent)
				}
			}
		})
	}
}

var eventTestCases = [...]struct {
	in    string
	event string
	data  string
}{
	0: {
		in:    `<message type="groupchat" from="room@example.net/alice"><body>hi</body></message>`,
		event: bridge.EventMessage,
		data:  `{"room":"room@example.net","nick":"alice","private":false,"content":"hi","format":"plain"}`,
	},
	1: {
		in:    `<message type="groupchat" from="room@example.net/alice"><subject/></message>`,
		event: bridge.EventSubject,
		data:  `{"room":"room@example.net","nick":"alice","subject":false}`,
	},
	2: {
		in:    `<message type="groupchat" from="room@example.net/alice"><subject>Fire</subject></message>`,
		event: bridge.EventSubject,
		data:  `{"room":"room@example.net","nick":"alice","subject":"Fire"}`,
	},
	3: {
		in:    `<presence from="room@example.net/bob"><x xmlns="http://jabber.org/protocol/muc#user"><item affiliation="member" role="participant" jid="bob@example.org/phone"/><status code="110"/></x></presence>`,
		event: bridge.EventRoster,
		data:  `{"room":"room@example.net","nick":"bob","status":[110],"affiliation":"member","role":"participant","jid":{"user":"bob","domain":"example.org","resource":"phone"}}`,
	},
	4: {
		in:    `<presence type="unavailable" from="room@example.net/bob"></presence>`,
		event: bridge.EventRoster,
		data:  `{"room":"room@example.net","nick":"bob","status":"unavailable"}`,
	},
	5: {
		in:    `<presence type="unavailable" from="room@example.net/me"><x xmlns="http://jabber.org/protocol/muc#user"><destroy jid="new@example.net"><reason>Moved</reason></destroy></x></presence>`,
		event: bridge.EventDestroy,
		data:  `{"room":"room@example.net","nick":"me","alternative":"new@example.net","reason":"Moved"}`,
	},
	6: {
		in:    `<message from="room@example.net"><x xmlns="http://jabber.org/protocol/muc#user"><status code="104"/></x></message>`,
		event: bridge.EventRoomConfig,
		data:  `{"room":"room@example.net","status":[104]}`,
	},
	7: {
		in:    `<message from="other@example.net" to="me@example.com"><x xmlns="http://jabber.org/protocol/muc#user"><invite from="witch1@witches.lit"><reason>Come</reason></invite></x></message>`,
		event: bridge.EventInvite,
		data:  `{"room":"me@example.com","from":{"user":"witch1","domain":"witches.lit"},"sender":{"user":"other","domain":"example.net"},"reason":"Come"}`,
	},
	8: {
		in:    `<message type="error" from="room@example.net"><body>oops</body><error type="modify"><bad-request xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"/></error></message>`,
		event: bridge.EventError,
		data:  `{"type":"message","error":{"type":"modify","condition":"bad-request"},"room":"room@example.net","content":"oops"}`,
	},
}

func TestEmitEvents(t *testing.T) {
	for i, tc := range eventTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, c, _, rec := newBridge(t, true)
			toks, start := xmpptest.Decode(tc.in)
			if err := c.HandleXMPP(toks, start); err != nil {
				t.Fatalf("error handling stanza: %v", err)
			}
			f := rec.last(t)
			if f.Event != tc.event {
				t.Errorf("wrong event: want=%q, got=%q", tc.event, f.Event)
			}
			if string(f.Data) != tc.data {
				t.Errorf("wrong data:\nwant=%s,\n got=%s", tc.data, f.Data)
			}
		})
	}
}
