// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"mellium.im/mucbridge/chatstate"
	"mellium.im/mucbridge/muc"
	"mellium.im/xmpp/jid"
)

var commandTestCases = [...]struct {
	joined   bool
	do       func(context.Context, *muc.Client) error
	err      string
	to       string
	typ      string
	inner    string
	contains []string
}{
	0: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Join(ctx, muc.JoinRequest{Room: testRoom, Nick: "me"})
		},
		to:    "room@example.net/me",
		inner: `<x xmlns="http://jabber.org/protocol/muc"></x>`,
	},
	1: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Join(ctx, muc.JoinRequest{Room: testRoom, Nick: "me"}, muc.MaxHistory(20), muc.Password("pw"))
		},
		to:    "room@example.net/me",
		inner: `<x xmlns="http://jabber.org/protocol/muc"><history maxstanzas="20"></history><password>pw</password></x>`,
	},
	2: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Join(ctx, muc.JoinRequest{Nick: "me"})
		},
		err: muc.ErrMissingRoom,
	},
	3: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Join(ctx, muc.JoinRequest{Room: testRoom})
		},
		err: muc.ErrMissingNick,
	},
	4: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Leave(ctx, muc.LeaveRequest{Room: testRoom, Status: "bye"})
		},
		to:    "room@example.net",
		typ:   "unavailable",
		inner: `<status>bye</status>`,
	},
	5: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Leave(ctx, muc.LeaveRequest{Room: testRoom})
		},
		err: muc.ErrNotJoined,
	},
	6: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{Room: testRoom, Content: "hello"})
		},
		to:    "room@example.net",
		typ:   "groupchat",
		inner: `<body>hello</body>`,
	},
	7: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{Room: testRoom, To: "alice", Content: "psst"})
		},
		to:    "room@example.net/alice",
		typ:   "chat",
		inner: `<body>psst</body>`,
	},
	8: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{Room: testRoom, State: chatstate.Composing})
		},
		to:    "room@example.net",
		typ:   "groupchat",
		inner: `<composing xmlns="http://jabber.org/protocol/chatstates"></composing>`,
	},
	9: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{
				Room:    testRoom,
				Content: `<p>hi <em>there</em></p>`,
				Format:  muc.FormatXHTML,
				State:   chatstate.Active,
			})
		},
		to:    "room@example.net",
		typ:   "groupchat",
		inner: `<body>hi there</body><html xmlns="http://jabber.org/protocol/xhtml-im"><body xmlns="http://www.w3.org/1999/xhtml"><p>hi <em>there</em></p></body></html><active xmlns="http://jabber.org/protocol/chatstates"></active>`,
	},
	10: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{Room: testRoom})
		},
		err: muc.ErrNoContent,
	},
	11: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{Room: testRoom, Content: "hello"})
		},
		err: muc.ErrNotJoined,
	},
	12: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{Room: testRoom, Content: "<p>oops", Format: muc.FormatXHTML})
		},
		err: muc.ErrBadXHTML,
	},
	13: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SetSubject(ctx, muc.SubjectRequest{Room: testRoom, Subject: "Fire"})
		},
		to:    "room@example.net",
		typ:   "groupchat",
		inner: `<subject>Fire</subject>`,
	},
	14: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SetSubject(ctx, muc.SubjectRequest{Room: testRoom})
		},
		to:    "room@example.net",
		typ:   "groupchat",
		inner: `<subject></subject>`,
	},
	15: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Invite(ctx, muc.InviteRequest{Room: testRoom, To: bob, Reason: "r", Password: "pw"})
		},
		to:    "room@example.net",
		typ:   "normal",
		inner: `<x xmlns="http://jabber.org/protocol/muc#user"><invite to="bob@example.org/phone"><reason>r</reason></invite><password>pw</password></x>`,
	},
	16: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Invite(ctx, muc.InviteRequest{Room: testRoom, To: bob, Continue: true, Thread: "t1"})
		},
		to:    "room@example.net",
		typ:   "normal",
		inner: `<x xmlns="http://jabber.org/protocol/muc#user"><invite to="bob@example.org/phone"><continue thread="t1"></continue></invite></x>`,
	},
	17: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Invite(ctx, muc.InviteRequest{Room: testRoom, To: bob, Reason: "r", Direct: true})
		},
		to:    "bob@example.org/phone",
		typ:   "normal",
		inner: `<x xmlns="jabber:x:conference" jid="room@example.net" reason="r"></x>`,
	},
	18: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.Invite(ctx, muc.InviteRequest{Room: testRoom})
		},
		err: muc.ErrMissingTo,
	},
	19: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.RequestVoice(ctx, muc.VoiceRequest{Room: testRoom, Role: muc.RoleParticipant})
		},
		to:       "room@example.net",
		typ:      "normal",
		contains: []string{`xmlns="jabber:x:data"`, `type="submit"`, muc.NSRequest, `var="muc#role"`, "participant"},
	},
	20: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.RequestVoice(ctx, muc.VoiceRequest{Room: testRoom})
		},
		err: muc.ErrMissingRole,
	},
	21: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.ChangeNick(ctx, muc.NickRequest{Room: testRoom, Nick: "newme"})
		},
		to: "room@example.net/newme",
	},
	22: {
		do: func(ctx context.Context, c *muc.Client) error {
			return c.ChangeNick(ctx, muc.NickRequest{Room: testRoom, Nick: "newme"})
		},
		err: muc.ErrNotJoined,
	},
	23: {
		joined: true,
		do: func(ctx context.Context, c *muc.Client) error {
			return c.SendMessage(ctx, muc.MessageRequest{Room: testRoom, State: "dancing"})
		},
		err: muc.ErrBadState,
	},
}

func TestCommands(t *testing.T) {
	for i, tc := range commandTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var rooms []string
			if tc.joined {
				rooms = append(rooms, testRoom.String())
			}
			c, s := newClient(t, rooms...)
			before := len(s.Sent())

			err := tc.do(context.Background(), c)
			if tc.err != "" {
				var clientErr *muc.ClientError
				if !errors.As(err, &clientErr) {
					t.Fatalf("expected client error %q, got %v", tc.err, err)
				}
				if clientErr.Description != tc.err {
					t.Errorf("wrong description: want=%q, got=%q", tc.err, clientErr.Description)
				}
				if n := len(s.Sent()); n != before {
					t.Errorf("nothing should be sent on a client error, got %d stanzas", n-before)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st := lastSent(t, s)
			if len(st.ID) != 16 {
				t.Errorf("expected a generated id, got %q", st.ID)
			}
			if st.To != tc.to {
				t.Errorf("wrong to: want=%q, got=%q", tc.to, st.To)
			}
			if st.Type != tc.typ {
				t.Errorf("wrong type: want=%q, got=%q", tc.typ, st.Type)
			}
			if tc.contains == nil && st.Inner != tc.inner {
				t.Errorf("wrong payload:\nwant=%s,\n got=%s", tc.inner, st.Inner)
			}
			for _, want := range tc.contains {
				if !strings.Contains(st.Inner, want) {
					t.Errorf("expected payload to contain %q, got %s", want, st.Inner)
				}
			}
		})
	}
}

func TestJoinLeaveMembership(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()
	other := jid.MustParse("other@example.net")
	for _, room := range []jid.JID{testRoom, other, testRoom} {
		err := c.Join(ctx, muc.JoinRequest{Room: room, Nick: "me"})
		if err != nil {
			t.Fatalf("error joining: %v", err)
		}
	}
	if n := len(c.Rooms()); n != 3 {
		t.Fatalf("wrong number of rooms: want=3, got=%d", n)
	}
	err := c.Leave(ctx, muc.LeaveRequest{Room: testRoom})
	if err != nil {
		t.Fatalf("error leaving: %v", err)
	}
	if !c.Joined(testRoom) {
		t.Errorf("room joined twice should remain after one leave")
	}
	if rooms := c.Rooms(); !rooms[0].Equal(other) || !rooms[1].Equal(testRoom) {
		t.Errorf("wrong rooms after leave: %v", rooms)
	}
}

func TestSendFailureKeepsMembership(t *testing.T) {
	errSend := errors.New("send failed")
	c, s := newClient(t, testRoom.String())
	s.Err = errSend
	err := c.Leave(context.Background(), muc.LeaveRequest{Room: testRoom})
	if !errors.Is(err, errSend) {
		t.Errorf("wrong error: want=%v, got=%v", errSend, err)
	}
	if !c.Joined(testRoom) {
		t.Errorf("room should still be joined after a failed leave")
	}
	err = c.Join(context.Background(), muc.JoinRequest{Room: jid.MustParse("other@example.net"), Nick: "me"})
	if !errors.Is(err, errSend) {
		t.Errorf("wrong error: want=%v, got=%v", errSend, err)
	}
	if c.Joined(jid.MustParse("other@example.net")) {
		t.Errorf("room should not be joined after a failed join")
	}
}
