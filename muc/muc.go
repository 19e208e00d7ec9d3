// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package muc implements the client side of Multi-User Chat.
//
// The package maps the stanzas exchanged with a Multi-User Chat (MUC) service
// onto a small set of events and request types.
// Inbound message and presence stanzas from rooms that the client has joined
// (and mediated invitations from any room) are decoded into an Event and passed
// to the HandleEvent callback.
// Everything else is passed on to the next handler untouched.
// It is normally installed in front of the handler given to the session:
//
//	mucClient := muc.NewClient(session)
//	mucClient.HandleEvent = func(e muc.Event) { … }
//	go session.Serve(mucClient.Handler(next))
//
// Outbound operations are methods on Client that take a request value.
// Requests are validated before anything is written to the session and invalid
// requests are reported as a *ClientError.
// Operations that expect a reply from the room block until the reply arrives or
// the context is canceled, so they must not be called from HandleEvent.
//
//	err := mucClient.Join(ctx, muc.JoinRequest{
//	    Room: jid.MustParse("fire@coven.witches.lit"),
//	    Nick: "caldron",
//	}, muc.MaxHistory(20))
package muc // import "mellium.im/mucbridge/muc"

// Various namespaces used by this package, provided as a convenience.
const (
	NS      = `http://jabber.org/protocol/muc`
	NSUser  = `http://jabber.org/protocol/muc#user`
	NSOwner = `http://jabber.org/protocol/muc#owner`
	NSAdmin = `http://jabber.org/protocol/muc#admin`

	// NSConf is the legacy conference namespace, now only used for direct MUC
	// invitations and backwards compatibility.
	NSConf = `jabber:x:conference`

	// Form types used when submitting data forms to a room.
	NSRoomConfig = `http://jabber.org/protocol/muc#roomconfig`
	NSRequest    = `http://jabber.org/protocol/muc#request`
	NSRegister   = `http://jabber.org/protocol/muc#register`

	// NSIQRegister is the in-band registration namespace used to register a
	// nickname with a room.
	NSIQRegister = `jabber:iq:register`

	nsDiscoInfo = `http://jabber.org/protocol/disco#info`

	// ReservedNickNode is the service discovery node used to look up the
	// nickname reserved for the user in a room.
	ReservedNickNode = `x-roomuser-item`
)
