// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/rs/zerolog"
	"mellium.im/mucbridge/internal/tokenq"
	"mellium.im/xmlstream"
	"mellium.im/xmpp"
	"mellium.im/xmpp/jid"
)

// Session is the part of an *xmpp.Session used by the client.
// SendIQ is expected to register the IQ's id before the IQ is transmitted and
// to return the single reply with the same id.
type Session interface {
	Send(ctx context.Context, r xml.TokenReader) error
	SendIQ(ctx context.Context, r xml.TokenReader) (xmlstream.TokenReadCloser, error)
}

var _ Session = (*xmpp.Session)(nil)

// Client tracks the rooms joined on a session and translates between MUC
// stanzas and events.
type Client struct {
	// HandleEvent is called for every event decoded from an owned stanza.
	// It is called on the goroutine that is serving the session and must not
	// call methods that wait for a reply.
	HandleEvent func(Event)

	// Logger receives debug output about dropped stanzas.
	Logger zerolog.Logger

	rooms   Rooms
	session Session
}

// NewClient returns a client that sends requests over s.
func NewClient(s Session) *Client {
	return &Client{
		Logger:  zerolog.Nop(),
		session: s,
	}
}

// Joined reports whether room is in the membership set.
func (c *Client) Joined(room jid.JID) bool {
	return c.rooms.Contains(room)
}

// Rooms returns the rooms that the client has joined in the order they were
// joined.
// A room that was joined more than once without leaving is listed once for
// each join.
func (c *Client) Rooms() []jid.JID {
	return c.rooms.List()
}

// Handler returns an xmpp.Handler that handles owned stanzas and passes
// everything else to next.
// If next is nil, stanzas that are not owned are dropped.
func (c *Client) Handler(next xmpp.Handler) xmpp.Handler {
	return xmpp.HandlerFunc(func(t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
		return c.handle(t, start, next)
	})
}

// HandleXMPP satisfies xmpp.Handler.
// Stanzas that are not owned by the client are ignored.
func (c *Client) HandleXMPP(t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	return c.handle(t, start, nil)
}

func (c *Client) handle(t xmlstream.TokenReadEncoder, start *xml.StartElement, next xmpp.Handler) error {
	if start.Name.Local != "message" && start.Name.Local != "presence" {
		return forward(next, t, start)
	}

	buf, err := bufferStanza(t, start)
	if err != nil {
		return err
	}
	var s Stanza
	err = xml.NewTokenDecoder(buf.reader(true)).Decode(&s)
	if err != nil {
		c.Logger.Debug().Err(err).Str("stanza", start.Name.Local).Msg("could not decode stanza")
		return forward(next, replay{TokenReadEncoder: t, toks: buf.reader(false)}, start)
	}
	if !c.Handles(&s) {
		return forward(next, replay{TokenReadEncoder: t, toks: buf.reader(false)}, start)
	}

	e, err := c.Decode(&s)
	if err != nil {
		c.Logger.Debug().Err(err).Str("from", s.From.String()).Msg("dropping stanza")
		return nil
	}
	c.Logger.Debug().Str("room", e.RoomAddr().String()).Type("event", e).Msg("decoded event")
	if c.HandleEvent != nil {
		c.HandleEvent(e)
	}
	return nil
}

func forward(next xmpp.Handler, t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	if next == nil {
		return nil
	}
	return next.HandleXMPP(t, start)
}

// stanzaBuffer holds a copy of a stanza so that it can be read again by the
// next handler after it has been decoded.
type stanzaBuffer struct {
	start xml.StartElement
	toks  []xml.Token

	// closed is false if the stream ended before the end element, in which case
	// one is added for decoding but not replayed.
	closed bool
}

func bufferStanza(r xml.TokenReader, start *xml.StartElement) (*stanzaBuffer, error) {
	buf := &stanzaBuffer{start: start.Copy()}
	depth := 1
	for depth > 0 {
		tok, err := r.Token()
		if tok != nil {
			switch tok.(type) {
			case xml.StartElement:
				depth++
			case xml.EndElement:
				depth--
			}
			buf.toks = append(buf.toks, xml.CopyToken(tok))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	buf.closed = depth == 0
	return buf, nil
}

// reader returns the buffered tokens, optionally preceded by the start
// element.
func (b *stanzaBuffer) reader(withStart bool) *tokenq.Queue {
	q := make(tokenq.Queue, 0, len(b.toks)+2)
	if withStart {
		q = append(q, b.start)
	}
	q = append(q, b.toks...)
	if withStart && !b.closed {
		q = append(q, b.start.End())
	}
	return &q
}

// replay reads buffered tokens while still encoding to the underlying stream.
type replay struct {
	xmlstream.TokenReadEncoder
	toks *tokenq.Queue
}

func (r replay) Token() (xml.Token, error) {
	return r.toks.Token()
}
