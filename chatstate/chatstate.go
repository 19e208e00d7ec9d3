// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package chatstate implements chat state notifications.
package chatstate // import "mellium.im/mucbridge/chatstate"

import (
	"encoding/xml"

	"mellium.im/xmlstream"
)

// NS is the namespace used by chat state notifications.
const NS = `http://jabber.org/protocol/chatstates`

// State is the state of a user in a conversation.
// It is encoded as the local name of an element in the chat states namespace.
type State string

// A list of chat states.
const (
	Active    State = "active"
	Composing State = "composing"
	Paused    State = "paused"
	Inactive  State = "inactive"
	Gone      State = "gone"
)

// Known reports whether s is one of the states defined in this package.
func (s State) Known() bool {
	switch s {
	case Active, Composing, Paused, Inactive, Gone:
		return true
	}
	return false
}

// TokenReader satisfies the xmlstream.Marshaler interface.
// The empty state encodes to nothing.
func (s State) TokenReader() xml.TokenReader {
	if s == "" {
		return nil
	}
	return xmlstream.Wrap(
		nil,
		xml.StartElement{Name: xml.Name{Space: NS, Local: string(s)}},
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (s State) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	if s == "" {
		return 0, nil
	}
	return xmlstream.Copy(w, s.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (s State) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := s.WriteXML(e)
	return err
}

// FromName returns the state encoded by an element name and whether the name
// was in the chat states namespace.
func FromName(name xml.Name) (State, bool) {
	if name.Space != NS || name.Local == "" {
		return "", false
	}
	return State(name.Local), true
}
