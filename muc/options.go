// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"encoding/xml"
	"math"
	"strconv"
	"time"

	"mellium.im/xmlstream"
)

// history limits the discussion history sent by the room on join.
// Unset limits are nil.
type history struct {
	maxStanzas *uint64
	maxChars   *uint64
	seconds    *uint64
	since      *time.Time
}

func (h history) attrs() []xml.Attr {
	attrs := make([]xml.Attr, 0, 4)
	appendUint := func(local string, v *uint64) {
		if v != nil {
			attrs = append(attrs, xml.Attr{
				Name:  xml.Name{Local: local},
				Value: strconv.FormatUint(*v, 10),
			})
		}
	}
	appendUint("maxchars", h.maxChars)
	appendUint("maxstanzas", h.maxStanzas)
	appendUint("seconds", h.seconds)
	if h.since != nil {
		attrs = append(attrs, xml.Attr{
			Name:  xml.Name{Local: "since"},
			Value: h.since.UTC().Format(time.RFC3339Nano),
		})
	}
	return attrs
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (h history) TokenReader() xml.TokenReader {
	attrs := h.attrs()
	if len(attrs) == 0 {
		return nil
	}
	return xmlstream.Wrap(
		nil,
		xml.StartElement{Name: xml.Name{Local: "history"}, Attr: attrs},
	)
}

type joinConfig struct {
	history  history
	password string
}

// TokenReader satisfies the xmlstream.Marshaler interface.
// It returns the MUC extension element sent in the join presence.
func (c joinConfig) TokenReader() xml.TokenReader {
	return xmlstream.Wrap(
		xmlstream.MultiReader(
			c.history.TokenReader(),
			optionalText(c.password, xml.Name{Local: "password"}),
		),
		xml.StartElement{Name: xml.Name{Space: NS, Local: "x"}},
	)
}

// optionalText wraps s in an element with the given name unless s is empty.
func optionalText(s string, name xml.Name) xml.TokenReader {
	if s == "" {
		return nil
	}
	return xmlstream.Wrap(
		xmlstream.Token(xml.CharData(s)),
		xml.StartElement{Name: name},
	)
}

// Option is used to configure joining a room.
type Option func(*joinConfig)

// MaxHistory configures the maximum number of messages that will be sent to the
// client when joining the room.
func MaxHistory(messages uint64) Option {
	return func(c *joinConfig) {
		c.history.maxStanzas = &messages
	}
}

// MaxBytes configures the maximum number of characters of XML that will be
// sent to the client when joining the room.
func MaxBytes(b uint64) Option {
	return func(c *joinConfig) {
		c.history.maxChars = &b
	}
}

// Duration configures the room to send history received within a window of
// time.
func Duration(d time.Duration) Option {
	return func(c *joinConfig) {
		s := uint64(math.Abs(math.Round(d.Seconds())))
		c.history.seconds = &s
	}
}

// Since configures the room to send history received since the provided time.
func Since(t time.Time) Option {
	return func(c *joinConfig) {
		c.history.since = &t
	}
}

// Password is used to join password protected rooms.
func Password(p string) Option {
	return func(c *joinConfig) {
		c.password = p
	}
}
