// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpptest

import (
	"encoding/xml"
	"io"
	"strings"

	"mellium.im/mucbridge/internal/tokenq"
	"mellium.im/xmlstream"
)

// Tokens is a slice of XML tokens that can also act as an xml.TokenReader by
// popping tokens from itself.
// It satisfies xmlstream.TokenReadEncoder so it can be passed to handlers;
// anything encoded to it is written to Out.
type Tokens struct {
	Toks tokenq.Queue
	Out  []xml.Token
}

// Decode returns the tokens in s after the first start element along with
// that start element, the way an xmpp.Session passes a stanza to a handler.
// It panics if s is not well formed.
func Decode(s string) (*Tokens, *xml.StartElement) {
	d := xml.NewDecoder(strings.NewReader(s))
	var toks []xml.Token
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}
		toks = append(toks, xml.CopyToken(tok))
	}
	for i, tok := range toks {
		if start, ok := tok.(xml.StartElement); ok {
			return &Tokens{Toks: toks[i+1:]}, &start
		}
	}
	panic("xmpptest: no start element in " + s)
}

// Token pops the next token.
func (r *Tokens) Token() (xml.Token, error) {
	return r.Toks.Token()
}

// EncodeToken records t.
func (r *Tokens) EncodeToken(t xml.Token) error {
	r.Out = append(r.Out, xml.CopyToken(t))
	return nil
}

// Encode records the tokens of v if it is an xml.TokenReader.
func (r *Tokens) Encode(v interface{}) error {
	tr, ok := v.(xml.TokenReader)
	if !ok {
		return nil
	}
	_, err := xmlstream.Copy(r, tr)
	return err
}

// EncodeElement is like Encode.
func (r *Tokens) EncodeElement(v interface{}, _ xml.StartElement) error {
	return r.Encode(v)
}

var _ xmlstream.TokenReadEncoder = (*Tokens)(nil)
