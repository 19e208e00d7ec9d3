// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xhtmlim implements XHTML-IM formatted message bodies.
//
// Markup is carried as a string of XHTML that would appear inside the body
// element, for example:
//
//	<p>Are you of <strong>woman </strong>born?</p>
package xhtmlim // import "mellium.im/mucbridge/xhtmlim"

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"mellium.im/mucbridge/internal/tokenq"
	"mellium.im/xmlstream"
)

// Namespaces used by XHTML-IM.
const (
	NS      = `http://jabber.org/protocol/xhtml-im`
	NSXHTML = `http://www.w3.org/1999/xhtml`
)

const nsXML = `http://www.w3.org/XML/1998/namespace`

// HTML is the wrapper element of an XHTML-IM payload.
type HTML struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/xhtml-im html"`
	Bodies  []Body   `xml:"http://www.w3.org/1999/xhtml body"`
}

// Body returns the body without a language tag, or the first body if they
// are all tagged.
// If there are no bodies ok is false.
func (h HTML) Body() (b Body, ok bool) {
	for _, b := range h.Bodies {
		if b.Lang == "" {
			return b, true
		}
	}
	if len(h.Bodies) > 0 {
		return h.Bodies[0], true
	}
	return Body{}, false
}

// Body is an XHTML body element.
// Inner is the markup of its children with namespace declarations removed.
type Body struct {
	Lang  string
	Inner string
}

// UnmarshalXML implements xml.Unmarshaler.
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Space == nsXML && a.Name.Local == "lang" {
			b.Lang = a.Value
		}
	}

	var buf strings.Builder
	e := xml.NewEncoder(&buf)
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			tok = stripStart(t)
		case xml.EndElement:
			if depth == 0 {
				if err := e.Flush(); err != nil {
					return err
				}
				b.Inner = buf.String()
				return nil
			}
			depth--
			tok = xml.EndElement{Name: xml.Name{Local: t.Name.Local}}
		case xml.ProcInst, xml.Directive:
			continue
		}
		if err := e.EncodeToken(tok); err != nil {
			return err
		}
	}
}

// Message returns the payload of a message carrying the XHTML content: a plain
// text body for clients that do not support XHTML-IM followed by the html
// element.
// If content is not well formed XML an error is returned.
func Message(content string) (xml.TokenReader, error) {
	inner, err := parseInner(content)
	if err != nil {
		return nil, err
	}
	return xmlstream.MultiReader(
		xmlstream.Wrap(
			xmlstream.Token(xml.CharData(PlainText(content))),
			xml.StartElement{Name: xml.Name{Local: "body"}},
		),
		xmlstream.Wrap(
			xmlstream.Wrap(
				inner,
				xml.StartElement{Name: xml.Name{Space: NSXHTML, Local: "body"}},
			),
			xml.StartElement{Name: xml.Name{Space: NS, Local: "html"}},
		),
	), nil
}

// PlainText returns the text of the XHTML content with all markup removed.
// Line breaks are kept as newlines.
func PlainText(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}

var errTrailing = errors.New("xhtmlim: unexpected content after body")

func parseInner(content string) (xml.TokenReader, error) {
	d := xml.NewDecoder(strings.NewReader(`<body xmlns="` + NSXHTML + `">` + content + `</body>`))
	// Pop the wrapping body.
	if _, err := d.Token(); err != nil {
		return nil, err
	}

	var toks tokenq.Queue
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			toks = append(toks, stripStart(t))
			continue
		case xml.EndElement:
			if depth == 0 {
				if _, err := d.Token(); err != io.EOF {
					return nil, errTrailing
				}
				return &toks, nil
			}
			depth--
			toks = append(toks, xml.EndElement{Name: xml.Name{Local: t.Name.Local}})
			continue
		case xml.ProcInst, xml.Directive:
			continue
		}
		toks = append(toks, xml.CopyToken(tok))
	}
}

// stripStart removes namespaces from an element so that it inherits the
// namespace of the enclosing body when it is encoded again.
func stripStart(t xml.StartElement) xml.StartElement {
	attrs := make([]xml.Attr, 0, len(t.Attr))
	for _, a := range t.Attr {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
		case a.Name.Space == "xmlns":
		case a.Name.Space != "" && a.Name.Space != nsXML:
		default:
			attrs = append(attrs, a)
		}
	}
	return xml.StartElement{Name: xml.Name{Local: t.Name.Local}, Attr: attrs}
}
