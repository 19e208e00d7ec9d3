// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"encoding/xml"
	"io"

	"mellium.im/xmpp/stanza"
)

// Descriptions used by ClientError.
const (
	ErrMissingRoom        = "Missing 'room' key"
	ErrMissingNick        = "Missing 'nick' key"
	ErrMissingRole        = "Missing 'role' key"
	ErrMissingJID         = "Missing 'jid' key"
	ErrMissingAffiliation = "Missing 'affiliation' key"
	ErrMissingForm        = "Missing 'form' key"
	ErrMissingTo          = "Missing 'to' key"
	ErrMissingCallback    = "Missing callback"
	ErrNotJoined          = "Not registered with this room"
	ErrNoContent          = "Message content or chat state not provided"
	ErrBadForm            = "Badly formatted data form"
	ErrBadXHTML           = "Can not parse XHTML content"
	ErrBadState           = "Unknown chat state"
)

// ClientErrorCondition is the condition reported for local validation
// failures.
const ClientErrorCondition stanza.Condition = "client-error"

// ClientError is returned when a request fails validation before anything is
// sent.
type ClientError struct {
	Description string

	// Request is the request that failed validation.
	Request interface{}
}

// Error satisfies the error interface.
func (e *ClientError) Error() string {
	return "muc: " + e.Description
}

// StanzaError returns the error in the same shape as errors reported by the
// server.
// Its type is always modify and its condition is ClientErrorCondition.
func (e *ClientError) StanzaError() stanza.Error {
	return stanza.Error{
		Type:      stanza.Modify,
		Condition: ClientErrorCondition,
		Text:      map[string]string{"": e.Description},
	}
}

func clientErr(description string, req interface{}) error {
	return &ClientError{Description: description, Request: req}
}

// NormalizeError decodes the first error element that is a direct child of
// the current element.
// The start token of the stanza must already have been consumed.
// If the stanza has no error element, or the error element cannot be decoded,
// an undefined-condition error of type cancel is returned.
func NormalizeError(r xml.TokenReader) (stanza.Error, error) {
	undefined := stanza.Error{
		Type:      stanza.Cancel,
		Condition: stanza.UndefinedCondition,
	}
	tr := &trackReader{r: r}
	se, err := stanza.UnmarshalError(tr)
	switch {
	case tr.err != nil:
		return undefined, tr.err
	case err != nil:
		return undefined, nil
	}
	return se, nil
}

// trackReader remembers the first read error other than io.EOF so that it can
// be told apart from a missing error payload.
// Tokens between the direct children of the stanza that are not elements are
// dropped.
type trackReader struct {
	r     xml.TokenReader
	depth int
	err   error
}

func (t *trackReader) Token() (xml.Token, error) {
	for {
		tok, err := t.r.Token()
		if err != nil {
			if err != io.EOF && t.err == nil {
				t.err = err
			}
			return tok, err
		}
		switch tok.(type) {
		case xml.StartElement:
			t.depth++
		case xml.EndElement:
			t.depth--
		default:
			if t.depth == 0 {
				continue
			}
		}
		return tok, nil
	}
}
