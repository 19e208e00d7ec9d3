// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xmpptest provides utilities for XMPP testing.
package xmpptest // import "mellium.im/mucbridge/internal/xmpptest"

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"sync"

	"mellium.im/xmlstream"
)

// EmptyResult is the reply returned by SendIQ when no reply has been queued.
const EmptyResult = `<iq type="result"></iq>`

// Session records everything sent over it and replies to IQs with canned
// responses.
// The zero value is ready to use.
type Session struct {
	// Err, if set, is returned by Send and SendIQ and nothing is recorded.
	Err error

	mu      sync.Mutex
	sent    []string
	replies []string
	closed  int
}

// Reply queues raw XML to be returned by calls to SendIQ in order.
// Each reply should be a complete IQ.
func (s *Session) Reply(iq ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, iq...)
}

// Send encodes r and records the result.
func (s *Session) Send(_ context.Context, r xml.TokenReader) error {
	if s.Err != nil {
		return s.Err
	}
	out, err := encode(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, out)
	return nil
}

// SendIQ records r like Send and returns the next queued reply, or
// EmptyResult if the queue is empty.
func (s *Session) SendIQ(ctx context.Context, r xml.TokenReader) (xmlstream.TokenReadCloser, error) {
	err := s.Send(ctx, r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	reply := EmptyResult
	if len(s.replies) > 0 {
		reply, s.replies = s.replies[0], s.replies[1:]
	}
	return replyCloser{
		TokenReader: xml.NewDecoder(strings.NewReader(reply)),
		s:           s,
	}, nil
}

// Sent returns the stanzas sent so far as XML.
func (s *Session) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// Closed returns the number of IQ replies that have been closed.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type replyCloser struct {
	xml.TokenReader
	s *Session
}

func (r replyCloser) Close() error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.closed++
	return nil
}

func encode(r xml.TokenReader) (string, error) {
	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	_, err := xmlstream.Copy(e, r)
	if err != nil {
		return "", err
	}
	err = e.Flush()
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
