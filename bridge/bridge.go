// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package bridge exposes a muc.Client as named JSON events.
//
// A host (for example a websocket server) reads frames from its users and
// passes them to Dispatch.
// Events decoded from the XMPP session, replies to requests, and errors are
// written back to the host as frames through an Emitter.
//
// Requests that wait for a reply from the room (creating or configuring a
// room, listing roles, registering, and so on) must carry a callback ID.
// Their result is emitted as a frame with the event "callback" and the same
// ID.
// Requests that only send a stanza report invalid input with an
// "xmpp.error.client" event.
package bridge // import "mellium.im/mucbridge/bridge"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"mellium.im/mucbridge/muc"
	"mellium.im/xmpp/stanza"
)

// Names of events emitted by the bridge that are not MUC events.
const (
	EventCallback    = "callback"
	EventClientError = "xmpp.error.client"
)

// Frame is a single named event with a JSON payload.
// ID is set on requests that expect a callback and on the callback frame
// answering them.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    string          `json:"id,omitempty"`
}

// Emitter writes frames to the host.
type Emitter interface {
	Emit(ctx context.Context, f Frame) error
}

// EmitterFunc is an Emitter implemented as a function.
type EmitterFunc func(ctx context.Context, f Frame) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, frame Frame) error {
	return f(ctx, frame)
}

// Option configures a Bridge.
type Option func(*Bridge)

// Logger sets the logger used to report emit failures and dropped frames.
func Logger(l zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// Bridge translates between frames and a muc.Client.
type Bridge struct {
	client   *muc.Client
	out      Emitter
	logger   zerolog.Logger
	handlers map[string]handler
}

// New returns a bridge that sends requests with c and emits frames to out.
// It sets c.HandleEvent so that events decoded by the client are emitted.
func New(c *muc.Client, out Emitter, opts ...Option) *Bridge {
	b := &Bridge{
		client:   c,
		out:      out,
		logger:   zerolog.Nop(),
		handlers: handlers(),
	}
	for _, o := range opts {
		o(b)
	}
	c.HandleEvent = b.handleEvent
	return b
}

// Handles reports whether the bridge has a handler for the named event.
func (b *Bridge) Handles(event string) bool {
	_, ok := b.handlers[event]
	return ok
}

// Query reports whether the named event waits for a reply from the room and
// answers with a callback frame.
func (b *Bridge) Query(event string) bool {
	return b.handlers[event].query
}

// Events returns the names of the events handled by the bridge in sorted
// order.
func (b *Bridge) Events() []string {
	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch handles a single frame from the host.
// Invalid requests and errors returned by the room are reported to the host
// as frames, in which case Dispatch returns nil.
// Dispatch blocks until the room replies to query requests, so hosts will
// normally call it on its own goroutine for events where Query is true and
// in arrival order for the rest.
func (b *Bridge) Dispatch(ctx context.Context, f Frame) error {
	h, ok := b.handlers[f.Event]
	if !ok {
		return fmt.Errorf("bridge: no handler for event %q", f.Event)
	}
	data := f.Data
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}
	if h.query && f.ID == "" {
		return b.emit(ctx, EventClientError, clientErrorJSON(&muc.ClientError{Description: muc.ErrMissingCallback}, data))
	}

	b.logger.Debug().Str("event", f.Event).Str("id", f.ID).Msg("dispatching")
	result, err := h.fn(ctx, b.client, data)
	if err != nil {
		return b.fail(ctx, f, h, data, err)
	}
	if !h.query {
		return nil
	}
	return b.callback(ctx, f.ID, nil, result)
}

func (b *Bridge) fail(ctx context.Context, f Frame, h handler, data json.RawMessage, err error) error {
	var (
		clientErr *muc.ClientError
		se        stanza.Error
	)
	switch {
	case errors.As(err, &clientErr):
		payload := clientErrorJSON(clientErr, data)
		if h.query {
			return b.callback(ctx, f.ID, payload, nil)
		}
		return b.emit(ctx, EventClientError, payload)
	case errors.As(err, &se) && h.query:
		return b.callback(ctx, f.ID, stanzaErrorJSON(se), nil)
	}

	b.logger.Warn().Err(err).Str("event", f.Event).Msg("request failed")
	if h.query {
		cbErr := b.callback(ctx, f.ID, &Error{
			Type:        string(stanza.Cancel),
			Condition:   string(stanza.UndefinedCondition),
			Description: err.Error(),
		}, nil)
		if cbErr != nil {
			b.logger.Warn().Err(cbErr).Str("id", f.ID).Msg("could not send callback")
		}
	}
	return fmt.Errorf("bridge: %s: %w", f.Event, err)
}

type callbackData struct {
	Error  *Error      `json:"error,omitempty"`
	Result interface{} `json:"result,omitempty"`
}

func (b *Bridge) callback(ctx context.Context, id string, e *Error, result interface{}) error {
	data, err := json.Marshal(callbackData{Error: e, Result: result})
	if err != nil {
		return err
	}
	return b.out.Emit(ctx, Frame{Event: EventCallback, ID: id, Data: data})
}

func (b *Bridge) emit(ctx context.Context, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.out.Emit(ctx, Frame{Event: event, Data: data})
}

// handleEvent runs on the goroutine serving the XMPP session.
func (b *Bridge) handleEvent(e muc.Event) {
	name, payload := eventJSON(e)
	if name == "" {
		b.logger.Debug().Type("event", e).Msg("no frame for event")
		return
	}
	err := b.emit(context.Background(), name, payload)
	if err != nil {
		b.logger.Warn().Err(err).Str("event", name).Msg("could not emit event")
	}
}
