// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"mellium.im/mucbridge/bridge"
)

const writeTimeout = 5 * time.Second

// dispatcher is the part of a *bridge.Bridge used by the hub.
type dispatcher interface {
	Dispatch(context.Context, bridge.Frame) error
	Query(event string) bool
}

// hub accepts websocket connections, feeds their frames to the bridge and
// broadcasts emitted events.
// Frames from one connection are dispatched in the order they arrive; only
// queries, which wait for the room to reply, run concurrently.
// Callbacks are only written to the connection that made the request.
type hub struct {
	logger zerolog.Logger
	bridge dispatcher

	mu    sync.Mutex
	next  int
	conns map[string]*websocket.Conn
}

func newHub(logger zerolog.Logger) *hub {
	return &hub{
		logger: logger,
		conns:  make(map[string]*websocket.Conn),
	}
}

func (h *hub) add(conn *websocket.Conn) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := strconv.Itoa(h.next)
	h.conns[id] = conn
	return id
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	id := h.add(conn)
	defer h.remove(id)
	logger := h.logger.With().Str("conn", id).Logger()
	logger.Debug().Str("remote", r.RemoteAddr).Msg("connected")

	ctx := r.Context()
	for {
		var f bridge.Frame
		err := wsjson.Read(ctx, conn, &f)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				logger.Debug().Msg("disconnected")
			default:
				logger.Debug().Err(err).Msg("read failed")
			}
			return
		}
		if f.ID != "" {
			f.ID = id + ":" + f.ID
		}
		if h.bridge.Query(f.Event) {
			go h.dispatch(ctx, logger, f)
			continue
		}
		h.dispatch(ctx, logger, f)
	}
}

func (h *hub) dispatch(ctx context.Context, logger zerolog.Logger, f bridge.Frame) {
	if err := h.bridge.Dispatch(ctx, f); err != nil {
		logger.Warn().Err(err).Str("event", f.Event).Msg("dispatch failed")
	}
}

// Emit implements bridge.Emitter.
func (h *hub) Emit(ctx context.Context, f bridge.Frame) error {
	if f.Event == bridge.EventCallback {
		connID, reqID, ok := strings.Cut(f.ID, ":")
		if !ok {
			return errors.New("callback without a connection")
		}
		h.mu.Lock()
		conn, ok := h.conns[connID]
		h.mu.Unlock()
		if !ok {
			return errors.New("connection closed before callback")
		}
		f.ID = reqID
		return write(ctx, conn, f)
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	var errs []error
	for _, conn := range conns {
		if err := write(ctx, conn, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func write(ctx context.Context, conn *websocket.Conn, f bridge.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, f)
}
