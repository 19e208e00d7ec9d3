// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"sync"

	"mellium.im/xmpp/jid"
)

// Rooms is the set of rooms that a client currently occupies.
// Rooms are kept in the order they were joined.
// Joining a room that is already in the set adds it again, and each call to
// Leave removes a single entry.
//
// The zero value is an empty set ready for use.
// Rooms is safe for concurrent use by multiple goroutines.
type Rooms struct {
	mu    sync.Mutex
	order []string
	count map[string]int
}

// Join adds the bare form of room to the set.
func (r *Rooms) Join(room jid.JID) {
	key := room.Bare().String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == nil {
		r.count = make(map[string]int)
	}
	r.order = append(r.order, key)
	r.count[key]++
}

// Leave removes the first occurrence of the bare form of room from the set.
// If the room is not in the set Leave does nothing.
func (r *Rooms) Leave(room jid.JID) {
	key := room.Bare().String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count[key] == 0 {
		return
	}
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.count[key]--; r.count[key] == 0 {
		delete(r.count, key)
	}
}

// Contains reports whether the bare form of room is in the set.
func (r *Rooms) Contains(room jid.JID) bool {
	key := room.Bare().String()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count[key] > 0
}

// Len returns the number of entries in the set, including repeated joins.
func (r *Rooms) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// List returns the rooms in the order they were joined.
func (r *Rooms) List() []jid.JID {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms := make([]jid.JID, 0, len(r.order))
	for _, k := range r.order {
		rooms = append(rooms, jid.MustParse(k))
	}
	return rooms
}
