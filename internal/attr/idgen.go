// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package attr

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// IDLen is the length of generated stanza identifiers in hex characters.
const IDLen = 16

// RandomID returns an opaque stanza identifier of length IDLen.
// Identifiers are read from the system CSPRNG and cannot be derived from the
// contents of the stanza they are attached to.
// If the OS's entropy pool cannot be read, RandomID panics.
func RandomID() string {
	return randomID(rand.Reader)
}

func randomID(r io.Reader) string {
	var b [IDLen / 2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		panic(fmt.Sprintf("attr: reading random identifier: %v", err))
	}
	return hex.EncodeToString(b[:])
}
