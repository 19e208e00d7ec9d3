// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package tokenq provides a slice of XML tokens that can be read back as a
// token stream.
package tokenq // import "mellium.im/mucbridge/internal/tokenq"

import (
	"encoding/xml"
	"io"
)

// Queue is a slice of tokens that acts as an xml.TokenReader by popping
// tokens from the front of itself.
type Queue []xml.Token

// Token pops the next token or returns io.EOF if the queue is empty.
func (q *Queue) Token() (xml.Token, error) {
	if len(*q) == 0 {
		return nil, io.EOF
	}
	var t xml.Token
	t, *q = (*q)[0], (*q)[1:]
	return t, nil
}
