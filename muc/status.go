// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"strconv"
)

// Status is a status code sent by the room to describe an event.
// The code is kept as a string because rooms are not guaranteed to send valid
// numbers.
type Status struct {
	Code string `xml:"code,attr"`
}

// Int returns the code as an integer.
// If the code is not a base 10 integer ok is false.
func (s Status) Int() (code int, ok bool) {
	code, err := strconv.Atoi(s.Code)
	return code, err == nil
}
