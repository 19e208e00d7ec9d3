// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package bridge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"mellium.im/mucbridge/muc"
	"mellium.im/xmpp/form"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// JID is an address split into its parts.
type JID struct {
	User     string `json:"user,omitempty"`
	Domain   string `json:"domain"`
	Resource string `json:"resource,omitempty"`
}

// jidJSON returns nil for the zero JID so that it can be omitted.
func jidJSON(j jid.JID) *JID {
	if j.Domainpart() == "" {
		return nil
	}
	return &JID{
		User:     j.Localpart(),
		Domain:   j.Domainpart(),
		Resource: j.Resourcepart(),
	}
}

// parseJID parses an address from a request.
// The empty string is the zero JID so that the missing key is reported by
// the client.
func parseJID(key, s string) (jid.JID, error) {
	if s == "" {
		return jid.JID{}, nil
	}
	j, err := jid.Parse(s)
	if err != nil {
		return jid.JID{}, &muc.ClientError{
			Description: "Invalid '" + key + "' key",
			Request:     s,
		}
	}
	return j, nil
}

// Error is the payload of an error returned by a room or found to be invalid
// before it was sent.
// Request is only set on client errors and holds the request as received.
type Error struct {
	Type        string          `json:"type"`
	Condition   string          `json:"condition"`
	Description string          `json:"description,omitempty"`
	Request     json.RawMessage `json:"request,omitempty"`
}

func clientErrorJSON(e *muc.ClientError, req json.RawMessage) *Error {
	out := stanzaErrorJSON(e.StanzaError())
	out.Request = req
	return out
}

func stanzaErrorJSON(se stanza.Error) *Error {
	return &Error{
		Type:        string(se.Type),
		Condition:   string(se.Condition),
		Description: errorText(se),
	}
}

// errorText picks the text with no language if there is one, falling back to
// the first language in sorted order.
func errorText(se stanza.Error) string {
	if t, ok := se.Text[""]; ok {
		return t
	}
	langs := make([]string, 0, len(se.Text))
	for lang := range se.Text {
		langs = append(langs, lang)
	}
	if len(langs) == 0 {
		return ""
	}
	sort.Strings(langs)
	return se.Text[langs[0]]
}

// Values is the value of a form field.
// It is written as a string if there is a single value and a list otherwise,
// and may be read from a string, number, boolean, or a list of them.
type Values []string

// MarshalJSON satisfies json.Marshaler.
func (v Values) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// UnmarshalJSON satisfies json.Unmarshaler.
func (v *Values) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if list, ok := raw.([]interface{}); ok {
		*v = make(Values, 0, len(list))
		for _, item := range list {
			s, err := scalar(item)
			if err != nil {
				return err
			}
			*v = append(*v, s)
		}
		return nil
	}
	if raw == nil {
		*v = nil
		return nil
	}
	s, err := scalar(raw)
	if err != nil {
		return err
	}
	*v = Values{s}
	return nil
}

func scalar(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case bool:
		return strconv.FormatBool(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("bridge: unsupported form value %T", v)
}

// FormField is a single data form field.
type FormField struct {
	Var   string `json:"var"`
	Type  string `json:"type,omitempty"`
	Label string `json:"label,omitempty"`
	Value Values `json:"value,omitempty"`
}

// Form is a data form received from a room.
type Form struct {
	Title        string      `json:"title,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
	Fields       []FormField `json:"fields"`
}

func formJSON(d *form.Data) *Form {
	if d == nil {
		return nil
	}
	f := &Form{
		Title:        d.Title(),
		Instructions: d.Instructions(),
		Fields:       []FormField{},
	}
	d.ForFields(func(field form.FieldData) {
		values, _ := d.Raw(field.Var)
		f.Fields = append(f.Fields, FormField{
			Var:   field.Var,
			Type:  string(field.Type),
			Label: field.Label,
			Value: values,
		})
	})
	return f
}

// mucForm converts submitted fields.
// A nil slice (the key was missing) is a nil form.
func mucForm(fields []FormField) muc.Form {
	if fields == nil {
		return nil
	}
	f := make(muc.Form, 0, len(fields))
	for _, field := range fields {
		f = append(f, muc.Field{Var: field.Var, Values: field.Value})
	}
	return f
}
