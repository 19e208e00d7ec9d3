// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"encoding/xml"
	"errors"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/form"
)

var errBadForm = errors.New("muc: form field without a var")

// Field is a single data form field submitted to a room.
// A field with no values is still submitted, which clears the option.
type Field struct {
	Var    string
	Values []string
}

// Form is a list of fields submitted to a room.
// A nil Form and an empty Form are different: an empty form is submitted
// with only its form type.
type Form []Field

// submit returns the form as a submission with the provided form type.
func (f Form) submit(formType string) (xml.TokenReader, error) {
	fields := make([]xml.TokenReader, 0, len(f)+1)
	fields = append(fields, formField("FORM_TYPE", "hidden", formType))
	for _, field := range f {
		if field.Var == "" {
			return nil, errBadForm
		}
		fields = append(fields, formField(field.Var, "", field.Values...))
	}
	return submitForm(fields...), nil
}

// submitForm wraps fields in a data form of type "submit".
func submitForm(fields ...xml.TokenReader) xml.TokenReader {
	return xmlstream.Wrap(
		xmlstream.MultiReader(fields...),
		xml.StartElement{
			Name: xml.Name{Space: form.NS, Local: "x"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: "submit"}},
		},
	)
}

func formField(name, typ string, values ...string) xml.TokenReader {
	attrs := []xml.Attr{{Name: xml.Name{Local: "var"}, Value: name}}
	if typ != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "type"}, Value: typ})
	}
	inner := make([]xml.TokenReader, 0, len(values))
	for _, v := range values {
		inner = append(inner, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(v)),
			xml.StartElement{Name: xml.Name{Local: "value"}},
		))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(inner...),
		xml.StartElement{Name: xml.Name{Local: "field"}, Attr: attrs},
	)
}
