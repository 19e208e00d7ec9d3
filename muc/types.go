// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"encoding/xml"

	"mellium.im/xmpp/jid"
)

// Affiliation indicates a users long lived relationship with the room.
// The empty string means that no affiliation was given, which is distinct from
// AffiliationNone.
type Affiliation string

// A list of room affiliations.
const (
	AffiliationNone Affiliation = "none"

	// Support for the owner affiliation is required.
	AffiliationOwner Affiliation = "owner"

	// Support for these affiliations is recommended, but optional.
	AffiliationAdmin   Affiliation = "admin"
	AffiliationMember  Affiliation = "member"
	AffiliationOutcast Affiliation = "outcast"
)

// Role indicates a users privileges while they are present in the room.
// The empty string means that no role was given, which is distinct from
// RoleNone.
type Role string

// A list of user roles.
const (
	RoleNone Role = "none"

	// Support for these roles is required.
	RoleModerator   Role = "moderator"
	RoleParticipant Role = "participant"

	// Support for these roles is recommended, but optional.
	RoleVisitor Role = "visitor"
)

// Item is an occupant as listed in admin queries and user presence.
// Any of the fields may be empty if the room did not include them.
type Item struct {
	XMLName     xml.Name
	Affiliation Affiliation
	JID         jid.JID
	Nick        string
	Role        Role
}

// UnmarshalXML satisfies xml.Unmarshaler.
// A jid attribute that is not a valid JID decodes to the zero JID.
func (i *Item) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	raw := struct {
		Affiliation Affiliation `xml:"affiliation,attr"`
		JID         string      `xml:"jid,attr"`
		Nick        string      `xml:"nick,attr"`
		Role        Role        `xml:"role,attr"`
	}{}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*i = Item{
		XMLName:     start.Name,
		Affiliation: raw.Affiliation,
		JID:         looseJID(raw.JID),
		Nick:        raw.Nick,
		Role:        raw.Role,
	}
	return nil
}

// Format is the markup used by the content of a chat message.
type Format string

// A list of message formats.
// Messages that do not have a body (for example a bare chat state
// notification) have the empty format.
const (
	FormatPlain Format = "plain"
	FormatXHTML Format = "xhtml"
)
