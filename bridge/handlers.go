// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mellium.im/mucbridge/chatstate"
	"mellium.im/mucbridge/muc"
	"mellium.im/xmpp/jid"
)

// handler runs a request.
// Query handlers require a callback and their result is sent with it.
type handler struct {
	query bool
	fn    func(context.Context, *muc.Client, json.RawMessage) (interface{}, error)
}

// Names of the events handled by the bridge.
// The message, subject, destroy, and invite events share their names with the
// events emitted for incoming stanzas.
const (
	EventJoin          = "xmpp.muc.join"
	EventCreate        = "xmpp.muc.create"
	EventLeave         = "xmpp.muc.leave"
	EventRoleSet       = "xmpp.muc.role.set"
	EventRoleGet       = "xmpp.muc.role.get"
	EventAffiliation   = "xmpp.muc.affiliation"
	EventRegisterInfo  = "xmpp.muc.register.info"
	EventRegister      = "xmpp.muc.register"
	EventRoomConfigGet = "xmpp.muc.room.config.get"
	EventRoomConfigSet = "xmpp.muc.room.config.set"
	EventCancel        = "xmpp.muc.cancel"
	EventVoice         = "xmpp.muc.voice"
	EventReservedNick  = "xmpp.muc.room.nick"
	EventChangeNick    = "xmpp.muc.nick"
)

func handlers() map[string]handler {
	return map[string]handler{
		EventJoin:          {fn: join},
		EventLeave:         {fn: leave},
		EventMessage:       {fn: sendMessage},
		EventSubject:       {fn: setSubject},
		EventVoice:         {fn: requestVoice},
		EventInvite:        {fn: invite},
		EventChangeNick:    {fn: changeNick},
		EventCreate:        {query: true, fn: create},
		EventDestroy:       {query: true, fn: destroy},
		EventRoleSet:       {query: true, fn: setRole},
		EventRoleGet:       {query: true, fn: getRole},
		EventAffiliation:   {query: true, fn: setAffiliation},
		EventRegisterInfo:  {query: true, fn: registrationInfo},
		EventRegister:      {query: true, fn: register},
		EventRoomConfigGet: {query: true, fn: roomConfig},
		EventRoomConfigSet: {query: true, fn: setRoomConfig},
		EventCancel:        {query: true, fn: cancelConfig},
		EventReservedNick:  {query: true, fn: reservedNick},
	}
}

func decode(data json.RawMessage, v interface{}) error {
	err := json.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

// roomRequest is embedded in every request.
type roomRequest struct {
	Room string `json:"room"`
}

func (r roomRequest) room() (jid.JID, error) {
	return parseJID("room", r.Room)
}

type history struct {
	MaxStanzas *uint64    `json:"maxstanzas"`
	MaxChars   *uint64    `json:"maxchars"`
	Seconds    *uint64    `json:"seconds"`
	Since      *time.Time `json:"since"`
}

func (h *history) options() []muc.Option {
	if h == nil {
		return nil
	}
	var opts []muc.Option
	if h.MaxStanzas != nil {
		opts = append(opts, muc.MaxHistory(*h.MaxStanzas))
	}
	if h.MaxChars != nil {
		opts = append(opts, muc.MaxBytes(*h.MaxChars))
	}
	if h.Seconds != nil {
		opts = append(opts, muc.Duration(time.Duration(*h.Seconds)*time.Second))
	}
	if h.Since != nil {
		opts = append(opts, muc.Since(*h.Since))
	}
	return opts
}

func join(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Nick     string   `json:"nick"`
		Password string   `json:"password"`
		History  *history `json:"history"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	opts := req.History.options()
	if req.Password != "" {
		opts = append(opts, muc.Password(req.Password))
	}
	return nil, c.Join(ctx, muc.JoinRequest{Room: room, Nick: req.Nick}, opts...)
}

func leave(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Reason string `json:"reason"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	return nil, c.Leave(ctx, muc.LeaveRequest{Room: room, Status: req.Reason})
}

func sendMessage(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		To      string `json:"to"`
		Content string `json:"content"`
		Format  string `json:"format"`
		State   string `json:"state"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	return nil, c.SendMessage(ctx, muc.MessageRequest{
		Room:    room,
		To:      req.To,
		Content: req.Content,
		Format:  muc.Format(req.Format),
		State:   chatstate.State(req.State),
	})
}

func setSubject(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Subject string `json:"subject"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	return nil, c.SetSubject(ctx, muc.SubjectRequest{Room: room, Subject: req.Subject})
}

func requestVoice(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Role string `json:"role"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	return nil, c.RequestVoice(ctx, muc.VoiceRequest{Room: room, Role: muc.Role(req.Role)})
}

func invite(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		To       string `json:"to"`
		Reason   string `json:"reason"`
		Password string `json:"password"`
		Direct   bool   `json:"direct"`
		Continue bool   `json:"continue"`
		Thread   string `json:"thread"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	to, err := parseJID("to", req.To)
	if err != nil {
		return nil, err
	}
	return nil, c.Invite(ctx, muc.InviteRequest{
		Room:     room,
		To:       to,
		Reason:   req.Reason,
		Password: req.Password,
		Direct:   req.Direct,
		Continue: req.Continue,
		Thread:   req.Thread,
	})
}

func changeNick(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Nick string `json:"nick"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	return nil, c.ChangeNick(ctx, muc.NickRequest{Room: room, Nick: req.Nick})
}

type formRequest struct {
	roomRequest
	Form []FormField `json:"form"`
}

func create(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req formRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	err = c.Create(ctx, muc.CreateRequest{Room: room, Form: mucForm(req.Form)})
	if err != nil {
		return nil, err
	}
	return true, nil
}

func destroy(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Alternative string `json:"alternative"`
		Reason      string `json:"reason"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	alt, err := parseJID("alternative", req.Alternative)
	if err != nil {
		return nil, err
	}
	err = c.Destroy(ctx, muc.DestroyRequest{Room: room, Alternative: alt, Reason: req.Reason})
	if err != nil {
		return nil, err
	}
	return true, nil
}

func setRole(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Nick   string `json:"nick"`
		Role   string `json:"role"`
		Reason string `json:"reason"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	err = c.SetRole(ctx, muc.RoleRequest{
		Room:   room,
		Nick:   req.Nick,
		Role:   muc.Role(req.Role),
		Reason: req.Reason,
	})
	if err != nil {
		return nil, err
	}
	return true, nil
}

// Item is an occupant listed by role.
type Item struct {
	Affiliation string `json:"affiliation,omitempty"`
	JID         *JID   `json:"jid,omitempty"`
	Nick        string `json:"nick,omitempty"`
	Role        string `json:"role,omitempty"`
}

func getRole(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		Role string `json:"role"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	items, err := c.GetRole(ctx, muc.RoleQuery{Room: room, Role: muc.Role(req.Role)})
	if err != nil {
		return nil, err
	}
	results := make([]Item, 0, len(items))
	for _, item := range items {
		results = append(results, Item{
			Affiliation: string(item.Affiliation),
			JID:         jidJSON(item.JID),
			Nick:        item.Nick,
			Role:        string(item.Role),
		})
	}
	return results, nil
}

func setAffiliation(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req struct {
		roomRequest
		JID         string `json:"jid"`
		Affiliation string `json:"affiliation"`
		Nick        string `json:"nick"`
		Reason      string `json:"reason"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	j, err := parseJID("jid", req.JID)
	if err != nil {
		return nil, err
	}
	err = c.SetAffiliation(ctx, muc.AffiliationRequest{
		Room:        room,
		JID:         j,
		Affiliation: muc.Affiliation(req.Affiliation),
		Nick:        req.Nick,
		Reason:      req.Reason,
	})
	if err != nil {
		return nil, err
	}
	return true, nil
}

// Registration is the result of a registration request.
type Registration struct {
	Registered   bool   `json:"registered,omitempty"`
	Nick         string `json:"nick,omitempty"`
	Title        string `json:"title,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Form         *Form  `json:"form,omitempty"`
}

func registrationJSON(r muc.Registration) Registration {
	if r.Registered {
		return Registration{Registered: true, Nick: r.Nick}
	}
	return Registration{
		Title:        r.Title,
		Instructions: r.Instructions,
		Form:         formJSON(r.Form),
	}
}

func registrationInfo(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req roomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	r, err := c.RegistrationInfo(ctx, room)
	if err != nil {
		return nil, err
	}
	return registrationJSON(r), nil
}

func register(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req formRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	r, err := c.Register(ctx, muc.RegisterRequest{Room: room, Form: mucForm(req.Form)})
	if err != nil {
		return nil, err
	}
	return registrationJSON(r), nil
}

func roomConfig(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req roomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	f, err := c.RoomConfig(ctx, room)
	if err != nil {
		return nil, err
	}
	return formJSON(f), nil
}

func setRoomConfig(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req formRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	err = c.SetRoomConfig(ctx, muc.ConfigRequest{Room: room, Form: mucForm(req.Form)})
	if err != nil {
		return nil, err
	}
	return true, nil
}

func cancelConfig(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req roomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	if err = c.CancelConfig(ctx, room); err != nil {
		return nil, err
	}
	return true, nil
}

func reservedNick(ctx context.Context, c *muc.Client, data json.RawMessage) (interface{}, error) {
	var req roomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	room, err := req.room()
	if err != nil {
		return nil, err
	}
	return c.ReservedNick(ctx, room)
}
