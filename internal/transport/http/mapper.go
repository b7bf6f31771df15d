package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/campus-realtime/internal/core"
	"github.com/vovakirdan/campus-realtime/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return core.Command{}, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "malformed join"}
		}
		if strings.TrimSpace(join.UserID) == "" && strings.TrimSpace(join.Role) == "" {
			return core.Command{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "userId or role is required"}
		}
		return core.Command{Kind: core.CommandJoin, UserID: join.UserID, Role: join.Role}, nil
	case proto.InboundTypeLeave:
		var leave proto.LeaveData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return core.Command{}, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "malformed leave"}
		}
		if leave.Room == "" {
			return core.Command{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}
		}
		return core.Command{Kind: core.CommandLeave, Room: core.RoomName(leave.Room)}, nil
	default:
		return core.Command{}, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func replyFor(kind core.CommandKind, rooms []core.RoomName, err error) proto.Outbound {
	if err != nil {
		ce := core.ErrorFor(err)
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: ce.Code, Msg: ce.Message}}
	}
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, string(r))
	}
	typ := proto.OutboundTypeJoined
	if kind == core.CommandLeave {
		typ = proto.OutboundTypeLeft
	}
	return proto.Outbound{Type: typ, Data: proto.RoomsData{Rooms: names}}
}
