package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/focusroom/go/internal/models"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RoomServiceName is the fully-qualified name of the admin room service.
const RoomServiceName = "focusroom.v1.RoomService"

const (
	// GetRoomProcedure returns one room's timer and roster.
	GetRoomProcedure = "/" + RoomServiceName + "/GetRoom"
	// ListRoomsProcedure returns every room in the registry.
	ListRoomsProcedure = "/" + RoomServiceName + "/ListRooms"
)

// RoomStateReader is what the admin service needs from the hub.
type RoomStateReader interface {
	RoomState(ctx context.Context, roomID string) (RoomState, error)
	Rooms(ctx context.Context) ([]RoomState, error)
}

// RoomService is a read-only Connect service for operators. It uses well-known
// protobuf types so no generated code is required.
type RoomService struct {
	rooms RoomStateReader
}

// NewRoomService creates the admin service.
func NewRoomService(rooms RoomStateReader) *RoomService {
	return &RoomService{rooms: rooms}
}

// NewRoomServiceHandler builds the HTTP handler and the path prefix to mount it on.
func NewRoomServiceHandler(svc *RoomService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetRoomProcedure, connect.NewUnaryHandler(GetRoomProcedure, svc.GetRoom, opts...))
	mux.Handle(ListRoomsProcedure, connect.NewUnaryHandler(ListRoomsProcedure, svc.ListRooms, opts...))
	return "/" + RoomServiceName + "/", mux
}

// GetRoom returns the state of the room named by the request value.
func (s *RoomService) GetRoom(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[structpb.Struct], error) {
	roomID := req.Msg.GetValue()
	if roomID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("room id is required"))
	}

	state, err := s.rooms.RoomState(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("room %q not found", roomID))
		}
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	out, err := structpb.NewStruct(roomStateMap(state))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// ListRooms returns every room in the registry.
func (s *RoomService) ListRooms(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	states, err := s.rooms.Rooms(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	rooms := make([]any, 0, len(states))
	for _, st := range states {
		rooms = append(rooms, roomStateMap(st))
	}
	out, err := structpb.NewStruct(map[string]any{"rooms": rooms})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

func roomStateMap(st RoomState) map[string]any {
	members := make([]any, 0, len(st.Members))
	for _, m := range st.Members {
		members = append(members, memberMap(m))
	}
	return map[string]any{
		"roomId":    st.Timer.RoomID,
		"timer":     st.Timer.RemainingSeconds,
		"isRunning": st.Timer.IsRunning,
		"preset":    string(st.Timer.Preset),
		"members":   members,
	}
}

func memberMap(m models.Member) map[string]any {
	return map[string]any{
		"id":      m.ID,
		"userId":  m.UserID,
		"name":    m.Name,
		"image":   m.Image,
		"status":  string(m.Status),
		"isAdmin": m.IsAdmin,
	}
}
