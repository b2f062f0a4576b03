package broadcast

import (
	"context"

	"github.com/weiawesome/lobby-chat/internal/domain"
	"github.com/weiawesome/lobby-chat/pkg/log"
)

// Gateway is the transport the router fans out over. Implementations deliver
// each connection's envelopes in call order.
type Gateway interface {
	// Send delivers env to one connection.
	Send(connectionID string, env *domain.Envelope) error
	// Broadcast delivers env to every room member except exclude ("" for none).
	Broadcast(env *domain.Envelope, exclude string) error
	// JoinRoom adds the connection to the room audience.
	JoinRoom(connectionID string) error
	// LeaveRoom removes the connection from the room audience.
	LeaveRoom(connectionID string)
	// Close terminates the connection after already queued envelopes.
	Close(connectionID string)
}

// Router picks the audience and payload shape for each room event.
type Router struct {
	gw Gateway
}

func NewRouter(gw Gateway) *Router {
	return &Router{gw: gw}
}

// ToConnection delivers an event to a single connection.
func (r *Router) ToConnection(ctx context.Context, connectionID, event string, payload interface{}) error {
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	if err := r.gw.Send(connectionID, env); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldEvent, event).Str(log.FieldConnectionID, connectionID).Msg("send failed")
		return err
	}
	return nil
}

// ToRoom delivers an event to every room member.
func (r *Router) ToRoom(ctx context.Context, event string, payload interface{}) error {
	return r.ToRoomExcept(ctx, "", event, payload)
}

// ToRoomExcept delivers an event to every room member but connectionID.
func (r *Router) ToRoomExcept(ctx context.Context, connectionID, event string, payload interface{}) error {
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	if err := r.gw.Broadcast(env, connectionID); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldEvent, event).Msg("broadcast failed")
		return err
	}
	return nil
}

// Admit makes the connection part of the room audience.
func (r *Router) Admit(connectionID string) error {
	return r.gw.JoinRoom(connectionID)
}

// Dismiss removes the connection from the room audience.
func (r *Router) Dismiss(connectionID string) {
	r.gw.LeaveRoom(connectionID)
}

// Disconnect asks the gateway to terminate the connection.
func (r *Router) Disconnect(connectionID string) {
	r.gw.Close(connectionID)
}

// Roster pushes the roster to the whole room.
func (r *Router) Roster(ctx context.Context, roster []string) error {
	return r.ToRoom(ctx, domain.EventUserList, roster)
}

// Arrived announces nickname to everyone but its own connection.
func (r *Router) Arrived(ctx context.Context, connectionID, nickname string) error {
	return r.ToRoomExcept(ctx, connectionID, domain.EventUserJoined, &domain.PresenceNotice{
		Nickname: nickname,
		Message:  nickname + " joined the chat",
	})
}

// Departed announces that nickname left.
func (r *Router) Departed(ctx context.Context, connectionID, nickname string) error {
	return r.ToRoomExcept(ctx, connectionID, domain.EventUserLeft, &domain.PresenceNotice{
		Nickname: nickname,
		Message:  nickname + " left the chat",
	})
}
