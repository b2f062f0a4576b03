package audit

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/weiawesome/lobby-chat/pkg/log"
)

// Audit actions for the chat room.
const (
	ActionJoin         = "chat.join"
	ActionJoinRejected = "chat.join_rejected"
	ActionLoginFailed  = "chat.login_failed"
	ActionEvicted      = "chat.evicted"
	ActionLeave        = "chat.leave"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldReason   = "reason"
	FieldTargetID = "target_connection_id"
)

// Log records a room membership change for nickname.
func Log(ctx context.Context, action, nickname, msg string) {
	entry(ctx, action, nickname).Msg(msg)
}

// LogRejection records a join that did not enter the room.
func LogRejection(ctx context.Context, action, nickname, reason string) {
	entry(ctx, action, nickname).
		Str(FieldReason, reason).
		Msg("join rejected")
}

// LogEviction records that nickname was taken over and the session on
// targetID was closed. The context carries the connection that took over.
func LogEviction(ctx context.Context, nickname, targetID string) {
	entry(ctx, ActionEvicted, nickname).
		Str(FieldTargetID, targetID).
		Msg("session displaced by a new login")
}

func entry(ctx context.Context, action, nickname string) *zerolog.Event {
	l := log.Ctx(ctx)
	return l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldNickname, nickname)
}
