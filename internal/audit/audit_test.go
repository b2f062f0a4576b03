package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/lobby-chat/pkg/log"
)

func capture(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf))
	return log.WithConnection(ctx, "conn-1"), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLog(t *testing.T) {
	ctx, buf := capture(t)

	Log(ctx, ActionJoin, "alice", "joined the room")

	entry := decode(t, buf)
	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	assert.Equal(t, ActionJoin, entry[FieldAction])
	assert.Equal(t, "alice", entry[log.FieldNickname])
	assert.Equal(t, "conn-1", entry[log.FieldConnectionID])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "joined the room", entry["message"])
	assert.NotContains(t, entry, FieldTargetID)
}

func TestLogRejection(t *testing.T) {
	ctx, buf := capture(t)

	LogRejection(ctx, ActionLoginFailed, "mallory", "credential mismatch")

	entry := decode(t, buf)
	assert.Equal(t, ActionLoginFailed, entry[FieldAction])
	assert.Equal(t, "credential mismatch", entry[FieldReason])
}

func TestLogEviction(t *testing.T) {
	ctx, buf := capture(t)

	LogEviction(ctx, "carol", "conn-0")

	entry := decode(t, buf)
	assert.Equal(t, ActionEvicted, entry[FieldAction])
	assert.Equal(t, "conn-0", entry[FieldTargetID])
	assert.Equal(t, "conn-1", entry[log.FieldConnectionID])
}
