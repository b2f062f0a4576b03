package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/weiawesome/lobby-chat/internal/audit"
	"github.com/weiawesome/lobby-chat/internal/broadcast"
	"github.com/weiawesome/lobby-chat/internal/domain"
	"github.com/weiawesome/lobby-chat/internal/history"
	"github.com/weiawesome/lobby-chat/internal/presence"
	"github.com/weiawesome/lobby-chat/pkg/log"
)

// Manager runs the per-connection state machine. All registry and history
// mutations happen on the goroutine running Run (or the caller of Handle),
// one event at a time.
type Manager struct {
	cfg      Config
	registry *presence.Registry
	history  history.Store
	router   *broadcast.Router

	events chan Event
	done   chan struct{}

	// states is owned by the event loop.
	states map[string]domain.SessionState
	now    func() time.Time
}

// NewManager creates a Manager. Call Run to start processing submitted events.
func NewManager(cfg Config, reg *presence.Registry, store history.Store, router *broadcast.Router) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:      cfg,
		registry: reg,
		history:  store,
		router:   router,
		events:   make(chan Event, cfg.QueueSize),
		done:     make(chan struct{}),
		states:   make(map[string]domain.SessionState),
		now:      time.Now,
	}
}

// Mode returns the duplicate-nickname policy in effect.
func (m *Manager) Mode() Mode {
	return m.cfg.Mode
}

// Run processes submitted events until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	l := log.Ctx(ctx)
	l.Info().Str("mode", string(m.cfg.Mode)).Msg("session manager started")

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("session manager stopped")
			return
		case ev := <-m.events:
			m.Handle(ctx, ev)
		}
	}
}

// Submit queues ev for the event loop. Events from one connection must be
// submitted from one goroutine so they are handled in arrival order.
func (m *Manager) Submit(ctx context.Context, ev Event) error {
	select {
	case <-m.done:
		return ErrStopped
	default:
	}

	select {
	case m.events <- ev:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Handle processes one event synchronously. It must not be called
// concurrently with itself or with a running loop.
func (m *Manager) Handle(ctx context.Context, ev Event) {
	ctx = log.WithConnection(ctx, ev.ConnectionID)

	switch ev.Kind {
	case KindConnect:
		m.states[ev.ConnectionID] = domain.StateConnected
	case KindJoin:
		m.handleJoin(ctx, ev)
	case KindChat:
		m.handleChat(ctx, ev)
	case KindTyping:
		m.handleTyping(ctx, ev, domain.EventUserTyping)
	case KindStopTyping:
		m.handleTyping(ctx, ev, domain.EventUserStopTyping)
	case KindDisconnect:
		m.handleDisconnect(ctx, ev)
	default:
		l := log.Ctx(ctx)
		l.Warn().Int("kind", int(ev.Kind)).Msg("unknown session event")
	}
}

// State reports the connection's state. Unknown connections are Closed.
func (m *Manager) State(connectionID string) domain.SessionState {
	s, ok := m.states[connectionID]
	if !ok {
		return domain.StateClosed
	}
	return s
}

// Roster returns the current roster snapshot.
func (m *Manager) Roster() []string {
	return m.registry.Roster()
}

// Recent returns up to limit stored messages, oldest first.
func (m *Manager) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	return m.history.Recent(ctx, limit)
}

func (m *Manager) handleJoin(ctx context.Context, ev Event) {
	l := log.Ctx(ctx)
	id := ev.ConnectionID

	state, known := m.states[id]
	if !known {
		// Join without a prior connect: treat the connection as fresh.
		state = domain.StateConnected
		m.states[id] = state
	}
	if state != domain.StateConnected {
		l.Debug().Str("state", state.String()).Msg("join ignored")
		return
	}

	nickname := strings.TrimSpace(ev.Nickname)

	if err := m.checkCredential(ev.Credential); err != nil {
		m.states[id] = domain.StateClosed
		audit.LogRejection(ctx, audit.ActionLoginFailed, nickname, "credential mismatch")
		m.router.ToConnection(ctx, id, domain.EventLoginFailed, ReasonInvalidCredential)
		m.router.Disconnect(id)
		return
	}

	if err := m.validateNickname(nickname); err != nil {
		m.router.ToConnection(ctx, id, domain.EventError,
			domain.NewErrorPayload(domain.ErrCodeInvalidNickname, err.Error()))
		return
	}

	_, err := m.registry.Register(id, nickname)
	if errors.Is(err, presence.ErrNicknameTaken) {
		// A takeover needs a shared secret to prove identity.
		if m.cfg.Mode == ModeStrict || m.cfg.Password == "" {
			audit.LogRejection(ctx, audit.ActionJoinRejected, nickname, "nickname taken")
			m.router.ToConnection(ctx, id, domain.EventNicknameTaken, nil)
			return
		}
		m.evict(ctx, nickname)
		_, err = m.registry.Register(id, nickname)
	}
	if err != nil {
		l.Error().Err(err).Str(log.FieldNickname, nickname).Msg("register failed")
		m.router.ToConnection(ctx, id, domain.EventError,
			domain.NewErrorPayload(domain.ErrCodeBadRequest, "join failed"))
		return
	}

	m.states[id] = domain.StateJoined
	if err := m.router.Admit(id); err != nil {
		l.Warn().Err(err).Msg("gateway refused room membership")
	}

	m.router.ToConnection(ctx, id, domain.EventJoined, &domain.JoinedPayload{Nickname: nickname})

	recent, err := m.history.Recent(ctx, m.cfg.HistoryReplay)
	if err != nil {
		l.Warn().Err(err).Msg("failed to read history for replay")
		recent = []domain.ChatMessage{}
	}
	m.router.ToConnection(ctx, id, domain.EventChatHistory, recent)

	m.router.Arrived(ctx, id, nickname)
	m.router.Roster(ctx, m.registry.Roster())

	audit.Log(ctx, audit.ActionJoin, nickname, "joined the room")
}

// evict displaces the live session holding nickname.
func (m *Manager) evict(ctx context.Context, nickname string) {
	old, ok := m.registry.FindByNickname(nickname)
	if !ok {
		return
	}
	oldID := old.ConnectionID

	m.registry.Unregister(oldID)
	m.states[oldID] = domain.StateClosed
	m.router.Dismiss(oldID)

	m.router.ToConnection(ctx, oldID, domain.EventForceLogout, ReasonLoggedInElsewhere)
	m.router.Disconnect(oldID)

	m.router.Departed(ctx, oldID, nickname)
	m.router.Roster(ctx, m.registry.Roster())

	audit.LogEviction(ctx, nickname, oldID)
}

func (m *Manager) handleChat(ctx context.Context, ev Event) {
	sess, ok := m.joined(ev.ConnectionID)
	if !ok {
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	if m.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(text) > m.cfg.MaxMessageLength {
		m.router.ToConnection(ctx, ev.ConnectionID, domain.EventError,
			domain.NewErrorPayload(domain.ErrCodeMessageTooLong,
				fmt.Sprintf("message exceeds %d characters", m.cfg.MaxMessageLength)))
		return
	}

	msg := domain.NewChatMessage(sess.Nickname, text, m.now())
	if err := m.history.Append(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldNickname, sess.Nickname).Msg("history append failed")
	}

	m.router.ToRoom(ctx, domain.EventChatMessage, msg.Broadcast())
}

func (m *Manager) handleTyping(ctx context.Context, ev Event, event string) {
	sess, ok := m.joined(ev.ConnectionID)
	if !ok {
		return
	}
	m.router.ToRoomExcept(ctx, ev.ConnectionID, event, sess.Nickname)
}

func (m *Manager) handleDisconnect(ctx context.Context, ev Event) {
	id := ev.ConnectionID
	state := m.State(id)
	delete(m.states, id)

	if state != domain.StateJoined {
		return
	}

	sess, ok := m.registry.Unregister(id)
	if !ok {
		return
	}
	m.router.Dismiss(id)
	m.router.Departed(ctx, id, sess.Nickname)
	m.router.Roster(ctx, m.registry.Roster())

	audit.Log(ctx, audit.ActionLeave, sess.Nickname, "left the room")
}

// joined returns the session of a connection in the Joined state.
func (m *Manager) joined(connectionID string) (*domain.UserSession, bool) {
	if m.State(connectionID) != domain.StateJoined {
		return nil, false
	}
	return m.registry.Find(connectionID)
}

func (m *Manager) checkCredential(credential string) error {
	if m.cfg.Password == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(m.cfg.Password)) != 1 {
		return ErrLoginFailed
	}
	return nil
}

func (m *Manager) validateNickname(nickname string) error {
	if nickname == "" {
		return fmt.Errorf("%w: nickname is required", ErrInvalidNickname)
	}
	if utf8.RuneCountInString(nickname) > m.cfg.MaxNicknameLength {
		return fmt.Errorf("%w: nickname exceeds %d characters", ErrInvalidNickname, m.cfg.MaxNicknameLength)
	}
	for _, r := range nickname {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("%w: nickname contains non-printable characters", ErrInvalidNickname)
		}
	}
	return nil
}
