package broadcast

import (
	"sync"

	"github.com/weiawesome/lobby-chat/internal/domain"
)

type delivery struct {
	to  string
	env *domain.Envelope
}

// fakeGateway delivers to an in-memory room.
type fakeGateway struct {
	mu      sync.Mutex
	members []string
	out     []delivery
	closed  []string
}

func (g *fakeGateway) Send(id string, env *domain.Envelope) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out = append(g.out, delivery{to: id, env: env})
	return nil
}

func (g *fakeGateway) Broadcast(env *domain.Envelope, exclude string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.members {
		if id != exclude {
			g.out = append(g.out, delivery{to: id, env: env})
		}
	}
	return nil
}

func (g *fakeGateway) JoinRoom(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members = append(g.members, id)
	return nil
}

func (g *fakeGateway) LeaveRoom(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, m := range g.members {
		if m == id {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return
		}
	}
}

func (g *fakeGateway) Close(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = append(g.closed, id)
}
