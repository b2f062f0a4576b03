package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterFollowsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"zoe", "alice", "mallory", "bob"}

	for i, name := range names {
		_, err := r.Register(fmt.Sprintf("c%d", i), name)
		require.NoError(t, err)

		roster := r.Roster()
		assert.Equal(t, names[:i+1], roster)
		assert.Equal(t, len(roster), r.Len())
	}
}

func TestRegisterRejectsDuplicateNickname(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("c1", "alice")
	require.NoError(t, err)

	_, err = r.Register("c2", "alice")
	assert.ErrorIs(t, err, ErrNicknameTaken)

	// Matching is case-sensitive.
	_, err = r.Register("c3", "Alice")
	assert.NoError(t, err)

	assert.Equal(t, []string{"alice", "Alice"}, r.Roster())
}

func TestRegisterRejectsSecondSessionOnConnection(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("c1", "alice")
	require.NoError(t, err)

	_, err = r.Register("c1", "bob")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 1, r.Len())
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Register("c1", "alice")
	_, _ = r.Register("c2", "bob")
	_, _ = r.Register("c3", "carol")

	s, ok := r.Unregister("c2")
	require.True(t, ok)
	assert.Equal(t, "bob", s.Nickname)
	assert.Equal(t, []string{"alice", "carol"}, r.Roster())

	_, ok = r.Unregister("c2")
	assert.False(t, ok)

	_, ok = r.Find("c2")
	assert.False(t, ok)
	_, ok = r.FindByNickname("bob")
	assert.False(t, ok)

	// The nickname is free again.
	_, err := r.Register("c4", "bob")
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol", "bob"}, r.Roster())
}

func TestFindByNickname(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Register("c1", "alice")

	s, ok := r.FindByNickname("alice")
	require.True(t, ok)
	assert.Equal(t, "c1", s.ConnectionID)
	assert.False(t, s.JoinedAt.IsZero())
}

func TestConcurrentRegisterSameNickname(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.Register(fmt.Sprintf("c%d", i), "same"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, []string{"same"}, r.Roster())
}
