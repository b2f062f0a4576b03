package idgen

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflakeRejectsMachineID(t *testing.T) {
	_, err := NewSnowflake(-1, 0)
	assert.Error(t, err)
	_, err = NewSnowflake(maxMachineID+1, 0)
	assert.Error(t, err)
}

func TestGenerateUniqueUnderConcurrency(t *testing.T) {
	g, err := NewSnowflake(7, 0)
	require.NoError(t, err)

	const workers, perWorker = 8, 500
	ids := make(chan string, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id, err := g.Generate()
				if err != nil {
					t.Error(err)
					return
				}
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, workers*perWorker)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestGenerateIsMonotonic(t *testing.T) {
	g, err := NewSnowflake(1, 0)
	require.NoError(t, err)

	var last int64
	for i := 0; i < 1000; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		n, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, last)
		last = n
	}
}

func TestClockRegression(t *testing.T) {
	g, err := NewSnowflake(1, 0)
	require.NoError(t, err)

	clock := DefaultEpoch + 1000
	g.now = func() int64 { return clock }
	_, err = g.Generate()
	require.NoError(t, err)

	clock -= 10
	_, err = g.Generate()
	assert.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	g, err := NewSnowflake(42, 0)
	require.NoError(t, err)
	g.now = func() int64 { return DefaultEpoch + 12345 }

	id, err := g.Generate()
	require.NoError(t, err)

	res, err := g.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.MachineID)
	assert.Equal(t, DefaultEpoch+12345, res.TimestampMs)
	assert.Equal(t, int64(0), res.Sequence)
}
