package idgen

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	timestampBits = 41
	machineIDBits = 10
	sequenceBits  = 12

	maxMachineID = (1 << machineIDBits) - 1 // 1023
	maxSequence  = (1 << sequenceBits) - 1  // 4095

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

// DefaultEpoch is 2024-01-01T00:00:00Z in unix milliseconds.
const DefaultEpoch int64 = 1704067200000

// Generator hands out unique, time-ordered message IDs.
type Generator interface {
	Generate() (string, error)
}

// Snowflake generates 64-bit snowflake IDs.
type Snowflake struct {
	mu        sync.Mutex
	epoch     int64 // custom epoch in ms
	machineID int64 // 10-bit machine ID
	sequence  int64 // 12-bit sequence
	lastTime  int64 // last generation timestamp in ms
	now       func() int64
}

// ParseResult is the decoded form of a snowflake ID.
type ParseResult struct {
	TimestampMs int64
	MachineID   int64
	Sequence    int64
}

// NewSnowflake creates a new Snowflake generator.
// machineID must be in range [0, 1023]. An epoch of 0 selects DefaultEpoch.
func NewSnowflake(machineID int64, epoch int64) (*Snowflake, error) {
	if machineID < 0 || machineID > maxMachineID {
		return nil, fmt.Errorf("machine_id must be between 0 and %d, got %d", maxMachineID, machineID)
	}
	if epoch == 0 {
		epoch = DefaultEpoch
	}
	return &Snowflake{
		epoch:     epoch,
		machineID: machineID,
		now:       func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Generate returns the next ID as a decimal string.
func (g *Snowflake) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now-g.epoch < 0 {
		return "", fmt.Errorf("current time is before custom epoch")
	}

	if now < g.lastTime {
		return "", fmt.Errorf("clock moved backwards: current=%d, last=%d", now, g.lastTime)
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted, wait for next millisecond
			for now <= g.lastTime {
				now = g.now()
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = now

	id := ((now - g.epoch) << timestampShift) | (g.machineID << machineIDShift) | g.sequence
	return strconv.FormatInt(id, 10), nil
}

// Parse decodes an ID produced by this generator's layout.
func (g *Snowflake) Parse(id string) (*ParseResult, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer format: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("id must be a positive integer")
	}

	ts := (n >> timestampShift) & ((1 << timestampBits) - 1)
	return &ParseResult{
		TimestampMs: ts + g.epoch,
		MachineID:   (n >> machineIDShift) & maxMachineID,
		Sequence:    n & maxSequence,
	}, nil
}
