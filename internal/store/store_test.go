package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraitsec/krait/internal/engine"
)

// createTestStore creates a store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEvent(id, packetID string, sid uint32, vars map[string]uint64) engine.MatchEvent {
	return engine.MatchEvent{
		EvalID:   id,
		PacketID: packetID,
		SID:      sid,
		Msg:      "test rule",
		Vars:     vars,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestWriteAndReadPacketEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-1", "pkt-1", 2020, map[string]uint64{"rec_len": 5, "total": 7})))
	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-2", "pkt-1", 2021, nil)))
	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-3", "pkt-2", 2020, nil)))

	events, err := s.ReadPacketEvents(ctx, "pkt-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].EvalID)
	assert.Equal(t, uint32(2020), events[0].SID)
	assert.Equal(t, map[string]uint64{"rec_len": 5, "total": 7}, events[0].Vars)
	assert.Equal(t, "ev-2", events[1].EvalID)
	assert.Empty(t, events[1].Vars)
}

func TestReadRuleEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-1", "pkt-1", 2020, nil)))
	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-2", "pkt-2", 2020, nil)))
	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-3", "pkt-3", 2021, nil)))

	events, err := s.ReadRuleEvents(ctx, 2020)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].EvalID)
	assert.Equal(t, "ev-2", events[1].EvalID)
}

func TestWriteEventIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := testEvent("ev-1", "pkt-1", 2020, map[string]uint64{"n": 1})
	require.NoError(t, s.WriteEvent(ctx, ev))

	// Same ID, different content: the first write wins.
	dup := ev
	dup.Msg = "changed"
	require.NoError(t, s.WriteEvent(ctx, dup))

	events, err := s.ReadPacketEvents(ctx, "pkt-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "test rule", events[0].Msg)
}

func TestReadEmptyReturnsEmptySlice(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadPacketEvents(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestVarsStoredAsCanonicalJSON(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-1", "pkt-1", 1, map[string]uint64{"zeta": 1, "alpha": 2})))

	var raw string
	err := s.DB().QueryRowContext(ctx, "SELECT vars FROM events WHERE id = ?", "ev-1").Scan(&raw)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"zeta":1}`, raw)

	var empty string
	require.NoError(t, s.WriteEvent(ctx, testEvent("ev-2", "pkt-1", 1, nil)))
	err = s.DB().QueryRowContext(ctx, "SELECT vars FROM events WHERE id = ?", "ev-2").Scan(&empty)
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)
}
