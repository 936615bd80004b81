package store

import (
	"context"
	"fmt"

	"github.com/kraitsec/krait/internal/engine"
	"github.com/kraitsec/krait/internal/ir"
)

// WriteEvent inserts a match event into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored, so re-running a capture with a fixed ID generator
// leaves the store unchanged.
//
// The event's bound variables are serialized to canonical JSON per
// RFC 8785 so identical evaluations produce byte-identical rows.
func (s *Store) WriteEvent(ctx context.Context, ev engine.MatchEvent) error {
	varsJSON, err := marshalVars(ev.Vars)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, packet_id, sid, msg, vars)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.EvalID,
		ev.PacketID,
		ev.SID,
		ev.Msg,
		varsJSON,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// marshalVars serializes bound variables to canonical JSON.
// A nil map serializes as an empty object, never "null".
func marshalVars(vars map[string]uint64) (string, error) {
	if vars == nil {
		vars = map[string]uint64{}
	}
	b, err := ir.MarshalCanonical(vars)
	if err != nil {
		return "", fmt.Errorf("marshal vars: %w", err)
	}
	return string(b), nil
}
