package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kraitsec/krait/internal/engine"
)

// ReadPacketEvents returns all match events recorded for a packet.
// Results are ordered by event ID; UUIDv7 IDs make that creation
// order.
//
// Returns an empty slice (not nil) if no events exist for the packet.
func (s *Store) ReadPacketEvents(ctx context.Context, packetID string) ([]engine.MatchEvent, error) {
	return s.readEvents(ctx, `
		SELECT id, packet_id, sid, msg, vars
		FROM events
		WHERE packet_id = ?
		ORDER BY id COLLATE BINARY ASC
	`, packetID)
}

// ReadRuleEvents returns all match events recorded for a rule SID,
// ordered by event ID.
func (s *Store) ReadRuleEvents(ctx context.Context, sid uint32) ([]engine.MatchEvent, error) {
	return s.readEvents(ctx, `
		SELECT id, packet_id, sid, msg, vars
		FROM events
		WHERE sid = ?
		ORDER BY id COLLATE BINARY ASC
	`, sid)
}

func (s *Store) readEvents(ctx context.Context, query string, args ...any) ([]engine.MatchEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []engine.MatchEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func scanEvent(rows *sql.Rows) (engine.MatchEvent, error) {
	var ev engine.MatchEvent
	var varsJSON string
	if err := rows.Scan(&ev.EvalID, &ev.PacketID, &ev.SID, &ev.Msg, &varsJSON); err != nil {
		return engine.MatchEvent{}, fmt.Errorf("scan event: %w", err)
	}
	if err := json.Unmarshal([]byte(varsJSON), &ev.Vars); err != nil {
		return engine.MatchEvent{}, fmt.Errorf("unmarshal vars: %w", err)
	}
	return ev, nil
}
