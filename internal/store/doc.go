// Package store provides durable storage for match events.
//
// Events are written once and never updated. Writes are idempotent on
// the event ID, so re-inspecting the same capture with a fixed ID
// generator leaves the store unchanged. Bound variable maps are stored
// as RFC 8785 canonical JSON so identical evaluations produce
// byte-identical rows.
package store
