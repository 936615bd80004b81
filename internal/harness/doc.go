// Package harness runs rule-conformance scenarios.
//
// A scenario is a YAML file bundling rules, packets, and assertions
// about which rules match which packets. Scenarios run with a
// sequential eval-ID generator and an in-memory store, so the same
// scenario always produces byte-identical match events, which makes
// golden-file comparison possible.
package harness
