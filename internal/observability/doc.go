// Package observability provides the message sinks a correlator run writes
// into: the leveled report file, a JSON Lines (JSONL) event log with metrics
// derived from it on demand, per-run tallies and Slack notification.
package observability
