package types

import "time"

// LogEntry is one item of the engine's append-only activity stream. The
// engine imposes no format beyond these fields; sinks may retain or discard
// entries however they like.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}
