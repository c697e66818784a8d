package websocket

import (
	"time"

	"github.com/corridor/hallpass-backend/internal/model"
)

// Event names pushed over the kiosk stream.
const (
	EventSnapshot = "snapshot"
	EventError    = "error"
)

// SnapshotResponse carries the full active-pass listing for the stream's
// scope. A fresh snapshot is pushed on every lifecycle event and on a
// heartbeat interval, so clients never need to diff.
type SnapshotResponse struct {
	Event     string               `json:"event"`
	Passes    []model.PassSnapshot `json:"passes"`
	Timestamp time.Time            `json:"timestamp"`
}

// ErrorResponse reports a stream-level failure before the connection closes.
type ErrorResponse struct {
	Event string `json:"event"`
	Error string `json:"error"`
}
