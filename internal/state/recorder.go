// ./internal/state/recorder.go
package state

import (
	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// Recorder adapts the state package to the engine's persistence interface.
type Recorder struct{}

// NewRecorder returns a Recorder backed by the global database pool.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// BeginSession advances the persistent session counter.
func (r *Recorder) BeginSession() (int, error) {
	return NextSessionNumber()
}

// RecordTrade persists a trade receipt.
func (r *Recorder) RecordTrade(receipt types.TradeReceipt) error {
	return SaveTradeReceipt(receipt)
}

// RecordSession persists a completed session snapshot.
func (r *Recorder) RecordSession(snapshot types.SessionSnapshot) error {
	_, err := SaveSessionSnapshot(snapshot)
	return err
}
