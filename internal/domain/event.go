package domain

// EventSource distinguishes events observed on the live WebSocket stream from
// events recovered by the gap scanner.
type EventSource string

const (
	SourceLive     EventSource = "live"
	SourceBackfill EventSource = "backfill"
)

// EventRecord is one decoded on-chain event. Persisted immutably.
// Corresponds to the events table in PostgreSQL.
type EventRecord struct {
	Signature    string      // base58 transaction signature, <=88 chars
	Slot         int64       // Solana slot
	BlockTime    *int64      // unix seconds, nil if unavailable
	ProgramID    string      // base58 program address that emitted the event
	EventName    string      // e.g. "InitPool", "LpChange"
	LogIndex     int         // zero-based index of the emitting Program data: line within the tx
	EventPayload interface{} // one of the typed structs in payload.go
	IngestedAt   int64       // unix ms when the listener persisted the row
	Source       EventSource
}

// Key returns the uniqueness key enforced by the event store.
func (e EventRecord) Key() (signature, eventName string, logIndex int) {
	return e.Signature, e.EventName, e.LogIndex
}

// EventKey is the comparable form of EventRecord.Key, usable as a map key.
type EventKey struct {
	Signature string
	EventName string
	LogIndex  int
}

// EventKeyOf builds the comparable key for an event record.
func EventKeyOf(e EventRecord) EventKey {
	return EventKey{Signature: e.Signature, EventName: e.EventName, LogIndex: e.LogIndex}
}

// Checkpoint is the last fully-processed (slot, signature) for a subscription key.
// Corresponds to the checkpoints table in PostgreSQL.
type Checkpoint struct {
	ProgramID     string
	EventName     string // empty when the checkpoint is program-granularity
	LastSlot      int64
	LastSignature string
	UpdatedAt     int64 // unix ms
}

// Key identifies a checkpoint row.
func (c Checkpoint) Key() string {
	if c.EventName == "" {
		return c.ProgramID
	}
	return c.ProgramID + "/" + c.EventName
}

// ScanStatus is the lifecycle state of a backfill scan.
type ScanStatus string

const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
	ScanCancelled ScanStatus = "cancelled"
)

// ScanRecord is an append-only audit row for one backfill run.
// Corresponds to the scan_records table in PostgreSQL.
type ScanRecord struct {
	ScanID                string
	ProgramID             string
	UntilSignature        string
	BeforeSignature       string
	UntilSlot             int64
	BeforeSlot            int64
	Status                ScanStatus
	EventsFound           int
	EventsBackfilledCount int
	BackfilledSignatures  []string
	StartedAt             int64
	CompletedAt           *int64
	ErrorMessage          *string
}
