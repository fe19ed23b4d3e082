package sync

import "time"

// SyncEventType identifies a sync lifecycle event.
type SyncEventType string

const (
	SyncEventStarted           SyncEventType = "started"
	SyncEventEntrySynced       SyncEventType = "entry_synced"
	SyncEventEntryFailed       SyncEventType = "entry_failed"
	SyncEventEntryExhausted    SyncEventType = "entry_exhausted"
	SyncEventCompleted         SyncEventType = "completed"
	SyncEventFailed            SyncEventType = "failed"
	SyncEventDownloadStarted   SyncEventType = "download_started"
	SyncEventDownloadCompleted SyncEventType = "download_completed"
	SyncEventConflictResolved  SyncEventType = "conflict_resolved"
)

// SyncEvent is a notification emitted during sync operations.
type SyncEvent struct {
	Type      SyncEventType `json:"type"`
	QueueID   int64         `json:"queue_id,omitempty"`
	TargetID  string        `json:"target_id,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// SyncEventHandler receives sync events. Handlers are called on their
// own goroutine and must not block indefinitely.
type SyncEventHandler interface {
	OnSyncEvent(event SyncEvent)
}
