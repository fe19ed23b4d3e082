package models

import (
	"encoding/json"
	"fmt"
)

// Action is the mutation kind recorded in a queue entry.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// TimeEntriesTable is the only table the sync engine replays today.
const TimeEntriesTable = "time_entries"

// QueueEntry is a durable record of one pending mutation awaiting
// replay against the server. IDs are assigned by the store in strictly
// increasing order; the engine drains entries oldest-first.
type QueueEntry struct {
	ID         int64           `db:"id" json:"id"`
	Action     Action          `db:"action" json:"action"`
	TableName  string          `db:"table_name" json:"table_name"`
	TargetID   string          `db:"target_id" json:"target_id"`
	RetryCount int             `db:"retry_count" json:"retry_count"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	CreatedAt  int64           `db:"created_at" json:"created_at"`
}

// QueueTableName returns the table name for QueueEntry.
func (QueueEntry) QueueTableName() string {
	return "sync_queue"
}

// CommandKind identifies a replayable (action, table) pair as a closed
// enumeration. New combinations are a compile-time decision.
type CommandKind int

const (
	CmdCreateEntry CommandKind = iota
	CmdUpdateEntry
	CmdDeleteEntry
)

// String returns a readable name for logging.
func (k CommandKind) String() string {
	switch k {
	case CmdCreateEntry:
		return "create time_entries"
	case CmdUpdateEntry:
		return "update time_entries"
	case CmdDeleteEntry:
		return "delete time_entries"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// ParseCommand maps a queue entry's (action, table) pair onto a
// CommandKind. Pairs outside the closed set are unsupported operations.
func ParseCommand(action Action, table string) (CommandKind, error) {
	if table != TimeEntriesTable {
		return 0, fmt.Errorf("unsupported operation: %s on table %q", action, table)
	}
	switch action {
	case ActionCreate:
		return CmdCreateEntry, nil
	case ActionUpdate:
		return CmdUpdateEntry, nil
	case ActionDelete:
		return CmdDeleteEntry, nil
	default:
		return 0, fmt.Errorf("unsupported operation: %s on table %q", action, table)
	}
}
