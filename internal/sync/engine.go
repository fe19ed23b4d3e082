// Package sync drains the offline mutation queue against the server
// and hydrates the local store from it.
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	gosync "sync"
	"time"

	apperrors "github.com/fieldtime/fieldtime/internal/errors"
	"github.com/fieldtime/fieldtime/internal/logging"
	"github.com/fieldtime/fieldtime/internal/models"
	"github.com/fieldtime/fieldtime/internal/remote"
	"github.com/fieldtime/fieldtime/internal/telemetry"
)

// Store is the slice of the local store the engine depends on.
type Store interface {
	PendingQueue() ([]*models.QueueEntry, error)
	CompleteQueueEntry(id int64) error
	IncrementRetry(id int64) error
	QueueSize() (int, error)
	ClearQueue() error

	MarkSynced(id int64) error
	GetTimeEntry(id int64) (*models.TimeEntry, error)
	InsertDownloadedEntry(e *models.TimeEntry) (int64, error)
	FindByOwnerDateStart(userID, date string, startedMs int64) (*models.TimeEntry, error)
	ReplaceWithServer(id int64, e *models.TimeEntry) error
	RemoveLocalEntry(id int64) error

	UnsyncedModified(userID string) ([]*models.TimeEntry, error)
	DiscardQueueFor(targetID string) error
	HasPendingFor(targetID string) (bool, error)
	EnqueueUpdateSnapshot(e *models.TimeEntry) error

	TouchLastSync(email string) error
}

// Gateway is the transport the engine replays mutations through.
type Gateway interface {
	CreateEntry(ctx context.Context, payload *models.CreateEntryPayload) error
	UpdateEntry(ctx context.Context, id string, payload *models.UpdateEntryPayload) error
	DeleteEntry(ctx context.Context, id string) error
	FetchMonth(ctx context.Context, year int, month time.Month) ([]remote.ServerTimeEntry, error)
}

// Config holds engine tuning parameters.
type Config struct {
	MaxRetries int           // Attempts per queue entry before it is dropped
	BaseDelay  time.Duration // Linear backoff unit between failed entries
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
	}
}

// Engine replays queued mutations oldest-first and downloads recent
// server data. One Engine serves one database; concurrent drains are
// rejected, never queued.
type Engine struct {
	store   Store
	gateway Gateway

	maxRetries int
	baseDelay  time.Duration

	// Test seams. sleep spaces out retries, now drives month math.
	sleep func(time.Duration)
	now   func() time.Time

	// online is the connectivity probe, installed by the scheduler.
	online func() bool

	mu       gosync.Mutex
	draining bool
	lastSync time.Time
	lastErr  error

	handlerMu gosync.RWMutex
	handler   SyncEventHandler
}

// NewEngine creates an Engine. A nil config uses DefaultConfig.
func NewEngine(store Store, gateway Gateway, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		store:      store,
		gateway:    gateway,
		maxRetries: config.MaxRetries,
		baseDelay:  config.BaseDelay,
		sleep:      time.Sleep,
		now:        time.Now,
		online:     func() bool { return true },
	}
}

// SetOnlineProbe installs the connectivity probe consulted before any
// remote work.
func (e *Engine) SetOnlineProbe(probe func() bool) {
	if probe != nil {
		e.online = probe
	}
}

// SetEventHandler sets the event handler for sync notifications.
func (e *Engine) SetEventHandler(handler SyncEventHandler) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()
	e.handler = handler
}

func (e *Engine) emitEvent(event SyncEvent) {
	e.handlerMu.RLock()
	handler := e.handler
	e.handlerMu.RUnlock()

	if handler == nil {
		return
	}
	event.Timestamp = e.now()
	go handler.OnSyncEvent(event)
}

// Draining reports whether a drain pass is in flight.
func (e *Engine) Draining() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draining
}

// LastSync returns the time of the last successful drain, zero if none.
func (e *Engine) LastSync() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// LastError returns the most recent drain failure, nil after a clean
// pass.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	StartTime time.Time
	EndTime   time.Time
	Synced    int
	Failed    int
	Dropped   int
}

// Drain replays the pending queue against the server, oldest entry
// first, one attempt per entry. A pass already in flight is rejected
// immediately. One entry failing never aborts the pass; an auth
// failure does, since replaying cannot fix identity.
func (e *Engine) Drain(ctx context.Context) (*DrainResult, error) {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return nil, apperrors.New(apperrors.ErrSyncBusy, "drain already in progress")
	}
	e.draining = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.draining = false
		e.mu.Unlock()
	}()

	result := &DrainResult{StartTime: e.now()}
	e.emitEvent(SyncEvent{Type: SyncEventStarted})

	pending, err := e.store.PendingQueue()
	if err != nil {
		return e.finish(result, apperrors.Wrap(apperrors.ErrDatabase, "failed to load queue", err))
	}

	logging.Info("Drain started", map[string]interface{}{"pending": len(pending)})

	for _, entry := range pending {
		select {
		case <-ctx.Done():
			return e.finish(result, ctx.Err())
		default:
		}

		if entry.RetryCount >= e.maxRetries {
			if err := e.store.CompleteQueueEntry(entry.ID); err != nil {
				return e.finish(result, err)
			}
			result.Dropped++
			logging.Warn("Queue entry exhausted, dropping",
				map[string]interface{}{
					"queue_id":  entry.ID,
					"action":    string(entry.Action),
					"target_id": entry.TargetID,
					"retries":   entry.RetryCount,
				})
			e.emitEvent(SyncEvent{
				Type:     SyncEventEntryExhausted,
				QueueID:  entry.ID,
				TargetID: entry.TargetID,
			})
			continue
		}

		replayErr := e.replay(ctx, entry)
		if replayErr == nil {
			if err := e.store.CompleteQueueEntry(entry.ID); err != nil {
				return e.finish(result, err)
			}
			result.Synced++
			e.emitEvent(SyncEvent{
				Type:     SyncEventEntrySynced,
				QueueID:  entry.ID,
				TargetID: entry.TargetID,
			})
			continue
		}

		if remote.IsAuthError(replayErr) {
			logging.Error("Drain aborted on auth failure", replayErr,
				map[string]interface{}{"queue_id": entry.ID})
			return e.finish(result, apperrors.Wrap(apperrors.ErrSyncAuthFailed,
				"server rejected credentials", replayErr))
		}

		backoff := e.baseDelay * time.Duration(entry.RetryCount+1)
		if err := e.store.IncrementRetry(entry.ID); err != nil {
			return e.finish(result, err)
		}
		result.Failed++
		logging.Warn("Queue entry replay failed",
			map[string]interface{}{
				"queue_id": entry.ID,
				"action":   string(entry.Action),
				"retries":  entry.RetryCount + 1,
				"error":    replayErr.Error(),
			})
		e.emitEvent(SyncEvent{
			Type:     SyncEventEntryFailed,
			QueueID:  entry.ID,
			TargetID: entry.TargetID,
			Message:  replayErr.Error(),
		})

		// Linear backoff before moving on to the next entry.
		e.sleep(backoff)
	}

	return e.finish(result, nil)
}

// finish stamps the result, records the pass outcome, and emits the
// terminal event.
func (e *Engine) finish(result *DrainResult, err error) (*DrainResult, error) {
	result.EndTime = e.now()

	e.mu.Lock()
	e.lastErr = err
	if err == nil {
		e.lastSync = result.EndTime
	}
	e.mu.Unlock()

	telemetry.RecordTiming("sync.drain", result.EndTime.Sub(result.StartTime))
	telemetry.RecordCount("sync.entries_synced", int64(result.Synced))
	telemetry.RecordCount("sync.entries_failed", int64(result.Failed))
	telemetry.RecordCount("sync.entries_dropped", int64(result.Dropped))

	if err != nil {
		e.emitEvent(SyncEvent{Type: SyncEventFailed, Message: err.Error()})
		return result, err
	}

	logging.Info("Drain completed", map[string]interface{}{
		"synced":  result.Synced,
		"failed":  result.Failed,
		"dropped": result.Dropped,
	})
	e.emitEvent(SyncEvent{Type: SyncEventCompleted})
	return result, nil
}

// replay performs the remote call for one queue entry.
func (e *Engine) replay(ctx context.Context, entry *models.QueueEntry) error {
	kind, err := models.ParseCommand(entry.Action, entry.TableName)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSyncUnsupported, "cannot replay queue entry", err)
	}

	switch kind {
	case models.CmdCreateEntry:
		var payload models.CreateEntryPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("corrupt create payload: %w", err)
		}
		if err := payload.Validate(); err != nil {
			return apperrors.Wrap(apperrors.ErrValidation, "queued payload rejected", err)
		}
		if err := e.gateway.CreateEntry(ctx, &payload); err != nil {
			return err
		}
		e.markTargetSynced(entry.TargetID)
		return nil

	case models.CmdUpdateEntry:
		var payload models.UpdateEntryPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("corrupt update payload: %w", err)
		}
		if err := e.gateway.UpdateEntry(ctx, entry.TargetID, &payload); err != nil {
			return err
		}
		e.markTargetSynced(entry.TargetID)
		return nil

	case models.CmdDeleteEntry:
		return e.gateway.DeleteEntry(ctx, entry.TargetID)

	default:
		return apperrors.New(apperrors.ErrSyncUnsupported, kind.String())
	}
}

// markTargetSynced flips the local record's synced flag after a
// successful create/update replay. The remote call has already
// succeeded at this point, so failures here are logged, not retried;
// the record may also have been deleted locally since the queue row
// was written.
func (e *Engine) markTargetSynced(targetID string) {
	id, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		logging.Warn("Bad queue target id", map[string]interface{}{"target_id": targetID})
		return
	}
	if err := e.store.MarkSynced(id); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		logging.Error("Failed to mark entry synced", err,
			map[string]interface{}{"entry_id": id})
	}
}

// DownloadServerData hydrates the local store with the user's entries
// for the current month and the two before it, oldest month first.
// Entries already present locally, matched on owner, date, and start
// time, are skipped. Returns the number of inserted entries.
func (e *Engine) DownloadServerData(ctx context.Context, userID string) (int, error) {
	if !e.online() {
		return 0, apperrors.New(apperrors.ErrSyncOffline, "cannot download while offline")
	}

	e.emitEvent(SyncEvent{Type: SyncEventDownloadStarted})

	now := e.now()
	inserted := 0
	for back := 2; back >= 0; back-- {
		// First of the month keeps the arithmetic stable on day 29+.
		ref := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -back, 0)

		entries, err := e.gateway.FetchMonth(ctx, ref.Year(), ref.Month())
		if err != nil {
			return inserted, apperrors.Wrap(apperrors.ErrRemote,
				fmt.Sprintf("failed to fetch %04d-%02d", ref.Year(), int(ref.Month())), err)
		}

		for i := range entries {
			local, err := entries[i].ToTimeEntry(userID)
			if err != nil {
				return inserted, err
			}

			_, err = e.store.FindByOwnerDateStart(local.UserID, local.Date, local.TimeStarted)
			if err == nil {
				continue // already present
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return inserted, err
			}

			if _, err := e.store.InsertDownloadedEntry(local); err != nil {
				return inserted, err
			}
			inserted++
		}
	}

	if err := e.store.TouchLastSync(userID); err != nil {
		return inserted, err
	}

	telemetry.RecordCount("sync.entries_downloaded", int64(inserted))
	logging.Info("Download completed", map[string]interface{}{
		"user":     userID,
		"inserted": inserted,
	})
	e.emitEvent(SyncEvent{Type: SyncEventDownloadCompleted})
	return inserted, nil
}

// ResolutionPolicy selects which side of a conflict wins.
type ResolutionPolicy string

const (
	ResolveLocal  ResolutionPolicy = "local"
	ResolveServer ResolutionPolicy = "server"
)

// Conflicts returns the user's entries edited locally but not yet
// accepted by the server.
func (e *Engine) Conflicts(userID string) ([]*models.TimeEntry, error) {
	return e.store.UnsyncedModified(userID)
}

// Resolve settles a conflicted entry. Local keeps the device's fields
// and re-stages them for upload; server refetches the authoritative
// copy, overwriting or deleting the local record, and discards any
// pending mutations for it.
func (e *Engine) Resolve(ctx context.Context, id int64, policy ResolutionPolicy) error {
	entry, err := e.store.GetTimeEntry(id)
	if err != nil {
		return err
	}
	target := strconv.FormatInt(id, 10)

	switch policy {
	case ResolveLocal:
		pending, err := e.store.HasPendingFor(target)
		if err != nil {
			return err
		}
		if !pending {
			if err := e.store.EnqueueUpdateSnapshot(entry); err != nil {
				return err
			}
		}

	case ResolveServer:
		if !e.online() {
			return apperrors.New(apperrors.ErrSyncOffline, "cannot resolve from server while offline")
		}

		day, err := time.Parse(models.DateFormat, entry.Date)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, "stored entry has a bad date", err)
		}
		serverEntries, err := e.gateway.FetchMonth(ctx, day.Year(), day.Month())
		if err != nil {
			return apperrors.Wrap(apperrors.ErrRemote, "failed to fetch authoritative copy", err)
		}

		var authoritative *models.TimeEntry
		for i := range serverEntries {
			candidate, err := serverEntries[i].ToTimeEntry(entry.UserID)
			if err != nil {
				return err
			}
			if candidate.Date == entry.Date && candidate.TimeStarted == entry.TimeStarted {
				authoritative = candidate
				break
			}
		}

		if authoritative != nil {
			if err := e.store.ReplaceWithServer(id, authoritative); err != nil {
				return err
			}
		} else {
			// The server no longer has this entry; the local copy goes too.
			if err := e.store.RemoveLocalEntry(id); err != nil {
				return err
			}
		}
		if err := e.store.DiscardQueueFor(target); err != nil {
			return err
		}

	default:
		return apperrors.New(apperrors.ErrInvalid, fmt.Sprintf("unknown resolution policy %q", policy))
	}

	logging.Info("Conflict resolved", map[string]interface{}{
		"entry_id": id,
		"policy":   string(policy),
	})
	e.emitEvent(SyncEvent{
		Type:     SyncEventConflictResolved,
		TargetID: target,
		Message:  string(policy),
	})
	return nil
}

// Pending returns the number of queued mutations.
func (e *Engine) Pending() (int, error) {
	return e.store.QueueSize()
}

// ClearPending discards every queued mutation without replaying it.
// The records themselves are untouched.
func (e *Engine) ClearPending() error {
	logging.Warn("Discarding pending sync queue", nil)
	return e.store.ClearQueue()
}
