// Package db provides the Local Store: durable per-device persistence
// and the sole point at which mutations are translated into queue entries.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/fieldtime/fieldtime/internal/errors"
	"github.com/fieldtime/fieldtime/internal/models"
)

// Store provides CRUD operations for time entries, the cached user
// profile, and the sync queue. Every time-entry mutation writes its
// queue entry in the same transaction; a crash can never leave a
// persisted mutation without its queue row or vice versa.
type Store struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt

	// now returns the current time in unix milliseconds. Overridable
	// in tests to drive created/updated stamps deterministically.
	now func() int64
}

// NewStore creates a new Store instance.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: func() int64 { return time.Now().UnixMilli() },
	}
}

// PrepareStmt gets or creates a prepared statement from cache.
// Key is the query string, value is the prepared statement.
func (s *Store) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := s.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	// If already stored by another goroutine, use the existing one
	actual, loaded := s.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (s *Store) Close() error {
	var firstErr error
	s.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

const timeEntryColumns = `id, user_id, date, time_started, time_ended, studies,
	participated, comments, synced, created_at, updated_at`

// =====================================================
// TimeEntry Operations
// =====================================================

// AddTimeEntry persists a new local entry and its create queue row in
// one transaction. The entry is always created unsynced; the returned
// id is the locally-unique identifier assigned at insertion.
func (s *Store) AddTimeEntry(e *models.TimeEntry) (int64, error) {
	if !e.ValidInterval() {
		return 0, apperrors.New(apperrors.ErrValidation, "end time must be after start time")
	}
	if e.UserID == "" {
		return 0, apperrors.New(apperrors.ErrValidation, "owner id is required")
	}
	if _, err := time.Parse(models.DateFormat, e.Date); err != nil {
		return 0, apperrors.New(apperrors.ErrValidation, "date must be a calendar date")
	}

	now := s.now()
	e.Synced = false
	e.CreatedAt = now
	e.UpdatedAt = now

	studies, err := marshalStudies(e.Studies)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	INSERT INTO time_entries (user_id, date, time_started, time_ended, studies,
		participated, comments, synced, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.Date, e.TimeStarted, e.TimeEnded, studies,
		e.Participated, e.Comments, e.Synced, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert time entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	e.ID = id

	payload, err := json.Marshal(models.NewCreatePayload(e))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal queue payload: %w", err)
	}
	if err := enqueueTx(tx, models.ActionCreate, strconv.FormatInt(id, 10), payload, now); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// UpdateTimeEntry merges the changed fields into an existing entry and
// enqueues an update row carrying only those fields, in one transaction.
// Updating a missing id is an error; nothing is persisted or enqueued.
func (s *Store) UpdateTimeEntry(id int64, changes *models.UpdateEntryPayload) error {
	if changes == nil || changes.Empty() {
		return apperrors.New(apperrors.ErrValidation, "update carries no changed fields")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanTimeEntry(tx.QueryRow(
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("time entry not found: %d", id))
	}
	if err != nil {
		return fmt.Errorf("failed to load time entry: %w", err)
	}

	merged := *existing
	if changes.Date != nil {
		if _, err := time.Parse(models.DateFormat, *changes.Date); err != nil {
			return apperrors.New(apperrors.ErrValidation, "date must be a calendar date")
		}
		merged.Date = *changes.Date
	}
	if changes.TimeStarted != nil {
		merged.TimeStarted = *changes.TimeStarted
	}
	if changes.TimeEnded != nil {
		merged.TimeEnded = *changes.TimeEnded
	}
	if changes.Studies != nil {
		merged.Studies = *changes.Studies
	}
	if changes.Participated != nil {
		merged.Participated = *changes.Participated
	}
	if changes.Comments != nil {
		merged.Comments = *changes.Comments
	}

	// The interval invariant is checked on the merged record before
	// any persistence or queueing happens.
	if !merged.ValidInterval() {
		return apperrors.New(apperrors.ErrValidation, "end time must be after start time")
	}

	// The replay payload carries the duration recomputed from the
	// merged timestamps whenever either one changed.
	if changes.TimeStarted != nil || changes.TimeEnded != nil {
		d := merged.Duration()
		changes.Duration = &d
	}

	now := s.now()
	merged.Synced = false
	merged.UpdatedAt = now

	studies, err := marshalStudies(merged.Studies)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
	UPDATE time_entries
	SET date = ?, time_started = ?, time_ended = ?, studies = ?,
		participated = ?, comments = ?, synced = ?, updated_at = ?
	WHERE id = ?
	`, merged.Date, merged.TimeStarted, merged.TimeEnded, studies,
		merged.Participated, merged.Comments, merged.Synced, merged.UpdatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}

	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to marshal queue payload: %w", err)
	}
	if err := enqueueTx(tx, models.ActionUpdate, strconv.FormatInt(id, 10), payload, now); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteTimeEntry removes the entry and enqueues a delete row carrying
// only the identifier, in one transaction.
func (s *Store) DeleteTimeEntry(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("time entry not found: %d", id))
	}

	target := strconv.FormatInt(id, 10)
	payload, err := json.Marshal(map[string]string{"id": target})
	if err != nil {
		return fmt.Errorf("failed to marshal queue payload: %w", err)
	}
	if err := enqueueTx(tx, models.ActionDelete, target, payload, s.now()); err != nil {
		return err
	}

	return tx.Commit()
}

// InsertDownloadedEntry hydrates a server-originated entry. It is
// persisted already-synced and never produces a queue row.
func (s *Store) InsertDownloadedEntry(e *models.TimeEntry) (int64, error) {
	if !e.ValidInterval() {
		return 0, apperrors.New(apperrors.ErrValidation, "end time must be after start time")
	}

	now := s.now()
	e.Synced = true
	e.CreatedAt = now
	e.UpdatedAt = now

	studies, err := marshalStudies(e.Studies)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Exec(`
	INSERT INTO time_entries (user_id, date, time_started, time_ended, studies,
		participated, comments, synced, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, e.UserID, e.Date, e.TimeStarted, e.TimeEnded, studies,
		e.Participated, e.Comments, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert downloaded entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	e.ID = id
	return id, nil
}

// ReplaceWithServer overwrites a record with the server's authoritative
// fields and marks it synced. No queue row is written; the server copy
// is by definition already there.
func (s *Store) ReplaceWithServer(id int64, e *models.TimeEntry) error {
	studies, err := marshalStudies(e.Studies)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
	UPDATE time_entries
	SET date = ?, time_started = ?, time_ended = ?, studies = ?,
		participated = ?, comments = ?, synced = 1, updated_at = ?
	WHERE id = ?
	`, e.Date, e.TimeStarted, e.TimeEnded, studies,
		e.Participated, e.Comments, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to overwrite time entry: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("time entry not found: %d", id))
	}
	return nil
}

// RemoveLocalEntry deletes a record without queueing a delete for the
// server. Used when the server has already discarded its copy.
func (s *Store) RemoveLocalEntry(id int64) error {
	res, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove time entry: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("time entry not found: %d", id))
	}
	return nil
}

// GetTimeEntry retrieves a time entry by id.
func (s *Store) GetTimeEntry(id int64) (*models.TimeEntry, error) {
	stmt, err := s.PrepareStmt(`SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = ?`)
	if err != nil {
		return nil, err
	}
	e, err := scanTimeEntry(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("time entry not found: %d", id))
	}
	return e, err
}

// MarkSynced flips the synced flag after a successful replay. The
// modification stamp is left untouched; replay is not a user edit.
func (s *Store) MarkSynced(id int64) error {
	res, err := s.db.Exec(`UPDATE time_entries SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry synced: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("time entry not found: %d", id))
	}
	return nil
}

// EntriesInRange returns all entries for a user whose date falls within
// [start, end] inclusive, ordered by date then start time.
func (s *Store) EntriesInRange(userID, start, end string) ([]*models.TimeEntry, error) {
	stmt, err := s.PrepareStmt(`
	SELECT ` + timeEntryColumns + `
	FROM time_entries
	WHERE user_id = ? AND date >= ? AND date <= ?
	ORDER BY date, time_started`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeEntries(rows)
}

// EntriesForMonth returns a user's entries for one calendar month.
func (s *Store) EntriesForMonth(userID string, year int, month time.Month) ([]*models.TimeEntry, error) {
	start, end := monthBounds(year, month)
	return s.EntriesInRange(userID, start, end)
}

// FindByOwnerDateStart looks up an entry by the (owner, date, start)
// triple used for duplicate-avoidance on download. Returns
// sql.ErrNoRows when no local entry matches.
func (s *Store) FindByOwnerDateStart(userID, date string, startedMs int64) (*models.TimeEntry, error) {
	stmt, err := s.PrepareStmt(`
	SELECT ` + timeEntryColumns + `
	FROM time_entries
	WHERE user_id = ? AND date = ? AND time_started = ?
	LIMIT 1`)
	if err != nil {
		return nil, err
	}
	return scanTimeEntry(stmt.QueryRow(userID, date, startedMs))
}

// SearchByParticipant returns the user's entries for a calendar year
// whose participant list contains the fragment, case-insensitively.
// A blank fragment returns empty immediately without touching the
// database.
func (s *Store) SearchByParticipant(userID string, year int, fragment string) ([]*models.TimeEntry, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}

	start, end := yearBounds(year)
	entries, err := s.EntriesInRange(userID, start, end)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(fragment)
	var matched []*models.TimeEntry
	for _, e := range entries {
		for _, name := range e.Studies {
			if strings.Contains(strings.ToLower(name), needle) {
				matched = append(matched, e)
				break
			}
		}
	}
	return matched, nil
}

// Aggregate summarizes a set of entries: total duration in hours (one
// decimal), distinct participant count (case-insensitive), and whether
// any entry has the participation flag set.
type Aggregate struct {
	TotalHours   float64 `json:"total_hours"`
	StudiesCount int     `json:"studies_count"`
	Participated bool    `json:"participated"`
}

// MonthlyAggregate summarizes one calendar month for a user.
func (s *Store) MonthlyAggregate(userID string, year int, month time.Month) (*Aggregate, error) {
	entries, err := s.EntriesForMonth(userID, year, month)
	if err != nil {
		return nil, err
	}
	return aggregate(entries), nil
}

// YearlyAggregate summarizes one calendar year for a user.
func (s *Store) YearlyAggregate(userID string, year int) (*Aggregate, error) {
	start, end := yearBounds(year)
	entries, err := s.EntriesInRange(userID, start, end)
	if err != nil {
		return nil, err
	}
	return aggregate(entries), nil
}

func aggregate(entries []*models.TimeEntry) *Aggregate {
	agg := &Aggregate{}
	distinct := make(map[string]bool)
	var total float64

	for _, e := range entries {
		total += e.Duration()
		for _, name := range e.Studies {
			distinct[strings.ToLower(strings.TrimSpace(name))] = true
		}
		if e.Participated {
			agg.Participated = true
		}
	}

	agg.TotalHours = math.Round(total*10) / 10
	agg.StudiesCount = len(distinct)
	return agg
}

// =====================================================
// Queue Operations
// =====================================================

// enqueueTx appends a queue row inside the mutation's transaction.
func enqueueTx(tx *sql.Tx, action models.Action, targetID string, payload []byte, now int64) error {
	_, err := tx.Exec(`
	INSERT INTO sync_queue (action, table_name, target_id, retry_count, payload, created_at)
	VALUES (?, ?, ?, 0, ?, ?)
	`, string(action), models.TimeEntriesTable, targetID, string(payload), now)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", action, err)
	}
	return nil
}

// PendingQueue returns all queue entries, oldest first.
func (s *Store) PendingQueue() ([]*models.QueueEntry, error) {
	stmt, err := s.PrepareStmt(`
	SELECT id, action, table_name, target_id, retry_count, payload, created_at
	FROM sync_queue
	ORDER BY id`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		var q models.QueueEntry
		var action, payload string
		if err := rows.Scan(&q.ID, &action, &q.TableName, &q.TargetID,
			&q.RetryCount, &payload, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Action = models.Action(action)
		q.Payload = json.RawMessage(payload)
		entries = append(entries, &q)
	}
	return entries, rows.Err()
}

// CompleteQueueEntry removes a queue entry after successful replay or
// retry exhaustion.
func (s *Store) CompleteQueueEntry(id int64) error {
	res, err := s.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to complete queue entry: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("queue entry not found: %d", id))
	}
	return nil
}

// IncrementRetry bumps a queue entry's retry counter by exactly one.
func (s *Store) IncrementRetry(id int64) error {
	res, err := s.db.Exec(`UPDATE sync_queue SET retry_count = retry_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment retry: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("queue entry not found: %d", id))
	}
	return nil
}

// ClearQueue empties the queue without replaying. Data loss by design;
// used for an explicit "discard offline changes".
func (s *Store) ClearQueue() error {
	_, err := s.db.Exec(`DELETE FROM sync_queue`)
	if err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

// QueueSize returns the number of pending queue entries.
func (s *Store) QueueSize() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&n)
	return n, err
}

// DiscardQueueFor drops any pending queue rows targeting one record.
// Used when a conflict is resolved in the server's favor.
func (s *Store) DiscardQueueFor(targetID string) error {
	_, err := s.db.Exec(`DELETE FROM sync_queue WHERE table_name = ? AND target_id = ?`,
		models.TimeEntriesTable, targetID)
	if err != nil {
		return fmt.Errorf("failed to discard queue rows: %w", err)
	}
	return nil
}

// HasPendingFor reports whether any queue row targets the record.
func (s *Store) HasPendingFor(targetID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sync_queue WHERE table_name = ? AND target_id = ?`,
		models.TimeEntriesTable, targetID).Scan(&n)
	return n > 0, err
}

// EnqueueUpdateSnapshot re-stages a record for sync by appending an
// update queue row built from its current fields. The record itself is
// not modified.
func (s *Store) EnqueueUpdateSnapshot(e *models.TimeEntry) error {
	snapshot := models.NewCreatePayload(e)
	update := &models.UpdateEntryPayload{
		Date:         &snapshot.Date,
		TimeStarted:  &snapshot.TimeStarted,
		TimeEnded:    &snapshot.TimeEnded,
		Duration:     &snapshot.Duration,
		Studies:      &snapshot.Studies,
		Participated: &snapshot.Participated,
		Comments:     &snapshot.Comments,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal queue payload: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := enqueueTx(tx, models.ActionUpdate, strconv.FormatInt(e.ID, 10), payload, s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

// UnsyncedModified returns the user's entries that were edited after
// creation and have not reached the server: the conflict surface.
func (s *Store) UnsyncedModified(userID string) ([]*models.TimeEntry, error) {
	stmt, err := s.PrepareStmt(`
	SELECT ` + timeEntryColumns + `
	FROM time_entries
	WHERE user_id = ? AND synced = 0 AND updated_at > created_at
	ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeEntries(rows)
}

// =====================================================
// User Cache Operations
// =====================================================

// UpsertUser inserts or refreshes the cached profile keyed by email.
func (s *Store) UpsertUser(email, name string) error {
	if email == "" {
		return apperrors.New(apperrors.ErrValidation, "email is required")
	}
	_, err := s.db.Exec(`
	INSERT INTO users (email, name, last_sync_at) VALUES (?, ?, 0)
	ON CONFLICT(email) DO UPDATE SET name = excluded.name
	`, email, name)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// LookupUser retrieves a cached profile by email.
func (s *Store) LookupUser(email string) (*models.UserProfile, error) {
	stmt, err := s.PrepareStmt(`SELECT email, name, last_sync_at FROM users WHERE email = ?`)
	if err != nil {
		return nil, err
	}

	var u models.UserProfile
	err = stmt.QueryRow(email).Scan(&u.Email, &u.Name, &u.LastSyncAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("user not cached: %s", email))
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchLastSync stamps the user's last successful sync time, caching
// the profile first if it has never been seen.
func (s *Store) TouchLastSync(email string) error {
	now := s.now()
	res, err := s.db.Exec(`UPDATE users SET last_sync_at = ? WHERE email = ?`, now, email)
	if err != nil {
		return fmt.Errorf("failed to touch last sync: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		_, err = s.db.Exec(`INSERT INTO users (email, name, last_sync_at) VALUES (?, '', ?)`, email, now)
		if err != nil {
			return fmt.Errorf("failed to cache user on touch: %w", err)
		}
	}
	return nil
}

// =====================================================
// Helpers
// =====================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTimeEntry(row rowScanner) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var studies string
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.TimeStarted, &e.TimeEnded,
		&studies, &e.Participated, &e.Comments, &e.Synced, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(studies), &e.Studies); err != nil {
		return nil, fmt.Errorf("corrupt studies column for entry %d: %w", e.ID, err)
	}
	return &e, nil
}

func collectTimeEntries(rows *sql.Rows) ([]*models.TimeEntry, error) {
	var entries []*models.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalStudies(studies []string) (string, error) {
	if studies == nil {
		studies = []string{}
	}
	data, err := json.Marshal(studies)
	if err != nil {
		return "", fmt.Errorf("failed to marshal studies: %w", err)
	}
	return string(data), nil
}

// monthBounds returns the first and last date of a calendar month.
func monthBounds(year int, month time.Month) (string, string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(models.DateFormat), last.Format(models.DateFormat)
}

// yearBounds returns the first and last date of a calendar year.
func yearBounds(year int) (string, string) {
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year)
}
