package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	gosync "sync"
	"testing"
	"time"

	apperrors "github.com/fieldtime/fieldtime/internal/errors"
	"github.com/fieldtime/fieldtime/internal/models"
	"github.com/fieldtime/fieldtime/internal/remote"
)

// mockStore is an in-memory Store for engine tests.
type mockStore struct {
	mu      gosync.Mutex
	queue   []*models.QueueEntry
	entries map[int64]*models.TimeEntry

	retries      map[int64]int
	completed    []int64
	markedSynced []int64
	discarded    []string
	restaged     []int64
	replaced     map[int64]*models.TimeEntry
	removed      []int64
	touchedUsers []string
}

func newMockStore() *mockStore {
	return &mockStore{
		entries:  make(map[int64]*models.TimeEntry),
		retries:  make(map[int64]int),
		replaced: make(map[int64]*models.TimeEntry),
	}
}

func (m *mockStore) PendingQueue() ([]*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.QueueEntry, len(m.queue))
	copy(out, m.queue)
	return out, nil
}

func (m *mockStore) CompleteQueueEntry(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.queue {
		if q.ID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.completed = append(m.completed, id)
			return nil
		}
	}
	return apperrors.New(apperrors.ErrNotFound, "queue entry not found")
}

func (m *mockStore) IncrementRetry(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.queue {
		if q.ID == id {
			q.RetryCount++
			m.retries[id]++
			return nil
		}
	}
	return apperrors.New(apperrors.ErrNotFound, "queue entry not found")
}

func (m *mockStore) QueueSize() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue), nil
}

func (m *mockStore) ClearQueue() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	return nil
}

func (m *mockStore) MarkSynced(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return apperrors.New(apperrors.ErrNotFound, "time entry not found")
	}
	e.Synced = true
	m.markedSynced = append(m.markedSynced, id)
	return nil
}

func (m *mockStore) GetTimeEntry(id int64) (*models.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "time entry not found")
	}
	return e, nil
}

func (m *mockStore) InsertDownloadedEntry(e *models.TimeEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.entries) + 1)
	e.ID = id
	e.Synced = true
	m.entries[id] = e
	return id, nil
}

func (m *mockStore) FindByOwnerDateStart(userID, date string, startedMs int64) (*models.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.Date == date && e.TimeStarted == startedMs {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) ReplaceWithServer(id int64, e *models.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return apperrors.New(apperrors.ErrNotFound, "time entry not found")
	}
	m.replaced[id] = e
	return nil
}

func (m *mockStore) RemoveLocalEntry(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return apperrors.New(apperrors.ErrNotFound, "time entry not found")
	}
	delete(m.entries, id)
	m.removed = append(m.removed, id)
	return nil
}

func (m *mockStore) UnsyncedModified(userID string) ([]*models.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TimeEntry
	for _, e := range m.entries {
		if e.UserID == userID && !e.Synced && e.UpdatedAt > e.CreatedAt {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) DiscardQueueFor(targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.QueueEntry
	for _, q := range m.queue {
		if q.TargetID != targetID {
			kept = append(kept, q)
		}
	}
	m.queue = kept
	m.discarded = append(m.discarded, targetID)
	return nil
}

func (m *mockStore) HasPendingFor(targetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.queue {
		if q.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) EnqueueUpdateSnapshot(e *models.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaged = append(m.restaged, e.ID)
	m.queue = append(m.queue, &models.QueueEntry{
		ID:        int64(len(m.queue) + 100),
		Action:    models.ActionUpdate,
		TableName: models.TimeEntriesTable,
		TargetID:  strconv.FormatInt(e.ID, 10),
		Payload:   json.RawMessage(`{}`),
	})
	return nil
}

func (m *mockStore) TouchLastSync(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touchedUsers = append(m.touchedUsers, email)
	return nil
}

// mockGateway records calls and fails on demand.
type mockGateway struct {
	mu          gosync.Mutex
	createErr   error
	updateErr   error
	deleteErr   error
	fetchErr    error
	created     []models.CreateEntryPayload
	updated     []string
	deleted     []string
	fetched     []string
	monthlyData map[string][]remote.ServerTimeEntry // "2026-3" -> entries
}

func (g *mockGateway) CreateEntry(ctx context.Context, payload *models.CreateEntryPayload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return g.createErr
	}
	g.created = append(g.created, *payload)
	return nil
}

func (g *mockGateway) UpdateEntry(ctx context.Context, id string, payload *models.UpdateEntryPayload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateErr != nil {
		return g.updateErr
	}
	g.updated = append(g.updated, id)
	return nil
}

func (g *mockGateway) DeleteEntry(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *mockGateway) FetchMonth(ctx context.Context, year int, month time.Month) ([]remote.ServerTimeEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	key := fmt.Sprintf("%d-%d", year, int(month))
	g.fetched = append(g.fetched, key)
	return g.monthlyData[key], nil
}

// testEngine wires an engine with instant sleeps and a fixed clock.
func testEngine(store Store, gateway Gateway) (*Engine, *[]time.Duration) {
	engine := NewEngine(store, gateway, &Config{MaxRetries: 3, BaseDelay: 2 * time.Second})
	var slept []time.Duration
	engine.sleep = func(d time.Duration) { slept = append(slept, d) }
	engine.now = func() time.Time {
		return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return engine, &slept
}

func queuedCreate(id int64, target string, retries int) *models.QueueEntry {
	payload, _ := json.Marshal(&models.CreateEntryPayload{
		UserID:      "worker@example.com",
		Date:        "2026-03-10",
		TimeStarted: 1770800400000,
		TimeEnded:   1770813000000,
		Duration:    3.5,
		Studies:     []string{"Alice"},
	})
	return &models.QueueEntry{
		ID:         id,
		Action:     models.ActionCreate,
		TableName:  models.TimeEntriesTable,
		TargetID:   target,
		RetryCount: retries,
		Payload:    payload,
	}
}

// ===== Drain =====

func TestDrainRejectsConcurrentPass(t *testing.T) {
	engine, _ := testEngine(newMockStore(), &mockGateway{})

	engine.mu.Lock()
	engine.draining = true
	engine.mu.Unlock()

	_, err := engine.Drain(context.Background())
	if !apperrors.Is(err, apperrors.ErrSyncBusy) {
		t.Errorf("expected busy rejection, got %v", err)
	}
}

func TestDrainReplaysInOrder(t *testing.T) {
	store := newMockStore()
	store.entries[1] = &models.TimeEntry{ID: 1, UserID: "worker@example.com"}
	store.queue = []*models.QueueEntry{
		queuedCreate(10, "1", 0),
		{
			ID: 11, Action: models.ActionUpdate, TableName: models.TimeEntriesTable,
			TargetID: "1", Payload: json.RawMessage(`{"comments":"x"}`),
		},
		{
			ID: 12, Action: models.ActionDelete, TableName: models.TimeEntriesTable,
			TargetID: "2", Payload: json.RawMessage(`{"id":"2"}`),
		},
	}
	gateway := &mockGateway{}
	engine, slept := testEngine(store, gateway)

	result, err := engine.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if result.Synced != 3 || result.Failed != 0 || result.Dropped != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(gateway.created) != 1 || len(gateway.updated) != 1 || len(gateway.deleted) != 1 {
		t.Errorf("gateway calls: %d create, %d update, %d delete",
			len(gateway.created), len(gateway.updated), len(gateway.deleted))
	}
	if n, _ := store.QueueSize(); n != 0 {
		t.Errorf("queue should be drained, %d left", n)
	}
	// Entries are completed strictly oldest first.
	for i, want := range []int64{10, 11, 12} {
		if store.completed[i] != want {
			t.Errorf("completion order[%d] = %d, want %d", i, store.completed[i], want)
		}
	}
	// Create and update flip the local record; delete does not.
	if len(store.markedSynced) != 2 {
		t.Errorf("marked synced %v, want the create and update targets", store.markedSynced)
	}
	if len(*slept) != 0 {
		t.Errorf("clean pass should not back off, slept %v", *slept)
	}
	if engine.LastSync().IsZero() {
		t.Error("successful pass should stamp LastSync")
	}
}

func TestDrainFailureBacksOffLinearly(t *testing.T) {
	store := newMockStore()
	store.queue = []*models.QueueEntry{
		queuedCreate(10, "1", 0),
		queuedCreate(11, "2", 1),
	}
	gateway := &mockGateway{createErr: errors.New("connection refused")}
	engine, slept := testEngine(store, gateway)

	result, err := engine.Drain(context.Background())
	if err != nil {
		t.Fatalf("a failing entry must not abort the pass: %v", err)
	}
	if result.Failed != 2 {
		t.Errorf("failed = %d, want 2", result.Failed)
	}

	// Entries stay queued with bumped retry counters.
	if n, _ := store.QueueSize(); n != 2 {
		t.Errorf("failed entries must stay queued, %d left", n)
	}
	if store.retries[10] != 1 || store.retries[11] != 1 {
		t.Errorf("retries = %v, want one bump each", store.retries)
	}

	// Backoff scales with the entry's pre-bump retry count.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, (*slept)[i], want[i])
		}
	}
}

func TestDrainDropsExhaustedEntries(t *testing.T) {
	store := newMockStore()
	store.queue = []*models.QueueEntry{queuedCreate(10, "1", 3)}
	gateway := &mockGateway{}
	engine, slept := testEngine(store, gateway)

	result, err := engine.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if result.Dropped != 1 || result.Synced != 0 {
		t.Errorf("result = %+v", result)
	}
	// Exhausted entries are dropped without touching the server.
	if len(gateway.created) != 0 {
		t.Error("exhausted entry must not reach the gateway")
	}
	if n, _ := store.QueueSize(); n != 0 {
		t.Error("exhausted entry should be removed from the queue")
	}
	if len(*slept) != 0 {
		t.Error("dropping is not a failure, no backoff")
	}
}

func TestDrainAbortsOnAuthFailure(t *testing.T) {
	store := newMockStore()
	store.queue = []*models.QueueEntry{
		queuedCreate(10, "1", 0),
		queuedCreate(11, "2", 0),
	}
	gateway := &mockGateway{createErr: &remote.Error{StatusCode: http.StatusUnauthorized, Message: "bad token"}}
	engine, _ := testEngine(store, gateway)

	_, err := engine.Drain(context.Background())
	if !apperrors.Is(err, apperrors.ErrSyncAuthFailed) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	// The pass stops at the first entry; neither is retried.
	if store.retries[10] != 0 || store.retries[11] != 0 {
		t.Errorf("auth failures are not retryable, retries = %v", store.retries)
	}
	if n, _ := store.QueueSize(); n != 2 {
		t.Errorf("queue must be intact after abort, %d left", n)
	}
	if engine.LastError() == nil {
		t.Error("aborted pass should record its error")
	}
}

func TestDrainUnsupportedOperation(t *testing.T) {
	store := newMockStore()
	store.queue = []*models.QueueEntry{
		{
			ID: 10, Action: models.ActionCreate, TableName: "unknown_table",
			TargetID: "1", Payload: json.RawMessage(`{}`),
		},
	}
	gateway := &mockGateway{}
	engine, _ := testEngine(store, gateway)

	result, err := engine.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	// Unknown operations take the normal failure path.
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if store.retries[10] != 1 {
		t.Errorf("retries = %v, want one bump", store.retries)
	}
	if len(gateway.created) != 0 {
		t.Error("unsupported entry must not reach the gateway")
	}
}

func TestDrainRejectsInvalidQueuedPayload(t *testing.T) {
	store := newMockStore()
	payload, _ := json.Marshal(&models.CreateEntryPayload{
		Date: "2026-03-10", TimeStarted: 1, TimeEnded: 2, Studies: []string{},
	}) // missing owner
	store.queue = []*models.QueueEntry{
		{
			ID: 10, Action: models.ActionCreate, TableName: models.TimeEntriesTable,
			TargetID: "1", Payload: payload,
		},
	}
	gateway := &mockGateway{}
	engine, _ := testEngine(store, gateway)

	result, err := engine.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if len(gateway.created) != 0 {
		t.Error("invalid payload must not be uploaded")
	}
}

// ===== Events =====

type testEventHandler struct {
	mu     gosync.Mutex
	events []SyncEvent
}

func (h *testEventHandler) OnSyncEvent(event SyncEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *testEventHandler) types() []SyncEventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]SyncEventType, len(h.events))
	for i, e := range h.events {
		out[i] = e.Type
	}
	return out
}

func TestDrainEmitsEvents(t *testing.T) {
	store := newMockStore()
	store.entries[1] = &models.TimeEntry{ID: 1, UserID: "worker@example.com"}
	store.queue = []*models.QueueEntry{queuedCreate(10, "1", 0)}
	engine, _ := testEngine(store, &mockGateway{})

	handler := &testEventHandler{}
	engine.SetEventHandler(handler)

	if _, err := engine.Drain(context.Background()); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	// Handlers run on their own goroutine.
	time.Sleep(50 * time.Millisecond)

	types := handler.types()
	if len(types) != 3 {
		t.Fatalf("events = %v, want started/entry_synced/completed", types)
	}
	seen := make(map[SyncEventType]bool)
	for _, typ := range types {
		seen[typ] = true
	}
	for _, want := range []SyncEventType{SyncEventStarted, SyncEventEntrySynced, SyncEventCompleted} {
		if !seen[want] {
			t.Errorf("missing event %s in %v", want, types)
		}
	}
}

func TestSetEventHandlerNil(t *testing.T) {
	engine, _ := testEngine(newMockStore(), &mockGateway{})
	engine.SetEventHandler(nil)

	// Emitting with no handler must not panic.
	engine.emitEvent(SyncEvent{Type: SyncEventStarted})
	time.Sleep(10 * time.Millisecond)
}

// ===== Download =====

func serverEntry(date, start, end string, names ...string) remote.ServerTimeEntry {
	e := remote.ServerTimeEntry{
		Date:        date,
		TimeStarted: start,
		TimeEnded:   end,
	}
	for _, n := range names {
		e.Studies = append(e.Studies, struct {
			Name string `json:"name"`
		}{Name: n})
	}
	return e
}

func TestDownloadServerDataThreeMonths(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{
		monthlyData: map[string][]remote.ServerTimeEntry{
			"2026-1": {serverEntry("2026-01-05", "2026-01-05T09:00:00Z", "2026-01-05T10:00:00Z", "Alice")},
			"2026-3": {serverEntry("2026-03-02", "2026-03-02T09:00:00Z", "2026-03-02T11:00:00Z", "Bob")},
		},
	}
	engine, _ := testEngine(store, gateway)

	inserted, err := engine.DownloadServerData(context.Background(), "worker@example.com")
	if err != nil {
		t.Fatalf("DownloadServerData failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}

	// Clock is March 2026: January, February, March, oldest first.
	want := []string{"2026-1", "2026-2", "2026-3"}
	if len(gateway.fetched) != 3 {
		t.Fatalf("fetched months = %v", gateway.fetched)
	}
	for i := range want {
		if gateway.fetched[i] != want[i] {
			t.Errorf("fetch order[%d] = %s, want %s", i, gateway.fetched[i], want[i])
		}
	}

	if len(store.touchedUsers) != 1 || store.touchedUsers[0] != "worker@example.com" {
		t.Errorf("last sync stamp: %v", store.touchedUsers)
	}
	for _, e := range store.entries {
		if !e.Synced {
			t.Error("downloaded entries must be stored as synced")
		}
	}
}

func TestDownloadSkipsExistingEntries(t *testing.T) {
	store := newMockStore()
	existingStart := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC).UnixMilli()
	store.entries[1] = &models.TimeEntry{
		ID: 1, UserID: "worker@example.com", Date: "2026-03-02",
		TimeStarted: existingStart, Synced: true,
	}
	gateway := &mockGateway{
		monthlyData: map[string][]remote.ServerTimeEntry{
			"2026-3": {
				serverEntry("2026-03-02", "2026-03-02T09:00:00Z", "2026-03-02T11:00:00Z"),
				serverEntry("2026-03-03", "2026-03-03T09:00:00Z", "2026-03-03T11:00:00Z"),
			},
		},
	}
	engine, _ := testEngine(store, gateway)

	inserted, err := engine.DownloadServerData(context.Background(), "worker@example.com")
	if err != nil {
		t.Fatalf("DownloadServerData failed: %v", err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1 (the other already exists)", inserted)
	}
}

func TestDownloadWhileOffline(t *testing.T) {
	engine, _ := testEngine(newMockStore(), &mockGateway{})
	engine.SetOnlineProbe(func() bool { return false })

	_, err := engine.DownloadServerData(context.Background(), "worker@example.com")
	if !apperrors.Is(err, apperrors.ErrSyncOffline) {
		t.Errorf("expected offline rejection, got %v", err)
	}
}

func TestDownloadSurfacesFetchError(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{fetchErr: errors.New("boom")}
	engine, _ := testEngine(store, gateway)

	_, err := engine.DownloadServerData(context.Background(), "worker@example.com")
	if !apperrors.Is(err, apperrors.ErrRemote) {
		t.Errorf("expected remote error, got %v", err)
	}
	if len(store.touchedUsers) != 0 {
		t.Error("failed download must not stamp last sync")
	}
}

// ===== Conflict resolution =====

func conflictedEntry(id int64) *models.TimeEntry {
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC).UnixMilli()
	return &models.TimeEntry{
		ID: id, UserID: "worker@example.com", Date: "2026-03-02",
		TimeStarted: start, TimeEnded: start + 2*3600000,
		Studies: []string{"Alice"}, CreatedAt: 100, UpdatedAt: 200,
	}
}

func TestResolveLocalRestagesWhenNothingPending(t *testing.T) {
	store := newMockStore()
	store.entries[1] = conflictedEntry(1)
	engine, _ := testEngine(store, &mockGateway{})

	if err := engine.Resolve(context.Background(), 1, ResolveLocal); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(store.restaged) != 1 || store.restaged[0] != 1 {
		t.Errorf("expected entry re-staged, got %v", store.restaged)
	}
}

func TestResolveLocalKeepsExistingQueueRow(t *testing.T) {
	store := newMockStore()
	store.entries[1] = conflictedEntry(1)
	store.queue = []*models.QueueEntry{
		{
			ID: 10, Action: models.ActionUpdate, TableName: models.TimeEntriesTable,
			TargetID: "1", Payload: json.RawMessage(`{}`),
		},
	}
	engine, _ := testEngine(store, &mockGateway{})

	if err := engine.Resolve(context.Background(), 1, ResolveLocal); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(store.restaged) != 0 {
		t.Error("pending queue row already covers the entry, no re-stage")
	}
	if n, _ := store.QueueSize(); n != 1 {
		t.Errorf("queue size = %d, want 1", n)
	}
}

func TestResolveServerOverwritesFromAuthoritativeCopy(t *testing.T) {
	store := newMockStore()
	store.entries[1] = conflictedEntry(1)
	store.queue = []*models.QueueEntry{
		{
			ID: 10, Action: models.ActionUpdate, TableName: models.TimeEntriesTable,
			TargetID: "1", Payload: json.RawMessage(`{}`),
		},
	}
	gateway := &mockGateway{
		monthlyData: map[string][]remote.ServerTimeEntry{
			"2026-3": {serverEntry("2026-03-02", "2026-03-02T09:00:00Z", "2026-03-02T12:00:00Z", "Carol")},
		},
	}
	engine, _ := testEngine(store, gateway)

	if err := engine.Resolve(context.Background(), 1, ResolveServer); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	replaced, ok := store.replaced[1]
	if !ok {
		t.Fatal("local record should be overwritten with the server copy")
	}
	if len(replaced.Studies) != 1 || replaced.Studies[0] != "Carol" {
		t.Errorf("server fields not applied: %v", replaced.Studies)
	}
	if len(store.discarded) != 1 || store.discarded[0] != "1" {
		t.Errorf("pending mutations should be discarded, got %v", store.discarded)
	}
	if n, _ := store.QueueSize(); n != 0 {
		t.Errorf("queue size = %d, want 0", n)
	}
}

func TestResolveServerDeletesWhenServerHasNoCopy(t *testing.T) {
	store := newMockStore()
	store.entries[1] = conflictedEntry(1)
	gateway := &mockGateway{monthlyData: map[string][]remote.ServerTimeEntry{}}
	engine, _ := testEngine(store, gateway)

	if err := engine.Resolve(context.Background(), 1, ResolveServer); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(store.removed) != 1 || store.removed[0] != 1 {
		t.Errorf("local copy should be deleted, removed = %v", store.removed)
	}
	if len(store.discarded) != 1 {
		t.Error("pending mutations should be discarded even on delete")
	}
}

func TestResolveServerWhileOffline(t *testing.T) {
	store := newMockStore()
	store.entries[1] = conflictedEntry(1)
	engine, _ := testEngine(store, &mockGateway{})
	engine.SetOnlineProbe(func() bool { return false })

	err := engine.Resolve(context.Background(), 1, ResolveServer)
	if !apperrors.Is(err, apperrors.ErrSyncOffline) {
		t.Errorf("expected offline rejection, got %v", err)
	}
}

func TestResolveUnknownPolicy(t *testing.T) {
	store := newMockStore()
	store.entries[1] = conflictedEntry(1)
	engine, _ := testEngine(store, &mockGateway{})

	err := engine.Resolve(context.Background(), 1, ResolutionPolicy("merge"))
	if !apperrors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("expected invalid policy error, got %v", err)
	}
}

func TestResolveMissingEntry(t *testing.T) {
	engine, _ := testEngine(newMockStore(), &mockGateway{})
	err := engine.Resolve(context.Background(), 42, ResolveLocal)
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}
